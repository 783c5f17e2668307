package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestHealthChecker_CachesResultAcrossCalls(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"choices":[{"message":{"content":"OK"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", time.Second)
	checker := NewHealthChecker(client, time.Minute)

	for i := 0; i < 5; i++ {
		healthy, err := checker.Check(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !healthy {
			t.Fatal("expected healthy result")
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one provider call, got %d", calls)
	}
}

func TestHealthChecker_CoalescesConcurrentMisses(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"OK"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", time.Second)
	checker := NewHealthChecker(client, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checker.Check(context.Background())
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected concurrent misses to coalesce into one call, got %d", calls)
	}
}

func TestHealthChecker_ReportsUnhealthyOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "key", "model", time.Second)
	checker := NewHealthChecker(client, time.Minute)

	healthy, err := checker.Check(context.Background())
	if err == nil {
		t.Fatal("expected an error from a failing provider")
	}
	if healthy {
		t.Fatal("expected unhealthy result")
	}
}
