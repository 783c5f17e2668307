package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thirdeye/overseer/internal/overseer"
)

func TestRoute_ParsesPlainJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"eyes_needed\":[\"sharingan\",\"jogan\"],\"reasoning\":\"needs clarification\",\"analysis\":\"thin intent\"}"}}]}`))
	}))
	defer server.Close()

	router := NewRouter(New(server.URL, "key", "model", time.Second))
	decision, err := router.Route(context.Background(), overseer.RoutingRequest{Intent: "fix it", Prompt: "route"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.EyesNeeded) != 2 || decision.EyesNeeded[0] != "sharingan" {
		t.Fatalf("unexpected eyes_needed: %v", decision.EyesNeeded)
	}
	if decision.Reasoning != "needs clarification" {
		t.Fatalf("unexpected reasoning: %q", decision.Reasoning)
	}
}

func TestRoute_StripsMarkdownCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"` +
			`` + "```" + `json\n{\"eyes_needed\":[],\"reasoning\":\"clear\",\"analysis\":\"\"}\n` + "```" +
			`"}}]}`))
	}))
	defer server.Close()

	router := NewRouter(New(server.URL, "key", "model", time.Second))
	decision, err := router.Route(context.Background(), overseer.RoutingRequest{Intent: "test", Prompt: "route"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.EyesNeeded) != 0 {
		t.Fatalf("expected empty eyes_needed, got %v", decision.EyesNeeded)
	}
}

func TestRoute_PropagatesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	router := NewRouter(New(server.URL, "key", "model", time.Second))
	_, err := router.Route(context.Background(), overseer.RoutingRequest{Intent: "test", Prompt: "route"})
	if err == nil {
		t.Fatal("expected an error when the provider fails")
	}
}

func TestRoute_RejectsMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"not json at all"}}]}`))
	}))
	defer server.Close()

	router := NewRouter(New(server.URL, "key", "model", time.Second))
	_, err := router.Route(context.Background(), overseer.RoutingRequest{Intent: "test", Prompt: "route"})
	if err == nil {
		t.Fatal("expected an error for malformed routing JSON")
	}
}
