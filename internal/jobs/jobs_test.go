package jobs

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thirdeye/overseer/internal/models"
	"github.com/thirdeye/overseer/internal/quota"
	"github.com/thirdeye/overseer/internal/security"
	"github.com/thirdeye/overseer/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestReclamationLoop_Run(t *testing.T) {
	sessions := session.New(-time.Second) // every session is already stale
	sess := sessions.GetOrCreate("key_1", "tenant_1", "", models.LanguageAuto)
	_ = sess

	adminSessions := security.NewAdminSessionStore()
	guard := security.NewCSRFGuard("test-secret")
	if _, err := adminSessions.Create("admin_key_1", -time.Second, guard); err != nil {
		t.Fatalf("failed to create admin session: %v", err)
	}

	loop := NewReclamationLoop(sessions, adminSessions, testLogger())
	loop.Run(context.Background()) // must not panic on an empty or stale store
}

func TestQuotaJanitor_SkipsRedisBackedManager(t *testing.T) {
	redisManager := quota.NewRedisManager(nil, time.Minute)
	if j := NewQuotaJanitor(redisManager, testLogger()); j != nil {
		t.Errorf("expected nil janitor for a non-memory quota manager")
	}
}

func TestQuotaJanitor_SweepsIdleWindows(t *testing.T) {
	// Sub-buckets are at least one second wide regardless of the configured
	// window (see slidingWindow.bucketWidth), so the sleep below has to
	// cross a real second boundary for the window to register as idle.
	mem := quota.NewMemoryManager(time.Second)
	if _, err := mem.CheckAndIncrement(context.Background(), "tenant_1", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(2100 * time.Millisecond)

	janitor := NewQuotaJanitor(mem, testLogger())
	if janitor == nil {
		t.Fatal("expected a non-nil janitor for an in-memory quota manager")
	}
	janitor.Run(context.Background())

	usage, err := mem.GetUsage(context.Background(), "tenant_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage != 0 {
		t.Errorf("expected idle window to be swept, usage = %d", usage)
	}
}

func TestScheduler_EveryRunsRegisteredJob(t *testing.T) {
	scheduler, err := New(testLogger())
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}

	ran := make(chan struct{}, 1)
	if err := scheduler.Every("test-job", 10*time.Millisecond, func(ctx context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("failed to register job: %v", err)
	}

	scheduler.Start()
	defer scheduler.Shutdown()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run within 2s")
	}
}
