package eyes

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultCatalog_ParsesAllSixEntries(t *testing.T) {
	caps, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	for _, name := range []string{"sharingan", "jogan", "rinnegan", "mangekyo", "tenseigan", "byakugan"} {
		c, ok := caps[name]
		if !ok {
			t.Fatalf("expected catalog entry for %q", name)
		}
		if c.Name != name {
			t.Fatalf("expected Name to be populated from the map key, got %q", c.Name)
		}
	}
}

func TestParseCatalog_RejectsMalformedYAML(t *testing.T) {
	_, err := ParseCatalog([]byte("eyes: [this is not a map"))
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestCapabilityStore_GetReturnsZeroValueForUnknownName(t *testing.T) {
	store := NewCapabilityStore(nil)
	c := store.Get("ghost")
	if c.Name != "ghost" {
		t.Fatalf("expected zero-value capability named after the lookup, got %+v", c)
	}
}

func TestCapabilityStore_SetReplacesEntireCatalog(t *testing.T) {
	store := NewCapabilityStore(map[string]Capability{"a": {Name: "a", Phase: PhaseEntry}})
	store.Set(map[string]Capability{"b": {Name: "b", Phase: PhaseValidation}})

	if got := store.Get("a"); got.Phase != "" {
		t.Fatalf("expected %q to be gone after Set, got %+v", "a", got)
	}
	if got := store.Get("b"); got.Phase != PhaseValidation {
		t.Fatalf("expected %q to be present after Set, got %+v", "b", got)
	}
}

func TestWatchCatalog_ReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	initial := []byte("eyes:\n  probe:\n    version: \"1\"\n    phase: entry\n")
	if err := os.WriteFile(path, initial, 0o644); err != nil {
		t.Fatalf("write initial catalog: %v", err)
	}

	store := NewCapabilityStore(nil)
	r := NewRegistry(time.Second)
	r.Register(&stubEye{capability: Capability{Name: "probe", Phase: PhaseEntry}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := WatchCatalog(ctx, path, store, r, log); err != nil {
		t.Fatalf("WatchCatalog: %v", err)
	}

	if got := store.Get("probe").Phase; got != PhaseEntry {
		t.Fatalf("expected initial load to populate probe, got phase %q", got)
	}

	updated := []byte("eyes:\n  probe:\n    version: \"2\"\n    phase: validation\n")
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		t.Fatalf("write updated catalog: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Get("probe").Version == "2" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := store.Get("probe").Version; got != "2" {
		t.Fatalf("expected catalog reload to pick up version 2, got %q", got)
	}
}
