package pipelinebus

import (
	"testing"
	"time"

	"github.com/thirdeye/overseer/internal/models"
)

func TestPublishSubscribe_OrderedDelivery(t *testing.T) {
	bus := New()

	ch, cancel := bus.Subscribe("session-1", 0)
	defer cancel()

	bus.Publish("session-1", models.EventEyeResult, map[string]any{"eye": "sharingan"})
	bus.Publish("session-1", models.EventEyeResult, map[string]any{"eye": "jogan"})

	first := recvOrFail(t, ch)
	second := recvOrFail(t, ch)

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("expected sequences 1,2 got %d,%d", first.Sequence, second.Sequence)
	}
}

func TestSubscribe_ReplaysRingFromLastSeen(t *testing.T) {
	bus := New()

	bus.Publish("session-1", models.EventOrchestrationProgress, nil)
	bus.Publish("session-1", models.EventOrchestrationProgress, nil)
	bus.Publish("session-1", models.EventOrchestrationProgress, nil)

	ch, cancel := bus.Subscribe("session-1", 1)
	defer cancel()

	e := recvOrFail(t, ch)
	if e.Sequence != 2 {
		t.Fatalf("expected replay to start at sequence 2, got %d", e.Sequence)
	}
	e = recvOrFail(t, ch)
	if e.Sequence != 3 {
		t.Fatalf("expected sequence 3, got %d", e.Sequence)
	}
}

func TestSubscribe_NewSubscriberReplaysFromOldestRetained(t *testing.T) {
	bus := New()

	bus.Publish("session-1", models.EventOrchestrationProgress, nil)
	bus.Publish("session-1", models.EventOrchestrationProgress, nil)

	ch, cancel := bus.Subscribe("session-1", 0)
	defer cancel()

	e := recvOrFail(t, ch)
	if e.Sequence != 1 {
		t.Fatalf("expected replay from sequence 1, got %d", e.Sequence)
	}
}

func TestPublish_DropsOldestWhenSubscriberFull(t *testing.T) {
	bus := New()
	bus.subQueueSize = 2

	ch, cancel := bus.Subscribe("session-1", 0)
	defer cancel()

	bus.Publish("session-1", models.EventEyeResult, map[string]any{"n": 1})
	bus.Publish("session-1", models.EventEyeResult, map[string]any{"n": 2})
	bus.Publish("session-1", models.EventEyeResult, map[string]any{"n": 3})

	first := recvOrFail(t, ch)
	second := recvOrFail(t, ch)

	if first.Sequence != 2 {
		t.Fatalf("expected oldest (seq 1) to be dropped, got first delivered seq %d", first.Sequence)
	}
	if second.Dropped == 0 {
		t.Fatal("expected the event following a drop to carry a visible dropped marker")
	}
}

func TestClose_DisconnectsSubscribers(t *testing.T) {
	bus := New()
	bus.Subscribe("session-1", 0)

	if bus.SubscriberCount("session-1") != 1 {
		t.Fatal("expected one subscriber before close")
	}

	bus.Close("session-1")

	if bus.SubscriberCount("session-1") != 0 {
		t.Fatal("expected zero subscribers after close")
	}
}

func TestOnDrop_CallbackFires(t *testing.T) {
	bus := New()
	bus.subQueueSize = 1

	var dropped string
	bus.OnDrop(func(sessionID string) { dropped = sessionID })

	_, cancel := bus.Subscribe("session-1", 0)
	defer cancel()

	bus.Publish("session-1", models.EventEyeResult, nil)
	bus.Publish("session-1", models.EventEyeResult, nil)

	if dropped != "session-1" {
		t.Fatalf("expected drop callback for session-1, got %q", dropped)
	}
}

func recvOrFail(t *testing.T, ch <-chan models.PipelineEvent) models.PipelineEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.PipelineEvent{}
	}
}
