// Package pipelinebus broadcasts per-session orchestration events to
// subscribed observers. It is explicitly single-process and in-memory:
// there is no cross-replica fan-out, matching this service's single-writer
// session model.
package pipelinebus

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/thirdeye/overseer/internal/models"
)

const (
	// DefaultRingSize is the number of retained events per session, used
	// to replay history to a newly attached subscriber.
	DefaultRingSize = 256
	// DefaultSubscriberQueueSize bounds how far a subscriber may lag
	// before its oldest undelivered event is dropped.
	DefaultSubscriberQueueSize = 64
)

// Bus owns one topic per session id.
type Bus struct {
	mu     sync.RWMutex
	topics map[string]*topic

	ringSize     int
	subQueueSize int
	onDrop       func(sessionID string)
}

func New() *Bus {
	return &Bus{
		topics:       make(map[string]*topic),
		ringSize:     DefaultRingSize,
		subQueueSize: DefaultSubscriberQueueSize,
	}
}

// OnDrop registers a callback invoked whenever a subscriber's oldest event
// is dropped for being full, so callers can feed a drop-counter metric.
func (b *Bus) OnDrop(fn func(sessionID string)) {
	b.onDrop = fn
}

func (b *Bus) getOrCreateTopic(sessionID string) *topic {
	b.mu.RLock()
	t, ok := b.topics[sessionID]
	b.mu.RUnlock()
	if ok {
		return t
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[sessionID]; ok {
		return t
	}
	t = newTopic(b.ringSize)
	b.topics[sessionID] = t
	return t
}

// Publish assigns the next monotonic sequence number for this session,
// appends the event to the ring and fans it out to subscribers.
func (b *Bus) Publish(sessionID string, eventType models.PipelineEventType, payload map[string]any) models.PipelineEvent {
	t := b.getOrCreateTopic(sessionID)
	event := t.publish(sessionID, eventType, payload, b.notifyDrop)
	return event
}

func (b *Bus) notifyDrop(sessionID string) {
	if b.onDrop != nil {
		b.onDrop(sessionID)
	}
}

// Subscribe attaches a new observer to a session's topic, replaying the
// ring buffer from lastSeenSeq (or from the oldest retained event when 0).
// The returned cancel func must be called to detach and release resources.
func (b *Bus) Subscribe(sessionID string, lastSeenSeq uint64) (<-chan models.PipelineEvent, func()) {
	t := b.getOrCreateTopic(sessionID)
	return t.subscribe(lastSeenSeq, b.subQueueSize)
}

// Close drops a session's topic and disconnects all of its subscribers.
func (b *Bus) Close(sessionID string) {
	b.mu.Lock()
	t, ok := b.topics[sessionID]
	delete(b.topics, sessionID)
	b.mu.Unlock()

	if ok {
		t.closeAll()
	}
}

// SubscriberCount reports how many observers are attached to a session.
func (b *Bus) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	t, ok := b.topics[sessionID]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	return t.subscriberCount()
}

type topic struct {
	mu          sync.Mutex
	ring        []models.PipelineEvent
	ringSize    int
	nextSeq     uint64
	subscribers map[string]*subscriber
	subCounter  uint64
}

func newTopic(ringSize int) *topic {
	return &topic{
		ring:        make([]models.PipelineEvent, 0, ringSize),
		ringSize:    ringSize,
		subscribers: make(map[string]*subscriber),
	}
}

type subscriber struct {
	ch      chan models.PipelineEvent
	dropped uint64
}

func (t *topic) publish(sessionID string, eventType models.PipelineEventType, payload map[string]any, onDrop func(string)) models.PipelineEvent {
	t.mu.Lock()
	t.nextSeq++
	event := models.PipelineEvent{
		SessionID: sessionID,
		Sequence:  t.nextSeq,
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	t.ring = append(t.ring, event)
	if len(t.ring) > t.ringSize {
		t.ring = t.ring[len(t.ring)-t.ringSize:]
	}

	subs := make([]*subscriber, 0, len(t.subscribers))
	for _, s := range t.subscribers {
		subs = append(subs, s)
	}
	t.mu.Unlock()

	for _, s := range subs {
		if dropped := deliver(s, event); dropped {
			onDrop(sessionID)
		}
	}

	return event
}

// deliver sends event to s's queue, dropping the oldest undelivered event
// and marking the next delivery as lossy if the queue is full.
func deliver(s *subscriber, event models.PipelineEvent) (droppedOne bool) {
	select {
	case s.ch <- event:
		return false
	default:
	}

	select {
	case <-s.ch:
		s.dropped++
		droppedOne = true
	default:
	}

	event.Dropped = s.dropped
	select {
	case s.ch <- event:
	default:
		// Still full immediately after making room: another publish raced
		// us. Leave the drop counted; the next successful delivery carries it.
	}
	return droppedOne
}

func (t *topic) subscribe(lastSeenSeq uint64, queueSize int) (<-chan models.PipelineEvent, func()) {
	t.mu.Lock()

	s := &subscriber{ch: make(chan models.PipelineEvent, queueSize)}
	t.subCounter++
	id := t.subCounter

	var replay []models.PipelineEvent
	for _, e := range t.ring {
		if e.Sequence > lastSeenSeq {
			replay = append(replay, e)
		}
	}

	key := subscriberKey(id)
	t.subscribers[key] = s
	t.mu.Unlock()

	for _, e := range replay {
		select {
		case s.ch <- e:
		default:
			slog.Warn("pipeline bus replay dropped event", "session_id", e.SessionID, "sequence", e.Sequence)
		}
	}

	cancel := func() {
		t.mu.Lock()
		delete(t.subscribers, key)
		t.mu.Unlock()
	}

	return s.ch, cancel
}

func (t *topic) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.subscribers {
		delete(t.subscribers, key)
	}
}

func (t *topic) subscriberCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

func subscriberKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}
