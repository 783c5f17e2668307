package httpapi

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// pingInterval matches the teacher's WebSocket keepalive cadence.
const pingInterval = 30 * time.Second

// PipelineWebSocketHandler serves GET /ws/pipeline/{session_id}: it
// subscribes the connection to the session's pipeline bus topic and
// streams every event as a JSON frame until the client disconnects.
type PipelineWebSocketHandler struct {
	deps *Dependencies
}

func NewPipelineWebSocketHandler(deps *Dependencies) *PipelineWebSocketHandler {
	return &PipelineWebSocketHandler{deps: deps}
}

type clientMessage struct {
	Type string `json:"type"`
}

// Handle is registered behind websocket.New, matching the teacher's
// contrib/websocket usage for /ws/nexus and /ws/workflow.
func (h *PipelineWebSocketHandler) Handle(c *websocket.Conn) {
	sessionID, _ := c.Locals("session_id").(string)
	if sessionID == "" {
		c.WriteJSON(map[string]any{"type": "error", "data": map[string]string{"message": "missing session id"}})
		return
	}

	log := h.deps.Log.With("session_id", sessionID)
	log.Info("pipeline websocket connected")

	events, cancel := h.deps.Bus.Subscribe(sessionID, 0)
	defer cancel()
	if h.deps.Metrics != nil {
		h.deps.Metrics.PipelineSubscriptions.Inc()
		defer h.deps.Metrics.PipelineSubscriptions.Dec()
	}

	var writeMu sync.Mutex
	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }
	defer closeDone()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				writeMu.Lock()
				err := c.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if err != nil {
					closeDone()
					return
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-events:
				if !ok {
					closeDone()
					return
				}
				writeMu.Lock()
				err := c.WriteJSON(event)
				writeMu.Unlock()
				if err != nil {
					log.Warn("pipeline websocket write failed", "error", err)
					closeDone()
					return
				}
			}
		}
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			break
		}

		var cm clientMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			continue
		}
		if cm.Type == "ping" {
			writeMu.Lock()
			c.WriteJSON(map[string]string{"type": "pong"})
			writeMu.Unlock()
		}
	}

	log.Info("pipeline websocket disconnected")
}
