package models

// ConnectionBinding maps a transport's logical channel to a session id.
// Two connections never share the same session row directly; mutation
// always routes through the session store.
type ConnectionBinding struct {
	ConnectionID string `json:"connectionId"`
	SessionID    string `json:"sessionId"`
}
