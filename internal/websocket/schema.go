package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionWarning Action = "warning"
	ActionPing    Action = "ping"
)

// RequestPayload is the single inbound message shape. Warning messages
// carry the kind field; ping carries nothing else.
type RequestPayload struct {
	Action Action `json:"action"`
	Kind   string `json:"kind,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventAck   Event = "ack"
	EventPong  Event = "pong"
)

// AckResponse confirms a warning event was queued.
type AckResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
