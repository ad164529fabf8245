package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventPong         Event = "pong"
	EventProctorAlert Event = "proctor_alert"
)

// ProctorAlert wraps a raw proctor event payload forwarded to monitors.
// Payload is the event JSON as published on the assessment's channel.
type ProctorAlert struct {
	Event   Event  `json:"event"`
	Payload string `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
