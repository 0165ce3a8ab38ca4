package websocket

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventProgress Event = "progress"
	EventPong     Event = "pong"
)

// ProgressResponse carries one grading progress update. Payload is the
// event published by the grading aggregator, forwarded verbatim.
type ProgressResponse struct {
	Event   Event           `json:"event"`
	Payload ProgressPayload `json:"payload"`
}

// ProgressPayload mirrors the aggregator's published event.
type ProgressPayload struct {
	ExamID     string  `json:"exam_id"`
	ExamineeID string  `json:"examinee_id"`
	TotalScore float64 `json:"total_score"`
	Graded     int     `json:"graded"`
	Total      int     `json:"total"`
	Completed  bool    `json:"completed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// ─── Actions (Client → Server) ──────────────────────────────────────

// The progress stream is one-way apart from keepalive pings.
type Action string

const ActionPing Action = "ping"

type RequestEnvelope struct {
	Action Action `json:"action"`
}
