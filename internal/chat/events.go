package chat

// Stream event types. For every turn the first event is always chatId and
// the last is exactly one of done or error.
const (
	EventChatID  = "chatId"
	EventContent = "content"
	EventDone    = "done"
	EventError   = "error"
)

// StreamEvent is the JSON envelope pushed incrementally to the client during
// a streaming turn.
type StreamEvent struct {
	Type    string `json:"type"`
	ChatID  string `json:"chatId,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}
