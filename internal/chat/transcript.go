package chat

// Transcript mirrors the web client's local chat state machine: the user
// message is appended optimistically when a turn starts, assistant content
// accumulates in a draft while streaming, and only the terminal event
// decides whether the draft materializes or the optimistic message is rolled
// back. The server's event sequence is the contract between the two sides.
type Transcript struct {
	ChatID   string
	Messages []TranscriptMessage

	draft      string
	pendingIdx int
}

type TranscriptMessage struct {
	Role    string
	Content string
}

func NewTranscript() *Transcript {
	return &Transcript{pendingIdx: -1}
}

// BeginTurn optimistically appends the outgoing user message and resets the
// assistant draft. Starting a new turn implicitly abandons any prior draft.
func (t *Transcript) BeginTurn(userMessage string) {
	t.Messages = append(t.Messages, TranscriptMessage{Role: RoleUser, Content: userMessage})
	t.pendingIdx = len(t.Messages) - 1
	t.draft = ""
}

// Apply folds one stream event into the transcript.
func (t *Transcript) Apply(ev StreamEvent) {
	switch ev.Type {
	case EventChatID:
		t.ChatID = ev.ChatID
	case EventContent:
		t.draft += ev.Content
	case EventDone:
		// done is the only signal that materializes the assistant reply
		t.Messages = append(t.Messages, TranscriptMessage{Role: RoleAssistant, Content: t.draft})
		t.draft = ""
		t.pendingIdx = -1
	case EventError:
		// the optimistic user message is removed; the server may still have
		// persisted it, an accepted inconsistency
		if t.pendingIdx >= 0 && t.pendingIdx < len(t.Messages) {
			t.Messages = append(t.Messages[:t.pendingIdx], t.Messages[t.pendingIdx+1:]...)
		}
		t.draft = ""
		t.pendingIdx = -1
	}
}

// Abort drops the in-flight draft after a client-side cancellation. The
// optimistic user message stays in place.
func (t *Transcript) Abort() {
	t.draft = ""
	t.pendingIdx = -1
}

// Draft returns the assistant text accumulated so far for the active turn.
func (t *Transcript) Draft() string { return t.draft }
