package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aihub-ir/aihub/internal/ai"
	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/pkg/log"
	"gorm.io/gorm"
)

var ErrEmptyMessage = errors.New("message is empty")

// Persian fallback shown when the provider finishes without emitting content.
const noResponseFallback = "متاسفانه پاسخی دریافت نشد"

const streamFailedMessage = "خطا در دریافت پاسخ"

// Service drives one chat turn end to end: advisory credit check, chat
// resolution, prompt assembly, generation, persistence, and the binding
// debit after the reply completes.
type Service struct {
	repo         *Repo
	ledger       *credit.Ledger
	registry     *ai.Registry
	providerName string
}

func NewService(repo *Repo, ledger *credit.Ledger, registry *ai.Registry, providerName string) *Service {
	if providerName == "" {
		providerName = "openrouter"
	}
	return &Service{repo: repo, ledger: ledger, registry: registry, providerName: providerName}
}

// TurnRequest is one inbound user turn. ChatID is empty for a new chat.
type TurnRequest struct {
	ChatID    string `json:"chatId"`
	Message   string `json:"message"`
	Model     string `json:"model"`
	AgentType string `json:"agentType"`
}

// AuthorizeTurn validates the request and performs the advisory balance
// check. The binding check-and-decrement happens after generation; a
// concurrent spender can still win the window in between, which is accepted
// and reconciled from logs.
func (s *Service) AuthorizeTurn(ctx context.Context, userID uint64, req TurnRequest) (int64, error) {
	if strings.TrimSpace(req.Message) == "" {
		return 0, ErrEmptyMessage
	}
	required := TurnCost(req.Model)
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < required {
		return 0, credit.ErrInsufficientCredits
	}
	return required, nil
}

// resolveChat loads the owner-scoped chat with history, or lazily creates a
// new one titled after the seed message when chatID is absent or unknown.
func (s *Service) resolveChat(ctx context.Context, userID uint64, req TurnRequest, modelKey, agentKey string) (*Chat, bool, error) {
	if req.ChatID != "" {
		c, err := s.repo.GetChatWithMessages(ctx, req.ChatID, userID)
		if err == nil {
			return c, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}
	c := &Chat{
		ID:        id,
		UserID:    userID,
		Model:     modelKey,
		AgentType: agentKey,
		Title:     DeriveTitle(req.Message),
	}
	if err := s.repo.CreateChat(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// buildPrompt assembles: persona system prompt, prior history oldest first,
// then the new user message.
func buildPrompt(systemPrompt string, history []Message, userMessage string) []ai.Message {
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: RoleSystem, Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, ai.Message{Role: RoleUser, Content: userMessage})
	return msgs
}

// StreamTurn runs one streaming turn. The returned channel emits the chatId
// event first, then content deltas, then exactly one of done or error; it is
// closed when the turn ends. Cancelling ctx mid-stream aborts the upstream
// call and skips persistence and debit for the assistant half.
func (s *Service) StreamTurn(ctx context.Context, userID uint64, req TurnRequest) <-chan StreamEvent {
	out := make(chan StreamEvent, 16)
	go func() {
		defer close(out)
		s.runStreamTurn(ctx, userID, req, out)
	}()
	return out
}

func (s *Service) runStreamTurn(ctx context.Context, userID uint64, req TurnRequest, out chan<- StreamEvent) {
	emit := func(ev StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	emitError := func(msg string) {
		emit(StreamEvent{Type: EventError, Error: msg})
	}

	modelKey, info := LookupModel(req.Model)
	agentKey, systemPrompt := LookupAgent(req.AgentType)
	required := BaseMessageCost + info.Cost

	chatSession, _, err := s.resolveChat(ctx, userID, req, modelKey, agentKey)
	if err != nil {
		log.Errorw("resolve chat failed", "user_id", userID, "chat_id", req.ChatID, "error", err)
		emitError("خطا در پردازش پیام")
		return
	}

	// The chat id goes out before any generated content so the client can
	// keep the session even if generation fails later.
	if !emit(StreamEvent{Type: EventChatID, ChatID: chatSession.ID}) {
		return
	}

	// The user message is kept even when generation fails afterwards.
	userMsg := &Message{ChatID: chatSession.ID, Role: RoleUser, Content: req.Message}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		log.Errorw("insert user message failed", "user_id", userID, "chat_id", chatSession.ID, "error", err)
		emitError("خطا در پردازش پیام")
		return
	}

	provider, err := s.registry.Get(ctx, s.providerName, info.ProviderModel)
	if err != nil {
		log.Errorw("provider lookup failed", "provider", s.providerName, "model", modelKey, "error", err)
		emitError(streamFailedMessage)
		return
	}
	sp, ok := provider.(ai.StreamProvider)
	if !ok {
		log.Errorw("provider does not support streaming", "provider", s.providerName)
		emitError(streamFailedMessage)
		return
	}

	chunks, errs := sp.StreamChat(ctx, buildPrompt(systemPrompt, chatSession.Messages, req.Message))

	var b strings.Builder
	for c := range chunks {
		b.WriteString(c)
		if !emit(StreamEvent{Type: EventContent, Content: c}) {
			return
		}
	}

	// Client cancellation: upstream was torn down by ctx, nothing is
	// persisted and nothing is debited.
	if ctx.Err() != nil {
		return
	}

	select {
	case err := <-errs:
		if err != nil {
			log.Errorw("provider stream failed",
				"user_id", userID, "chat_id", chatSession.ID, "model", modelKey, "error", err)
			emitError(streamFailedMessage)
			return
		}
	default:
	}

	// Finalizing: detached from the request context, cancellation is no
	// longer observed past this point.
	fctx := context.Background()

	reply := b.String()
	if strings.TrimSpace(reply) == "" {
		reply = noResponseFallback
	}
	if err := s.repo.InsertMessage(fctx, &Message{ChatID: chatSession.ID, Role: RoleAssistant, Content: reply}); err != nil {
		log.Errorw("insert assistant message failed", "user_id", userID, "chat_id", chatSession.ID, "error", err)
		emitError("خطا در پردازش پیام")
		return
	}

	if err := s.ledger.Debit(fctx, userID, required, fmt.Sprintf("پیام چت با مدل %s", modelKey)); err != nil {
		// The turn is already honored; the ledger gap is reconciled offline.
		log.Errorw("debit after completed turn failed",
			"user_id", userID, "chat_id", chatSession.ID, "model", modelKey, "amount", required, "error", err)
	}

	emit(StreamEvent{Type: EventDone})
}

// Send is the non-streaming variant: same authorization, persistence, and
// debit ordering, collapsed into one synchronous call.
func (s *Service) Send(ctx context.Context, userID uint64, req TurnRequest) (string, string, error) {
	modelKey, info := LookupModel(req.Model)
	agentKey, systemPrompt := LookupAgent(req.AgentType)
	required := BaseMessageCost + info.Cost

	chatSession, _, err := s.resolveChat(ctx, userID, req, modelKey, agentKey)
	if err != nil {
		return "", "", err
	}

	userMsg := &Message{ChatID: chatSession.ID, Role: RoleUser, Content: req.Message}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return "", "", err
	}

	provider, err := s.registry.Get(ctx, s.providerName, info.ProviderModel)
	if err != nil {
		return "", "", err
	}

	reply, err := provider.Chat(ctx, buildPrompt(systemPrompt, chatSession.Messages, req.Message))
	if err != nil {
		log.Errorw("provider call failed",
			"user_id", userID, "chat_id", chatSession.ID, "model", modelKey, "error", err)
		return "", "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = noResponseFallback
	}

	if err := s.repo.InsertMessage(ctx, &Message{ChatID: chatSession.ID, Role: RoleAssistant, Content: reply}); err != nil {
		return "", "", err
	}

	if err := s.ledger.Debit(ctx, userID, required, fmt.Sprintf("پیام چت با مدل %s", modelKey)); err != nil {
		log.Errorw("debit after completed turn failed",
			"user_id", userID, "chat_id", chatSession.ID, "model", modelKey, "amount", required, "error", err)
	}

	return chatSession.ID, reply, nil
}

// GetChat returns the owner-scoped chat with its full ordered history.
func (s *Service) GetChat(ctx context.Context, userID uint64, chatID string) (*Chat, error) {
	return s.repo.GetChatWithMessages(ctx, chatID, userID)
}

// ChatSummary is a sidebar entry: the chat plus a one-message preview.
type ChatSummary struct {
	Chat
	LastMessage *Message `json:"last_message"`
}

// ListChats returns the user's chats, most recently updated first, each with
// its latest message as a preview.
func (s *Service) ListChats(ctx context.Context, userID uint64) ([]ChatSummary, error) {
	chats, err := s.repo.ListChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		last, err := s.repo.LatestMessage(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ChatSummary{Chat: c, LastMessage: last})
	}
	return summaries, nil
}

// DeleteChat deletes the chat and its messages when owned by userID.
func (s *Service) DeleteChat(ctx context.Context, userID uint64, chatID string) error {
	return s.repo.DeleteChat(ctx, chatID, userID)
}
