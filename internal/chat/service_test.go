package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aihub-ir/aihub/internal/ai"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/internal/models"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// fakeProvider replays a scripted stream: chunks in order, then an optional
// terminal error. It also serves the synchronous path.
type fakeProvider struct {
	chunks []string
	err    error
	last   []ai.Message
}

func (p *fakeProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	// copy to avoid mutations
	p.last = append([]ai.Message(nil), messages...)
	if p.err != nil {
		return "", p.err
	}
	return strings.Join(p.chunks, ""), nil
}

func (p *fakeProvider) StreamChat(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	p.last = append([]ai.Message(nil), messages...)
	chunks := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for _, c := range p.chunks {
			select {
			case chunks <- c:
			case <-ctx.Done():
				return
			}
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return chunks, errs
}

// tickingProvider emits chunks until the context is cancelled. Used to test
// client aborts mid-stream.
type tickingProvider struct{}

func (p *tickingProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	_ = messages
	return "tick", nil
}

func (p *tickingProvider) StreamChat(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	_ = messages
	chunks := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		for {
			select {
			case chunks <- "tick":
			case <-ctx.Done():
				return
			}
		}
	}()
	return chunks, errs
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &credit.Transaction{}, &Chat{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, credits int64) uint64 {
	t.Helper()
	u := models.User{Phone: fmt.Sprintf("0912%07d", time.Now().UnixNano()%10000000), Credits: credits}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func newTestService(t *testing.T, db *gorm.DB, prov ai.Provider) *Service {
	t.Helper()
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})
	return NewService(NewRepo(db), credit.NewLedger(db), reg, "fake")
}

func collectEvents(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for stream events, got %d so far", len(out))
		}
	}
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint64) int64 {
	t.Helper()
	var u models.User
	if err := db.First(&u, userID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.Credits
}

func TestStreamTurn_EventOrderingAndPersistence(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 100)
	prov := &fakeProvider{chunks: []string{"سلام", " دنیا"}}
	svc := newTestService(t, db, prov)

	events := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{Message: "سلام"}))

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != EventChatID || events[0].ChatID == "" {
		t.Fatalf("first event should carry the chat id, got %+v", events[0])
	}
	if events[1].Type != EventContent || events[1].Content != "سلام" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[2].Type != EventContent || events[2].Content != " دنیا" {
		t.Fatalf("unexpected third event: %+v", events[2])
	}
	if events[3].Type != EventDone {
		t.Fatalf("terminal event should be done, got %+v", events[3])
	}

	chatID := events[0].ChatID
	var msgs []Message
	if err := db.Where("chat_id = ?", chatID).Order("id ASC").Find(&msgs).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "سلام" {
		t.Fatalf("unexpected user msg: %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "سلام دنیا" {
		t.Fatalf("unexpected assistant msg: %+v", msgs[1])
	}

	// GPT4 default: base 1 + model 10
	if got := balanceOf(t, db, uid); got != 89 {
		t.Fatalf("expected balance 89 after debit, got %d", got)
	}
	var txs []credit.Transaction
	if err := db.Where("user_id = ?", uid).Find(&txs).Error; err != nil {
		t.Fatalf("query transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != -11 || txs[0].Kind != credit.KindUsage {
		t.Fatalf("expected one -11 usage row, got %+v", txs)
	}
}

func TestStreamTurn_ProviderError_KeepsUserMessageOnly(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 100)
	prov := &fakeProvider{chunks: []string{"نیم", "ه"}, err: errors.New("upstream closed")}
	svc := newTestService(t, db, prov)

	events := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{Message: "سلام"}))

	last := events[len(events)-1]
	if last.Type != EventError || last.Error == "" {
		t.Fatalf("terminal event should be error, got %+v", last)
	}
	for _, ev := range events[:len(events)-1] {
		if ev.Type == EventDone || ev.Type == EventError {
			t.Fatalf("terminal event emitted early: %+v", ev)
		}
	}

	chatID := events[0].ChatID
	var msgs []Message
	if err := db.Where("chat_id = ?", chatID).Find(&msgs).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("only the user message should be kept, got %+v", msgs)
	}
	if got := balanceOf(t, db, uid); got != 100 {
		t.Fatalf("failed turn must not be charged, balance=%d", got)
	}
}

func TestStreamTurn_ClientCancel_NoPersistNoDebit(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 100)
	svc := newTestService(t, db, &tickingProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	events := svc.StreamTurn(ctx, uid, TurnRequest{Message: "سلام"})

	var chatID string
	received := 0
	for ev := range events {
		if ev.Type == EventChatID {
			chatID = ev.ChatID
		}
		if ev.Type == EventContent {
			received++
			if received == 2 {
				cancel()
			}
		}
		if ev.Type == EventDone || ev.Type == EventError {
			t.Fatalf("aborted turn must not emit a terminal event, got %+v", ev)
		}
	}
	cancel()

	var msgs []Message
	if err := db.Where("chat_id = ?", chatID).Find(&msgs).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("abort should keep only the user message, got %+v", msgs)
	}
	if got := balanceOf(t, db, uid); got != 100 {
		t.Fatalf("aborted turn must not be charged, balance=%d", got)
	}
}

func TestStreamTurn_EmptyReplyUsesFallback(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 100)
	prov := &fakeProvider{}
	svc := newTestService(t, db, prov)

	events := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{Message: "سلام"}))

	last := events[len(events)-1]
	if last.Type != EventDone {
		t.Fatalf("terminal event should be done, got %+v", last)
	}

	var msgs []Message
	if err := db.Where("chat_id = ?", events[0].ChatID).Order("id ASC").Find(&msgs).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Content != noResponseFallback {
		t.Fatalf("expected fallback assistant message, got %+v", msgs)
	}
	if got := balanceOf(t, db, uid); got != 89 {
		t.Fatalf("completed turn is charged even with fallback, balance=%d", got)
	}
}

func TestStreamTurn_ExistingChatCarriesHistory(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 100)
	prov := &fakeProvider{chunks: []string{"دوم"}}
	svc := newTestService(t, db, prov)

	first := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{Message: "اول"}))
	chatID := first[0].ChatID

	prov.chunks = []string{"سوم"}
	second := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{ChatID: chatID, Message: "ادامه"}))
	if second[0].ChatID != chatID {
		t.Fatalf("expected the same chat, got %s", second[0].ChatID)
	}

	// system prompt, two history messages, then the new user message
	if len(prov.last) != 4 {
		t.Fatalf("expected 4 prompt messages, got %d: %+v", len(prov.last), prov.last)
	}
	if prov.last[0].Role != RoleSystem {
		t.Fatalf("prompt should start with the system message, got %+v", prov.last[0])
	}
	if prov.last[3].Role != RoleUser || prov.last[3].Content != "ادامه" {
		t.Fatalf("prompt should end with the new user message, got %+v", prov.last[3])
	}
}

func TestStreamTurn_UnknownChatIDStartsNewChat(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 100)
	svc := newTestService(t, db, &fakeProvider{chunks: []string{"ok"}})

	events := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{ChatID: "01UNKNOWNCHATID0000000000X", Message: "سلام"}))
	if events[0].ChatID == "" || events[0].ChatID == "01UNKNOWNCHATID0000000000X" {
		t.Fatalf("unknown chat id should start a fresh chat, got %q", events[0].ChatID)
	}
}

func TestStreamTurn_OtherUsersChatIsInvisible(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, 100)
	intruder := createUser(t, db, 100)
	svc := newTestService(t, db, &fakeProvider{chunks: []string{"ok"}})

	first := collectEvents(t, svc.StreamTurn(context.Background(), owner, TurnRequest{Message: "راز"}))
	ownerChat := first[0].ChatID

	second := collectEvents(t, svc.StreamTurn(context.Background(), intruder, TurnRequest{ChatID: ownerChat, Message: "سلام"}))
	if second[0].ChatID == ownerChat {
		t.Fatalf("intruder must not write into another user's chat")
	}

	if _, err := svc.GetChat(context.Background(), intruder, ownerChat); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("foreign chat should read as not found, got %v", err)
	}
}

func TestAuthorizeTurn(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db, &fakeProvider{})

	rich := createUser(t, db, 100)
	poor := createUser(t, db, 5)

	if _, err := svc.AuthorizeTurn(context.Background(), rich, TurnRequest{Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	required, err := svc.AuthorizeTurn(context.Background(), rich, TurnRequest{Message: "سلام"})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if required != 11 {
		t.Fatalf("expected default turn cost 11, got %d", required)
	}

	if _, err := svc.AuthorizeTurn(context.Background(), poor, TurnRequest{Message: "سلام"}); !errors.Is(err, credit.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	// unknown users read as balance zero
	if _, err := svc.AuthorizeTurn(context.Background(), 999999, TurnRequest{Message: "سلام"}); !errors.Is(err, credit.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits for unknown user, got %v", err)
	}
}

func TestSend_Synchronous(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 50)
	prov := &fakeProvider{chunks: []string{"پاسخ کامل"}}
	svc := newTestService(t, db, prov)

	chatID, reply, err := svc.Send(context.Background(), uid, TurnRequest{Message: "سوال", Model: "LLAMA"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "پاسخ کامل" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	var msgs []Message
	if err := db.Where("chat_id = ?", chatID).Order("id ASC").Find(&msgs).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	// LLAMA: base 1 + model 3
	if got := balanceOf(t, db, uid); got != 46 {
		t.Fatalf("expected balance 46, got %d", got)
	}
}

func TestListChats_PreviewAndOrdering(t *testing.T) {
	db := openTestDB(t)
	uid := createUser(t, db, 200)
	svc := newTestService(t, db, &fakeProvider{chunks: []string{"جواب"}})

	first := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{Message: "گفتگوی اول"}))
	second := collectEvents(t, svc.StreamTurn(context.Background(), uid, TurnRequest{Message: "گفتگوی دوم"}))

	chats, err := svc.ListChats(context.Background(), uid)
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("expected 2 chats, got %d", len(chats))
	}
	if chats[0].ID != second[0].ChatID {
		t.Fatalf("most recently active chat should come first")
	}
	if chats[0].LastMessage == nil || chats[0].LastMessage.Role != RoleAssistant {
		t.Fatalf("preview should be the latest message, got %+v", chats[0].LastMessage)
	}
	_ = first
}

func TestDeleteChat_ScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	owner := createUser(t, db, 100)
	other := createUser(t, db, 100)
	svc := newTestService(t, db, &fakeProvider{chunks: []string{"ok"}})

	events := collectEvents(t, svc.StreamTurn(context.Background(), owner, TurnRequest{Message: "حذف"}))
	chatID := events[0].ChatID

	if err := svc.DeleteChat(context.Background(), other, chatID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("foreign delete should read as not found, got %v", err)
	}
	if err := svc.DeleteChat(context.Background(), owner, chatID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var cnt int64
	if err := db.Model(&Message{}).Where("chat_id = ?", chatID).Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("messages should be removed with the chat, got %d", cnt)
	}
}
