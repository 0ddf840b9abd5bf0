package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateChat(ctx context.Context, c *Chat) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetChat returns the chat only when owned by userID. An ownership mismatch
// is indistinguishable from non-existence.
func (r *Repo) GetChat(ctx context.Context, chatID string, userID uint64) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetChatWithMessages loads the chat scoped to its owner together with the
// full message history, oldest first.
func (r *Repo) GetChatWithMessages(ctx context.Context, chatID string, userID uint64) (*Chat, error) {
	c, err := r.GetChat(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := r.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	c.Messages = msgs
	return c, nil
}

// ListMessages returns all messages of a chat in insertion order.
func (r *Repo) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// InsertMessage appends a message and bumps the chat's updated_at so the
// sidebar ordering tracks activity.
func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&Chat{}).
			Where("id = ?", m.ChatID).
			Update("updated_at", time.Now()).Error
	})
}

// LatestMessage returns the most recent message of a chat, or nil when the
// chat is empty.
func (r *Repo) LatestMessage(ctx context.Context, chatID string) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListChats returns all chats owned by userID, most recently updated first.
func (r *Repo) ListChats(ctx context.Context, userID uint64) ([]Chat, error) {
	var chats []Chat
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// DeleteChat removes the chat and all its messages in one transaction.
// Returns gorm.ErrRecordNotFound when the chat is absent or not owned.
func (r *Repo) DeleteChat(ctx context.Context, chatID string, userID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Chat
		if err := tx.Where("id = ? AND user_id = ?", chatID, userID).First(&c).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}
