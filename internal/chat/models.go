package chat

import (
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat is one assistant conversation, created lazily on the first message of
// a new session.
type Chat struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Model     string    `gorm:"type:varchar(16);not null" json:"model"`
	AgentType string    `gorm:"type:varchar(16);not null" json:"agent_type"`
	Title     string    `gorm:"type:varchar(64);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (Chat) TableName() string { return "chats" }

// Message is one turn half. Immutable once created; ordered by insertion for
// prompt reconstruction and display.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    string    `gorm:"size:26;index;not null" json:"chat_id"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

const (
	titleRuneLimit = 50
	titleEllipsis  = "..."
)

// DeriveTitle truncates the first user message to the title limit, counting
// runes so Persian text does not get split mid-character.
func DeriveTitle(seed string) string {
	seed = strings.TrimSpace(seed)
	runes := []rune(seed)
	if len(runes) <= titleRuneLimit {
		return seed
	}
	return string(runes[:titleRuneLimit]) + titleEllipsis
}
