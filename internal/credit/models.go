package credit

import "time"

type Kind string

const (
	KindPurchase Kind = "purchase"
	KindUsage    Kind = "usage"
	KindBonus    Kind = "bonus"
	KindRefund   Kind = "refund"
)

// Transaction is an append-only ledger row. Positive amounts credit the
// wallet, negative amounts debit it. Rows are never updated or deleted;
// users.credits is a cached projection of their sum.
type Transaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint64    `gorm:"index;not null" json:"-"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Kind        Kind      `gorm:"type:varchar(16);not null" json:"kind"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Transaction) TableName() string { return "credit_transactions" }
