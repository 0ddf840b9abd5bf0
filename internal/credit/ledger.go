// Package credit owns the per-user wallet balance and its append-only
// transaction ledger.
package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/aihub-ir/aihub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrTransactionFailed   = errors.New("credit transaction failed")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Balance reads the cached balance projection. A missing user reads as 0
// rather than failing, matching how pre-checks treat unknown accounts.
func (l *Ledger) Balance(ctx context.Context, userID uint64) (int64, error) {
	var user models.User
	err := l.db.WithContext(ctx).Select("credits").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// Debit atomically verifies balance >= amount, decrements the balance, and
// appends a negative usage row. The check-and-decrement is a single
// conditional UPDATE inside one transaction so two overlapping debits can
// never drive the balance negative.
func (l *Ledger) Debit(ctx context.Context, userID uint64, amount int64, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND credits >= ?", userID, amount).
			Update("credits", gorm.Expr("credits - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientCredits
		}
		return tx.Create(&Transaction{
			UserID:      userID,
			Amount:      -amount,
			Kind:        KindUsage,
			Description: description,
		}).Error
	})

	if err == nil || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInsufficientCredits) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

// Credit atomically increments the balance and appends a positive row of the
// given kind (purchase, bonus, refund).
func (l *Ledger) Credit(ctx context.Context, userID uint64, amount int64, kind Kind, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Create(&Transaction{
			UserID:      userID,
			Amount:      amount,
			Kind:        kind,
			Description: description,
		}).Error
	})

	if err == nil || errors.Is(err, ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

// Transactions returns the newest ledger rows for a user, bounded by limit.
func (l *Ledger) Transactions(ctx context.Context, userID uint64, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var txs []Transaction
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}
