package models

import "time"

// User is created on first successful OTP verification. Credits is a cached
// projection of the transaction ledger and must only change through the
// credit package.
type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone     string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"phone"`
	Name      *string   `gorm:"type:varchar(64)" json:"name"`
	Credits   int64     `gorm:"not null;default:0" json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
