// Package genjob implements the placeholder generation pipeline for images,
// video, voice, and music: submit debits credits immediately and enqueues a
// job that reaches a terminal status asynchronously.
package genjob

import "time"

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindVoice Kind = "voice"
	KindMusic Kind = "music"
)

// Credit cost per submitted job.
var costs = map[Kind]int64{
	KindImage: 20,
	KindVideo: 50,
	KindVoice: 15,
	KindMusic: 30,
}

// Cost returns the credit cost for a job kind.
func Cost(kind Kind) (int64, bool) {
	c, ok := costs[kind]
	return c, ok
}

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	UserID uint64 `gorm:"index;not null" json:"-"`
	Kind   Kind   `gorm:"type:varchar(16);not null" json:"kind"`
	Prompt string `gorm:"type:text;not null" json:"prompt"`

	Status Status `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	ResultURL *string `gorm:"type:varchar(255)" json:"result_url"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "generation_jobs" }
