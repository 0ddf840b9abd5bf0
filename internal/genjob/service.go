package genjob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/pkg/log"
	"gorm.io/gorm"
)

var (
	ErrUnknownKind = errors.New("unknown generation kind")
	ErrEmptyPrompt = errors.New("prompt is empty")
)

var debitDescriptions = map[Kind]string{
	KindImage: "ساخت تصویر",
	KindVideo: "ساخت ویدیو",
	KindVoice: "تبدیل متن به گفتار",
	KindMusic: "ساخت موسیقی",
}

// Publisher enqueues a job id for asynchronous processing.
type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Service struct {
	repo   *Repo
	ledger *credit.Ledger
	pub    Publisher
}

func NewService(repo *Repo, ledger *credit.Ledger, pub Publisher) *Service {
	return &Service{repo: repo, ledger: ledger, pub: pub}
}

// Submit debits the kind's cost up front, records a queued job, and enqueues
// it. If enqueueing fails the debit is refunded and the job marked failed.
func (s *Service) Submit(ctx context.Context, userID uint64, kind Kind, prompt string) (*Job, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	cost, ok := Cost(kind)
	if !ok {
		return nil, ErrUnknownKind
	}

	if err := s.ledger.Debit(ctx, userID, cost, debitDescriptions[kind]); err != nil {
		return nil, err
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	job := &Job{
		ID:     id,
		UserID: userID,
		Kind:   kind,
		Prompt: prompt,
		Status: StatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		s.refund(ctx, userID, cost, kind)
		return nil, err
	}

	if err := s.pub.PublishJob(ctx, job.ID); err != nil {
		log.Errorw("enqueue generation job failed", "job_id", job.ID, "user_id", userID, "error", err)
		_ = s.repo.MarkFailed(ctx, job.ID, "enqueue failed")
		s.refund(ctx, userID, cost, kind)
		job.Status = StatusFailed
		return job, nil
	}

	return job, nil
}

func (s *Service) refund(ctx context.Context, userID uint64, amount int64, kind Kind) {
	if err := s.ledger.Credit(ctx, userID, amount, credit.KindRefund, debitDescriptions[kind]); err != nil {
		log.Errorw("refund failed", "user_id", userID, "amount", amount, "error", err)
	}
}

// Get returns the job only when owned by userID; other users' jobs read as
// not-found.
func (s *Service) Get(ctx context.Context, userID uint64, jobID string) (*Job, error) {
	j, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return j, nil
}

// Process runs one queued job to a terminal state. Providers are invoked as
// opaque remote services; until those integrations land the worker attaches
// a placeholder asset URL.
// TODO: replace the placeholder asset with real provider output.
func (s *Service) Process(ctx context.Context, jobID string) error {
	if err := s.repo.MarkRunning(ctx, jobID); err != nil {
		return err
	}
	j, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	resultURL := fmt.Sprintf("https://assets.aihub.example/%s/%s", j.Kind, j.ID)
	if err := s.repo.MarkSucceeded(ctx, jobID, resultURL); err != nil {
		return err
	}
	return nil
}
