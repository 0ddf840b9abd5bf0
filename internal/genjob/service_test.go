package genjob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/internal/models"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishJob(ctx context.Context, jobID string) error {
	_ = ctx
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, jobID)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &credit.Transaction{}, &Job{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, credits int64) uint64 {
	t.Helper()
	u := models.User{Phone: fmt.Sprintf("0912%07d", credits), Credits: credits}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func TestSubmit_DebitsAndQueues(t *testing.T) {
	db := openTestDB(t)
	pub := &fakePublisher{}
	svc := NewService(NewRepo(db), credit.NewLedger(db), pub)
	uid := seedUser(t, db, 100)

	job, err := svc.Submit(context.Background(), uid, KindImage, "یک گربه در فضا")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Len(t, job.ID, 26)
	require.Len(t, pub.published, 1)
	assert.Equal(t, job.ID, pub.published[0])

	var u models.User
	require.NoError(t, db.First(&u, uid).Error)
	assert.Equal(t, int64(80), u.Credits)
}

func TestSubmit_InsufficientCredits(t *testing.T) {
	db := openTestDB(t)
	pub := &fakePublisher{}
	svc := NewService(NewRepo(db), credit.NewLedger(db), pub)
	uid := seedUser(t, db, 10)

	_, err := svc.Submit(context.Background(), uid, KindVideo, "فیلم کوتاه")
	assert.ErrorIs(t, err, credit.ErrInsufficientCredits)
	assert.Empty(t, pub.published)

	var cnt int64
	require.NoError(t, db.Model(&Job{}).Count(&cnt).Error)
	assert.Zero(t, cnt)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), credit.NewLedger(db), &fakePublisher{})
	uid := seedUser(t, db, 100)

	_, err := svc.Submit(context.Background(), uid, KindImage, "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = svc.Submit(context.Background(), uid, Kind("hologram"), "یک چیزی")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSubmit_EnqueueFailureRefunds(t *testing.T) {
	db := openTestDB(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(NewRepo(db), credit.NewLedger(db), pub)
	uid := seedUser(t, db, 100)

	job, err := svc.Submit(context.Background(), uid, KindMusic, "قطعه آرام")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)

	var u models.User
	require.NoError(t, db.First(&u, uid).Error)
	assert.Equal(t, int64(100), u.Credits)

	var refunds int64
	require.NoError(t, db.Model(&credit.Transaction{}).
		Where("user_id = ? AND kind = ?", uid, credit.KindRefund).
		Count(&refunds).Error)
	assert.Equal(t, int64(1), refunds)
}

func TestGet_ScopedToOwner(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), credit.NewLedger(db), &fakePublisher{})
	owner := seedUser(t, db, 100)
	other := seedUser(t, db, 50)

	job, err := svc.Submit(context.Background(), owner, KindVoice, "متن نمونه")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = svc.Get(context.Background(), other, job.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProcess_RunsJobToSuccess(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(NewRepo(db), credit.NewLedger(db), &fakePublisher{})
	uid := seedUser(t, db, 100)

	job, err := svc.Submit(context.Background(), uid, KindImage, "منظره")
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), job.ID))

	got, err := NewRepo(db).GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	require.NotNil(t, got.ResultURL)
	assert.Contains(t, *got.ResultURL, job.ID)
}
