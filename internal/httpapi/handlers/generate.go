package handlers

import (
	"errors"
	"net/http"

	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/internal/genjob"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type generateReq struct {
	Prompt string `json:"prompt" binding:"required"`
}

// SubmitGenerationJob debits the kind's cost and queues a generation job.
func (h *Handler) SubmitGenerationJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	kind := genjob.Kind(c.Param("kind"))
	if _, okc := genjob.Cost(kind); !okc {
		common.Fail(c, http.StatusBadRequest, 10030, "نوع درخواست نامعتبر است")
		return
	}

	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10031, "توضیحات را وارد کنید")
		return
	}

	job, err := h.Jobs.Submit(c.Request.Context(), uid, kind, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, genjob.ErrEmptyPrompt):
			common.Fail(c, http.StatusBadRequest, 10031, "توضیحات را وارد کنید")
		case errors.Is(err, credit.ErrInsufficientCredits), errors.Is(err, credit.ErrUserNotFound):
			common.Fail(c, http.StatusPaymentRequired, 40201, "اعتبار کافی نیست")
		default:
			common.Fail(c, http.StatusInternalServerError, 50006, "خطا در ثبت درخواست")
		}
		return
	}

	common.OK(c, gin.H{"job": job})
}

// GetGenerationJob returns the job status; other users' jobs read as
// not-found.
func (h *Handler) GetGenerationJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	jobID := c.Param("job_id")
	job, err := h.Jobs.Get(c.Request.Context(), uid, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "درخواست یافت نشد")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50006, "خطا در دریافت اطلاعات")
		return
	}

	common.OK(c, gin.H{"job": job})
}
