package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aihub-ir/aihub/internal/auth"
	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/internal/models"
	"github.com/aihub-ir/aihub/pkg/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	welcomeBonusCredits = 50
	sessionTTL          = 30 * 24 * time.Hour
)

type requestOTPReq struct {
	Phone string `json:"phone" binding:"required"`
}

// RequestOTP generates a one-time code, stores its hash in Redis with a
// short TTL, and delivers it over SMS.
func (h *Handler) RequestOTP(c *gin.Context) {
	var req requestOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if !auth.ValidatePhone(req.Phone) {
		common.Fail(c, http.StatusBadRequest, 10010, "شماره موبایل معتبر نیست")
		return
	}
	phone := auth.NormalizePhone(req.Phone)

	code, err := auth.GenerateOTPCode()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "خطا در ارسال کد تایید")
		return
	}
	hash, err := auth.HashOTPCode(code)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "خطا در ارسال کد تایید")
		return
	}
	if err := h.Redis.SetOTP(c.Request.Context(), phone, hash); err != nil {
		log.Errorw("store otp failed", "phone", phone, "error", err)
		common.Fail(c, http.StatusInternalServerError, 20001, "خطا در ارسال کد تایید")
		return
	}

	// delivery failures are logged, not surfaced; the code stays valid in
	// case the SMS arrives late
	go func(phone, code string) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.SMS.SendOTP(ctx, phone, code); err != nil {
			log.Errorw("send otp sms failed", "phone", phone, "error", err)
		}
	}(phone, code)

	common.OK(c, gin.H{"message": "کد تایید ارسال شد"})
}

type verifyOTPReq struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOTP checks the submitted code, consumes it, finds or creates the
// user (first login gets the welcome bonus), and issues a session token.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if !auth.ValidatePhone(req.Phone) {
		common.Fail(c, http.StatusBadRequest, 10010, "شماره موبایل معتبر نیست")
		return
	}
	phone := auth.NormalizePhone(req.Phone)

	hash, err := h.Redis.GetOTP(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			common.Fail(c, http.StatusBadRequest, 10011, "کد تایید منقضی شده است")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20002, "redis error")
		return
	}
	if !auth.CheckOTPCode(hash, req.Code) {
		common.Fail(c, http.StatusBadRequest, 10012, "کد تایید نادرست است")
		return
	}
	_ = h.Redis.DeleteOTP(c.Request.Context(), phone)

	var user models.User
	err = h.DB.WithContext(c.Request.Context()).Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{Phone: phone}
		if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
			common.Fail(c, http.StatusInternalServerError, 20003, "failed to create user")
			return
		}
		// welcome bonus goes through the ledger so the balance stays a
		// projection of the transaction log
		if err := h.Ledger.Credit(c.Request.Context(), user.ID, welcomeBonusCredits, credit.KindBonus, "هدیه خوش‌آمدگویی"); err != nil {
			log.Errorw("welcome bonus failed", "user_id", user.ID, "error", err)
		}
		user.Credits = welcomeBonusCredits
	} else if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20004, "db error")
		return
	}

	token, err := auth.SignJWT(user.ID, h.Cfg.JWTSecret, sessionTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20005, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":      user.ID,
			"phone":   user.Phone,
			"name":    user.Name,
			"credits": user.Credits,
		},
	})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20004, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":         user.ID,
		"phone":      user.Phone,
		"name":       user.Name,
		"credits":    user.Credits,
		"created_at": user.CreatedAt,
	})
}
