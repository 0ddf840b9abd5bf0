package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aihub-ir/aihub/internal/chat"
	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// authorizeTurn runs the shared pre-stream checks and writes the error
// response itself when they fail.
func (h *Handler) authorizeTurn(c *gin.Context) (uint64, chat.TurnRequest, bool) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return 0, chat.TurnRequest{}, false
	}

	var req chat.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return 0, chat.TurnRequest{}, false
	}

	if _, err := h.ChatSvc.AuthorizeTurn(c.Request.Context(), uid, req); err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			common.Fail(c, http.StatusBadRequest, 10002, "پیام خالی است")
		case errors.Is(err, credit.ErrInsufficientCredits):
			common.Fail(c, http.StatusPaymentRequired, 40201, "اعتبار کافی نیست")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "خطا در پردازش پیام")
		}
		return 0, chat.TurnRequest{}, false
	}
	return uid, req, true
}

// SendChatMessage is the synchronous turn endpoint: one request, one full
// assistant reply.
func (h *Handler) SendChatMessage(c *gin.Context) {
	uid, req, okk := h.authorizeTurn(c)
	if !okk {
		return
	}

	chatID, reply, err := h.ChatSvc.Send(c.Request.Context(), uid, req)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "خطا در پردازش پیام")
		return
	}

	common.OK(c, gin.H{
		"chat_id": chatID,
		"message": reply,
	})
}

// SendChatMessageStream pushes the turn as a server-sent event stream. All
// pre-stream failures are plain HTTP errors; once streaming has begun,
// failures arrive as a terminal error event instead.
func (h *Handler) SendChatMessageStream(c *gin.Context) {
	uid, req, okk := h.authorizeTurn(c)
	if !okk {
		return
	}

	flusher, okf := c.Writer.(http.Flusher)
	if !okf {
		common.Fail(c, http.StatusInternalServerError, 50002, "streaming unsupported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	events := h.ChatSvc.StreamTurn(c.Request.Context(), uid, req)
	for ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
}

// GetChat returns one chat with its full ordered history.
func (h *Handler) GetChat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	chatID := c.Param("chat_id")
	cs, err := h.ChatSvc.GetChat(c.Request.Context(), uid, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "گفتگو یافت نشد")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "خطا در دریافت گفتگوها")
		return
	}

	common.OK(c, cs)
}

// ListChats returns the user's chats with a one-message preview each.
func (h *Handler) ListChats(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	chats, err := h.ChatSvc.ListChats(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "خطا در دریافت گفتگوها")
		return
	}

	common.OK(c, gin.H{"chats": chats})
}

// DeleteChat removes a chat and all its messages.
func (h *Handler) DeleteChat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	chatID := c.Param("chat_id")
	if err := h.ChatSvc.DeleteChat(c.Request.Context(), uid, chatID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "گفتگو یافت نشد")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "خطا در حذف گفتگو")
		return
	}

	common.OK(c, gin.H{"deleted": true})
}
