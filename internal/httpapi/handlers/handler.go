package handlers

import (
	"context"
	"net/http"

	"github.com/aihub-ir/aihub/internal/ai"
	"github.com/aihub-ir/aihub/internal/chat"
	"github.com/aihub-ir/aihub/internal/config"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/aihub-ir/aihub/internal/genjob"
	"github.com/aihub-ir/aihub/internal/httpapi/middleware"
	"github.com/aihub-ir/aihub/internal/market"
	"github.com/aihub-ir/aihub/internal/sms"
	"github.com/aihub-ir/aihub/internal/store/rabbitmq"
	"github.com/aihub-ir/aihub/internal/store/redisstore"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	Redis   *redisstore.Store
	SMS     *sms.Client
	Ledger  *credit.Ledger
	ChatSvc *chat.Service
	Jobs    *genjob.Service
	Market  *market.Service
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub *rabbitmq.Publisher) *Handler {
	ledger := credit.NewLedger(db)

	reg := ai.NewRegistry()
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOpenRouterProvider(
			cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	// local development backend; ignores the catalog model string
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	})

	chatSvc := chat.NewService(chat.NewRepo(db), ledger, reg, cfg.AIProvider)
	jobs := genjob.NewService(genjob.NewRepo(db), ledger, pub)

	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Redis:   rds,
		SMS:     sms.NewClient(cfg.KavenegarBaseURL, cfg.KavenegarAPIKey, cfg.KavenegarTemplate),
		Ledger:  ledger,
		ChatSvc: chatSvc,
		Jobs:    jobs,
		Market:  market.NewService(),
	}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
