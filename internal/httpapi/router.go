package httpapi

import (
	"net/http"

	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/config"
	"github.com/aihub-ir/aihub/internal/httpapi/handlers"
	"github.com/aihub-ir/aihub/internal/httpapi/middleware"
	"github.com/aihub-ir/aihub/internal/store/rabbitmq"
	"github.com/aihub-ir/aihub/internal/store/redisstore"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, rds, pub)

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/auth/otp", h.RequestOTP)
	r.POST("/auth/verify", h.VerifyOTP)

	// public market snapshot
	r.GET("/market", h.GetMarketOverview)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	// chat (JWT required)
	authGroup.POST("/chat", h.SendChatMessage)
	authGroup.POST("/chat/stream", h.SendChatMessageStream)
	authGroup.GET("/chats", h.ListChats)
	authGroup.GET("/chats/:chat_id", h.GetChat)
	authGroup.DELETE("/chats/:chat_id", h.DeleteChat)

	// credits
	authGroup.GET("/credits", h.GetCredits)
	authGroup.GET("/credits/history", h.GetCreditHistory)
	authGroup.GET("/credits/packages", h.ListCreditPackages)
	authGroup.POST("/credits/purchase", h.PurchaseCredits)

	// media generation
	authGroup.POST("/generate/:kind", h.SubmitGenerationJob)
	authGroup.GET("/generate/jobs/:job_id", h.GetGenerationJob)

	return r
}
