package handlers

import (
	"github.com/aihub-ir/aihub/internal/common"
	"github.com/gin-gonic/gin"
)

// GetMarketOverview returns the aggregated market snapshot. Public.
func (h *Handler) GetMarketOverview(c *gin.Context) {
	common.OK(c, h.Market.Overview())
}
