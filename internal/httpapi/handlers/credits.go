package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aihub-ir/aihub/internal/common"
	"github.com/aihub-ir/aihub/internal/credit"
	"github.com/gin-gonic/gin"
)

// GetCredits returns the current wallet balance.
func (h *Handler) GetCredits(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	balance, err := h.Ledger.Balance(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "خطا در دریافت اطلاعات")
		return
	}
	common.OK(c, gin.H{"credits": balance})
}

// GetCreditHistory returns the newest ledger entries for the user.
func (h *Handler) GetCreditHistory(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	txs, err := h.Ledger.Transactions(c.Request.Context(), uid, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50005, "خطا در دریافت اطلاعات")
		return
	}
	common.OK(c, gin.H{"transactions": txs})
}

// ListCreditPackages returns the purchasable credit bundles.
func (h *Handler) ListCreditPackages(c *gin.Context) {
	common.OK(c, gin.H{"packages": credit.Packages})
}

type purchaseReq struct {
	PackageID string `json:"package_id" binding:"required"`
}

// PurchaseCredits validates the package and hands back a payment URL.
// Gateway integration (Zarinpal, Pay.ir) is not wired yet; the URL is a
// placeholder the client redirects to.
func (h *Handler) PurchaseCredits(c *gin.Context) {
	if _, okk := userIDFromContext(c); !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "لطفا وارد شوید")
		return
	}

	var req purchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	pkg, okp := credit.FindPackage(req.PackageID)
	if !okp {
		common.Fail(c, http.StatusBadRequest, 10020, "پکیج نامعتبر است")
		return
	}

	common.OK(c, gin.H{
		"payment_url": fmt.Sprintf("/payment?package=%s", pkg.ID),
		"package":     pkg,
	})
}
