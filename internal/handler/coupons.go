package handler

import (
	"encoding/json"
	"net/http"

	"github.com/verbalize-ai/voice-platform/internal/middleware"
	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/internal/service"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

// CouponHandler handles coupon redemption.
type CouponHandler struct {
	coupons *service.CouponService
	logger  *logger.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(coupons *service.CouponService, log *logger.Logger) *CouponHandler {
	return &CouponHandler{
		coupons: coupons,
		logger:  log,
	}
}

// Redeem handles POST /api/v1/coupons/redeem
func (h *CouponHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)

	var req model.RedeemCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateCouponCode(req.Code); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bonus, err := h.coupons.Redeem(ctx, accountID, req.Code)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.RedeemCouponResponse{
		Success:      true,
		BonusCredits: bonus,
	})
}
