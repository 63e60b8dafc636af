// README: Back-office endpoint for per-km validation rates.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtc/internal/modules/pricing"
)

type RateSetter interface {
	SetRate(ctx context.Context, r pricing.Rate) error
}

type RateHandler struct {
	pricing RateSetter
}

func NewRateHandler(svc RateSetter) *RateHandler {
	return &RateHandler{pricing: svc}
}

type rateReq struct {
	RatePerKm float64 `json:"ratePerKm"`
}

func (h *RateHandler) Put(c *gin.Context) {
	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	category, err := pricing.ParseCategory(c.Param("category"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if err := h.pricing.SetRate(c.Request.Context(), pricing.Rate{Category: category, RatePerKm: req.RatePerKm}); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"category": category, "ratePerKm": req.RatePerKm})
}
