// README: Public quote endpoint.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtc/internal/modules/pricing"
)

type Quoter interface {
	Quote(ctx context.Context, cmd pricing.QuoteCommand) (pricing.Quote, error)
}

type QuoteHandler struct {
	pricing Quoter
}

func NewQuoteHandler(svc Quoter) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

type quoteReq struct {
	Origin          string  `json:"origin"`
	Destination     string  `json:"destination"`
	DistanceKm      float64 `json:"distanceKm"`
	DurationMinutes float64 `json:"durationMinutes"`
	VehicleCategory string  `json:"vehicleCategory" binding:"required"`
	IsRoundTrip     bool    `json:"isRoundTrip"`

	// RoundTripStrategy optionally overrides the configured formula.
	RoundTripStrategy string `json:"roundTripStrategy"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	category, err := pricing.ParseCategory(req.VehicleCategory)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	cmd := pricing.QuoteCommand{
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		Origin:          req.Origin,
		Destination:     req.Destination,
		Category:        category,
		IsRoundTrip:     req.IsRoundTrip,
	}
	if req.RoundTripStrategy != "" {
		strategy, err := pricing.ParseRoundTripStrategy(req.RoundTripStrategy)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		cmd.Strategy = strategy
	}

	q, err := h.pricing.Quote(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}
