// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vtc/internal/modules/booking"
	"vtc/internal/modules/dispatch"
	"vtc/internal/modules/driver"
	"vtc/internal/modules/pricing"
	"vtc/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

type transitionErrorResponse struct {
	Error     string           `json:"error"`
	Current   booking.Status   `json:"current"`
	Attempted booking.Status   `json:"attempted"`
	Allowed   []booking.Status `json:"allowed"`
}

type priceMismatchResponse struct {
	Error           string  `json:"error"`
	ClientPrice     float64 `json:"clientPrice"`
	CalculatedPrice float64 `json:"calculatedPrice"`
}

// isValidID accepts uuids and short operator-chosen ids.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return types.ID(id), true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDomainError(c *gin.Context, err error) {
	var te *booking.TransitionError
	if errors.As(err, &te) {
		allowed := te.Allowed
		if allowed == nil {
			allowed = []booking.Status{}
		}
		writeJSON(c, http.StatusConflict, transitionErrorResponse{
			Error:     te.Error(),
			Current:   te.Current,
			Attempted: te.Attempted,
			Allowed:   allowed,
		})
		return
	}
	var pm *pricing.PriceMismatchError
	if errors.As(err, &pm) {
		writeJSON(c, http.StatusUnprocessableEntity, priceMismatchResponse{
			Error:           pm.Error(),
			ClientPrice:     pm.ClientPrice,
			CalculatedPrice: pm.CalculatedPrice,
		})
		return
	}

	switch {
	case errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, pricing.ErrBadRequest),
		errors.Is(err, pricing.ErrInvalidCategory),
		errors.Is(err, driver.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, driver.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, dispatch.ErrDriverUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, pricing.ErrRouteUnavailable):
		writeError(c, http.StatusBadGateway, "routing provider unavailable")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func timePtrUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
