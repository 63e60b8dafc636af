// README: Dispatch handlers: driver availability and assignment for one booking.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtc/internal/http/middleware"
	"vtc/internal/modules/booking"
	"vtc/internal/modules/dispatch"
	"vtc/internal/types"
)

type Dispatcher interface {
	Availability(ctx context.Context, bookingID types.ID) (dispatch.Result, error)
	Assign(ctx context.Context, bookingID, driverID types.ID, actorID string) (*booking.Booking, error)
}

type DispatchHandler struct {
	dispatch Dispatcher
}

func NewDispatchHandler(svc Dispatcher) *DispatchHandler {
	return &DispatchHandler{dispatch: svc}
}

func (h *DispatchHandler) AvailableDrivers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.dispatch.Availability(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

type assignReq struct {
	DriverID string `json:"driverId" binding:"required"`
}

func (h *DispatchHandler) Assign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.DriverID) {
		writeError(c, http.StatusBadRequest, "driverId is required")
		return
	}
	b, err := h.dispatch.Assign(c.Request.Context(), id, types.ID(req.DriverID), middleware.CallerUID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}
