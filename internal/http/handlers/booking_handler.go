// README: Booking handlers: public creation and back-office status management.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vtc/internal/http/middleware"
	"vtc/internal/modules/booking"
	"vtc/internal/modules/pricing"
	"vtc/internal/types"
)

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	ListForDay(ctx context.Context, day time.Time) ([]*booking.Booking, error)
	Transition(ctx context.Context, cmd booking.TransitionCommand) (*booking.Booking, error)
	Location() *time.Location
}

type BookingHandler struct {
	booking BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type bookingResp struct {
	ID                       types.ID         `json:"id"`
	CustomerName             string           `json:"customerName"`
	CustomerPhone            string           `json:"customerPhone"`
	Pickup                   string           `json:"pickup"`
	Dropoff                  string           `json:"dropoff"`
	ScheduledDate            *time.Time       `json:"scheduledDate"`
	EstimatedDurationMinutes *int             `json:"estimatedDurationMinutes"`
	Status                   booking.Status   `json:"status"`
	DriverID                 *types.ID        `json:"driverId"`
	VehicleCategory          pricing.Category `json:"vehicleCategory"`
	IsRoundTrip              bool             `json:"isRoundTrip"`
	DistanceKm               float64          `json:"distanceKm"`
	Price                    float64          `json:"price"`
	CreatedAt                time.Time        `json:"createdAt"`
	UpdatedAt                time.Time        `json:"updatedAt"`
}

func toBookingResp(b *booking.Booking) bookingResp {
	return bookingResp{
		ID:                       b.ID,
		CustomerName:             b.CustomerName,
		CustomerPhone:            b.CustomerPhone,
		Pickup:                   b.Pickup,
		Dropoff:                  b.Dropoff,
		ScheduledDate:            timePtrUTC(b.ScheduledDate),
		EstimatedDurationMinutes: b.EstimatedDurationMinutes,
		Status:                   b.Status,
		DriverID:                 b.DriverID,
		VehicleCategory:          b.VehicleCategory,
		IsRoundTrip:              b.IsRoundTrip,
		DistanceKm:               b.DistanceKm,
		Price:                    b.Price,
		CreatedAt:                b.CreatedAt.UTC(),
		UpdatedAt:                b.UpdatedAt.UTC(),
	}
}

type createBookingReq struct {
	CustomerName             string     `json:"customerName"`
	CustomerPhone            string     `json:"customerPhone"`
	Pickup                   string     `json:"pickup"`
	Dropoff                  string     `json:"dropoff"`
	ScheduledDate            *time.Time `json:"scheduledDate"`
	EstimatedDurationMinutes *int       `json:"estimatedDurationMinutes"`
	VehicleCategory          string     `json:"vehicleCategory"`
	IsRoundTrip              bool       `json:"isRoundTrip"`
	DistanceKm               float64    `json:"distanceKm"`
	Price                    float64    `json:"price"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.booking.Create(c.Request.Context(), booking.CreateCommand{
		CustomerName:             req.CustomerName,
		CustomerPhone:            req.CustomerPhone,
		Pickup:                   req.Pickup,
		Dropoff:                  req.Dropoff,
		ScheduledDate:            req.ScheduledDate,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		VehicleCategory:          req.VehicleCategory,
		IsRoundTrip:              req.IsRoundTrip,
		DistanceKm:               req.DistanceKm,
		ClientPrice:              req.Price,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toBookingResp(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.booking.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}

// ListDay serves ?date=YYYY-MM-DD, defaulting to today in the service timezone.
func (h *BookingHandler) ListDay(c *gin.Context) {
	loc := h.booking.Location()
	day := time.Now().In(loc)
	if v := c.Query("date"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			writeError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	list, err := h.booking.ListForDay(c.Request.Context(), day)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]bookingResp, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResp(b))
	}
	writeJSON(c, http.StatusOK, map[string]any{"date": day.Format(time.DateOnly), "bookings": out})
}

type transitionReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	to, err := booking.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	b, err := h.booking.Transition(c.Request.Context(), booking.TransitionCommand{
		BookingID: id,
		To:        to,
		ActorType: "admin",
		ActorID:   middleware.CallerUID(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toBookingResp(b))
}
