// README: Driver roster handlers for the back-office.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vtc/internal/modules/driver"
	"vtc/internal/types"
)

type DriverService interface {
	Create(ctx context.Context, cmd driver.CreateCommand) (*driver.Driver, error)
	List(ctx context.Context) ([]*driver.Driver, error)
	SetOnline(ctx context.Context, id types.ID, online bool) error
}

type DriverHandler struct {
	driver DriverService
}

func NewDriverHandler(svc DriverService) *DriverHandler {
	return &DriverHandler{driver: svc}
}

type driverResp struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsOnline  bool      `json:"isOnline"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDriverResp(d *driver.Driver) driverResp {
	return driverResp{ID: d.ID, Name: d.Name, Phone: d.Phone, IsOnline: d.IsOnline, CreatedAt: d.CreatedAt.UTC()}
}

func (h *DriverHandler) List(c *gin.Context) {
	list, err := h.driver.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]driverResp, 0, len(list))
	for _, d := range list {
		out = append(out, toDriverResp(d))
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": out})
}

type createDriverReq struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsOnline bool   `json:"isOnline"`
}

func (h *DriverHandler) Create(c *gin.Context) {
	var req createDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.driver.Create(c.Request.Context(), driver.CreateCommand{
		Name:     req.Name,
		Phone:    req.Phone,
		IsOnline: req.IsOnline,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toDriverResp(d))
}

type setOnlineReq struct {
	IsOnline *bool `json:"isOnline" binding:"required"`
}

func (h *DriverHandler) SetOnline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setOnlineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "isOnline is required")
		return
	}
	if err := h.driver.SetOnline(c.Request.Context(), id, *req.IsOnline); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"id": id, "isOnline": *req.IsOnline})
}
