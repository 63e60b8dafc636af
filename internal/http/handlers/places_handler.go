// README: Address autocomplete for the booking form.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vtc/internal/maps"
)

type Autocompleter interface {
	Autocomplete(ctx context.Context, input string) ([]maps.Suggestion, error)
}

type PlacesHandler struct {
	places Autocompleter
}

func NewPlacesHandler(svc Autocompleter) *PlacesHandler {
	return &PlacesHandler{places: svc}
}

func (h *PlacesHandler) Autocomplete(c *gin.Context) {
	out, err := h.places.Autocomplete(c.Request.Context(), c.Query("input"))
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "places provider unavailable")
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"suggestions": out})
}
