package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "vtc/internal/http"
	"vtc/internal/infra"
	"vtc/internal/logging"
	"vtc/internal/maps"
	"vtc/internal/modules/booking"
	"vtc/internal/modules/dispatch"
	"vtc/internal/modules/driver"
	"vtc/internal/modules/pricing"
	"vtc/internal/types"
)

type stubVerifier struct{}

// VerifyIDToken maps fixed tokens to callers.
func (stubVerifier) VerifyIDToken(_ context.Context, tok string) (*infra.Identity, error) {
	switch tok {
	case "admin":
		return &infra.Identity{UID: "ops-1", Role: "admin"}, nil
	case "staff":
		return &infra.Identity{UID: "u-2"}, nil
	}
	return nil, errors.New("invalid")
}

type fakePricing struct {
	lastQuote pricing.QuoteCommand
	quoteErr  error
	rates     map[pricing.Category]float64
}

func (f *fakePricing) Quote(_ context.Context, cmd pricing.QuoteCommand) (pricing.Quote, error) {
	f.lastQuote = cmd
	if f.quoteErr != nil {
		return pricing.Quote{}, f.quoteErr
	}
	return pricing.CalculateFinalPrice(pricing.QuoteRequest{
		DistanceKm:      cmd.DistanceKm,
		DurationMinutes: cmd.DurationMinutes,
		Category:        cmd.Category,
		IsRoundTrip:     cmd.IsRoundTrip,
		Strategy:        cmd.Strategy,
	}), nil
}

func (f *fakePricing) SetRate(_ context.Context, r pricing.Rate) error {
	if f.rates == nil {
		f.rates = map[pricing.Category]float64{}
	}
	f.rates[r.Category] = r.RatePerKm
	return nil
}

type fakeBookings struct {
	b          *booking.Booking
	createErr  error
	listedDay  time.Time
	transition booking.TransitionCommand
}

func (f *fakeBookings) Create(_ context.Context, cmd booking.CreateCommand) (*booking.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &booking.Booking{ID: "new", CustomerName: cmd.CustomerName, Status: booking.StatusPending, Price: cmd.ClientPrice}, nil
}

func (f *fakeBookings) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	if f.b == nil || f.b.ID != id {
		return nil, booking.ErrNotFound
	}
	return f.b, nil
}

func (f *fakeBookings) ListForDay(_ context.Context, day time.Time) ([]*booking.Booking, error) {
	f.listedDay = day
	return []*booking.Booking{f.b}, nil
}

func (f *fakeBookings) Transition(_ context.Context, cmd booking.TransitionCommand) (*booking.Booking, error) {
	f.transition = cmd
	if err := booking.ValidateTransition(f.b.Status, cmd.To); err != nil {
		return nil, err
	}
	out := *f.b
	out.Status = cmd.To
	return &out, nil
}

func (f *fakeBookings) Location() *time.Location { return time.UTC }

type fakeDispatch struct{}

func (fakeDispatch) Availability(_ context.Context, id types.ID) (dispatch.Result, error) {
	if id != "b1" {
		return dispatch.Result{}, booking.ErrNotFound
	}
	return dispatch.Result{Eligible: []types.ID{"d2"}, Busy: []types.ID{"d1"}}, nil
}

func (fakeDispatch) Assign(_ context.Context, id, driverID types.ID, _ string) (*booking.Booking, error) {
	if driverID != "d2" {
		return nil, dispatch.ErrDriverUnavailable
	}
	return &booking.Booking{ID: id, Status: booking.StatusConfirmed, DriverID: types.IDPtr(driverID)}, nil
}

type fakeDrivers struct{ online map[types.ID]bool }

func (f *fakeDrivers) Create(_ context.Context, cmd driver.CreateCommand) (*driver.Driver, error) {
	return &driver.Driver{ID: "d9", Name: cmd.Name, Phone: cmd.Phone}, nil
}

func (f *fakeDrivers) List(context.Context) ([]*driver.Driver, error) {
	return []*driver.Driver{{ID: "d1", Name: "Ali", IsOnline: true}}, nil
}

func (f *fakeDrivers) SetOnline(_ context.Context, id types.ID, online bool) error {
	if id != "d1" {
		return driver.ErrNotFound
	}
	f.online[id] = online
	return nil
}

type fakePlaces struct{}

func (fakePlaces) Autocomplete(context.Context, string) ([]maps.Suggestion, error) {
	return []maps.Suggestion{{Description: "Orly", PlaceID: "p1"}}, nil
}

type fixture struct {
	router   *gin.Engine
	pricing  *fakePricing
	bookings *fakeBookings
	drivers  *fakeDrivers
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{
		pricing:  &fakePricing{},
		bookings: &fakeBookings{b: &booking.Booking{ID: "b1", Status: booking.StatusPending, VehicleCategory: pricing.CategoryVan}},
		drivers:  &fakeDrivers{online: map[types.ID]bool{}},
	}
	f.router = httptransport.NewRouter(httptransport.RouterDeps{
		Quotes:   f.pricing,
		Rates:    f.pricing,
		Bookings: f.bookings,
		Dispatch: fakeDispatch{},
		Drivers:  f.drivers,
		Places:   fakePlaces{},
		Verifier: stubVerifier{},
		Logger:   logging.Discard(),
	})
	return f
}

func (f *fixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestQuote(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/quotes", map[string]any{
		"distanceKm": 5, "durationMinutes": 60, "vehicleCategory": "standard",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 53.5, body["price"])
	assert.Equal(t, 25.0, body["priceBasedOnDistance"])
	assert.Equal(t, true, body["isTrafficSurcharge"])

	w = f.do(http.MethodPost, "/api/quotes", map[string]any{"distanceKm": 5, "vehicleCategory": "bus"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/quotes", map[string]any{
		"distanceKm": 5, "vehicleCategory": "van", "isRoundTrip": true, "roundTripStrategy": "premium",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pricing.PremiumRoundTrip, f.pricing.lastQuote.Strategy)

	f.pricing.quoteErr = pricing.ErrRouteUnavailable
	w = f.do(http.MethodPost, "/api/quotes", map[string]any{"origin": "a", "destination": "b", "vehicleCategory": "van"}, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture()
	req := map[string]any{
		"customerName": "Léa", "customerPhone": "+33600000000",
		"pickup": "Orly", "dropoff": "Paris", "vehicleCategory": "berline", "price": 60,
	}

	w := f.do(http.MethodPost, "/api/bookings", req, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pending", decode(t, w)["status"])

	f.bookings.createErr = &pricing.PriceMismatchError{ClientPrice: 10, CalculatedPrice: 60}
	w = f.do(http.MethodPost, "/api/bookings", req, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, 60.0, body["calculatedPrice"])
	assert.Equal(t, 10.0, body["clientPrice"])
}

func TestAdminRequiresAdminRole(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/admin/bookings/b1", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/admin/bookings/b1", nil, "garbage").Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/admin/bookings/b1", nil, "staff").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/admin/bookings/b1", nil, "admin").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/admin/bookings/nope", nil, "admin").Code)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/admin/bookings/b1/status", map[string]any{"status": "in_progress"}, "admin")
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "pending", body["current"])
	assert.Equal(t, "in_progress", body["attempted"])
	assert.Equal(t, []any{"confirmed", "cancelled"}, body["allowed"])

	w = f.do(http.MethodPost, "/api/admin/bookings/b1/status", map[string]any{"status": "confirmed"}, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", decode(t, w)["status"])
	assert.Equal(t, "ops-1", f.bookings.transition.ActorID)

	w = f.do(http.MethodPost, "/api/admin/bookings/b1/status", map[string]any{"status": "teleported"}, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTerminalStatusReportsNoAllowedTransitions(t *testing.T) {
	f := newFixture()
	f.bookings.b.Status = booking.StatusCompleted

	w := f.do(http.MethodPost, "/api/admin/bookings/b1/status", map[string]any{"status": "cancelled"}, "admin")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["allowed"])
}

func TestListDay(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/admin/bookings?date=2026-03-10", nil, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), f.bookings.listedDay)
	assert.Equal(t, "2026-03-10", decode(t, w)["date"])

	w = f.do(http.MethodGet, "/api/admin/bookings?date=10/03/2026", nil, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDispatchRoutes(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/admin/bookings/b1/available-drivers", nil, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"d2"}, body["eligible"])
	assert.Equal(t, []any{"d1"}, body["busy"])

	w = f.do(http.MethodPost, "/api/admin/bookings/b1/assign", map[string]any{"driverId": "d1"}, "admin")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/api/admin/bookings/b1/assign", map[string]any{"driverId": "d2"}, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d2", decode(t, w)["driverId"])

	w = f.do(http.MethodPost, "/api/admin/bookings/b1/assign", map[string]any{}, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDriverAndRateRoutes(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodGet, "/api/admin/drivers", nil, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["drivers"], 1)

	w = f.do(http.MethodPost, "/api/admin/drivers", map[string]any{"name": "Bea", "phone": "+33611111111"}, "admin")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPut, "/api/admin/drivers/d1/online", map[string]any{"isOnline": true}, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.drivers.online["d1"])

	w = f.do(http.MethodPut, "/api/admin/drivers/d1/online", map[string]any{}, "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/admin/drivers/zz/online", map[string]any{"isOnline": false}, "admin")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPut, "/api/admin/rates/van", map[string]any{"ratePerKm": 3.8}, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3.8, f.pricing.rates[pricing.CategoryVan])
}

func TestPlacesAutocomplete(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodGet, "/api/places/autocomplete?input=orly", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["suggestions"], 1)
}
