// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vtc/internal/http/handlers"
	"vtc/internal/http/middleware"
	"vtc/internal/infra"
	"vtc/internal/ratelimit"
)

type RouterDeps struct {
	Quotes   handlers.Quoter
	Rates    handlers.RateSetter
	Bookings handlers.BookingService
	Dispatch handlers.Dispatcher
	Drivers  handlers.DriverService
	// Places is optional; the autocomplete route is not registered without it.
	Places   handlers.Autocompleter
	Verifier infra.TokenVerifier
	// Limiter is optional and applies to the public write endpoints.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api")
	if deps.Limiter != nil {
		public.Use(ratelimit.Middleware(deps.Limiter, log))
	}
	quoteHandler := handlers.NewQuoteHandler(deps.Quotes)
	public.POST("/quotes", quoteHandler.Create)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	public.POST("/bookings", bookingHandler.Create)

	if deps.Places != nil {
		placesHandler := handlers.NewPlacesHandler(deps.Places)
		public.GET("/places/autocomplete", placesHandler.Autocomplete)
	}

	admin := r.Group("/api/admin", middleware.Auth(deps.Verifier), middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("/bookings", bookingHandler.ListDay)
	admin.GET("/bookings/:id", bookingHandler.Get)
	admin.POST("/bookings/:id/status", bookingHandler.UpdateStatus)

	dispatchHandler := handlers.NewDispatchHandler(deps.Dispatch)
	admin.GET("/bookings/:id/available-drivers", dispatchHandler.AvailableDrivers)
	admin.POST("/bookings/:id/assign", dispatchHandler.Assign)

	driverHandler := handlers.NewDriverHandler(deps.Drivers)
	admin.GET("/drivers", driverHandler.List)
	admin.POST("/drivers", driverHandler.Create)
	admin.PUT("/drivers/:id/online", driverHandler.SetOnline)

	rateHandler := handlers.NewRateHandler(deps.Rates)
	admin.PUT("/rates/:category", rateHandler.Put)

	return r
}
