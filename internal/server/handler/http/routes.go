package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/middleware"
)

// NewRouter builds the booking API.
//
// Routes:
//
//	POST  /auth/register                  public
//	POST  /auth/login                     public
//	GET   /services, /services/{id}       public
//	GET   /metrics                        public
//	POST  /auth/logout                    bearer
//	PUT   /auth/profile                   bearer
//	POST  /bookings                       bearer
//	GET   /bookings/my-bookings           bearer
//	PATCH /bookings/{id}/cancel           bearer
//	POST  /payment/create-payment-intent  bearer
//	POST  /payment/confirm                bearer
func NewRouter(
	authHandler *AuthHandler,
	bookingHandler *BookingHandler,
	paymentHandler *PaymentHandler,
	tokens middleware.TokenResolver,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Get("/services", ListServices)
	r.Get("/services/{id}", GetService)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(tokens))

		r.Post("/auth/logout", authHandler.Logout)
		r.Put("/auth/profile", authHandler.UpdateProfile)

		r.Post("/bookings", bookingHandler.Create)
		r.Get("/bookings/my-bookings", bookingHandler.Mine)
		r.Patch("/bookings/{id}/cancel", bookingHandler.Cancel)

		r.Post("/payment/create-payment-intent", paymentHandler.CreateIntent)
		r.Post("/payment/confirm", paymentHandler.Confirm)
	})

	return r
}
