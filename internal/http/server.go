package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gestmais/internal/core"
	"gestmais/internal/log"
	"gestmais/internal/middleware/ratelimit"
	"gestmais/internal/middleware/security"
	"gestmais/internal/services"
)

// PaymentService is what the API needs from the payment status engine.
type PaymentService interface {
	ResidentPaymentStatus(ctx context.Context, userID string) (core.PaymentStatusSummary, error)
	ApartmentPaymentStatus(ctx context.Context, apartmentID int64) (core.PaymentStatusSummary, error)
	BuildingPaymentStatus(ctx context.Context, buildingID int64) (core.PaymentStatusSummary, error)
	BuildingOverview(ctx context.Context, buildingID int64) (core.BuildingOverview, error)
	UpdatePaymentStatus(ctx context.Context, req services.UpdatePaymentRequest) (core.RegularPayment, error)
}

var _ PaymentService = (*services.PaymentStatusService)(nil)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	RequestTimeout time.Duration
	// WriteRateLimit caps payment updates per client per minute.
	WriteRateLimit int
	Logger         *log.Logger
}

type Server struct {
	http.Server
	payments PaymentService
	logger   *log.Logger
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

func NewServer(addr string, payments PaymentService, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		payments: payments,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WriteRateLimit}),
	}
	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.routes(opts.RequestTimeout),
		ReadTimeout:  40 * time.Second,
		WriteTimeout: opts.RequestTimeout + 5*time.Second,
		IdleTimeout:  time.Minute,
	}
	return s
}

func (s *Server) routes(timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(middleware.Timeout(timeout))

	limited := s.limiter.Middleware(clientIP, s.rateLimited)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/residents/{userID}/payment-status", s.handleResidentStatus)
		r.Route("/apartments/{apartmentID}", func(r chi.Router) {
			r.Get("/payment-status", s.handleApartmentStatus)
			r.With(limited).Put("/payments/{year}/{month}", s.handleUpdatePayment)
		})
		r.Route("/buildings/{buildingID}", func(r chi.Router) {
			r.Get("/payment-status", s.handleBuildingStatus)
			r.Get("/apartments", s.handleBuildingOverview)
		})
	})

	return r
}

// clientIP relies on middleware.RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Shutdown gracefully shuts down the server and the rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
