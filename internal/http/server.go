package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"financeiro/internal/app"
	"financeiro/internal/log"
	"financeiro/internal/middleware/ratelimit"
	"financeiro/internal/middleware/security"
	"financeiro/internal/middleware/trace"
	"financeiro/internal/notify"
)

// Options configures the server's collaborators. Nil fields get defaults;
// a nil Limiter disables rate limiting.
type Options struct {
	Logger   *log.Logger
	Recorder *notify.Recorder
	Limiter  *ratelimit.Limiter
	ClientIP *security.ClientIP
}

type Server struct {
	http.Server
	app      *app.App
	recorder *notify.Recorder
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	logger   *log.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server for the ledger API.
func NewServer(addr string, a *app.App, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.ClientIP == nil {
		opts.ClientIP, _ = security.NewClientIP()
	}

	r := mux.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		app:      a,
		recorder: opts.Recorder,
		limiter:  opts.Limiter,
		logger:   log.NewStructuredLogger(opts.Logger),
	}
	s.tracer = trace.NewMiddleware(opts.ClientIP.Extract, s.logger)

	r.Use(log.Middleware(opts.Logger))
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	if s.limiter != nil {
		r.Use(s.limiter.Middleware(opts.ClientIP.Extract))
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.handleNotifications).Methods(http.MethodGet)

	api.HandleFunc("/incomes", s.handleAddIncome).Methods(http.MethodPost)
	api.HandleFunc("/incomes/{id}", s.handleDeleteIncome).Methods(http.MethodDelete)

	api.HandleFunc("/fixed-costs", s.handleAddFixedCost).Methods(http.MethodPost)
	api.HandleFunc("/fixed-costs/status", s.handleFixedCostStatus).Methods(http.MethodGet)
	api.HandleFunc("/fixed-costs/{id}", s.handleDeleteFixedCost).Methods(http.MethodDelete)
	api.HandleFunc("/fixed-costs/{id}/toggle", s.handleToggleFixedCost).Methods(http.MethodPost)

	api.HandleFunc("/cards", s.handleAddCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}", s.handleDeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id}/bill", s.handleCardBill).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}/purchases", s.handleRegisterPurchase).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/purchases/{purchaseID}/installments/{index}/toggle", s.handleToggleInstallment).
		Methods(http.MethodPost)

	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/import", s.handleImport).Methods(http.MethodPost)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// healthResponse carries the request counters next to the status.
type healthResponse struct {
	Status         string `json:"status"`
	Requests       int64  `json:"requests"`
	LastResponseUS int64  `json:"last_response_us"`
	RateLimited    *int64 `json:"rate_limited,omitempty"`
	Clients        *int64 `json:"clients,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	resp := healthResponse{
		Status:         "ok",
		Requests:       tm.TotalRequests,
		LastResponseUS: tm.LastResponseTime,
	}
	if s.limiter != nil {
		lm := s.limiter.GetMetrics()
		resp.RateLimited = &lm.TotalHits
		resp.Clients = &lm.ClientCount
	}
	NewJSONResponse().JSON(resp).Write(w)
}
