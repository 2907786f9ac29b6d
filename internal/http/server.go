package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"moneybook/internal/auth"
	applog "moneybook/internal/log"
	"moneybook/internal/middleware/ratelimit"
	"moneybook/internal/middleware/security"
	"moneybook/internal/middleware/trace"
	"moneybook/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API needs.
type Deps struct {
	Store        Pinger
	Users        *services.UserService
	Transactions *services.TransactionService
	Analysis     *services.AnalysisService
	Goals        *services.GoalService
	Issuer       *auth.Issuer
	Logger       *applog.Logger

	RateLimitPerMinute int
}

type appMetrics struct {
	transactionsCreated int64
	importedRows        int64
	uptime              time.Time
}

type Server struct {
	http.Server
	deps Deps

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics
	now              func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	logger := deps.Logger.WithComponent(applog.ComponentHTTP)

	rlConfig := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		deps:             deps,
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
		now:              time.Now,
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	protected := auth.Middleware(deps.Issuer)
	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protected(h))
	}

	mux.HandleFunc("GET /{$}", s.handleWelcome)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /users/register", s.handleRegister)
	mux.HandleFunc("POST /users/login", s.handleLogin)
	authed("GET /users/profile", s.handleProfile)
	authed("GET /users/preferences", s.handleGetPreferences)
	authed("PUT /users/preferences", s.handleUpdatePreferences)

	authed("POST /income", s.handleCreateTransaction)
	authed("GET /income", s.handleListTransactions)
	authed("POST /expenses", s.handleCreateTransaction)
	authed("GET /expenses", s.handleListTransactions)

	authed("GET /budget/analysis", s.handleAnalysis)
	authed("GET /statistics", s.handleStatistics)

	authed("POST /api/import", s.handleImport)
	authed("POST /api/import/{source}", s.handleImportSource)

	authed("GET /goals", s.handleListGoals)
	authed("POST /goals", s.handleCreateGoal)
	authed("GET /goals/{id}", s.handleGetGoal)
	authed("PUT /goals/{id}", s.handleUpdateGoal)
	authed("DELETE /goals/{id}", s.handleDeleteGoal)

	authed("POST /ai/advice", s.handleAdvice)
	authed("GET /ai/suggestions", s.handleSuggestions)

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(mux)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:           addr,
		Handler:        s.traceMiddleware.Middleware(headers.Middleware(s.securityDetector.Middleware(limited))),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// userID returns the authenticated user of the request.
func userID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, auth.ErrMissingToken
	}
	return id, nil
}

func (s *Server) countCreated()       { atomic.AddInt64(&s.appMetrics.transactionsCreated, 1) }
func (s *Server) countImported(n int) { atomic.AddInt64(&s.appMetrics.importedRows, int64(n)) }

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
