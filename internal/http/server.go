package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

const sessionCookieName = "session"

// Options configure NewServer. Zero values pick sensible defaults.
type Options struct {
	Addr               string
	Currency           string
	SessionTTL         time.Duration
	CategoryCacheTTL   time.Duration
	RateLimitPerMinute int
	Logger             *log.Logger
	// Ready reports whether backing services are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

// Server is the JSON API.
type Server struct {
	http.Server

	ledger   *services.LedgerService
	budgets  *services.BudgetService
	sessions auth.SessionManager
	notifier *auth.Notifier

	categoryCache *cache.LRUCache[[]core.Category]
	cacheManager  *cache.Manager
	limiter       *ratelimit.Limiter
	registry      *prometheus.Registry
	unsubscribe   func()

	present    presenter
	sessionTTL time.Duration
	ready      func(ctx context.Context) error
	logger     *log.Logger
	now        func() time.Time
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, ledger *services.LedgerService, budgets *services.BudgetService, sessions auth.SessionManager, notifier *auth.Notifier) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 5 * 24 * time.Hour
	}
	if notifier == nil {
		notifier = auth.NewNotifier()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		ledger:        ledger,
		budgets:       budgets,
		sessions:      sessions,
		notifier:      notifier,
		categoryCache: cache.NewLRUCache[[]core.Category](1000, opts.CategoryCacheTTL),
		cacheManager:  cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Registerer:        registry,
		}),
		registry:   registry,
		sessionTTL: opts.SessionTTL,
		ready:      opts.Ready,
		logger:     opts.Logger.WithComponent(log.ComponentHTTP),
		now:        time.Now,
	}

	s.present = presenter{currency: opts.Currency, location: s.location}

	// A user's category list is reloaded after every sign-in or sign-out.
	s.unsubscribe = notifier.Subscribe(func(c auth.StateChange) {
		s.categoryCache.Delete(c.UserID)
	})
	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /session", s.handleCreateSession)
	mux.Handle("DELETE /session", s.authenticated(s.handleDeleteSession))

	mux.Handle("GET /api/transactions", s.authenticated(s.handleListTransactions))
	mux.Handle("POST /api/transactions", s.authenticated(s.handleCreateTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.authenticated(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.authenticated(s.handleDeleteTransaction))

	mux.Handle("GET /api/budgets", s.authenticated(s.handleListBudgets))
	mux.Handle("POST /api/budgets", s.authenticated(s.handleCreateBudget))
	mux.Handle("PUT /api/budgets/{id}", s.authenticated(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", s.authenticated(s.handleDeleteBudget))
	mux.Handle("GET /api/budgets/{id}/usage", s.authenticated(s.handleBudgetUsage))

	mux.Handle("GET /api/categories", s.authenticated(s.handleListCategories))
	mux.Handle("POST /api/categories", s.authenticated(s.handleCreateCategory))

	mux.Handle("GET /api/summary", s.authenticated(s.handleSummary))

	detector := security.NewDetector(registry)
	tracer := trace.NewMiddleware(detector.ExtractClientIP, s.logger, registry)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(detector.ExtractClientIP, ratelimit.MutatingOnly, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})

	handler := trace.RecordPattern(mux)
	handler = limit(handler)
	handler = trace.LoggerMiddleware(s.logger)(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(s.logger.WithComponent(log.ComponentSecurity))(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	s.limiter.Stop()
	s.cacheManager.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

// authenticated resolves the bearer token or session cookie to a user.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(sessionCookieName); err == nil {
				token = c.Value
			}
		}
		if token == "" || s.sessions == nil {
			ErrorResponse(http.StatusUnauthorized, "authentication required").Write(w)
			return
		}
		user, err := s.sessions.Verify(r.Context(), token)
		if err != nil {
			s.logger.DebugContext(r.Context(), "Token rejected", log.FieldError, err)
			ErrorResponse(http.StatusUnauthorized, "invalid or expired credentials").Write(w)
			return
		}
		ctx := auth.WithUser(r.Context(), user)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, user.ID))
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && (h[:len(prefix)] == prefix || h[:len(prefix)] == "bearer ") {
		return h[len(prefix):]
	}
	return ""
}

// currentUser is only called behind authenticated.
func currentUser(r *http.Request) string {
	u, _ := auth.UserFrom(r.Context())
	return u.ID
}

var validationErrors = []error{
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrInvalidType,
	core.ErrMissingDate,
	core.ErrEmptyCategory,
	core.ErrEmptyName,
	core.ErrInvalidAmount,
	core.ErrInvalidPeriod,
}

// writeError maps domain and port errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, errBadRequest):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ports.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, ports.ErrDuplicateCategory):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "authentication required"
	default:
		for _, v := range validationErrors {
			if errors.Is(err, v) {
				status, msg = http.StatusUnprocessableEntity, err.Error()
				break
			}
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	}
	ErrorResponse(status, msg).Write(w)
}
