// Package http provides the JSON API server and handler implementations.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
)

// LedgerAPI is the slice of the ledger service the handlers call.
type LedgerAPI interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	UpdateCategory(ctx context.Context, id int64, u storage.CategoryUpdate) (core.Category, error)

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, u storage.ExpenseUpdate) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, p core.FilterParams) ([]core.Expense, error)
}

// IntegrityAPI is the slice of the cascade orchestrator the handlers call.
type IntegrityAPI interface {
	DeleteCategory(ctx context.Context, id int64) (services.CategoryCascadeResult, error)
	DeleteUser(ctx context.Context, id int64) (services.UserCascadeResult, error)
}

// ReportsAPI is the slice of the report service the handlers call.
type ReportsAPI interface {
	Total(ctx context.Context, p core.FilterParams) (core.TotalReport, error)
	ByCategory(ctx context.Context, p core.FilterParams) ([]core.CategoryReportRow, error)
	ByName(ctx context.Context, p core.FilterParams) ([]core.NameReportRow, error)
	Highest(ctx context.Context, p core.FilterParams) (*core.Expense, error)
	Overview(ctx context.Context, p core.FilterParams) (core.Overview, error)
}

// UsersAPI is the slice of the account service the handlers call.
type UsersAPI interface {
	CreateUser(ctx context.Context, username, password string) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	UpdatePassword(ctx context.Context, id int64, password string) error
	Authenticate(ctx context.Context, username, password string) (core.User, error)
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger    LedgerAPI
	integrity IntegrityAPI
	reports   ReportsAPI
	users     UsersAPI
	pinger    Pinger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	perMinute    int
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMinute:   perMinute,
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= rl.perMinute
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger LedgerAPI, integrity IntegrityAPI, reports ReportsAPI, users UsersAPI, pinger Pinger, rateLimitPerMinute int, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	handler := applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(
		applog.RequestIDMiddleware(requestIDFromRequest)(mux))

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ledger:      ledger,
		integrity:   integrity,
		reports:     reports,
		users:       users,
		pinger:      pinger,
		rateLimiter: newRateLimiter(rateLimitPerMinute),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/users", s.wrap(s.handleCreateUser))
	mux.HandleFunc("GET /api/users/{id}", s.wrap(s.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}/password", s.wrap(s.handleUpdatePassword))
	mux.HandleFunc("DELETE /api/users/{id}", s.wrap(s.handleDeleteUser))
	mux.HandleFunc("POST /api/login", s.wrap(s.handleLogin))

	mux.HandleFunc("POST /api/categories", s.wrap(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.wrap(s.handleListCategories))
	mux.HandleFunc("GET /api/categories/{id}", s.wrap(s.handleGetCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.wrap(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.wrap(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/expenses", s.wrap(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.wrap(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/{id}", s.wrap(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.wrap(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.wrap(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/reports/total", s.wrap(s.handleReportTotal))
	mux.HandleFunc("GET /api/reports/category", s.wrap(s.handleReportByCategory))
	mux.HandleFunc("GET /api/reports/name", s.wrap(s.handleReportByName))
	mux.HandleFunc("GET /api/reports/highest", s.wrap(s.handleReportHighest))
	mux.HandleFunc("GET /api/reports/overview", s.wrap(s.handleReportOverview))

	return s
}

// wrap adds security headers, rate limiting, and request logging to a
// handler. Request ids arrive on the context logger attached upstream.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		logRequestStart(r, clientIP)

		// Rate limit mutating requests only; reads are cheap.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logRateLimited(r, clientIP)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, apiResponse{
				Success: false,
				Message: "rate limit exceeded, please try again later",
			})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logRequestEnd(r, rw.statusCode, time.Since(start), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestIDFromRequest honors an upstream X-Request-ID, minting one when
// the request arrived without it.
func requestIDFromRequest(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
