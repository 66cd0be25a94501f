// Package http serves the rendered web UI: dashboard, transactions,
// goals and the auth pages.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finview/internal/cache"
	"finview/internal/config"
	"finview/internal/identity"
	"finview/internal/log"
	"finview/internal/store"
	appweb "finview/web"
)

// EventPublisher announces created transactions to other processes.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, userID, transactionID int64, year, month int) error
}

type Server struct {
	http.Server
	cfg       *config.Config
	templates *template.Template
	store     store.Store
	provider  identity.Provider
	tokens    *identity.TokenManager
	publisher EventPublisher // nil when AMQP is not configured
	logger    *log.Logger

	rateLimiter *rateLimiter

	// Per-user dashboard aggregates, keyed "<userID>:<YYYY-MM>".
	dashCache *cache.LRU[dashboardView]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *config.Config, st store.Store, provider identity.Provider, tokens *identity.TokenManager, publisher EventPublisher, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    ":" + cfg.Port,
			Handler: mux,
		},
		cfg:              cfg,
		store:            st,
		provider:         provider,
		tokens:           tokens,
		publisher:        publisher,
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      newRateLimiter(),
		dashCache:        cache.NewLRU[dashboardView](cfg.CacheMaxSize, cfg.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html", "templates/auth/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Error("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/auth/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/auth/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/reset-password", s.withSecurityHeaders(s.handleResetPassword))

	mux.HandleFunc("/dashboard", s.withSecurityHeaders(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.requireUser(s.handleTransactions)))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.requireUser(s.handleDeleteTransaction)))
	mux.HandleFunc("/goals", s.withSecurityHeaders(s.requireUser(s.handleGoals)))
	mux.HandleFunc("/goals/update", s.withSecurityHeaders(s.requireUser(s.handleUpdateGoal)))
	mux.HandleFunc("/goals/delete", s.withSecurityHeaders(s.requireUser(s.handleDeleteGoal)))

	return s
}

// InvalidateUserCache drops every cached dashboard entry for a user. Called
// locally after writes and remotely via the AMQP consumer.
func (s *Server) InvalidateUserCache(userID int64) {
	removed := s.dashCache.DeletePrefix(fmt.Sprintf("%d:", userID))
	if removed > 0 {
		s.logger.Debug("Dashboard cache invalidated",
			log.FieldUserID, userID, "entries_removed", removed)
	}
}

// HandleTransactionEvent is the AMQP consumer callback: another process
// created a transaction, so this process's cache for that user is stale.
func (s *Server) HandleTransactionEvent(userID int64) error {
	s.InvalidateUserCache(userID)
	return nil
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.dashCache.CleanExpired(); cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
