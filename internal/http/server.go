// Package http serves the JSON API and the embedded front page.
package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"kousu/internal/agent"
	"kousu/internal/cache"
	"kousu/internal/core"
	applog "kousu/internal/log"
	"kousu/internal/middleware/ratelimit"
	"kousu/internal/middleware/security"
	"kousu/internal/middleware/trace"
	"kousu/internal/services"
	appweb "kousu/web"
)

type Server struct {
	http.Server

	records *services.RecordService
	agent   *agent.Agent

	limiter *ratelimit.Limiter

	// summaryCache keeps period summaries warm between writes; any record
	// write clears it wholesale.
	summaryCache *cache.LRUCache[core.Summary]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, records *services.RecordService, agt *agent.Agent) *Server {
	mux := http.NewServeMux()

	s := &Server{
		records:          records,
		agent:            agt,
		limiter:          ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		summaryCache:     cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	// Rate limiting applies to writes and chat only; reads stay cheap.
	limited := s.limiter.Middleware(clientIP, nil)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.Handle("POST /api/projects", limited(http.HandlerFunc(s.handleCreateProject)))
	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.Handle("POST /api/members", limited(http.HandlerFunc(s.handleCreateMember)))
	mux.Handle("POST /api/kousu", limited(http.HandlerFunc(s.handleUpsertRecord)))
	mux.HandleFunc("GET /api/kousu/list", s.handleListRecords)
	mux.HandleFunc("GET /api/kousu/by-project", s.handleRollupByProject)
	mux.HandleFunc("GET /api/kousu/by-member", s.handleRollupByMember)
	mux.HandleFunc("GET /api/kousu/summary", s.handleSummary)
	mux.HandleFunc("GET /api/periods", s.handleListPeriods)
	mux.Handle("POST /api/agent/chat", limited(http.HandlerFunc(s.handleAgentChat)))

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	httpLogger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentHTTP,
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP, httpLogger)

	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(applog.Middleware(httpLogger)(headers.Middleware(mux))),
	}

	return s
}

// startCacheCleanup runs periodic cleanup for the summary cache
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}

		if s.limiter != nil {
			s.limiter.Stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := appweb.StaticFS.ReadFile("static/index.html")
	if err != nil {
		slog.ErrorContext(r.Context(), "Index page not available", "error", err)
		http.Error(w, "index not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}
