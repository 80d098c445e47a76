package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandevgo/archivist/pkg/log"
)

// NewRouter mounts the JSON API, health and Prometheus endpoints.
func NewRouter(ctx context.Context, h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log.FromCtx(ctx)))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(limitBody)
		r.Post("/ask", h.Ask)
		r.Get("/history/{user}", h.History)
		r.Delete("/history/{user}", h.ClearHistory)
		r.Get("/search", h.Search)
		r.Get("/stats", h.Stats)
	})

	return r
}

type Server struct {
	srv *http.Server
}

// NewServer builds the API server. Handlers inherit ctx's logger.
func NewServer(ctx context.Context, addr string, h *Handler) *Server {
	base := context.WithoutCancel(ctx)
	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: NewRouter(ctx, h),
			// Answers wait on the language model.
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 3 * time.Minute,
			IdleTimeout:  60 * time.Second,
			BaseContext:  func(net.Listener) context.Context { return base },
		},
	}
}

func (s *Server) Name() string { return "http" }

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.srv.Addr).Msg("starting http api")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
