package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/scenesave/internal/observability"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/slots"
	"github.com/danmuck/scenesave/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const Version = "0.1.0"

// Options configures a Server.
type Options struct {
	Name        string
	Addr        string
	CorsOrigins []string
	Slots       *slots.Manager
	// Registry types component fields in inspected saves. Defaults to the
	// registry of Slots' engine.
	Registry *registry.Registry
	// MaxInflated bounds a posted save after decompression. Defaults to
	// storage.MaxBlobSize.
	MaxInflated int64
}

// Server exposes save slots and the save inspector over HTTP.
type Server struct {
	Name     string
	Addr     string
	Started  time.Time
	slots    *slots.Manager
	registry *registry.Registry
	router   *gin.Engine

	maxInflated int64
}

func New(opts Options) *Server {
	observability.RegisterMetrics()
	if opts.Name == "" {
		opts.Name = "savectl"
	}
	reg := opts.Registry
	if reg == nil && opts.Slots != nil {
		reg = opts.Slots.Engine().Registry()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.Logger("server")))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Name:     opts.Name,
		Addr:     opts.Addr,
		Started:  time.Now(),
		slots:    opts.Slots,
		registry: reg,
		router:   r,

		maxInflated: opts.MaxInflated,
	}
	if s.maxInflated <= 0 {
		s.maxInflated = storage.MaxBlobSize
	}
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Serve listens on Addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log := observability.Logger("server")
	log.Info().Str("addr", s.Addr).Str("name", s.Name).Msg("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Str("addr", s.Addr).Msg("stopped")
	return nil
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
