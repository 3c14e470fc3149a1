// Package api provides the HTTP API server for the sizing service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"picks-sizing/db/clickhouse"
	"picks-sizing/internal/catalog"
	"picks-sizing/internal/sizing"
	apitypes "picks-sizing/pkg/api"
	sizingerrors "picks-sizing/pkg/errors"
	"picks-sizing/pkg/platform"
)

var version = "1.0.0"

// SegmentStore manages hardware and application segments.
type SegmentStore interface {
	ListSegments(ctx context.Context, kind string) ([]apitypes.Segment, error)
	CreateSegment(ctx context.Context, seg apitypes.Segment) (*apitypes.Segment, error)
	UpdateSegment(ctx context.Context, id string, seg apitypes.Segment) (*apitypes.Segment, error)
	DeleteSegment(ctx context.Context, kind, id string) error
}

// ReferenceStore manages the parameter and channel reference tables.
type ReferenceStore interface {
	ListParameters(ctx context.Context) ([]apitypes.Parameter, error)
	GetParameter(ctx context.Context, id string) (*apitypes.Parameter, error)
	CreateParameter(ctx context.Context, p apitypes.Parameter) (*apitypes.Parameter, error)
	UpdateParameter(ctx context.Context, id string, p apitypes.Parameter) (*apitypes.Parameter, error)
	UpdateParameterBackends(ctx context.Context, u apitypes.ParameterBulkUpdate) (int64, error)
	ListChannels(ctx context.Context) ([]apitypes.Channel, error)
	CreateChannel(ctx context.Context, ch apitypes.Channel) (*apitypes.Channel, error)
	UpdateChannel(ctx context.Context, id string, ch apitypes.Channel) (*apitypes.Channel, error)
}

// ConfigurationStore manages saved configurations, scoped by owner.
type ConfigurationStore interface {
	CreateConfiguration(ctx context.Context, owner string, req apitypes.ConfigurationRequest) (*apitypes.Configuration, error)
	ListConfigurations(ctx context.Context, owner string) ([]apitypes.Configuration, error)
	GetConfiguration(ctx context.Context, owner, id string) (*apitypes.Configuration, error)
	UpdateConfiguration(ctx context.Context, owner, id string, req apitypes.ConfigurationRequest) (*apitypes.Configuration, error)
	DeleteConfiguration(ctx context.Context, owner, id string) error
}

// HistoryStore records estimates.
type HistoryStore interface {
	Record(ctx context.Context, e clickhouse.Entry) error
	Recent(ctx context.Context, limit int) ([]clickhouse.Entry, error)
}

// Deps are the collaborators of the server. Only Sizing is required.
type Deps struct {
	Sizing         *sizing.Service
	Admin          catalog.Admin
	Segments       SegmentStore
	Reference      ReferenceStore
	Configurations ConfigurationStore
	History        HistoryStore
	Logger         *zerolog.Logger
}

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	sizing     *sizing.Service
	admin      catalog.Admin
	segments   SegmentStore
	reference  ReferenceStore
	configs    ConfigurationStore
	history    HistoryStore
	config     *Config
	log        zerolog.Logger
	startTime  time.Time
}

// Config holds server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
	APIKey         string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           5000,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		RequestTimeout: 60 * time.Second,
		MaxRequestSize: 10 * 1024 * 1024, // 10MB
		CORSOrigins:    []string{"*"},
	}
}

// NewServer creates a new API server
func NewServer(deps Deps, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	s := &Server{
		sizing:    deps.Sizing,
		admin:     deps.Admin,
		segments:  deps.Segments,
		reference: deps.Reference,
		configs:   deps.Configurations,
		history:   deps.History,
		config:    config,
		log:       logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(s.corsMiddleware)
	r.Use(platform.APIKeyMiddleware(s.config.APIKey))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/health/ready", s.handleReady)

		r.Route("/calculate", func(r chi.Router) {
			r.Post("/", s.handleCalculate)
			r.Get("/models/closest", s.handleClosest)
			r.Get("/models/exact", s.handleExact)
			r.Get("/history", s.handleHistory)

			r.Get("/tables", s.handleListProfiles)
			r.Get("/models", s.handleListModels)
			if s.admin != nil {
				r.Post("/tables", s.handleCreateProfile)
				r.Get("/tables/{id}", s.handleGetProfile)
				r.Put("/tables/{id}", s.handleUpdateProfile)
				r.Delete("/tables/{id}", s.handleDeleteProfile)

				r.Post("/models", s.handleCreateModel)
				r.Get("/models/{id}", s.handleGetModel)
				r.Put("/models/{id}", s.handleUpdateModel)
				r.Delete("/models/{id}", s.handleDeleteModel)
			}
		})

		if s.segments != nil {
			for _, kind := range []string{apitypes.SegmentHardware, apitypes.SegmentApplication} {
				r.Route("/"+kind, func(r chi.Router) {
					r.Get("/", s.handleListSegments(kind))
					r.Post("/", s.handleCreateSegment(kind))
					r.Put("/{id}", s.handleUpdateSegment(kind))
					r.Delete("/{id}", s.handleDeleteSegment(kind))
				})
			}
		}

		if s.reference != nil {
			r.Route("/picksparameters", func(r chi.Router) {
				r.Get("/", s.handleListParameters)
				r.Post("/", s.handleCreateParameter)
				r.Put("/", s.handleBulkUpdateParameters)
				r.Get("/{id}", s.handleGetParameter)
				r.Put("/{id}", s.handleUpdateParameter)
			})
			r.Route("/channels", func(r chi.Router) {
				r.Get("/", s.handleListChannels)
				r.Post("/", s.handleCreateChannel)
				r.Put("/{id}", s.handleUpdateChannel)
			})
		}

		if s.configs != nil {
			r.Route("/configurations", func(r chi.Router) {
				r.Use(platform.RequireUser)
				r.Post("/", s.handleCreateConfiguration)
				r.Get("/user", s.handleListConfigurations)
				r.Get("/{id}", s.handleGetConfiguration)
				r.Put("/{id}", s.handleUpdateConfiguration)
				r.Delete("/{id}", s.handleDeleteConfiguration)
			})
		}
	})
	return r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.httpServer == nil {
		s.httpServer = s.newHTTPServer()
	}
	s.log.Info().
		Int("port", s.config.Port).
		Str("version", version).
		Str("match_rule", string(s.sizing.Rule())).
		Msg("Starting sizing API server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
}

// StartWithGracefulShutdown starts server with graceful shutdown handling
func (s *Server) StartWithGracefulShutdown() error {
	s.httpServer = s.newHTTPServer()
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.log.Info().Msg("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, "+platform.UserHeader)
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if p, ok := s.sizing.Catalog().(catalog.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			s.log.Warn().Err(err).Msg("catalog not ready")
			s.jsonError(w, http.StatusServiceUnavailable, "catalog not ready")
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, apitypes.ErrorResponse{Error: message})
}

// writeError maps err onto a status and a structured body. Internal errors
// are logged and answered without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := sizingerrors.HTTPStatus(err)
	resp := apitypes.ErrorResponse{Error: err.Error()}

	var se *sizingerrors.SizingError
	if errors.As(err, &se) {
		resp.Error = se.Message
		resp.Code = se.Code
		resp.Field = se.Field
	}

	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		if status == http.StatusInternalServerError {
			resp = apitypes.ErrorResponse{Error: "Internal server error"}
		}
	}
	s.jsonResponse(w, status, resp)
}

// decodeBody reads a size-limited JSON body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return sizingerrors.NewInvalidInputError("body", fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

// pathID returns the {id} URL parameter, which must be a UUID.
func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", sizingerrors.NewInvalidInputError("id", "Invalid ID format")
	}
	return id, nil
}
