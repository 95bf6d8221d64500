// Package api exposes the texture classifier over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mimir-aip/soil-texture/pkg/classifier"
	"github.com/mimir-aip/soil-texture/pkg/logging"
	"github.com/mimir-aip/soil-texture/pkg/metadatastore"
)

// Server provides HTTP API endpoints
type Server struct {
	classifier *classifier.Service
	store      metadatastore.MetadataStore // nil disables prediction history
	router     *mux.Router
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new API server. store may be nil.
func NewServer(svc *classifier.Service, store metadatastore.MetadataStore, port string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		classifier: svc,
		store:      store,
		router:     mux.NewRouter(),
		logger:     logger.With(logging.Component("http")),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.versionMiddleware("v1"))

	v1.HandleFunc("/textures", s.handleListTextures).Methods(http.MethodGet)
	v1.HandleFunc("/model", s.handleGetModel).Methods(http.MethodGet)
	v1.HandleFunc("/predictions", s.handleCreatePrediction).Methods(http.MethodPost)
	v1.HandleFunc("/predictions", s.handleListPredictions).Methods(http.MethodGet)
	v1.HandleFunc("/predictions/{id}", s.handleGetPrediction).Methods(http.MethodGet)
	v1.HandleFunc("/recommendations/{texture}", s.handleGetRecommendation).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "route not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	// Subrouters do not inherit these from the root router.
	for _, router := range []*mux.Router{s.router, v1} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = methodNotAllowed
	}
}

// Handler returns the routed handler, for embedding or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting API server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
