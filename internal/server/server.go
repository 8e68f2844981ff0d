// Package server exposes the HTTP API: collection management, policy
// seeding, retrieval-augmented answering, case verification, and document
// ingestion.
package server

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/credilex/parecer/internal/ingest"
	"github.com/credilex/parecer/internal/logger"
	"github.com/credilex/parecer/internal/model"
	"github.com/credilex/parecer/internal/rag"
)

// Version is reported by /health and the CLI version command
const Version = "0.1.0"

// Server holds the handles shared by all request handlers.
type Server struct {
	config   *model.Config
	service  *rag.Service
	ingestor *ingest.Ingestor
	log      *slog.Logger
}

// New creates a Server around an already wired service stack.
func New(config *model.Config, service *rag.Service, ingestor *ingest.Ingestor, log *slog.Logger) *Server {
	return &Server{
		config:   config,
		service:  service,
		ingestor: ingestor,
		log:      log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.config.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if s.log != nil {
		router.Use(logger.RequestLogger(s.log))
	}

	router.GET("/health", s.health)
	router.GET("/store/health", s.storeHealth)

	router.GET("/collections", s.listCollections)
	router.POST("/collections", s.createCollection)
	router.GET("/collections/:name", s.getCollection)
	router.POST("/collections/:name/add", s.addDocuments)
	router.POST("/collections/:name/query", s.queryCollection)

	router.POST("/policy/seed", s.seedPolicies)
	router.POST("/policy/query", s.queryPolicies)

	router.POST("/rag/ask", s.ask)
	router.POST("/verify", s.verify)

	router.POST("/ingest/text", s.ingestText)
	router.POST("/ingest/url", s.ingestURL)

	return router
}

// Run starts the HTTP server on the configured address and blocks.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	if s.log != nil {
		s.log.Info("server listening", "addr", addr, "store", s.config.Store.Driver)
	}
	return s.Router().Run(addr)
}
