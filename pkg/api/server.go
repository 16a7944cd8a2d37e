// Package api provides the HTTP surface of spec §6: auth, workspace and
// document management, ad-hoc retrieval, dataset/evaluation lifecycle, and
// result polling, all over Echo v5 (the framework the teacher's own
// pkg/api actually runs on, per its handler_*.go files and e2e harness).
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/maxwell-labs/ragbench/pkg/authn"
	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/config"
	"github.com/maxwell-labs/ragbench/pkg/database"
	"github.com/maxwell-labs/ragbench/pkg/evaluation"
	"github.com/maxwell-labs/ragbench/pkg/ingestion"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
	"github.com/maxwell-labs/ragbench/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg *config.Config

	// backgroundCtx scopes work dispatched outside a request's own
	// lifetime (evaluation runs). It is cancelled on process shutdown so
	// those runs stop rather than outliving the server (spec §5).
	backgroundCtx context.Context

	dbClient   *database.Client
	authn      *authn.Service
	workspaces *catalog.WorkspaceService
	documents  *catalog.DocumentService
	datasets   *catalog.DatasetService

	storage    *ingestion.Storage
	dispatcher *ingestion.Dispatcher

	index    vectorindex.Index
	registry *provider.Registry

	evalStore *evaluation.Store
	executor  *evaluation.Executor
}

// Deps bundles every collaborator NewServer wires together. Constructed
// once at process start and passed explicitly (spec §9).
type Deps struct {
	Cfg        *config.Config
	DBClient   *database.Client
	Authn      *authn.Service
	Workspaces *catalog.WorkspaceService
	Documents  *catalog.DocumentService
	Datasets   *catalog.DatasetService
	Storage    *ingestion.Storage
	Dispatcher *ingestion.Dispatcher
	Index      vectorindex.Index
	Registry   *provider.Registry
	EvalStore  *evaluation.Store
	Executor   *evaluation.Executor

	// BackgroundCtx scopes evaluation runs dispatched by request handlers.
	// The caller cancels it on shutdown; NewServer falls back to
	// context.Background() if it's nil.
	BackgroundCtx context.Context
}

// NewServer creates a new API server wired over deps.
func NewServer(deps Deps) *Server {
	e := echo.New()

	backgroundCtx := deps.BackgroundCtx
	if backgroundCtx == nil {
		backgroundCtx = context.Background()
	}

	s := &Server{
		echo:          e,
		cfg:           deps.Cfg,
		backgroundCtx: backgroundCtx,
		dbClient:      deps.DBClient,
		authn:         deps.Authn,
		workspaces:    deps.Workspaces,
		documents:     deps.Documents,
		datasets:      deps.Datasets,
		storage:       deps.Storage,
		dispatcher:    deps.Dispatcher,
		index:         deps.Index,
		registry:      deps.Registry,
		evalStore:     deps.EvalStore,
		executor:      deps.Executor,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers every route of spec §6.
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(16 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)
	s.echo.POST("/auth/signup", s.signupHandler)

	api := s.echo.Group("")
	api.Use(requireAPIKey(s.authn))

	api.POST("/workspace/create", s.createWorkspaceHandler)
	api.POST("/workspace/:id/upload", s.uploadDocumentHandler)
	api.POST("/rag/:document_id/process", s.processDocumentHandler)
	api.POST("/rag/query", s.ragQueryHandler)

	api.POST("/evaluation/dataset/create", s.createDatasetHandler)
	api.POST("/evaluation/dataset/:id/questions", s.addQuestionsHandler)
	api.POST("/evaluation/create", s.createEvaluationHandler)
	api.GET("/evaluation/:id", s.getEvaluationHandler)

	api.GET("/results/:eval_id/summary", s.resultsSummaryHandler)
	api.GET("/results/:eval_id/detailed", s.resultsDetailedHandler)
	api.GET("/results/:eval_id/metrics-by-model", s.resultsByModelHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.Pool())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status:   "unhealthy",
			Version:  version.Full(),
			Database: dbHealth,
		})
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:   "healthy",
		Version:  version.Full(),
		Database: dbHealth,
	})
}
