// ragbench is a RAG evaluation platform: ingest documents into a
// workspace, run ad-hoc retrieval queries, and benchmark candidate LLMs
// against a judged test dataset.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maxwell-labs/ragbench/pkg/api"
	"github.com/maxwell-labs/ragbench/pkg/authn"
	"github.com/maxwell-labs/ragbench/pkg/catalog"
	"github.com/maxwell-labs/ragbench/pkg/config"
	"github.com/maxwell-labs/ragbench/pkg/database"
	"github.com/maxwell-labs/ragbench/pkg/evaluation"
	"github.com/maxwell-labs/ragbench/pkg/ingestion"
	"github.com/maxwell-labs/ragbench/pkg/provider"
	"github.com/maxwell-labs/ragbench/pkg/vectorindex"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	envPath := filepath.Join(getEnv("CONFIG_DIR", "."), ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")

	log.Println("starting ragbench")

	ctx := context.Background()

	cfg, err := config.Initialize()
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("connected to postgres, migrations applied")

	pool := dbClient.Pool()

	authnSvc := authn.NewService(pool)
	workspaceSvc := catalog.NewWorkspaceService(pool)
	documentSvc := catalog.NewDocumentService(pool)
	chunkSvc := catalog.NewChunkService(pool)
	datasetSvc := catalog.NewDatasetService(pool)

	index := vectorindex.NewPGIndex(pool)
	registry := provider.NewRegistry(cfg.Providers, cfg.Pricing)

	storage, err := ingestion.NewStorage(cfg.UploadRoot)
	if err != nil {
		log.Fatalf("failed to initialize upload storage: %v", err)
	}
	pipeline := ingestion.NewPipeline(documentSvc, chunkSvc, index, registry, cfg.Queue.IngestEmbedBatchSize)
	dispatcher := ingestion.NewDispatcher(pipeline, int64(cfg.Queue.WorkerPoolSize))

	evalStore := evaluation.NewStore(pool)
	executor := evaluation.NewExecutor(evalStore, datasetSvc, workspaceSvc, index, registry)

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	server := api.NewServer(api.Deps{
		Cfg:           cfg,
		DBClient:      dbClient,
		Authn:         authnSvc,
		Workspaces:    workspaceSvc,
		Documents:     documentSvc,
		Datasets:      datasetSvc,
		Storage:       storage,
		Dispatcher:    dispatcher,
		Index:         index,
		Registry:      registry,
		EvalStore:     evalStore,
		Executor:      executor,
		BackgroundCtx: backgroundCtx,
	})

	log.Printf("http server listening on %s", httpAddr)

	go func() {
		if err := server.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	cancelBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
