// Package config assembles the process-wide configuration object: provider
// credentials, pricing, queue bounds, and typed defaults. It replaces the
// source's dynamic keyword-argument configs with typed records, constructed
// once at startup and passed explicitly rather than held as package-level
// singletons (spec §9).
package config

// Config is the umbrella configuration object returned by Initialize and
// threaded explicitly through the rest of the application, mirroring the
// teacher's config.Config aggregate.
type Config struct {
	Providers    *ProviderRegistry
	Pricing      *PricingTable
	Queue        QueueConfig
	Timeouts     Timeouts
	Retry        RetryPolicy
	Workspace    WorkspaceDefaults
	Evaluation   EvaluationDefaults
	UploadRoot   string
	PricingPath  string
}

// Initialize loads configuration from the environment, applying the
// defaults of spec §6. It never reads YAML/HCL files — every knob is an
// environment variable, matching the collaborator surface the spec leaves
// external.
func Initialize() (*Config, error) {
	workerPoolSize, err := getEnvInt("WORKER_POOL_SIZE", 8)
	if err != nil {
		return nil, NewValidationError("WORKER_POOL_SIZE", err)
	}
	batchSize, err := getEnvInt("INGEST_EMBED_BATCH_SIZE", 64)
	if err != nil {
		return nil, NewValidationError("INGEST_EMBED_BATCH_SIZE", err)
	}
	chunkSize, err := getEnvInt("DEFAULT_CHUNK_SIZE_TOKENS", defaultWorkspaceDefaults().ChunkSizeTokens)
	if err != nil {
		return nil, NewValidationError("DEFAULT_CHUNK_SIZE_TOKENS", err)
	}
	chunkOverlap, err := getEnvInt("DEFAULT_CHUNK_OVERLAP_TOKENS", defaultWorkspaceDefaults().ChunkOverlapTokens)
	if err != nil {
		return nil, NewValidationError("DEFAULT_CHUNK_OVERLAP_TOKENS", err)
	}
	topK, err := getEnvInt("DEFAULT_TOP_K", defaultEvaluationDefaults().TopK)
	if err != nil {
		return nil, NewValidationError("DEFAULT_TOP_K", err)
	}
	maxTokens, err := getEnvInt("DEFAULT_MAX_TOKENS", defaultEvaluationDefaults().MaxTokens)
	if err != nil {
		return nil, NewValidationError("DEFAULT_MAX_TOKENS", err)
	}
	temperature, err := getEnvFloat("DEFAULT_TEMPERATURE", defaultEvaluationDefaults().Temperature)
	if err != nil {
		return nil, NewValidationError("DEFAULT_TEMPERATURE", err)
	}
	similarityThreshold, err := getEnvFloat("DEFAULT_SIMILARITY_THRESHOLD", defaultEvaluationDefaults().SimilarityThreshold)
	if err != nil {
		return nil, NewValidationError("DEFAULT_SIMILARITY_THRESHOLD", err)
	}

	pricingPath := getEnvOrDefault("PRICING_TABLE_PATH", "")
	pricing, err := LoadPricingTable(pricingPath)
	if err != nil {
		return nil, err
	}
	if pricingPath == "" {
		pricing = DefaultPricingTable()
	}

	cfg := &Config{
		Providers: DefaultProviderRegistry(),
		Pricing:   pricing,
		Queue: QueueConfig{
			WorkerPoolSize:       workerPoolSize,
			IngestEmbedBatchSize: batchSize,
		},
		Timeouts: defaultTimeouts(),
		Retry:    defaultRetryPolicy(),
		Workspace: WorkspaceDefaults{
			ChunkSizeTokens:    chunkSize,
			ChunkOverlapTokens: chunkOverlap,
		},
		Evaluation: EvaluationDefaults{
			TopK:                topK,
			Temperature:         temperature,
			MaxTokens:           maxTokens,
			SimilarityThreshold: similarityThreshold,
		},
		UploadRoot:  getEnvOrDefault("UPLOAD_ROOT", "uploads"),
		PricingPath: pricingPath,
	}
	return cfg, nil
}
