package config

import "time"

// QueueConfig bounds background-job concurrency (spec §5).
type QueueConfig struct {
	// WorkerPoolSize bounds concurrent (question x candidate) units within
	// one evaluation unless the evaluation overrides it, and separately
	// bounds concurrently ingesting documents (spec §5, default 8).
	WorkerPoolSize int
	// IngestEmbedBatchSize bounds the number of chunks per embed call
	// (spec §4.D stage 3).
	IngestEmbedBatchSize int
}

// Timeouts holds the hard per-call deadlines of spec §5.
type Timeouts struct {
	Embed    time.Duration
	Generate time.Duration
	Judge    time.Duration
}

// WorkspaceDefaults seed new workspaces absent an explicit override
// (spec §9 WorkspaceConfig).
type WorkspaceDefaults struct {
	ChunkSizeTokens    int
	ChunkOverlapTokens int
}

// EvaluationDefaults seed new evaluations absent an explicit override
// (spec §9 EvaluationConfig).
type EvaluationDefaults struct {
	TopK                int
	Temperature         float64
	MaxTokens           int
	SimilarityThreshold float64
}

// RetryPolicy is the provider-call retry policy of spec §4.A: up to 3
// attempts total, exponential backoff base 2s capped at 10s.
type RetryPolicy struct {
	MaxAttempts  int
	BaseInterval time.Duration
	MaxInterval  time.Duration
}

func defaultTimeouts() Timeouts {
	return Timeouts{
		Embed:    60 * time.Second,
		Generate: 120 * time.Second,
		Judge:    60 * time.Second,
	}
}

func defaultQueueConfig() QueueConfig {
	return QueueConfig{
		WorkerPoolSize:       8,
		IngestEmbedBatchSize: 64,
	}
}

func defaultWorkspaceDefaults() WorkspaceDefaults {
	return WorkspaceDefaults{
		ChunkSizeTokens:    500,
		ChunkOverlapTokens: 100,
	}
}

func defaultEvaluationDefaults() EvaluationDefaults {
	return EvaluationDefaults{
		TopK:                5,
		Temperature:         0.0,
		MaxTokens:           1024,
		SimilarityThreshold: 0,
	}
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseInterval: 2 * time.Second,
		MaxInterval:  10 * time.Second,
	}
}
