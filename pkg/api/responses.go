package api

import (
	"time"

	"github.com/maxwell-labs/ragbench/pkg/database"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database,omitempty"`
}

// SignupResponse is returned by POST /auth/signup. APIKey is shown once.
type SignupResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// WorkspaceResponse is returned by POST /workspace/create.
type WorkspaceResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	EmbeddingProvider  string    `json:"embedding_provider"`
	EmbeddingModel     string    `json:"embedding_model"`
	ChunkSizeTokens    int       `json:"chunk_size_tokens"`
	ChunkOverlapTokens int       `json:"chunk_overlap_tokens"`
	CreatedAt          time.Time `json:"created_at"`
}

// DocumentResponse is returned by the upload and (re)process endpoints.
type DocumentResponse struct {
	ID             string `json:"id"`
	WorkspaceID    string `json:"workspace_id"`
	Status         string `json:"status"`
	ContentType    string `json:"content_type"`
	ErrorMessage   string `json:"error_message,omitempty"`
	TotalChunks    int    `json:"total_chunks"`
}

// RAGMatchResponse is one hit in a RAGQueryResponse.
type RAGMatchResponse struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// RAGQueryResponse is returned by POST /rag/query.
type RAGQueryResponse struct {
	Matches []RAGMatchResponse `json:"matches"`
}

// DatasetResponse is returned by POST /evaluation/dataset/create.
type DatasetResponse struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
}

// QuestionResponse is one question in a QuestionsResponse.
type QuestionResponse struct {
	ID               string `json:"id"`
	QuestionIndex    int    `json:"question_index"`
	QuestionText     string `json:"question_text"`
	ExpectedAnswer   string `json:"expected_answer,omitempty"`
	ContextReference string `json:"context_reference,omitempty"`
}

// QuestionsResponse is returned by POST /evaluation/dataset/{id}/questions.
type QuestionsResponse struct {
	Questions []QuestionResponse `json:"questions"`
}

// EvaluationResponse is returned by POST /evaluation/create and
// GET /evaluation/{id}.
type EvaluationResponse struct {
	ID           string     `json:"id"`
	DatasetID    string     `json:"dataset_id"`
	WorkspaceID  string     `json:"workspace_id"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// CandidateSummaryResponse is one candidate's aggregate within a
// SummaryResponse.
type CandidateSummaryResponse struct {
	Provider               string   `json:"provider"`
	Model                  string   `json:"model"`
	MeanAccuracy           *float64 `json:"mean_accuracy,omitempty"`
	MeanFaithfulness       *float64 `json:"mean_faithfulness,omitempty"`
	MeanReasoning          *float64 `json:"mean_reasoning,omitempty"`
	MeanContextUtilization *float64 `json:"mean_context_utilization,omitempty"`
	MeanLatencyMS          float64  `json:"mean_latency_ms"`
	MeanCostUSD            float64  `json:"mean_cost_usd"`
	TotalCostUSD           float64  `json:"total_cost_usd"`
	OverallScore           float64  `json:"overall_score"`
	SuccessfulCount        int      `json:"successful_count"`
	FailedCount            int      `json:"failed_count"`
	TotalCount             int      `json:"total_count"`
}

// SummaryResponse is returned by GET /results/{eval_id}/summary, ranked
// best candidate first.
type SummaryResponse struct {
	EvaluationID string                      `json:"evaluation_id"`
	Candidates   []CandidateSummaryResponse `json:"candidates"`
}

// QuestionMetricsResponse is the judge scoring for one ModelResult.
type QuestionMetricsResponse struct {
	Accuracy               *float64 `json:"accuracy,omitempty"`
	AccuracyExplanation    string   `json:"accuracy_explanation,omitempty"`
	Faithfulness           *float64 `json:"faithfulness,omitempty"`
	FaithfulnessExplain    string   `json:"faithfulness_explanation,omitempty"`
	Reasoning              *float64 `json:"reasoning,omitempty"`
	ReasoningExplain       string   `json:"reasoning_explanation,omitempty"`
	ContextUtilization     *float64 `json:"context_utilization,omitempty"`
	ContextUtilExplain     string   `json:"context_utilization_explanation,omitempty"`
}

// ModelResultResponse is one (question x candidate) outcome within a
// DetailedResponse.
type ModelResultResponse struct {
	QuestionIndex    int                     `json:"question_index"`
	Provider         string                  `json:"provider"`
	Model            string                  `json:"model"`
	GeneratedAnswer  string                  `json:"generated_answer,omitempty"`
	RetrievedContext string                  `json:"retrieved_context,omitempty"`
	LatencyMS        int64                   `json:"latency_ms"`
	CostUSD          float64                 `json:"cost_usd"`
	PromptTokens     int                     `json:"prompt_tokens"`
	CompletionTokens int                     `json:"completion_tokens"`
	Error            string                  `json:"error,omitempty"`
	Metrics          QuestionMetricsResponse `json:"metrics"`
}

// DetailedResponse is returned by GET /results/{eval_id}/detailed.
type DetailedResponse struct {
	EvaluationID string                 `json:"evaluation_id"`
	Results      []ModelResultResponse `json:"results"`
}

// MetricsByModelResponse is returned by GET
// /results/{eval_id}/metrics-by-model, indexed by "{provider}/{model}".
type MetricsByModelResponse struct {
	EvaluationID string                            `json:"evaluation_id"`
	Metrics      map[string][]ModelResultResponse `json:"metrics_by_model"`
}
