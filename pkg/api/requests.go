package api

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email string `json:"email"`
}

// CreateWorkspaceRequest is the body of POST /workspace/create.
type CreateWorkspaceRequest struct {
	Name               string `json:"name"`
	EmbeddingProvider  string `json:"embedding_provider"`
	EmbeddingModel     string `json:"embedding_model"`
	ChunkSize          int    `json:"chunk_size"`
	ChunkOverlap       int    `json:"chunk_overlap"`
}

// RAGQueryRequest is the body of POST /rag/query.
type RAGQueryRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Query       string `json:"query"`
	TopK        int    `json:"top_k"`
}

// CreateDatasetRequest is the body of POST /evaluation/dataset/create.
type CreateDatasetRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
}

// AddQuestionsRequest is the body of POST /evaluation/dataset/{id}/questions.
type AddQuestionsRequest struct {
	Questions []QuestionRequest `json:"questions"`
}

// QuestionRequest is one question within AddQuestionsRequest.
type QuestionRequest struct {
	QuestionText     string `json:"question_text"`
	ExpectedAnswer   string `json:"expected_answer,omitempty"`
	ContextReference string `json:"context_reference,omitempty"`
}

// CandidateModelRequest names one LLM under test or the judge.
type CandidateModelRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// CreateEvaluationRequest is the body of POST /evaluation/create.
type CreateEvaluationRequest struct {
	DatasetID       string                  `json:"dataset_id"`
	WorkspaceID     string                  `json:"workspace_id"`
	CandidateModels []CandidateModelRequest `json:"candidate_models"`
	JudgeModel      CandidateModelRequest   `json:"judge_model"`
	Settings        *EvaluationSettingsRequest `json:"settings,omitempty"`
}

// EvaluationSettingsRequest overrides evaluation defaults (spec §9
// EvaluationConfig).
type EvaluationSettingsRequest struct {
	TopK                int     `json:"top_k,omitempty"`
	Temperature         float64 `json:"temperature,omitempty"`
	MaxTokens           int     `json:"max_tokens,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	WorkerPoolSize      int     `json:"worker_pool_size,omitempty"`
}
