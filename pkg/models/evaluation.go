package models

import "time"

// EvaluationStatus is the lifecycle state of an Evaluation (spec §3, §4.E).
type EvaluationStatus string

const (
	EvaluationStatusPending   EvaluationStatus = "pending"
	EvaluationStatusRunning   EvaluationStatus = "running"
	EvaluationStatusCompleted EvaluationStatus = "completed"
	EvaluationStatusFailed    EvaluationStatus = "failed"
)

// CandidateModel identifies one LLM under test in an Evaluation.
type CandidateModel struct {
	Provider string
	Model    string
}

// Key returns the "{provider}/{model}" identifier used to index results
// (spec §6, /results/{eval_id}/metrics-by-model).
func (c CandidateModel) Key() string {
	return c.Provider + "/" + c.Model
}

// EvaluationSettings configures retrieval and generation for a run
// (spec §3, §9 EvaluationConfig).
type EvaluationSettings struct {
	TopK                int
	Temperature         float64
	MaxTokens           int
	SimilarityThreshold float64 // 0 means unset (no threshold)
	WorkerPoolSize      int
}

// Evaluation is a run definition over a TestDataset against a set of
// candidate models, judged by a single judge model.
type Evaluation struct {
	ID              string
	DatasetID       string
	WorkspaceID     string
	CandidateModels []CandidateModel
	JudgeModel      CandidateModel
	Settings        EvaluationSettings
	Status          EvaluationStatus
	ErrorMessage    string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}
