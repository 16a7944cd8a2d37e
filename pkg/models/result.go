package models

// ModelResult is the per-(question x candidate) outcome of the retrieve +
// generate stages (spec §3, §4.E).
type ModelResult struct {
	ID               string
	EvaluationID     string
	QuestionIndex    int
	CandidateModel   CandidateModel
	GeneratedAnswer  string
	RetrievedContext string
	LatencyMS        int64
	CostUSD          float64
	PromptTokens     int
	CompletionTokens int
	Error            string // empty means the unit succeeded
}

// Succeeded reports whether generation produced an answer (spec §4.E
// failure policy: a unit is successful once generation succeeds, even if
// some judge metrics are null).
func (r ModelResult) Succeeded() bool {
	return r.Error == ""
}

// QuestionMetrics holds judge scores for one ModelResult (spec §3, §4.E).
// Score pointers are nil when absent (accuracy with no expected_answer) or
// null (judge parse failure after retries).
type QuestionMetrics struct {
	ID                  string
	ModelResultID       string
	Accuracy            *float64
	AccuracyExplanation string
	Faithfulness        *float64
	FaithfulnessExplain string
	Reasoning           *float64
	ReasoningExplain    string
	ContextUtilization  *float64
	ContextUtilExplain  string
}

// CandidateSummary is the aggregate for one candidate model within an
// EvaluationSummary (spec §3, §4.E Aggregation).
type CandidateSummary struct {
	CandidateModel        CandidateModel
	MeanAccuracy          *float64
	MeanFaithfulness      *float64
	MeanReasoning         *float64
	MeanContextUtilization *float64
	MeanLatencyMS         float64
	MeanCostUSD           float64
	TotalCostUSD          float64
	OverallScore          float64
	SuccessfulCount       int
	FailedCount           int
	TotalCount            int
}

// EvaluationSummary is the per-evaluation aggregate across all candidates,
// ranked by overall score (spec §3, §4.E).
type EvaluationSummary struct {
	EvaluationID string
	Candidates   []CandidateSummary // ranked, best first
}
