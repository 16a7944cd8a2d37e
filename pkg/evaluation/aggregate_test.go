package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maxwell-labs/ragbench/pkg/models"
)

func ptr(v float64) *float64 { return &v }

func TestOverallScore_RenormalizesWhenAccuracyAbsent(t *testing.T) {
	// No expected_answer: accuracy is nil, weight redistributes across the
	// remaining three metrics (spec GLOSSARY "Overall score").
	got := overallScore(nil, ptr(0.8), ptr(0.8), ptr(0.8))
	assert.InDelta(t, 0.8, got, 1e-9)
}

func TestOverallScore_FullWeights(t *testing.T) {
	got := overallScore(ptr(1.0), ptr(0.5), ptr(0.5), ptr(0.5))
	// 0.30*1 + 0.30*0.5 + 0.20*0.5 + 0.20*0.5 = 0.65
	assert.InDelta(t, 0.65, got, 1e-9)
}

func TestOverallScore_NoComponentsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, overallScore(nil, nil, nil, nil))
}

func TestSummarizeCandidate_FailedUnitsExcludedFromMeans(t *testing.T) {
	candidate := models.CandidateModel{Provider: "flaky-gen", Model: "m1"}
	outcomes := []unitOutcome{
		{Candidate: candidate, Result: models.ModelResult{Error: "provider unavailable"}},
		{Candidate: candidate, Result: models.ModelResult{Error: "provider unavailable"}},
	}

	summary := summarizeCandidate(candidate, outcomes)
	assert.Equal(t, 2, summary.TotalCount)
	assert.Equal(t, 0, summary.SuccessfulCount)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Nil(t, summary.MeanAccuracy)
	assert.Equal(t, 0.0, summary.MeanLatencyMS)
	assert.Equal(t, 0.0, summary.OverallScore)
}

func TestRankCandidates_ScoreThenLatencyThenCost(t *testing.T) {
	summaries := []models.CandidateSummary{
		{CandidateModel: models.CandidateModel{Model: "slow-best"}, OverallScore: 0.9, MeanLatencyMS: 500, MeanCostUSD: 0.01},
		{CandidateModel: models.CandidateModel{Model: "fast-best"}, OverallScore: 0.9, MeanLatencyMS: 100, MeanCostUSD: 0.02},
		{CandidateModel: models.CandidateModel{Model: "worst"}, OverallScore: 0.5, MeanLatencyMS: 50, MeanCostUSD: 0.001},
		{CandidateModel: models.CandidateModel{Model: "tie-cheaper"}, OverallScore: 0.9, MeanLatencyMS: 100, MeanCostUSD: 0.005},
	}

	rankCandidates(summaries)

	got := make([]string, len(summaries))
	for i, s := range summaries {
		got[i] = s.CandidateModel.Model
	}
	assert.Equal(t, []string{"tie-cheaper", "fast-best", "slow-best", "worst"}, got)
}

func TestAggregate_RanksCandidatesByOverallScore(t *testing.T) {
	a := models.CandidateModel{Provider: "p", Model: "a"}
	b := models.CandidateModel{Provider: "p", Model: "b"}

	outcomes := []unitOutcome{
		{Candidate: a, Result: models.ModelResult{LatencyMS: 10}, Metrics: models.QuestionMetrics{Faithfulness: ptr(0.2), Reasoning: ptr(0.2), ContextUtilization: ptr(0.2)}},
		{Candidate: b, Result: models.ModelResult{LatencyMS: 10}, Metrics: models.QuestionMetrics{Faithfulness: ptr(0.9), Reasoning: ptr(0.9), ContextUtilization: ptr(0.9)}},
	}

	summary := aggregate("eval-1", []models.CandidateModel{a, b}, outcomes)
	assert.Equal(t, "eval-1", summary.EvaluationID)
	assert.Len(t, summary.Candidates, 2)
	assert.Equal(t, "b", summary.Candidates[0].CandidateModel.Model)
	assert.Equal(t, "a", summary.Candidates[1].CandidateModel.Model)
}
