package evaluation

import (
	"sort"

	"github.com/maxwell-labs/ragbench/pkg/models"
)

// weights for accuracy, faithfulness, reasoning, context_utilization
// (spec §3, GLOSSARY "Overall score").
const (
	weightAccuracy           = 0.30
	weightFaithfulness       = 0.30
	weightReasoning          = 0.20
	weightContextUtilization = 0.20
)

// aggregate computes the per-candidate EvaluationSummary from every unit
// outcome for one evaluation (spec §4.E "Aggregation"). Only successful
// units (generation succeeded) contribute to the metric means; failed
// units only add to failed_count.
func aggregate(evaluationID string, candidates []models.CandidateModel, outcomes []unitOutcome) models.EvaluationSummary {
	byCandidate := make(map[string][]unitOutcome, len(candidates))
	for _, o := range outcomes {
		key := o.Candidate.Key()
		byCandidate[key] = append(byCandidate[key], o)
	}

	summaries := make([]models.CandidateSummary, 0, len(candidates))
	for _, candidate := range candidates {
		summaries = append(summaries, summarizeCandidate(candidate, byCandidate[candidate.Key()]))
	}

	rankCandidates(summaries)
	return models.EvaluationSummary{EvaluationID: evaluationID, Candidates: summaries}
}

func summarizeCandidate(candidate models.CandidateModel, outcomes []unitOutcome) models.CandidateSummary {
	summary := models.CandidateSummary{CandidateModel: candidate, TotalCount: len(outcomes)}

	var accuracySum, faithfulnessSum, reasoningSum, contextSum float64
	var accuracyN, faithfulnessN, reasoningN, contextN int
	var latencySum float64
	var costSum float64

	for _, o := range outcomes {
		if !o.Result.Succeeded() {
			summary.FailedCount++
			continue
		}
		summary.SuccessfulCount++
		latencySum += float64(o.Result.LatencyMS)
		costSum += o.Result.CostUSD

		if o.Metrics.Accuracy != nil {
			accuracySum += *o.Metrics.Accuracy
			accuracyN++
		}
		if o.Metrics.Faithfulness != nil {
			faithfulnessSum += *o.Metrics.Faithfulness
			faithfulnessN++
		}
		if o.Metrics.Reasoning != nil {
			reasoningSum += *o.Metrics.Reasoning
			reasoningN++
		}
		if o.Metrics.ContextUtilization != nil {
			contextSum += *o.Metrics.ContextUtilization
			contextN++
		}
	}

	summary.MeanAccuracy = meanOrNil(accuracySum, accuracyN)
	summary.MeanFaithfulness = meanOrNil(faithfulnessSum, faithfulnessN)
	summary.MeanReasoning = meanOrNil(reasoningSum, reasoningN)
	summary.MeanContextUtilization = meanOrNil(contextSum, contextN)
	summary.TotalCostUSD = costSum
	if summary.SuccessfulCount > 0 {
		summary.MeanLatencyMS = latencySum / float64(summary.SuccessfulCount)
		summary.MeanCostUSD = costSum / float64(summary.SuccessfulCount)
	}
	summary.OverallScore = overallScore(summary.MeanAccuracy, summary.MeanFaithfulness, summary.MeanReasoning, summary.MeanContextUtilization)
	return summary
}

func meanOrNil(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// overallScore applies the weighted formula of spec §3, renormalizing
// weights over whichever metrics are present when accuracy is absent.
func overallScore(accuracy, faithfulness, reasoning, contextUtil *float64) float64 {
	type component struct {
		value  *float64
		weight float64
	}
	components := []component{
		{accuracy, weightAccuracy},
		{faithfulness, weightFaithfulness},
		{reasoning, weightReasoning},
		{contextUtil, weightContextUtilization},
	}

	var weightedSum, weightTotal float64
	for _, c := range components {
		if c.value == nil {
			continue
		}
		weightedSum += *c.value * c.weight
		weightTotal += c.weight
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}

// rankCandidates orders summaries by overall_score descending, tie-breaks
// by lower mean latency then lower mean cost (spec §4.E "Aggregation").
func rankCandidates(summaries []models.CandidateSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.OverallScore != b.OverallScore {
			return a.OverallScore > b.OverallScore
		}
		if a.MeanLatencyMS != b.MeanLatencyMS {
			return a.MeanLatencyMS < b.MeanLatencyMS
		}
		return a.MeanCostUSD < b.MeanCostUSD
	})
}
