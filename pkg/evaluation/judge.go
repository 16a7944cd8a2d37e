package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/maxwell-labs/ragbench/pkg/models"
	"github.com/maxwell-labs/ragbench/pkg/provider"
)

var errUnparsableJudgeOutput = errors.New("judge output is not a valid {score, explanation} object")

// maxJudgeParseAttempts bounds judge calls for a single metric: when the
// judge's text yields no {score, explanation} object even after
// parseJudgeOutput's extraction from surrounding prose, the call itself is
// retried, giving up after 3 attempts total (spec §8 retry bound, §9 Open
// Question (b)).
const maxJudgeParseAttempts = 3

type judgeOutput struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// judgeMetric calls generator with prompt up to maxJudgeParseAttempts times,
// re-prompting on a parse failure, and returns a clamped score or nil if
// every attempt failed to parse.
func judgeMetric(ctx context.Context, generator provider.Generator, model, metricName, prompt string) (*float64, string) {
	var lastErr error
	for attempt := 1; attempt <= maxJudgeParseAttempts; attempt++ {
		result, err := generator.Generate(ctx, model, prompt, 0, 256)
		if err != nil {
			lastErr = err
			continue
		}
		out, parseErr := parseJudgeOutput(result.Text)
		if parseErr != nil {
			lastErr = parseErr
			continue
		}
		score := clamp01(out.Score)
		return &score, out.Explanation
	}
	slog.Warn("judge metric parse failed after retries, recording null", "metric", metricName, "model", model, "error", lastErr)
	return nil, ""
}

// parseJudgeOutput extracts the judge's {score, explanation} object: it
// first parses the whole trimmed string strictly, then tolerates
// surrounding prose by parsing the span from the first "{" to the last "}".
func parseJudgeOutput(text string) (judgeOutput, error) {
	var out judgeOutput
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &out); err == nil {
			return out, nil
		}
	}
	return judgeOutput{}, errUnparsableJudgeOutput
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// runJudges calls all four quality-metric judges in parallel (spec §4.E,
// "unconditionally" parallel within a unit) and assembles QuestionMetrics.
// accuracy is skipped (left nil) when the question has no expected answer.
func runJudges(ctx context.Context, generator provider.Generator, judgeModel string, q models.TestQuestion, retrievedContext, generatedAnswer string) models.QuestionMetrics {
	type metricJob struct {
		name   string
		run    func() (*float64, string)
		score  *float64
		explan string
	}

	jobs := []*metricJob{
		{name: "faithfulness", run: func() (*float64, string) {
			return judgeMetric(ctx, generator, judgeModel, "faithfulness", faithfulnessPrompt(retrievedContext, generatedAnswer))
		}},
		{name: "reasoning", run: func() (*float64, string) {
			return judgeMetric(ctx, generator, judgeModel, "reasoning", reasoningPrompt(q.QuestionText, generatedAnswer))
		}},
		{name: "context_utilization", run: func() (*float64, string) {
			return judgeMetric(ctx, generator, judgeModel, "context_utilization", contextUtilizationPrompt(retrievedContext, generatedAnswer))
		}},
	}
	if q.HasExpectedAnswer() {
		jobs = append(jobs, &metricJob{name: "accuracy", run: func() (*float64, string) {
			return judgeMetric(ctx, generator, judgeModel, "accuracy", accuracyPrompt(q.QuestionText, q.ExpectedAnswer, generatedAnswer))
		}})
	}

	done := make(chan struct{})
	for _, j := range jobs {
		j := j
		go func() {
			j.score, j.explan = j.run()
			done <- struct{}{}
		}()
	}
	for range jobs {
		<-done
	}

	metrics := models.QuestionMetrics{}
	for _, j := range jobs {
		switch j.name {
		case "accuracy":
			metrics.Accuracy, metrics.AccuracyExplanation = j.score, j.explan
		case "faithfulness":
			metrics.Faithfulness, metrics.FaithfulnessExplain = j.score, j.explan
		case "reasoning":
			metrics.Reasoning, metrics.ReasoningExplain = j.score, j.explan
		case "context_utilization":
			metrics.ContextUtilization, metrics.ContextUtilExplain = j.score, j.explan
		}
	}
	return metrics
}
