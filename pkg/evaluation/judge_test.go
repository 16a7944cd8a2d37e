package evaluation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxwell-labs/ragbench/pkg/provider"
)

// fakeGenerator returns responses in order, then repeats the last one. Safe
// for concurrent use since runJudges calls every metric's judge in its own
// goroutine.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ string, _ float64, _ int) (provider.GenerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return provider.GenerateResult{Text: f.responses[i]}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestParseJudgeOutput_DirectJSON(t *testing.T) {
	out, err := parseJudgeOutput(`{"score": 0.75, "explanation": "good"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.75, out.Score)
	assert.Equal(t, "good", out.Explanation)
}

func TestParseJudgeOutput_ExtractsFromSurroundingProse(t *testing.T) {
	out, err := parseJudgeOutput("Sure, here is my evaluation:\n{\"score\": 0.4, \"explanation\": \"partial\"}\nThanks.")
	require.NoError(t, err)
	assert.Equal(t, 0.4, out.Score)
}

func TestParseJudgeOutput_Unparsable(t *testing.T) {
	_, err := parseJudgeOutput("I refuse to answer in JSON.")
	assert.ErrorIs(t, err, errUnparsableJudgeOutput)
}

func TestJudgeMetric_RetriesOnParseFailureThenSucceeds(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"not json", "still not json", `{"score": 0.9, "explanation": "now valid"}`}}

	score, explanation := judgeMetric(context.Background(), gen, "judge-model", "faithfulness", "prompt")
	require.NotNil(t, score)
	assert.InDelta(t, 0.9, *score, 1e-9)
	assert.Equal(t, "now valid", explanation)
	assert.Equal(t, 3, gen.callCount())
}

func TestJudgeMetric_NullAfterExhaustingAttempts(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"nope", "nope", "nope", "nope"}}

	score, explanation := judgeMetric(context.Background(), gen, "judge-model", "reasoning", "prompt")
	assert.Nil(t, score)
	assert.Empty(t, explanation)
	assert.Equal(t, maxJudgeParseAttempts, gen.callCount())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 1.0, clamp01(2))
	assert.Equal(t, 0.5, clamp01(0.5))
}
