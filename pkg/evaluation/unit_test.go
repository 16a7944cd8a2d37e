package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxwell-labs/ragbench/pkg/models"
)

func TestRunJudges_SkipsAccuracyWithoutExpectedAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"score": 0.7, "explanation": "ok"}`}}
	q := models.TestQuestion{QuestionText: "what is rag?"}

	metrics := runJudges(context.Background(), gen, "judge-model", q, "context", "answer")

	assert.Nil(t, metrics.Accuracy)
	require.NotNil(t, metrics.Faithfulness)
	require.NotNil(t, metrics.Reasoning)
	require.NotNil(t, metrics.ContextUtilization)
	assert.InDelta(t, 0.7, *metrics.Faithfulness, 1e-9)
}

func TestRunJudges_IncludesAccuracyWithExpectedAnswer(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"score": 0.6, "explanation": "ok"}`}}
	q := models.TestQuestion{QuestionText: "what is rag?", ExpectedAnswer: "retrieval augmented generation"}

	metrics := runJudges(context.Background(), gen, "judge-model", q, "context", "answer")

	require.NotNil(t, metrics.Accuracy)
	assert.InDelta(t, 0.6, *metrics.Accuracy, 1e-9)
}
