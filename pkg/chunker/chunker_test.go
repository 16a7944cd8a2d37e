package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = `Retrieval-augmented generation combines a retriever with a generator.

The retriever finds relevant passages from a corpus. The generator then conditions on those passages to produce an answer. This pattern reduces hallucination compared to a generator acting alone.

Systems built this way still depend heavily on chunking quality and embedding fidelity.`

func TestSplitDeterministic(t *testing.T) {
	first, err := Split(sampleText, 40, 8)
	require.NoError(t, err)
	second, err := Split(sampleText, 40, 8)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitCoverage(t *testing.T) {
	chunks, err := Split(sampleText, 40, 8)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c.Text)
		rebuilt.WriteString(" ")
	}
	normalizedInput := strings.Join(strings.Fields(sampleText), " ")
	for _, word := range strings.Fields(normalizedInput) {
		assert.Contains(t, rebuilt.String(), word)
	}
}

func TestSplitContiguousIndices(t *testing.T) {
	chunks, err := Split(sampleText, 40, 8)
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
}

func TestSplitRejectsInvalidOverlap(t *testing.T) {
	_, err := Split(sampleText, 40, 40)
	assert.Error(t, err)

	_, err = Split(sampleText, 40, -1)
	assert.Error(t, err)
}

func TestSplitWhitespaceOnlyFails(t *testing.T) {
	_, err := Split("   \n\n   \t  ", 40, 8)
	assert.Error(t, err)
}

func TestSplitWithinTokenBudget(t *testing.T) {
	chunks, err := Split(sampleText, 20, 4)
	require.NoError(t, err)
	for _, c := range chunks {
		n, err := CountTokens(c.Text)
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 20+4, "chunk exceeded size+overlap budget: %q", c.Text)
	}
}
