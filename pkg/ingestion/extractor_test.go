package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestExtract_PlainText(t *testing.T) {
	path := writeTemp(t, "hello world")
	text, err := extract("text/plain", path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtract_HTML(t *testing.T) {
	path := writeTemp(t, "<h1>Title</h1><p>Body text</p>")
	text, err := extract("text/html", path)
	require.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Body text")
}

func TestExtract_CSV(t *testing.T) {
	path := writeTemp(t, "name,age\nalice,30\nbob,40\n")
	text, err := extract("text/csv", path)
	require.NoError(t, err)
	assert.Contains(t, text, "alice, 30")
	assert.Contains(t, text, "bob, 40")
}

func TestExtract_EmptyFailsWithExtractEmpty(t *testing.T) {
	path := writeTemp(t, "   \n\t  ")
	_, err := extract("text/plain", path)
	assert.True(t, apperrors.Is(err, apperrors.KindExtractEmpty))
}

func TestExtract_MissingFileFailsWithExtractEmpty(t *testing.T) {
	_, err := extract("text/plain", filepath.Join(t.TempDir(), "does-not-exist"))
	assert.True(t, apperrors.Is(err, apperrors.KindExtractEmpty))
}
