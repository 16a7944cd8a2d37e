// Package chunker implements a deterministic, token-aware recursive text
// splitter: the same (text, size, overlap) triple always produces the same
// chunk sequence, counted against the cl100k_base encoding.
package chunker

import (
	"strings"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

// separators are tried coarsest-first; Split descends to the next candidate
// only when a segment still exceeds chunkSizeTokens after trying the
// current one.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunk is one produced span of a larger document.
type Chunk struct {
	ChunkIndex int
	Text       string
	TokenCount int
}

// Split divides text into token-bounded chunks of at most chunkSizeTokens,
// re-prepending the trailing chunkOverlapTokens of each chunk (truncated at
// a word boundary) onto the next. Returns apperrors.KindExtractEmpty if no
// chunk survives (e.g. text is entirely whitespace).
func Split(text string, chunkSizeTokens, chunkOverlapTokens int) ([]Chunk, error) {
	if chunkOverlapTokens < 0 || chunkOverlapTokens >= chunkSizeTokens {
		return nil, apperrors.New(apperrors.KindInputInvalid, "chunk_overlap_tokens (%d) must satisfy 0 <= overlap < chunk_size_tokens (%d)", chunkOverlapTokens, chunkSizeTokens)
	}

	segments, err := recursiveSplit(text, 0, chunkSizeTokens)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	var prevTail string
	for _, seg := range segments {
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			continue
		}
		withOverlap := trimmed
		if prevTail != "" {
			withOverlap = prevTail + " " + trimmed
		}
		count, err := CountTokens(withOverlap)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "counting tokens")
		}
		chunks = append(chunks, Chunk{
			ChunkIndex: len(chunks),
			Text:       withOverlap,
			TokenCount: count,
		})
		prevTail, err = tailByTokens(trimmed, chunkOverlapTokens)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, err, "computing overlap tail")
		}
	}

	if len(chunks) == 0 {
		return nil, apperrors.New(apperrors.KindExtractEmpty, "no non-whitespace chunks produced")
	}
	return chunks, nil
}

// recursiveSplit descends the separator cascade starting at sepIdx,
// returning segments each within chunkSizeTokens, or splitting on raw
// token boundaries once separators are exhausted.
func recursiveSplit(text string, sepIdx int, chunkSizeTokens int) ([]string, error) {
	count, err := CountTokens(text)
	if err != nil {
		return nil, err
	}
	if count <= chunkSizeTokens {
		return []string{text}, nil
	}
	if sepIdx >= len(separators) {
		return splitByTokenCount(text, chunkSizeTokens)
	}

	sep := separators[sepIdx]
	var parts []string
	if sep == "" {
		parts, err = splitByTokenCount(text, chunkSizeTokens)
		if err != nil {
			return nil, err
		}
		return parts, nil
	}
	parts = strings.Split(text, sep)
	if len(parts) == 1 {
		// This separator doesn't occur in text; try the next, finer one.
		return recursiveSplit(text, sepIdx+1, chunkSizeTokens)
	}

	var out []string
	var acc strings.Builder
	flush := func() error {
		if acc.Len() == 0 {
			return nil
		}
		out = append(out, acc.String())
		acc.Reset()
		return nil
	}
	for i, part := range parts {
		candidate := acc.String()
		if candidate != "" {
			candidate += sep
		}
		candidate += part
		n, err := CountTokens(candidate)
		if err != nil {
			return nil, err
		}
		if n > chunkSizeTokens && acc.Len() > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			acc.WriteString(part)
		} else {
			if acc.Len() > 0 {
				acc.WriteString(sep)
			}
			acc.WriteString(part)
		}
		if i == len(parts)-1 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	var final []string
	for _, seg := range out {
		n, err := CountTokens(seg)
		if err != nil {
			return nil, err
		}
		if n <= chunkSizeTokens {
			final = append(final, seg)
			continue
		}
		sub, err := recursiveSplit(seg, sepIdx+1, chunkSizeTokens)
		if err != nil {
			return nil, err
		}
		final = append(final, sub...)
	}
	return final, nil
}

// splitByTokenCount is the terminal case once no separator can shrink a
// segment below chunkSizeTokens: cut directly on token boundaries.
func splitByTokenCount(text string, chunkSizeTokens int) ([]string, error) {
	toks, err := Tokens(text)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := 0; i < len(toks); i += chunkSizeTokens {
		end := i + chunkSizeTokens
		if end > len(toks) {
			end = len(toks)
		}
		piece, err := Decode(toks[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, piece)
	}
	return out, nil
}

// tailByTokens returns the trailing overlapTokens worth of text, truncated
// at a word boundary so overlap never splits a token mid-word.
func tailByTokens(text string, overlapTokens int) (string, error) {
	if overlapTokens <= 0 {
		return "", nil
	}
	toks, err := Tokens(text)
	if err != nil {
		return "", err
	}
	if len(toks) <= overlapTokens {
		return "", nil // the whole prior chunk would be duplicated; skip overlap
	}
	tail := toks[len(toks)-overlapTokens:]
	decoded, err := Decode(tail)
	if err != nil {
		return "", err
	}
	decoded = strings.TrimSpace(decoded)
	if idx := strings.IndexAny(decoded, " \t\n"); idx >= 0 {
		decoded = strings.TrimSpace(decoded[idx:])
	} else {
		// Single run with no internal boundary; keep as-is rather than
		// dropping the only available overlap content.
		return decoded, nil
	}
	return decoded, nil
}
