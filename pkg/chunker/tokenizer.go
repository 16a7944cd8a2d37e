package chunker

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is fixed per spec so that chunk counts are reproducible
// across implementations regardless of which candidate model a workspace
// eventually targets.
const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// CountTokens returns the cl100k_base token count of text.
func CountTokens(text string) (int, error) {
	e, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(e.Encode(text, nil, nil)), nil
}

// Tokens returns the cl100k_base token ids of text.
func Tokens(text string) ([]int, error) {
	e, err := encoding()
	if err != nil {
		return nil, err
	}
	return e.Encode(text, nil, nil), nil
}

// Decode renders token ids back to text.
func Decode(tokens []int) (string, error) {
	e, err := encoding()
	if err != nil {
		return "", err
	}
	return e.Decode(tokens), nil
}
