package llm

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// estimatorEncoding is the BPE used for prompt-size estimation. The count
// only has to be close enough for budget guarding, so one encoding serves
// every provider.
const estimatorEncoding = "cl100k_base"

// TokenEstimator estimates prompt token counts before dispatch so oversized
// prompts are rejected without spending a network call.
type TokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenEstimator constructs an estimator. Construction can fail when the
// encoding data is unavailable; callers may run the client with a nil
// estimator, which disables the budget guard.
func NewTokenEstimator() (*TokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(estimatorEncoding)
	if err != nil {
		return nil, fmt.Errorf("llm.NewTokenEstimator: loading %s: %w", estimatorEncoding, err)
	}
	return &TokenEstimator{encoding: enc}, nil
}

// Count returns the estimated token count of text.
//
// Postcondition: returns 0 on a nil receiver.
func (e *TokenEstimator) Count(text string) int {
	if e == nil {
		return 0
	}
	return len(e.encoding.Encode(text, nil, nil))
}
