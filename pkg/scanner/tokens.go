package scanner

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenEstimator estimates token counts with a tiktoken BPE encoding.
// Construction may fetch the encoding's rank file, so callers that only need
// character sizes should leave the scanner's estimator unset.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the cl100k_base encoding.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("scanner: load tiktoken encoding: %w", err)
	}
	return &TiktokenEstimator{enc: enc}, nil
}

// Estimate returns the token count of text.
func (e *TiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}
