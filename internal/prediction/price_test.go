package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange(t *testing.T) {
	tests := []struct {
		name     string
		estimate float64
		margin   float64
		lower    int64
		upper    int64
	}{
		{"round figure", 100000, 0.05, 95000, 105000},
		{"two million", 2000000, 0.05, 1900000, 2100000},
		{"zero", 0, 0.05, 0, 0},
		{"negative clamps to zero", -5000, 0.05, 0, 0},
		{"fractional rounds", 99999, 0.05, 94999, 104999},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Range(tc.estimate, tc.margin)
			assert.Equal(t, tc.lower, r.Lower)
			assert.Equal(t, tc.upper, r.Upper)
		})
	}
}

func TestConfidence(t *testing.T) {
	score := 0.87
	withScore := &Response{EstimatedPrice: 1, ConfidenceScore: &score}
	assert.Equal(t, 0.87, withScore.Confidence(DefaultConfidence))

	withoutScore := &Response{EstimatedPrice: 1}
	assert.Equal(t, 0.94, withoutScore.Confidence(DefaultConfidence))

	var nilResp *Response
	assert.Equal(t, 0.94, nilResp.Confidence(DefaultConfidence))
}
