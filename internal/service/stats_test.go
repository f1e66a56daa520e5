package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTwoProportionZ(t *testing.T) {
	// A larger rate gap at the same sample size yields a larger statistic.
	small := twoProportionZ(0.05, 200, 0.04, 200)
	large := twoProportionZ(0.09, 200, 0.04, 200)
	assert.Greater(t, large, small)

	// More samples sharpen the same gap.
	loose := twoProportionZ(0.06, 50, 0.04, 50)
	tight := twoProportionZ(0.06, 5000, 0.04, 5000)
	assert.Greater(t, tight, loose)

	// Symmetric in the order of the variants.
	assert.InDelta(t, twoProportionZ(0.08, 300, 0.03, 300), twoProportionZ(0.03, 300, 0.08, 300), 1e-12)

	// Degenerate inputs collapse to zero instead of dividing by zero.
	assert.Zero(t, twoProportionZ(0, 100, 0, 100))
	assert.Zero(t, twoProportionZ(1, 100, 1, 100))
	assert.Zero(t, twoProportionZ(0.5, 0, 0.5, 100))
}

func TestTwoProportionZPerVariantVariance(t *testing.T) {
	// Exact value against the hand computation: each variant contributes
	// rate*(1-rate)/n to the combined variance.
	// varA = 0.04*0.96/400, varB = 0.02*0.98/100
	// z = 0.02 / sqrt(varA+varB)
	assert.InDelta(t, 1.17041, twoProportionZ(0.04, 400, 0.02, 100), 1e-4)

	// Heavily asymmetric samples: the small variant's variance dominates.
	// A pooled standard error would understate this z (1.26333) and drop
	// the result below the lowest confidence tier.
	z := twoProportionZ(0.517, 1000, 0.400, 30)
	assert.InDelta(t, 1.28815, z, 1e-4)
	assert.Equal(t, 0.80, confidenceForZ(z))
}

func TestConfidenceForZ(t *testing.T) {
	assert.Equal(t, 0.95, confidenceForZ(1.96))
	assert.Equal(t, 0.95, confidenceForZ(3.5))
	assert.Equal(t, 0.90, confidenceForZ(1.645))
	assert.Equal(t, 0.80, confidenceForZ(1.282))
	assert.Less(t, confidenceForZ(1.0), 0.80)
	assert.Zero(t, confidenceForZ(0))

	// Monotone non-decreasing across the whole range.
	prev := -1.0
	for z := 0.0; z <= 4.0; z += 0.01 {
		c := confidenceForZ(z)
		assert.GreaterOrEqual(t, c, prev)
		prev = c
	}

	// Below the lowest tier the score is capped.
	assert.LessOrEqual(t, confidenceForZ(1.28), 0.5)
}
