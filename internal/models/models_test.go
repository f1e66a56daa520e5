package models

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMediaRefList(t *testing.T) {
	cases := []struct {
		name string
		refs string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://cdn.example.com/a.jpg", []string{"https://cdn.example.com/a.jpg"}},
		{"multiple", "a\nb\nc", []string{"a", "b", "c"}},
		{"blank_lines_skipped", "a\n\nb\n", []string{"a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := ContentPost{MediaRefs: tc.refs}
			assert.Equal(t, tc.want, p.MediaRefList())
		})
	}
}

func TestEngagementRate(t *testing.T) {
	rec := EngagementRecord{Views: 1000, Likes: 80, Shares: 10, Comments: 10}
	assert.InDelta(t, 0.10, rec.Rate(), 1e-9)

	// Zero views must not divide by zero.
	rec = EngagementRecord{Views: 0, Likes: 3}
	assert.InDelta(t, 3.0, rec.Rate(), 1e-9)
}

func TestExperimentTerminal(t *testing.T) {
	assert.False(t, (&ExperimentTest{Status: ExperimentStatusDraft}).Terminal())
	assert.False(t, (&ExperimentTest{Status: ExperimentStatusRunning}).Terminal())
	assert.True(t, (&ExperimentTest{Status: ExperimentStatusCompleted}).Terminal())
	assert.True(t, (&ExperimentTest{Status: ExperimentStatusCancelled}).Terminal())
}

func TestValidPlatform(t *testing.T) {
	for _, p := range Platforms {
		assert.True(t, ValidPlatform(p))
	}
	assert.False(t, ValidPlatform("myspace"))
	assert.False(t, ValidPlatform(""))
}

func TestValidInsightType(t *testing.T) {
	assert.True(t, ValidInsightType(InsightTypeExperimentResult))
	assert.True(t, ValidInsightType(InsightTypeBestTimeSlot))
	assert.False(t, ValidInsightType("hot_take"))
}

func TestStatusForCode(t *testing.T) {
	cases := map[string]int{
		CodeNotFound:            fiber.StatusNotFound,
		CodeValidation:          fiber.StatusBadRequest,
		CodeConfigurationError:  fiber.StatusBadRequest,
		CodeInsufficientData:    fiber.StatusBadRequest,
		CodeUnauthorized:        fiber.StatusUnauthorized,
		CodeConflict:            fiber.StatusConflict,
		CodePlatformRejected:    fiber.StatusConflict,
		CodePlatformUnavailable: fiber.StatusBadGateway,
		CodeInternal:            fiber.StatusInternalServerError,
		"anything-else":         fiber.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusForCode(code), "code %s", code)
	}
}
