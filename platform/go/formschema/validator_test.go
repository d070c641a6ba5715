package formschema

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sampleDescriptors() []Descriptor {
	return []Descriptor{
		{Key: "full_name", Label: "Full name", Type: TypeText, Required: true},
		{Key: "email", Label: "Email", Type: TypeEmail},
		{Key: "event_date", Label: "Event date", Type: TypeDate},
		{Key: "budget", Label: "Budget", Type: TypeSelect, Options: []string{"low", "high"}},
	}
}

func TestValidatorAcceptsValidSubmission(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	err := v.Validate(sampleDescriptors(), FormData{
		"full_name":  "Ada",
		"email":      "ada@example.com",
		"event_date": "2026-12-31",
		"budget":     "high",
		"extra_key":  "anything",
	})
	require.NoError(t, err)
}

func TestValidatorAllowsBlankOptionalFields(t *testing.T) {
	t.Parallel()

	err := NewValidator().Validate(sampleDescriptors(), FormData{"full_name": "Ada", "email": "  "})
	require.NoError(t, err)
}

func TestValidatorReportsMissingRequired(t *testing.T) {
	t.Parallel()

	err := NewValidator().Validate(sampleDescriptors(), FormData{"full_name": "   "})
	var serr *SubmissionError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, map[string]string{"full_name": "is required"}, serr.Fields)
}

func TestValidatorKeepsFormatsAndOptionsAdvisory(t *testing.T) {
	t.Parallel()

	err := NewValidator().Validate(Render(DefaultFields(uuid.New())), FormData{
		"full_name":    "Ann",
		"email":        "ann at example",
		"event_date":   "12/24/2026",
		"budget_range": "Whatever works",
	})
	require.NoError(t, err)

	doc := Document(sampleDescriptors())
	props := doc["properties"].(map[string]any)
	require.Equal(t, "email", props["email"].(map[string]any)["format"])
	require.NotContains(t, props["budget"].(map[string]any), "enum")
}

func TestValidatorCachesCompiledSchemas(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	require.NoError(t, v.Validate(sampleDescriptors(), FormData{"full_name": "a"}))
	require.NoError(t, v.Validate(sampleDescriptors(), FormData{"full_name": "b"}))
	require.Len(t, v.cache, 1)

	require.NoError(t, v.Validate(FallbackDescriptors(), FormData{"full_name": "c"}))
	require.Len(t, v.cache, 2)
}
