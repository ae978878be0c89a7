package analytics

import (
	"testing"
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabulateForm_CountsAndCoercion(t *testing.T) {
	fields := []domain.FormField{
		{Label: "Rating", Type: "number"},
		{Label: "Team", Type: "select"},
	}
	submissions := []domain.FormSubmission{
		{Data: map[string]any{"Rating": float64(5), "Team": "core"}},
		{Data: map[string]any{"Rating": "5", "Team": "infra"}},
		{Data: map[string]any{"Rating": float64(3), "Team": "core", "Extra": true}},
	}

	report := TabulateForm(fields, submissions, nil)

	require.Len(t, report.Responses, 3)
	assert.Equal(t, "Rating", report.Responses[0].FieldLabel)
	assert.Equal(t, "number", report.Responses[0].FieldType)
	assert.Equal(t, []ValueCount{{Value: "5", Count: 2}, {Value: "3", Count: 1}}, report.Responses[0].Responses)

	assert.Equal(t, "Team", report.Responses[1].FieldLabel)
	assert.Equal(t, []ValueCount{{Value: "core", Count: 2}, {Value: "infra", Count: 1}}, report.Responses[1].Responses)

	// Поля вне схемы идут в конце с типом по умолчанию
	assert.Equal(t, "Extra", report.Responses[2].FieldLabel)
	assert.Equal(t, "text", report.Responses[2].FieldType)
	assert.Equal(t, []ValueCount{{Value: "true", Count: 1}}, report.Responses[2].Responses)
}

func TestTabulateForm_ListValuesJoined(t *testing.T) {
	submissions := []domain.FormSubmission{
		{Data: map[string]any{"Tags": []any{"a", "b"}, "Note": nil}},
	}

	report := TabulateForm(nil, submissions, nil)

	require.Len(t, report.Responses, 2)
	assert.Equal(t, "Note", report.Responses[0].FieldLabel)
	assert.Equal(t, "null", report.Responses[0].Responses[0].Value)
	assert.Equal(t, "a,b", report.Responses[1].Responses[0].Value)
}

func TestTabulateForm_ViewsAndCompletionRate(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	views := []domain.FormView{
		{UserEmail: ptr("a@x.io"), UserName: ptr("A"), CreatedAt: at},
		{UserEmail: ptr("a@x.io")},
		{UserEmail: ptr("")},
		{},
		{UserEmail: ptr("b@x.io")},
		{UserEmail: ptr("c@x.io")},
	}
	submissions := []domain.FormSubmission{{Data: map[string]any{}}, {Data: map[string]any{}}}

	report := TabulateForm(nil, submissions, views)

	assert.Equal(t, 6, report.TotalViews)
	assert.Equal(t, 3, report.UniqueViewers)
	assert.Equal(t, 2, report.TotalSubmissions)
	assert.Equal(t, 33, report.CompletionRate)
	require.Len(t, report.Viewers, 6)
	assert.Equal(t, Participant{Name: "A", Email: "a@x.io", At: at}, report.Viewers[0])
	assert.Equal(t, "Anonymous", report.Viewers[3].Name)
	assert.Equal(t, "N/A", report.Viewers[3].Email)
	assert.Len(t, report.Submitters, 2)
	assert.Empty(t, report.Responses)
}

func TestTabulateForm_RoundsCompletionRate(t *testing.T) {
	views := make([]domain.FormView, 8)
	submissions := make([]domain.FormSubmission, 5)

	report := TabulateForm(nil, submissions, views)

	// 62.5 округляется вверх
	assert.Equal(t, 63, report.CompletionRate)
}

func TestTabulateForm_NoViews(t *testing.T) {
	report := TabulateForm(nil, []domain.FormSubmission{{Data: map[string]any{"Q": "x"}}}, nil)

	assert.Equal(t, 0, report.TotalViews)
	assert.Equal(t, 0, report.CompletionRate)
	assert.Equal(t, 1, report.TotalSubmissions)
}
