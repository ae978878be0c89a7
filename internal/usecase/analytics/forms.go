package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/spf13/cast"
)

const (
	anonymousName    = "Anonymous"
	missingEmail     = "N/A"
	defaultFieldType = "text"
)

type ValueCount struct {
	Value string
	Count int
}

type FieldTally struct {
	FieldLabel string
	FieldType  string
	Responses  []ValueCount
}

type Participant struct {
	Name  string
	Email string
	At    time.Time
}

type FormReport struct {
	TotalViews       int
	UniqueViewers    int
	TotalSubmissions int
	CompletionRate   int
	Viewers          []Participant
	Submitters       []Participant
	Responses        []FieldTally
}

// TabulateForm считает частоты ответов по полям формы и статистику просмотров.
// Значения приводятся к строке, поэтому 5 и "5" попадают в одну корзину.
func TabulateForm(fields []domain.FormField, submissions []domain.FormSubmission, views []domain.FormView) *FormReport {
	report := &FormReport{
		TotalViews:       len(views),
		TotalSubmissions: len(submissions),
		Viewers:          make([]Participant, 0, len(views)),
		Submitters:       make([]Participant, 0, len(submissions)),
	}

	emails := make(map[string]struct{})
	for _, v := range views {
		if email := deref(v.UserEmail); email != "" {
			emails[email] = struct{}{}
		}
		report.Viewers = append(report.Viewers, NewParticipant(v.UserName, v.UserEmail, v.CreatedAt))
	}
	report.UniqueViewers = len(emails)

	if report.TotalViews > 0 {
		report.CompletionRate = int(math.Round(float64(report.TotalSubmissions) / float64(report.TotalViews) * 100))
	}

	tallies := make(map[string]*fieldCounter)

	for _, sub := range submissions {
		report.Submitters = append(report.Submitters, NewParticipant(sub.UserName, sub.UserEmail, sub.CreatedAt))

		// Ключи внутри одного ответа обходим в отсортированном порядке
		labels := make([]string, 0, len(sub.Data))
		for label := range sub.Data {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		for _, label := range labels {
			t, ok := tallies[label]
			if !ok {
				t = &fieldCounter{fieldType: fieldType(fields, label), counts: make(map[string]int)}
				tallies[label] = t
			}
			value := stringify(sub.Data[label])
			if _, seen := t.counts[value]; !seen {
				t.order = append(t.order, value)
			}
			t.counts[value]++
		}
	}

	for _, label := range orderedLabels(fields, tallies) {
		t := tallies[label]
		responses := make([]ValueCount, 0, len(t.order))
		for _, value := range t.order {
			responses = append(responses, ValueCount{Value: value, Count: t.counts[value]})
		}
		report.Responses = append(report.Responses, FieldTally{
			FieldLabel: label,
			FieldType:  t.fieldType,
			Responses:  responses,
		})
	}

	return report
}

type fieldCounter struct {
	fieldType string
	order     []string
	counts    map[string]int
}

// orderedLabels сначала поля в порядке схемы формы, затем неизвестные по алфавиту
func orderedLabels(fields []domain.FormField, tallies map[string]*fieldCounter) []string {
	labels := make([]string, 0, len(tallies))
	used := make(map[string]struct{}, len(tallies))
	for _, f := range fields {
		if _, ok := tallies[f.Label]; !ok {
			continue
		}
		if _, dup := used[f.Label]; dup {
			continue
		}
		used[f.Label] = struct{}{}
		labels = append(labels, f.Label)
	}

	var rest []string
	for label := range tallies {
		if _, ok := used[label]; !ok {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)

	return append(labels, rest...)
}

func fieldType(fields []domain.FormField, label string) string {
	for _, f := range fields {
		if f.Label == label && f.Type != "" {
			return f.Type
		}
	}
	return defaultFieldType
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	case map[string]any:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		raw, jsonErr := json.Marshal(v)
		if jsonErr != nil {
			return ""
		}
		return string(raw)
	}
	return s
}

// NewParticipant подставляет Anonymous и N/A вместо пустых имени и почты
func NewParticipant(name, email *string, at time.Time) Participant {
	p := Participant{Name: deref(name), Email: deref(email), At: at}
	if p.Name == "" {
		p.Name = anonymousName
	}
	if p.Email == "" {
		p.Email = missingEmail
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
