package result

import (
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

type FormAnalyticsResult struct {
	Form        *domain.Form
	Submissions []domain.FormSubmission
	Views       []domain.FormView
}

// FormSummaryResult форма в списке вместе со счетчиками ответов и просмотров
type FormSummaryResult struct {
	Id              string
	Title           string
	Description     *string
	ProjectId       *string
	ProjectName     *string
	SubmissionCount int
	ViewCount       int
	CreatedAt       time.Time
}
