package dto

import (
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

type CreateIssueDTO struct {
	IssueId            string
	AnalyticId         string
	OrganizationId     string
	ReporterExternalId string
	ProjectId          string
	Title              string
	Description        *string
	Status             domain.IssueStatus
	Priority           domain.IssuePriority
	SprintId           *string
	AssigneeId         *string
	DepartmentId       *string
	CreatedAt          time.Time
}

// UpdateIssueDTO nil-поля не изменяются
type UpdateIssueDTO struct {
	IssueId        string
	OrganizationId string
	Status         *domain.IssueStatus
	Priority       *domain.IssuePriority
	AssigneeId     *string
	Description    *string
	DepartmentId   *string
}

type IssueOrderDTO struct {
	IssueId string
	Status  domain.IssueStatus
	Order   int
}

type ReorderIssuesDTO struct {
	OrganizationId string
	Items          []IssueOrderDTO
}

type DeleteIssueDTO struct {
	IssueId        string
	OrganizationId string
	UserExternalId string
}

type SprintIssuesDTO struct {
	SprintId       string
	OrganizationId string
}
