package result

import (
	"encoding/json"
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

type SprintResult struct {
	Sprint         domain.Sprint
	OrganizationId string
}

type ProjectIssuesResult struct {
	Project     domain.Project
	SprintCount int
	Issues      []domain.Issue
}

type AssigneeIssuesResult struct {
	User   domain.User
	Issues []domain.Issue
}

type SnapshotResult struct {
	Id             string
	OrganizationId string
	TakenAt        time.Time
	Payload        json.RawMessage
}
