package result

import "github.com/niklvrr/IssueTracker/internal/domain"

type Transition struct {
	IssueId string
	From    domain.IssueStatus
	To      domain.IssueStatus
}

type UpdateIssueResult struct {
	Issue      *domain.Issue
	Analytics  *domain.IssueAnalytic
	Transition *Transition
}

type ReorderResult struct {
	Updated     int
	Transitions []Transition
}
