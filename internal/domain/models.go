package domain

import "time"

type IssueStatus string

const (
	StatusTodo       IssueStatus = "TODO"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusInReview   IssueStatus = "IN_REVIEW"
	StatusDone       IssueStatus = "DONE"
)

// IssueStatuses в порядке колонок доски
var IssueStatuses = []IssueStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone}

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
	PriorityUrgent IssuePriority = "URGENT"
)

var IssuePriorities = []IssuePriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type SprintStatus string

const (
	SprintPlanned   SprintStatus = "PLANNED"
	SprintActive    SprintStatus = "ACTIVE"
	SprintCompleted SprintStatus = "COMPLETED"
)

type User struct {
	Id         string    `json:"user_id"`
	ExternalId string    `json:"-"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ImageUrl   *string   `json:"image_url"`
	CreatedAt  time.Time `json:"-"`
}

type Project struct {
	Id             string
	Name           string
	Key            string
	OrganizationId string
	AdminIds       []string
	CreatedAt      time.Time
}

type Sprint struct {
	Id        string
	Name      string
	Status    SprintStatus
	ProjectId string
	StartDate *time.Time
	EndDate   *time.Time
}

type Issue struct {
	Id           string
	Title        string
	Description  *string
	Status       IssueStatus
	Priority     IssuePriority
	ProjectId    string
	SprintId     *string
	DepartmentId *string
	AssigneeId   *string
	ReporterId   string
	Order        int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Analytics заполняется только при чтении вместе с issue_analytics
	Analytics *IssueAnalytic
}

// IssueAnalytic хранит накопленное время (в секундах) в статусах задачи
type IssueAnalytic struct {
	Id               string
	IssueId          string
	TimeInTodo       int64
	TimeInProgress   int64
	TimeInReview     int64
	LastStatusChange time.Time
	StatusChanges    int
	CompletionTime   *int64
}
