package response

import "encoding/json"

type StateAveragesResponse struct {
	TimeInTodo     int64 `json:"time_in_todo"`
	TimeInProgress int64 `json:"time_in_progress"`
	TimeInReview   int64 `json:"time_in_review"`
}

type ProjectPerformanceResponse struct {
	ProjectId       string  `json:"project_id"`
	Name            string  `json:"name"`
	Key             string  `json:"key"`
	TotalIssues     int     `json:"total_issues"`
	CompletedIssues int     `json:"completed_issues"`
	CompletionRate  float64 `json:"completion_rate"`
}

type UserCompletionResponse struct {
	UserId         string  `json:"user_id"`
	Name           string  `json:"name"`
	ImageUrl       *string `json:"image_url"`
	TotalAssigned  int     `json:"total_assigned"`
	CompletedCount int     `json:"completed_count"`
	CompletionRate float64 `json:"completion_rate"`
}

type OrganizationRollupResponse struct {
	TotalProjects      int                          `json:"total_projects"`
	TotalSprints       int                          `json:"total_sprints"`
	ProjectPerformance []ProjectPerformanceResponse `json:"project_performance"`
	UserCompletion     []UserCompletionResponse     `json:"user_completion"`
}

type AnalyticsResponse struct {
	Scope                      string                      `json:"scope"`
	ScopeId                    string                      `json:"scope_id"`
	TotalIssues                int                         `json:"total_issues"`
	IssuesByStatus             map[string]int              `json:"issues_by_status"`
	IssuesByPriority           map[string]int              `json:"issues_by_priority"`
	CompletedIssues            int                         `json:"completed_issues"`
	AverageCompletionTime      int64                       `json:"average_completion_time"`
	AverageCompletionTimeHuman string                      `json:"average_completion_time_human"`
	AverageTimeInState         *StateAveragesResponse      `json:"average_time_in_state,omitempty"`
	SprintStatus               string                      `json:"sprint_status,omitempty"`
	CompletionRate             *float64                    `json:"completion_rate,omitempty"`
	Organization               *OrganizationRollupResponse `json:"organization,omitempty"`
}

type UserCompletionListResponse struct {
	OrganizationId string                   `json:"organization_id"`
	Users          []UserCompletionResponse `json:"users"`
}

type SnapshotResponse struct {
	Id      string          `json:"id"`
	TakenAt string          `json:"taken_at"`
	Payload json.RawMessage `json:"payload"`
}

type SnapshotListResponse struct {
	OrganizationId string             `json:"organization_id"`
	Snapshots      []SnapshotResponse `json:"snapshots"`
}
