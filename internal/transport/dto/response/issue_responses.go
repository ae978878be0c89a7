package response

type IssueAnalyticsResponse struct {
	TimeInTodo       int64  `json:"time_in_todo"`
	TimeInProgress   int64  `json:"time_in_progress"`
	TimeInReview     int64  `json:"time_in_review"`
	StatusChanges    int    `json:"status_changes"`
	LastStatusChange string `json:"last_status_change"`
	CompletionTime   *int64 `json:"completion_time"`
}

type IssueResponse struct {
	Id           string                  `json:"id"`
	Title        string                  `json:"title"`
	Description  *string                 `json:"description"`
	Status       string                  `json:"status"`
	Priority     string                  `json:"priority"`
	Order        int                     `json:"order"`
	ProjectId    string                  `json:"project_id"`
	SprintId     *string                 `json:"sprint_id"`
	DepartmentId *string                 `json:"department_id"`
	AssigneeId   *string                 `json:"assignee_id"`
	ReporterId   string                  `json:"reporter_id"`
	CreatedAt    string                  `json:"created_at"`
	UpdatedAt    string                  `json:"updated_at"`
	Analytics    *IssueAnalyticsResponse `json:"analytics,omitempty"`
}

type ReorderIssuesResponse struct {
	Updated       int `json:"updated"`
	StatusChanges int `json:"status_changes"`
}

type SprintIssuesResponse struct {
	SprintId string          `json:"sprint_id"`
	Issues   []IssueResponse `json:"issues"`
}
