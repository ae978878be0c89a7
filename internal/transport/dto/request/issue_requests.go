package request

type CreateIssueRequest struct {
	ProjectId    string  `json:"-" validate:"required"`
	Title        string  `json:"title" validate:"required,max=255"`
	Description  *string `json:"description"`
	Status       string  `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority     string  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	SprintId     *string `json:"sprint_id"`
	AssigneeId   *string `json:"assignee_id"`
	DepartmentId *string `json:"department_id"`
}

// UpdateIssueRequest отсутствующие поля не изменяются
type UpdateIssueRequest struct {
	IssueId      string  `json:"-" validate:"required"`
	Status       *string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Priority     *string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeId   *string `json:"assignee_id"`
	Description  *string `json:"description"`
	DepartmentId *string `json:"department_id"`
}

type IssueOrderItem struct {
	IssueId string `json:"issue_id" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=TODO IN_PROGRESS IN_REVIEW DONE"`
	Order   int    `json:"order" validate:"gte=0"`
}

type ReorderIssuesRequest struct {
	Items []IssueOrderItem `json:"items" validate:"required,min=1,dive"`
}

type DeleteIssueRequest struct {
	IssueId string `json:"-" validate:"required"`
}

type SprintIssuesRequest struct {
	SprintId string `json:"-" validate:"required"`
}
