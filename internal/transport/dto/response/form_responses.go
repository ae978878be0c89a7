package response

type ValueCountResponse struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type FieldResponse struct {
	FieldLabel string               `json:"field_label"`
	FieldType  string               `json:"field_type"`
	Responses  []ValueCountResponse `json:"responses"`
}

type ParticipantResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	At    string `json:"at"`
}

type FormAnalyticsResponse struct {
	FormId           string                `json:"form_id"`
	Title            string                `json:"title"`
	TotalViews       int                   `json:"total_views"`
	UniqueViewers    int                   `json:"unique_viewers"`
	TotalSubmissions int                   `json:"total_submissions"`
	CompletionRate   int                   `json:"completion_rate"`
	Viewers          []ParticipantResponse `json:"viewers"`
	Submitters       []ParticipantResponse `json:"submitters"`
	Responses        []FieldResponse       `json:"responses"`
}

type SubmitFormResponse struct {
	Id        string `json:"id"`
	FormId    string `json:"form_id"`
	CreatedAt string `json:"created_at"`
}

type TrackViewResponse struct {
	Id     string `json:"id"`
	FormId string `json:"form_id"`
}

type FormFieldResponse struct {
	Id       string   `json:"id,omitempty"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type FormResponse struct {
	Id             string              `json:"id"`
	Title          string              `json:"title"`
	Description    *string             `json:"description"`
	OrganizationId string              `json:"organization_id"`
	ProjectId      *string             `json:"project_id"`
	Fields         []FormFieldResponse `json:"fields"`
	CreatedAt      string              `json:"created_at"`
}

type FormSummaryResponse struct {
	Id              string  `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	ProjectId       *string `json:"project_id"`
	ProjectName     *string `json:"project_name"`
	SubmissionCount int     `json:"submission_count"`
	ViewCount       int     `json:"view_count"`
	CreatedAt       string  `json:"created_at"`
}

type FormListResponse struct {
	Forms []FormSummaryResponse `json:"forms"`
}

type FormSubmissionResponse struct {
	Id        string         `json:"id"`
	FormId    string         `json:"form_id"`
	Data      map[string]any `json:"data"`
	UserName  string         `json:"user_name"`
	UserEmail string         `json:"user_email"`
	CreatedAt string         `json:"created_at"`
}

type FormSubmissionsResponse struct {
	FormId      string                   `json:"form_id"`
	Submissions []FormSubmissionResponse `json:"submissions"`
}
