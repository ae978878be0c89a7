package domain

import "time"

type FormField struct {
	Id       string   `json:"id,omitempty"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type Form struct {
	Id             string
	Title          string
	Description    *string
	OrganizationId string
	ProjectId      *string
	Fields         []FormField
	CreatedAt      time.Time
}

type FormSubmission struct {
	Id        string
	FormId    string
	Data      map[string]any
	UserName  *string
	UserEmail *string
	CreatedAt time.Time
}

type FormView struct {
	Id        string
	FormId    string
	UserId    *string
	UserEmail *string
	UserName  *string
	CreatedAt time.Time
}
