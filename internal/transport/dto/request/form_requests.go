package request

import "time"

type SubmitFormRequest struct {
	FormId    string         `json:"-" validate:"required"`
	Data      map[string]any `json:"data" validate:"required"`
	UserName  *string        `json:"user_name"`
	UserEmail *string        `json:"user_email" validate:"omitempty,email"`
}

type TrackViewRequest struct {
	FormId    string  `json:"-" validate:"required"`
	UserId    *string `json:"user_id"`
	UserEmail *string `json:"user_email" validate:"omitempty,email"`
	UserName  *string `json:"user_name"`
}

// FormAnalyticsRequest границы периода включительные
type FormAnalyticsRequest struct {
	FormId string     `json:"-" validate:"required"`
	From   *time.Time `json:"-"`
	To     *time.Time `json:"-"`
}

type FormFieldRequest struct {
	Id       string   `json:"id"`
	Label    string   `json:"label" validate:"required,max=255"`
	Type     string   `json:"type" validate:"required"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// CreateFormRequest пустой список полей допустим, отсутствующий нет
type CreateFormRequest struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description *string            `json:"description"`
	ProjectId   string             `json:"project_id" validate:"required"`
	Fields      []FormFieldRequest `json:"fields" validate:"required,dive"`
}

type GetFormRequest struct {
	FormId string `json:"-" validate:"required"`
}

type OrganizationFormsRequest struct {
	OrganizationId string `json:"-" validate:"required"`
}

type ProjectFormsRequest struct {
	ProjectId string `json:"-" validate:"required"`
}

type FormSubmissionsRequest struct {
	FormId string `json:"-" validate:"required"`
}
