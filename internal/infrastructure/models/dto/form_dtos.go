package dto

import (
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

// FormRangeDTO границы включительные, nil означает без ограничения
type FormRangeDTO struct {
	FormId string
	From   *time.Time
	To     *time.Time
}

type SubmitFormDTO struct {
	Id        string
	FormId    string
	Data      map[string]any
	UserName  *string
	UserEmail *string
	CreatedAt time.Time
}

type TrackViewDTO struct {
	Id        string
	FormId    string
	UserId    *string
	UserEmail *string
	UserName  *string
	CreatedAt time.Time
}

type CreateFormDTO struct {
	Id             string
	Title          string
	Description    *string
	OrganizationId string
	ProjectId      string
	Fields         []domain.FormField
	CreatedAt      time.Time
}

type ProjectFormsDTO struct {
	ProjectId      string
	OrganizationId string
}
