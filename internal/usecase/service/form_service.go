package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/dto"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/result"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/request"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/response"
	"github.com/niklvrr/IssueTracker/internal/usecase/analytics"
	"go.uber.org/zap"
)

var (
	submitFormError    = errors.New("submit form error")
	trackViewError     = errors.New("track form view error")
	formAnalyticsError = errors.New("form analytics error")
	createFormError    = errors.New("create form error")
	getFormError       = errors.New("get form error")
	listFormsError     = errors.New("list forms error")
	listSubmitsError   = errors.New("list form submissions error")
)

// Интерфейс репозитория
type FormRepository interface {
	CreateForm(ctx context.Context, d *dto.CreateFormDTO) (*domain.Form, error)
	GetForm(ctx context.Context, formId string) (*domain.Form, error)
	ListOrganizationForms(ctx context.Context, organizationId string) ([]result.FormSummaryResult, error)
	ListProjectForms(ctx context.Context, d *dto.ProjectFormsDTO) ([]result.FormSummaryResult, error)
	ListSubmissions(ctx context.Context, formId string) ([]domain.FormSubmission, error)
	InsertSubmission(ctx context.Context, d *dto.SubmitFormDTO) error
	InsertView(ctx context.Context, d *dto.TrackViewDTO) error
	GetFormAnalytics(ctx context.Context, d *dto.FormRangeDTO) (*result.FormAnalyticsResult, error)
}

type FormService struct {
	repo FormRepository
	log  *zap.Logger
}

func NewFormService(repo FormRepository, log *zap.Logger) *FormService {
	return &FormService{
		repo: repo,
		log:  log,
	}
}

// CreateForm сохраняет схему формы в проекте организации пользователя
func (s *FormService) CreateForm(ctx context.Context, identity domain.Identity, req *request.CreateFormRequest) (*response.FormResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, WrapError(ErrInvalidInput, errors.New("form title is required"))
	}
	projectId, err := normalizeID(req.ProjectId, "project_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}
	fields, err := toFormFields(req.Fields)
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	s.log.Info("create form request accepted",
		zap.String("project_id", projectId),
		zap.String("user_id", identity.UserId),
		zap.Int("fields", len(fields)),
	)

	form, err := s.repo.CreateForm(ctx, &dto.CreateFormDTO{
		Id:             uuid.NewString(),
		Title:          title,
		Description:    req.Description,
		OrganizationId: identity.OrganizationId,
		ProjectId:      projectId,
		Fields:         fields,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("failed to create form", zap.String("project_id", projectId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrProjectNotFound, createFormError)
	}

	return toFormResponse(form), nil
}

// GetForm отдает схему формы без проверки организации, она нужна публичной странице ответа
func (s *FormService) GetForm(ctx context.Context, req *request.GetFormRequest) (*response.FormResponse, error) {
	formId, err := normalizeID(req.FormId, "form_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	form, err := s.repo.GetForm(ctx, formId)
	if err != nil {
		s.log.Error("failed to load form", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, getFormError)
	}
	return toFormResponse(form), nil
}

func (s *FormService) ListOrganizationForms(ctx context.Context, identity domain.Identity, req *request.OrganizationFormsRequest) (*response.FormListResponse, error) {
	orgId, err := authorizeOrganization(identity, req.OrganizationId, s.log)
	if err != nil {
		return nil, err
	}

	forms, err := s.repo.ListOrganizationForms(ctx, orgId)
	if err != nil {
		s.log.Error("failed to list organization forms", zap.String("organization_id", orgId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, listFormsError)
	}
	return toFormListResponse(forms), nil
}

func (s *FormService) ListProjectForms(ctx context.Context, identity domain.Identity, req *request.ProjectFormsRequest) (*response.FormListResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	projectId, err := normalizeID(req.ProjectId, "project_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	forms, err := s.repo.ListProjectForms(ctx, &dto.ProjectFormsDTO{
		ProjectId:      projectId,
		OrganizationId: identity.OrganizationId,
	})
	if err != nil {
		s.log.Error("failed to list project forms", zap.String("project_id", projectId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrProjectNotFound, listFormsError)
	}
	return toFormListResponse(forms), nil
}

// ListSubmissions ответы формы своей организации, новые первыми
func (s *FormService) ListSubmissions(ctx context.Context, identity domain.Identity, req *request.FormSubmissionsRequest) (*response.FormSubmissionsResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	formId, err := normalizeID(req.FormId, "form_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	form, err := s.repo.GetForm(ctx, formId)
	if err != nil {
		s.log.Error("failed to load form", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, listSubmitsError)
	}
	if form.OrganizationId != identity.OrganizationId {
		s.log.Warn("form belongs to another organization", zap.String("form_id", formId))
		return nil, ErrForbidden
	}

	submissions, err := s.repo.ListSubmissions(ctx, formId)
	if err != nil {
		s.log.Error("failed to list form submissions", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, listSubmitsError)
	}

	resp := &response.FormSubmissionsResponse{
		FormId:      formId,
		Submissions: make([]response.FormSubmissionResponse, 0, len(submissions)),
	}
	for _, sub := range submissions {
		p := analytics.NewParticipant(sub.UserName, sub.UserEmail, sub.CreatedAt)
		resp.Submissions = append(resp.Submissions, response.FormSubmissionResponse{
			Id:        sub.Id,
			FormId:    sub.FormId,
			Data:      sub.Data,
			UserName:  p.Name,
			UserEmail: p.Email,
			CreatedAt: sub.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// SubmitResponse сохраняет ответ на форму. Обязательные поля схемы должны быть заполнены.
func (s *FormService) SubmitResponse(ctx context.Context, req *request.SubmitFormRequest) (*response.SubmitFormResponse, error) {
	formId, err := normalizeID(req.FormId, "form_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}
	if req.Data == nil {
		return nil, WrapError(ErrInvalidInput, errors.New("data is empty"))
	}

	s.log.Info("form submission accepted",
		zap.String("form_id", formId),
		zap.Int("fields", len(req.Data)),
	)

	form, err := s.repo.GetForm(ctx, formId)
	if err != nil {
		s.log.Error("failed to load form", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, submitFormError)
	}

	if missing := missingRequired(form.Fields, req.Data); len(missing) > 0 {
		s.log.Warn("form submission misses required fields",
			zap.String("form_id", formId),
			zap.Strings("fields", missing),
		)
		return nil, WrapError(ErrInvalidInput, fmt.Errorf("required fields missing: %s", strings.Join(missing, ", ")))
	}

	d := &dto.SubmitFormDTO{
		Id:        uuid.NewString(),
		FormId:    formId,
		Data:      req.Data,
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertSubmission(ctx, d); err != nil {
		s.log.Error("failed to store form submission", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, submitFormError)
	}

	return &response.SubmitFormResponse{
		Id:        d.Id,
		FormId:    formId,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *FormService) TrackView(ctx context.Context, req *request.TrackViewRequest) (*response.TrackViewResponse, error) {
	formId, err := normalizeID(req.FormId, "form_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	if _, err := s.repo.GetForm(ctx, formId); err != nil {
		s.log.Error("failed to load form", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, trackViewError)
	}

	d := &dto.TrackViewDTO{
		Id:        uuid.NewString(),
		FormId:    formId,
		UserId:    req.UserId,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.InsertView(ctx, d); err != nil {
		s.log.Error("failed to store form view", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, trackViewError)
	}

	return &response.TrackViewResponse{
		Id:     d.Id,
		FormId: formId,
	}, nil
}

func (s *FormService) Analytics(ctx context.Context, identity domain.Identity, req *request.FormAnalyticsRequest) (*response.FormAnalyticsResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	formId, err := normalizeID(req.FormId, "form_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return nil, WrapError(ErrInvalidInput, errors.New("from is after to"))
	}

	s.log.Info("form analytics request accepted", zap.String("form_id", formId))

	res, err := s.repo.GetFormAnalytics(ctx, &dto.FormRangeDTO{
		FormId: formId,
		From:   req.From,
		To:     req.To,
	})
	if err != nil {
		s.log.Error("failed to load form analytics", zap.String("form_id", formId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrFormNotFound, formAnalyticsError)
	}
	if res.Form.OrganizationId != identity.OrganizationId {
		s.log.Warn("form belongs to another organization", zap.String("form_id", formId))
		return nil, ErrForbidden
	}

	report := analytics.TabulateForm(res.Form.Fields, res.Submissions, res.Views)

	s.log.Info("form analytics computed",
		zap.String("form_id", formId),
		zap.Int("submissions", report.TotalSubmissions),
		zap.Int("views", report.TotalViews),
	)
	return toFormAnalyticsResponse(res.Form, report), nil
}

// missingRequired возвращает метки обязательных полей без значения
func missingRequired(fields []domain.FormField, data map[string]any) []string {
	var missing []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := data[f.Label]
		if !ok || v == nil {
			missing = append(missing, f.Label)
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

func toFormAnalyticsResponse(form *domain.Form, report *analytics.FormReport) *response.FormAnalyticsResponse {
	resp := &response.FormAnalyticsResponse{
		FormId:           form.Id,
		Title:            form.Title,
		TotalViews:       report.TotalViews,
		UniqueViewers:    report.UniqueViewers,
		TotalSubmissions: report.TotalSubmissions,
		CompletionRate:   report.CompletionRate,
		Viewers:          toParticipantResponses(report.Viewers),
		Submitters:       toParticipantResponses(report.Submitters),
		Responses:        make([]response.FieldResponse, 0, len(report.Responses)),
	}
	for _, field := range report.Responses {
		values := make([]response.ValueCountResponse, 0, len(field.Responses))
		for _, v := range field.Responses {
			values = append(values, response.ValueCountResponse{Value: v.Value, Count: v.Count})
		}
		resp.Responses = append(resp.Responses, response.FieldResponse{
			FieldLabel: field.FieldLabel,
			FieldType:  field.FieldType,
			Responses:  values,
		})
	}
	return resp
}

func toParticipantResponses(participants []analytics.Participant) []response.ParticipantResponse {
	out := make([]response.ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, response.ParticipantResponse{
			Name:  p.Name,
			Email: p.Email,
			At:    p.At.Format(time.RFC3339),
		})
	}
	return out
}

// toFormFields проверяет схему: поля обязательны, метки непустые и уникальные
func toFormFields(in []request.FormFieldRequest) ([]domain.FormField, error) {
	if in == nil {
		return nil, errors.New("form fields are required")
	}

	fields := make([]domain.FormField, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, f := range in {
		label := strings.TrimSpace(f.Label)
		if label == "" {
			return nil, fmt.Errorf("field %d has empty label", i)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("duplicate field label %q", label)
		}
		seen[label] = struct{}{}

		fields = append(fields, domain.FormField{
			Id:       f.Id,
			Label:    label,
			Type:     strings.TrimSpace(f.Type),
			Required: f.Required,
			Options:  f.Options,
		})
	}
	return fields, nil
}

func toFormResponse(form *domain.Form) *response.FormResponse {
	resp := &response.FormResponse{
		Id:             form.Id,
		Title:          form.Title,
		Description:    form.Description,
		OrganizationId: form.OrganizationId,
		ProjectId:      form.ProjectId,
		Fields:         make([]response.FormFieldResponse, 0, len(form.Fields)),
		CreatedAt:      form.CreatedAt.Format(time.RFC3339),
	}
	for _, f := range form.Fields {
		resp.Fields = append(resp.Fields, response.FormFieldResponse{
			Id:       f.Id,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
			Options:  f.Options,
		})
	}
	return resp
}

func toFormListResponse(forms []result.FormSummaryResult) *response.FormListResponse {
	resp := &response.FormListResponse{
		Forms: make([]response.FormSummaryResponse, 0, len(forms)),
	}
	for _, f := range forms {
		resp.Forms = append(resp.Forms, response.FormSummaryResponse{
			Id:              f.Id,
			Title:           f.Title,
			Description:     f.Description,
			ProjectId:       f.ProjectId,
			ProjectName:     f.ProjectName,
			SubmissionCount: f.SubmissionCount,
			ViewCount:       f.ViewCount,
			CreatedAt:       f.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
