package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/dto"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/result"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/request"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/response"
	"go.uber.org/zap"
)

var (
	createIssueError  = errors.New("create issue error")
	updateIssueError  = errors.New("update issue error")
	reorderIssueError = errors.New("reorder issues error")
	deleteIssueError  = errors.New("delete issue error")
	listIssuesError   = errors.New("list sprint issues error")
)

// Интерфейс репозитория
type IssueRepository interface {
	Create(ctx context.Context, d *dto.CreateIssueDTO) (*domain.Issue, error)
	Update(ctx context.Context, d *dto.UpdateIssueDTO) (*result.UpdateIssueResult, error)
	Reorder(ctx context.Context, d *dto.ReorderIssuesDTO) (*result.ReorderResult, error)
	Delete(ctx context.Context, d *dto.DeleteIssueDTO) error
	ListBySprint(ctx context.Context, d *dto.SprintIssuesDTO) ([]*domain.Issue, error)
}

type IssueService struct {
	repo IssueRepository
	log  *zap.Logger
}

func NewIssueService(repo IssueRepository, log *zap.Logger) *IssueService {
	return &IssueService{
		repo: repo,
		log:  log,
	}
}

func (s *IssueService) Create(ctx context.Context, identity domain.Identity, req *request.CreateIssueRequest) (*response.IssueResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	projectId, err := normalizeID(req.ProjectId, "project_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	status := domain.StatusTodo
	if req.Status != "" {
		status = domain.IssueStatus(req.Status)
	}
	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority = domain.IssuePriority(req.Priority)
	}
	if !status.Valid() || !priority.Valid() {
		return nil, WrapError(ErrInvalidInput, fmt.Errorf("unknown status %q or priority %q", req.Status, req.Priority))
	}

	s.log.Info("create issue request accepted",
		zap.String("project_id", projectId),
		zap.String("user_id", identity.UserId),
		zap.String("status", string(status)),
	)

	// Собираем dto
	d := &dto.CreateIssueDTO{
		IssueId:            uuid.NewString(),
		AnalyticId:         uuid.NewString(),
		OrganizationId:     identity.OrganizationId,
		ReporterExternalId: identity.UserId,
		ProjectId:          projectId,
		Title:              req.Title,
		Description:        req.Description,
		Status:             status,
		Priority:           priority,
		SprintId:           req.SprintId,
		AssigneeId:         req.AssigneeId,
		DepartmentId:       req.DepartmentId,
		CreatedAt:          time.Now().UTC(),
	}

	// Запрос в бд
	issue, err := s.repo.Create(ctx, d)
	if err != nil {
		s.log.Error("failed to create issue",
			zap.String("project_id", projectId),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err, ErrProjectNotFound, createIssueError)
	}

	s.log.Info("issue created",
		zap.String("issue_id", issue.Id),
		zap.String("project_id", projectId),
	)

	// Ответ
	return toIssueResponse(issue), nil
}

// Update меняет поля задачи. Смена статуса записывает переход в аналитику
// в той же транзакции.
func (s *IssueService) Update(ctx context.Context, identity domain.Identity, req *request.UpdateIssueRequest) (*response.IssueResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	issueId, err := normalizeID(req.IssueId, "issue_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	d := &dto.UpdateIssueDTO{
		IssueId:        issueId,
		OrganizationId: identity.OrganizationId,
		AssigneeId:     req.AssigneeId,
		Description:    req.Description,
		DepartmentId:   req.DepartmentId,
	}
	if req.Status != nil {
		status := domain.IssueStatus(*req.Status)
		if !status.Valid() {
			return nil, WrapError(ErrInvalidInput, fmt.Errorf("unknown status %q", *req.Status))
		}
		d.Status = &status
	}
	if req.Priority != nil {
		priority := domain.IssuePriority(*req.Priority)
		if !priority.Valid() {
			return nil, WrapError(ErrInvalidInput, fmt.Errorf("unknown priority %q", *req.Priority))
		}
		d.Priority = &priority
	}

	s.log.Info("update issue request accepted",
		zap.String("issue_id", issueId),
		zap.Bool("status_requested", d.Status != nil),
	)

	res, err := s.repo.Update(ctx, d)
	if err != nil {
		s.log.Error("failed to update issue",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err, ErrIssueNotFound, updateIssueError)
	}

	if res.Transition != nil {
		observeTransition(*res.Transition)
		s.log.Info("issue status changed",
			zap.String("issue_id", issueId),
			zap.String("from", string(res.Transition.From)),
			zap.String("to", string(res.Transition.To)),
		)
	}

	resp := toIssueResponse(res.Issue)
	if res.Analytics != nil {
		resp.Analytics = toIssueAnalyticsResponse(res.Analytics)
	}
	return resp, nil
}

func (s *IssueService) Reorder(ctx context.Context, identity domain.Identity, req *request.ReorderIssuesRequest) (*response.ReorderIssuesResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, WrapError(ErrInvalidInput, errors.New("items are empty"))
	}

	// Проверяем идентификаторы и повторы
	seen := make(map[string]struct{}, len(req.Items))
	items := make([]dto.IssueOrderDTO, 0, len(req.Items))
	for _, item := range req.Items {
		issueId, err := normalizeID(item.IssueId, "issue_id")
		if err != nil {
			return nil, WrapError(ErrInvalidInput, err)
		}
		if _, ok := seen[issueId]; ok {
			return nil, WrapError(ErrInvalidInput, fmt.Errorf("duplicate issue id %s", issueId))
		}
		seen[issueId] = struct{}{}

		status := domain.IssueStatus(item.Status)
		if !status.Valid() || item.Order < 0 {
			return nil, WrapError(ErrInvalidInput, fmt.Errorf("invalid order item for issue %s", issueId))
		}
		items = append(items, dto.IssueOrderDTO{
			IssueId: issueId,
			Status:  status,
			Order:   item.Order,
		})
	}

	s.log.Info("reorder issues request accepted", zap.Int("issues", len(items)))

	res, err := s.repo.Reorder(ctx, &dto.ReorderIssuesDTO{
		OrganizationId: identity.OrganizationId,
		Items:          items,
	})
	if err != nil {
		s.log.Error("failed to reorder issues", zap.Error(err))
		return nil, mapRepositoryError(err, ErrIssueNotFound, reorderIssueError)
	}

	for _, t := range res.Transitions {
		observeTransition(t)
	}

	s.log.Info("issues reordered",
		zap.Int("updated", res.Updated),
		zap.Int("status_changes", len(res.Transitions)),
	)

	return &response.ReorderIssuesResponse{
		Updated:       res.Updated,
		StatusChanges: len(res.Transitions),
	}, nil
}

func (s *IssueService) Delete(ctx context.Context, identity domain.Identity, req *request.DeleteIssueRequest) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	issueId, err := normalizeID(req.IssueId, "issue_id")
	if err != nil {
		return WrapError(ErrInvalidInput, err)
	}

	s.log.Info("delete issue request accepted",
		zap.String("issue_id", issueId),
		zap.String("user_id", identity.UserId),
	)

	err = s.repo.Delete(ctx, &dto.DeleteIssueDTO{
		IssueId:        issueId,
		OrganizationId: identity.OrganizationId,
		UserExternalId: identity.UserId,
	})
	if err != nil {
		s.log.Error("failed to delete issue",
			zap.String("issue_id", issueId),
			zap.Error(err),
		)
		return mapRepositoryError(err, ErrIssueNotFound, deleteIssueError)
	}

	s.log.Info("issue deleted", zap.String("issue_id", issueId))
	return nil
}

func (s *IssueService) ListForSprint(ctx context.Context, identity domain.Identity, req *request.SprintIssuesRequest) (*response.SprintIssuesResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	sprintId, err := normalizeID(req.SprintId, "sprint_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	issues, err := s.repo.ListBySprint(ctx, &dto.SprintIssuesDTO{
		SprintId:       sprintId,
		OrganizationId: identity.OrganizationId,
	})
	if err != nil {
		s.log.Error("failed to list sprint issues",
			zap.String("sprint_id", sprintId),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err, ErrSprintNotFound, listIssuesError)
	}

	resp := &response.SprintIssuesResponse{
		SprintId: sprintId,
		Issues:   make([]response.IssueResponse, 0, len(issues)),
	}
	for _, issue := range issues {
		resp.Issues = append(resp.Issues, *toIssueResponse(issue))
	}

	s.log.Debug("sprint issues retrieved",
		zap.String("sprint_id", sprintId),
		zap.Int("issues_count", len(resp.Issues)),
	)
	return resp, nil
}

func observeTransition(t result.Transition) {
	statusTransitionsTotal.WithLabelValues(string(t.From), string(t.To)).Inc()
}

func toIssueResponse(issue *domain.Issue) *response.IssueResponse {
	resp := &response.IssueResponse{
		Id:           issue.Id,
		Title:        issue.Title,
		Description:  issue.Description,
		Status:       string(issue.Status),
		Priority:     string(issue.Priority),
		Order:        issue.Order,
		ProjectId:    issue.ProjectId,
		SprintId:     issue.SprintId,
		DepartmentId: issue.DepartmentId,
		AssigneeId:   issue.AssigneeId,
		ReporterId:   issue.ReporterId,
		CreatedAt:    issue.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    issue.UpdatedAt.Format(time.RFC3339),
	}
	if issue.Analytics != nil {
		resp.Analytics = toIssueAnalyticsResponse(issue.Analytics)
	}
	return resp
}

func toIssueAnalyticsResponse(a *domain.IssueAnalytic) *response.IssueAnalyticsResponse {
	return &response.IssueAnalyticsResponse{
		TimeInTodo:       a.TimeInTodo,
		TimeInProgress:   a.TimeInProgress,
		TimeInReview:     a.TimeInReview,
		StatusChanges:    a.StatusChanges,
		LastStatusChange: a.LastStatusChange.Format(time.RFC3339),
		CompletionTime:   a.CompletionTime,
	}
}
