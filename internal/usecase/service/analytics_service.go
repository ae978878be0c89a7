package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	projectAnalyticsError      = errors.New("project analytics error")
	sprintAnalyticsError       = errors.New("sprint analytics error")
	organizationAnalyticsError = errors.New("organization analytics error")
	userCompletionError        = errors.New("user completion error")
	snapshotError              = errors.New("analytics snapshot error")
)

const (
	defaultSnapshotLimit = 10
)

// Интерфейс репозитория
type AnalyticsRepository interface {
	GetProject(ctx context.Context, projectId string) (*domain.Project, error)
	GetSprint(ctx context.Context, sprintId string) (*result.SprintResult, error)
	ListProjectIssues(ctx context.Context, projectId string) ([]domain.Issue, error)
	ListSprintIssues(ctx context.Context, sprintId string) ([]domain.Issue, error)
	ListOrganizationProjects(ctx context.Context, organizationId string) ([]result.ProjectIssuesResult, error)
	ListAssignees(ctx context.Context, organizationId string) ([]result.AssigneeIssuesResult, error)
	ListOrganizationIds(ctx context.Context) ([]string, error)
	InsertSnapshot(ctx context.Context, d *dto.SnapshotDTO) error
	ListSnapshots(ctx context.Context, d *dto.ListSnapshotsDTO) ([]result.SnapshotResult, error)
}

type AnalyticsService struct {
	repo AnalyticsRepository
	log  *zap.Logger
}

func NewAnalyticsService(repo AnalyticsRepository, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo: repo,
		log:  log,
	}
}

func (s *AnalyticsService) ProjectAnalytics(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	projectId, err := normalizeID(req.Id, "project_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	s.log.Info("project analytics request accepted", zap.String("project_id", projectId))

	project, err := s.repo.GetProject(ctx, projectId)
	if err != nil {
		s.log.Error("failed to load project", zap.String("project_id", projectId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrProjectNotFound, projectAnalyticsError)
	}
	if project.OrganizationId != identity.OrganizationId {
		s.log.Warn("project belongs to another organization", zap.String("project_id", projectId))
		return nil, ErrForbidden
	}

	issues, err := s.repo.ListProjectIssues(ctx, projectId)
	if err != nil {
		s.log.Error("failed to load project issues", zap.String("project_id", projectId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrProjectNotFound, projectAnalyticsError)
	}

	summary := analytics.Aggregate(analytics.Input{
		Scope:  domain.ProjectScope(projectId),
		Issues: issues,
	})

	s.log.Info("project analytics computed",
		zap.String("project_id", projectId),
		zap.Int("total_issues", summary.TotalIssues),
	)
	return toAnalyticsResponse(summary), nil
}

func (s *AnalyticsService) SprintAnalytics(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	sprintId, err := normalizeID(req.Id, "sprint_id")
	if err != nil {
		return nil, WrapError(ErrInvalidInput, err)
	}

	s.log.Info("sprint analytics request accepted", zap.String("sprint_id", sprintId))

	sprint, err := s.repo.GetSprint(ctx, sprintId)
	if err != nil {
		s.log.Error("failed to load sprint", zap.String("sprint_id", sprintId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrSprintNotFound, sprintAnalyticsError)
	}
	if sprint.OrganizationId != identity.OrganizationId {
		s.log.Warn("sprint belongs to another organization", zap.String("sprint_id", sprintId))
		return nil, ErrForbidden
	}

	issues, err := s.repo.ListSprintIssues(ctx, sprintId)
	if err != nil {
		s.log.Error("failed to load sprint issues", zap.String("sprint_id", sprintId), zap.Error(err))
		return nil, mapRepositoryError(err, ErrSprintNotFound, sprintAnalyticsError)
	}

	summary := analytics.Aggregate(analytics.Input{
		Scope:        domain.SprintScope(sprintId),
		Issues:       issues,
		SprintStatus: sprint.Sprint.Status,
	})

	s.log.Info("sprint analytics computed",
		zap.String("sprint_id", sprintId),
		zap.String("sprint_status", string(sprint.Sprint.Status)),
		zap.Int("total_issues", summary.TotalIssues),
	)

	resp := toAnalyticsResponse(summary)
	resp.SprintStatus = string(sprint.Sprint.Status)
	return resp, nil
}

func (s *AnalyticsService) OrganizationAnalytics(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error) {
	orgId, err := authorizeOrganization(identity, req.Id, s.log)
	if err != nil {
		return nil, err
	}

	s.log.Info("organization analytics request accepted", zap.String("organization_id", orgId))

	summary, err := s.organizationSummary(ctx, orgId)
	if err != nil {
		s.log.Error("failed to compute organization analytics",
			zap.String("organization_id", orgId),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err, ErrForbidden, organizationAnalyticsError)
	}

	s.log.Info("organization analytics computed",
		zap.String("organization_id", orgId),
		zap.Int("total_projects", summary.Organization.TotalProjects),
		zap.Int("total_issues", summary.TotalIssues),
	)
	return toAnalyticsResponse(summary), nil
}

func (s *AnalyticsService) UserCompletion(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.UserCompletionListResponse, error) {
	orgId, err := authorizeOrganization(identity, req.Id, s.log)
	if err != nil {
		return nil, err
	}

	assignees, err := s.repo.ListAssignees(ctx, orgId)
	if err != nil {
		s.log.Error("failed to load assignees",
			zap.String("organization_id", orgId),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err, ErrForbidden, userCompletionError)
	}

	ranked := analytics.RankUsersByCompletion(toUserIssues(assignees))

	s.log.Info("user completion ranked",
		zap.String("organization_id", orgId),
		zap.Int("users_count", len(ranked)),
	)
	return &response.UserCompletionListResponse{
		OrganizationId: orgId,
		Users:          toUserCompletionResponses(ranked),
	}, nil
}

// SnapshotOrganizations сохраняет срез аналитики каждой организации.
// Ошибка одной организации не останавливает остальные.
func (s *AnalyticsService) SnapshotOrganizations(ctx context.Context) (int, error) {
	orgIds, err := s.repo.ListOrganizationIds(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", snapshotError, err)
	}

	s.log.Info("analytics snapshot started", zap.Int("organizations", len(orgIds)))

	var (
		stored int
		errs   []error
	)
	for _, orgId := range orgIds {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.snapshotOrganization(ctx, orgId); err != nil {
			snapshotsStoredTotal.WithLabelValues("error").Inc()
			s.log.Error("failed to snapshot organization",
				zap.String("organization_id", orgId),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("organization %s: %w", orgId, err))
			continue
		}
		snapshotsStoredTotal.WithLabelValues("stored").Inc()
		stored++
	}

	s.log.Info("analytics snapshot finished",
		zap.Int("stored", stored),
		zap.Int("failed", len(errs)),
	)
	if len(errs) > 0 {
		return stored, fmt.Errorf("%w: %w", snapshotError, errors.Join(errs...))
	}
	return stored, nil
}

func (s *AnalyticsService) ListSnapshots(ctx context.Context, identity domain.Identity, req *request.ListSnapshotsRequest) (*response.SnapshotListResponse, error) {
	orgId, err := authorizeOrganization(identity, req.OrganizationId, s.log)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, WrapError(ErrInvalidInput, fmt.Errorf("negative limit %d", req.Limit))
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultSnapshotLimit
	}

	snapshots, err := s.repo.ListSnapshots(ctx, &dto.ListSnapshotsDTO{
		OrganizationId: orgId,
		Limit:          limit,
	})
	if err != nil {
		s.log.Error("failed to list snapshots",
			zap.String("organization_id", orgId),
			zap.Error(err),
		)
		return nil, mapRepositoryError(err, ErrForbidden, snapshotError)
	}

	resp := &response.SnapshotListResponse{
		OrganizationId: orgId,
		Snapshots:      make([]response.SnapshotResponse, 0, len(snapshots)),
	}
	for _, snap := range snapshots {
		resp.Snapshots = append(resp.Snapshots, response.SnapshotResponse{
			Id:      snap.Id,
			TakenAt: snap.TakenAt.Format(time.RFC3339),
			Payload: snap.Payload,
		})
	}
	return resp, nil
}

func (s *AnalyticsService) snapshotOrganization(ctx context.Context, orgId string) error {
	summary, err := s.organizationSummary(ctx, orgId)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(toAnalyticsResponse(summary))
	if err != nil {
		return err
	}

	return s.repo.InsertSnapshot(ctx, &dto.SnapshotDTO{
		Id:             uuid.NewString(),
		OrganizationId: orgId,
		TakenAt:        time.Now().UTC(),
		Payload:        payload,
	})
}

func (s *AnalyticsService) organizationSummary(ctx context.Context, orgId string) (*analytics.Summary, error) {
	projects, err := s.repo.ListOrganizationProjects(ctx, orgId)
	if err != nil {
		return nil, err
	}

	assignees, err := s.repo.ListAssignees(ctx, orgId)
	if err != nil {
		return nil, err
	}

	in := analytics.Input{
		Scope:    domain.OrganizationScope(orgId),
		Projects: make([]analytics.ProjectIssues, 0, len(projects)),
		Users:    toUserIssues(assignees),
	}
	for _, p := range projects {
		in.Projects = append(in.Projects, analytics.ProjectIssues{
			Project:     p.Project,
			Issues:      p.Issues,
			SprintCount: p.SprintCount,
		})
	}

	return analytics.Aggregate(in), nil
}

// authorizeOrganization допускает только запросы к собственной организации
func authorizeOrganization(identity domain.Identity, rawId string, log *zap.Logger) (string, error) {
	if err := requireIdentity(identity); err != nil {
		return "", err
	}

	orgId, err := normalizeID(rawId, "organization_id")
	if err != nil {
		return "", WrapError(ErrInvalidInput, err)
	}
	if orgId != identity.OrganizationId {
		log.Warn("organization mismatch",
			zap.String("organization_id", orgId),
			zap.String("user_id", identity.UserId),
		)
		return "", ErrForbidden
	}
	return orgId, nil
}

func toUserIssues(assignees []result.AssigneeIssuesResult) []analytics.UserIssues {
	users := make([]analytics.UserIssues, 0, len(assignees))
	for _, a := range assignees {
		users = append(users, analytics.UserIssues{
			User:   a.User,
			Issues: a.Issues,
		})
	}
	return users
}

func toUserCompletionResponses(ranked []analytics.UserCompletion) []response.UserCompletionResponse {
	users := make([]response.UserCompletionResponse, 0, len(ranked))
	for _, u := range ranked {
		users = append(users, response.UserCompletionResponse{
			UserId:         u.UserId,
			Name:           u.Name,
			ImageUrl:       u.ImageUrl,
			TotalAssigned:  u.TotalAssigned,
			CompletedCount: u.CompletedCount,
			CompletionRate: u.CompletionRate,
		})
	}
	return users
}

func toAnalyticsResponse(summary *analytics.Summary) *response.AnalyticsResponse {
	resp := &response.AnalyticsResponse{
		Scope:                      string(summary.Scope.Kind),
		ScopeId:                    summary.Scope.Id,
		TotalIssues:                summary.TotalIssues,
		IssuesByStatus:             make(map[string]int, len(domain.IssueStatuses)),
		IssuesByPriority:           make(map[string]int, len(domain.IssuePriorities)),
		CompletedIssues:            summary.CompletedIssues,
		AverageCompletionTime:      summary.AverageCompletionTime,
		AverageCompletionTimeHuman: analytics.FormatDuration(summary.AverageCompletionTime),
		CompletionRate:             summary.CompletionRate,
	}
	for _, st := range domain.IssueStatuses {
		resp.IssuesByStatus[string(st)] = summary.IssuesByStatus[st]
	}
	for _, p := range domain.IssuePriorities {
		resp.IssuesByPriority[string(p)] = summary.IssuesByPriority[p]
	}

	if summary.StateAverages != nil {
		resp.AverageTimeInState = &response.StateAveragesResponse{
			TimeInTodo:     summary.StateAverages.Todo,
			TimeInProgress: summary.StateAverages.InProgress,
			TimeInReview:   summary.StateAverages.InReview,
		}
	}

	if org := summary.Organization; org != nil {
		rollup := &response.OrganizationRollupResponse{
			TotalProjects:      org.TotalProjects,
			TotalSprints:       org.TotalSprints,
			ProjectPerformance: make([]response.ProjectPerformanceResponse, 0, len(org.ProjectPerformance)),
			UserCompletion:     toUserCompletionResponses(org.UserCompletion),
		}
		for _, p := range org.ProjectPerformance {
			rollup.ProjectPerformance = append(rollup.ProjectPerformance, response.ProjectPerformanceResponse{
				ProjectId:       p.ProjectId,
				Name:            p.Name,
				Key:             p.Key,
				TotalIssues:     p.TotalIssues,
				CompletedIssues: p.CompletedIssues,
				CompletionRate:  p.CompletionRate,
			})
		}
		resp.Organization = rollup
	}

	return resp
}
