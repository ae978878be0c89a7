package analytics

import (
	"github.com/niklvrr/IssueTracker/internal/domain"
)

type StatusCounts map[domain.IssueStatus]int

type PriorityCounts map[domain.IssuePriority]int

// StateAverages среднее время (сек) в каждом отслеживаемом статусе
type StateAverages struct {
	Todo       int64
	InProgress int64
	InReview   int64
}

type ProjectPerformance struct {
	ProjectId       string
	Name            string
	Key             string
	TotalIssues     int
	CompletedIssues int
	CompletionRate  float64
}

type OrganizationRollup struct {
	TotalProjects      int
	TotalSprints       int
	ProjectPerformance []ProjectPerformance
	UserCompletion     []UserCompletion
}

type Summary struct {
	Scope                 domain.Scope
	TotalIssues           int
	IssuesByStatus        StatusCounts
	IssuesByPriority      PriorityCounts
	CompletedIssues       int
	AverageCompletionTime int64

	// Только для проекта и спринта
	StateAverages *StateAverages
	// Только для спринта
	CompletionRate *float64
	// Только для организации
	Organization *OrganizationRollup
}

// ProjectIssues проект организации вместе с его задачами
type ProjectIssues struct {
	Project     domain.Project
	Issues      []domain.Issue
	SprintCount int
}

// Input данные для агрегации. Для организации задачи берутся из Projects,
// Issues при этом не используется.
type Input struct {
	Scope        domain.Scope
	Issues       []domain.Issue
	SprintStatus domain.SprintStatus
	Projects     []ProjectIssues
	Users        []UserIssues
}

// Aggregate сводит задачи области в статистику. Функция чистая, деление на ноль дает 0.
func Aggregate(in Input) *Summary {
	issues := in.Issues
	if in.Scope.Kind == domain.ScopeOrganization {
		issues = flattenIssues(in.Projects)
	}

	s := baseSummary(in.Scope, issues)

	switch in.Scope.Kind {
	case domain.ScopeProject:
		s.StateAverages = stateAverages(issues)
	case domain.ScopeSprint:
		s.StateAverages = stateAverages(issues)
		rate := 0.0
		// Процент выполнения имеет смысл только для закрытого спринта
		if in.SprintStatus == domain.SprintCompleted {
			rate = percent(s.CompletedIssues, s.TotalIssues)
		}
		s.CompletionRate = &rate
	case domain.ScopeOrganization:
		s.Organization = organizationRollup(in.Projects, in.Users)
	}

	return s
}

func baseSummary(scope domain.Scope, issues []domain.Issue) *Summary {
	s := &Summary{
		Scope:            scope,
		TotalIssues:      len(issues),
		IssuesByStatus:   StatusCounts{},
		IssuesByPriority: PriorityCounts{},
	}
	for _, st := range domain.IssueStatuses {
		s.IssuesByStatus[st] = 0
	}
	for _, p := range domain.IssuePriorities {
		s.IssuesByPriority[p] = 0
	}

	var completionSum int64
	var completionCount int64
	for i := range issues {
		issue := &issues[i]
		// Неизвестные значения не попадают ни в одну корзину
		if issue.Status.Valid() {
			s.IssuesByStatus[issue.Status]++
		}
		if issue.Priority.Valid() {
			s.IssuesByPriority[issue.Priority]++
		}
		if issue.Status != domain.StatusDone {
			continue
		}
		s.CompletedIssues++
		if issue.Analytics != nil && issue.Analytics.CompletionTime != nil && *issue.Analytics.CompletionTime > 0 {
			completionSum += *issue.Analytics.CompletionTime
			completionCount++
		}
	}
	s.AverageCompletionTime = floorDiv(completionSum, completionCount)

	return s
}

func stateAverages(issues []domain.Issue) *StateAverages {
	var todo, inProgress, inReview, withAnalytics int64
	for i := range issues {
		a := issues[i].Analytics
		if a == nil {
			continue
		}
		withAnalytics++
		todo += a.TimeInTodo
		inProgress += a.TimeInProgress
		inReview += a.TimeInReview
	}
	return &StateAverages{
		Todo:       floorDiv(todo, withAnalytics),
		InProgress: floorDiv(inProgress, withAnalytics),
		InReview:   floorDiv(inReview, withAnalytics),
	}
}

func organizationRollup(projects []ProjectIssues, users []UserIssues) *OrganizationRollup {
	r := &OrganizationRollup{
		TotalProjects:      len(projects),
		ProjectPerformance: make([]ProjectPerformance, 0, len(projects)),
		UserCompletion:     RankUsersByCompletion(users),
	}
	for _, p := range projects {
		r.TotalSprints += p.SprintCount

		completed := 0
		for i := range p.Issues {
			if p.Issues[i].Status == domain.StatusDone {
				completed++
			}
		}
		r.ProjectPerformance = append(r.ProjectPerformance, ProjectPerformance{
			ProjectId:       p.Project.Id,
			Name:            p.Project.Name,
			Key:             p.Project.Key,
			TotalIssues:     len(p.Issues),
			CompletedIssues: completed,
			CompletionRate:  percent(completed, len(p.Issues)),
		})
	}
	return r
}

func flattenIssues(projects []ProjectIssues) []domain.Issue {
	total := 0
	for _, p := range projects {
		total += len(p.Issues)
	}
	issues := make([]domain.Issue, 0, total)
	for _, p := range projects {
		issues = append(issues, p.Issues...)
	}
	return issues
}

func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// floorDiv целочисленное деление для неотрицательных сумм, 0 при пустом делителе
func floorDiv(sum, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return sum / count
}
