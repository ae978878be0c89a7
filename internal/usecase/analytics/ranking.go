package analytics

import (
	"sort"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

const unknownUserName = "Unknown User"

// UserIssues пользователь и назначенные ему задачи организации (важен только статус)
type UserIssues struct {
	User   domain.User
	Issues []domain.Issue
}

type UserCompletion struct {
	UserId         string
	Name           string
	ImageUrl       *string
	TotalAssigned  int
	CompletedCount int
	CompletionRate float64
}

// RankUsersByCompletion сортирует пользователей по числу закрытых задач.
// Сортировка стабильная: при равенстве сохраняется входной порядок.
func RankUsersByCompletion(users []UserIssues) []UserCompletion {
	ranked := make([]UserCompletion, 0, len(users))
	for _, u := range users {
		completed := 0
		for i := range u.Issues {
			if u.Issues[i].Status == domain.StatusDone {
				completed++
			}
		}

		name := u.User.Name
		if name == "" {
			name = unknownUserName
		}

		ranked = append(ranked, UserCompletion{
			UserId:         u.User.Id,
			Name:           name,
			ImageUrl:       u.User.ImageUrl,
			TotalAssigned:  len(u.Issues),
			CompletedCount: completed,
			CompletionRate: percent(completed, len(u.Issues)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompletedCount > ranked[j].CompletedCount
	})

	return ranked
}
