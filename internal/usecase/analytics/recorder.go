package analytics

import (
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

// Recorder ведет IssueAnalytic при смене статуса задачи
type Recorder struct {
	now func() time.Time
}

func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

// Record возвращает обновленную копию записи аналитики, current не изменяется.
// Если записи еще нет, отсчет идет от момента создания задачи.
func (r *Recorder) Record(current *domain.IssueAnalytic, issue *domain.Issue, previous, next domain.IssueStatus) *domain.IssueAnalytic {
	now := r.now()

	var updated domain.IssueAnalytic
	if current != nil {
		updated = *current
		if current.CompletionTime != nil {
			ct := *current.CompletionTime
			updated.CompletionTime = &ct
		}
	} else {
		updated.LastStatusChange = now
		if issue != nil {
			updated.IssueId = issue.Id
			if !issue.CreatedAt.IsZero() {
				updated.LastStatusChange = issue.CreatedAt
			}
		}
	}

	// Переход в тот же статус не записываем
	if previous == next {
		return &updated
	}

	elapsed := elapsedSeconds(updated.LastStatusChange, now)
	trackedBefore := updated.TimeInTodo + updated.TimeInProgress + updated.TimeInReview

	switch previous {
	case domain.StatusTodo:
		updated.TimeInTodo += elapsed
	case domain.StatusInProgress:
		updated.TimeInProgress += elapsed
	case domain.StatusInReview:
		updated.TimeInReview += elapsed
	}

	updated.StatusChanges++
	updated.LastStatusChange = now

	// Время выполнения фиксируется один раз, при первом переходе в DONE
	if next == domain.StatusDone && previous != domain.StatusDone && updated.CompletionTime == nil {
		completion := trackedBefore + elapsed
		updated.CompletionTime = &completion
	}

	return &updated
}

// NewAnalytic запись для только что созданной задачи
func NewAnalytic(issueId string, createdAt time.Time) *domain.IssueAnalytic {
	return &domain.IssueAnalytic{
		IssueId:          issueId,
		LastStatusChange: createdAt,
	}
}

func elapsedSeconds(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
