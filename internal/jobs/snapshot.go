package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	snapshotLockKey int64 = 731_204
	snapshotTimeout       = 5 * time.Minute
)

type Locker interface {
	WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error)
}

type Snapshotter interface {
	SnapshotOrganizations(ctx context.Context) (int, error)
}

// SnapshotJob по расписанию сохраняет снимки аналитики организаций.
// Между репликами запуск сериализуется advisory lock в postgres.
type SnapshotJob struct {
	locker Locker
	svc    Snapshotter
	log    *zap.Logger
	c      *cron.Cron
}

func NewSnapshotJob(schedule string, loc *time.Location, locker Locker, svc Snapshotter, log *zap.Logger) (*SnapshotJob, error) {
	if loc == nil {
		loc = time.UTC
	}

	j := &SnapshotJob{
		locker: locker,
		svc:    svc,
		log:    log,
		c:      cron.New(cron.WithLocation(loc)),
	}

	if _, err := j.c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		j.Run(ctx)
	}); err != nil {
		return nil, err
	}

	return j, nil
}

func (j *SnapshotJob) Start() {
	j.log.Info("snapshot job scheduled", zap.Int("entries", len(j.c.Entries())))
	j.c.Start()
}

// Stop ждет завершения текущего запуска или отмены ctx
func (j *SnapshotJob) Stop(ctx context.Context) {
	select {
	case <-j.c.Stop().Done():
	case <-ctx.Done():
		j.log.Warn("snapshot job did not finish before shutdown")
	}
}

// Run выполняет один проход, если блокировку не держит другая реплика
func (j *SnapshotJob) Run(ctx context.Context) {
	start := time.Now()
	stored := 0

	acquired, err := j.locker.WithAdvisoryLock(ctx, snapshotLockKey, func(ctx context.Context) error {
		n, err := j.svc.SnapshotOrganizations(ctx)
		stored = n
		return err
	})
	switch {
	case !acquired && err == nil:
		j.log.Info("snapshot job already running elsewhere")
	case err != nil:
		j.log.Error("snapshot job failed",
			zap.Int("stored", stored),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	default:
		j.log.Info("snapshot job finished",
			zap.Int("stored", stored),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
