package repository

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/feedback360/internal/models"
	"gorm.io/gorm"
)

// Locker grants a single process the right to run a scheduled job for a key.
type Locker interface {
	TryLock(ctx context.Context, name, key string, ttl time.Duration) (bool, error)
}

type gormLocker struct {
	db    *gorm.DB
	owner string
	now   func() time.Time
}

// NewGormLocker returns a Locker backed by the scheduler_locks table.
// owner identifies this instance in the lock row.
func NewGormLocker(db *gorm.DB, owner string) Locker {
	return &gormLocker{db: db, owner: owner, now: time.Now}
}

func (l *gormLocker) TryLock(ctx context.Context, name, key string, ttl time.Duration) (bool, error) {
	now := l.now()
	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  l.owner,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	err := l.db.WithContext(ctx).Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}

	// Held: take it over only if the previous holder let it expire.
	res := l.db.WithContext(ctx).Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND expires_at < ?", name, key, now).
		Updates(map[string]interface{}{
			"locked_by":  l.owner,
			"locked_at":  now,
			"expires_at": now.Add(ttl),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
