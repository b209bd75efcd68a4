package services

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/feedback360/internal/config"
	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/internal/repository"
	"github.com/huangang/feedback360/pkg/logger"
	"github.com/robfig/cron/v3"
)

// ReminderScheduler periodically re-invites reviewers who have not responded yet.
type ReminderScheduler struct {
	service  *AssessmentService
	holidays *HolidayCalendar
	spec     string
	country  string
	locker   repository.Locker
	cron     *cron.Cron
	now      func() time.Time
}

const reminderLockTTL = 23 * time.Hour

func NewReminderScheduler(service *AssessmentService, cfg *config.ReminderConfig, holidays *HolidayCalendar) *ReminderScheduler {
	return &ReminderScheduler{
		service:  service,
		holidays: holidays,
		spec:     cfg.Cron,
		country:  cfg.Country,
		now:      time.Now,
	}
}

// SetLocker makes runs exclusive across instances sharing a database: the first
// instance to claim a date sends that day's reminders.
func (r *ReminderScheduler) SetLocker(l repository.Locker) {
	r.locker = l
}

func (r *ReminderScheduler) Start() error {
	if !r.holidays.Supported(r.country) {
		logger.Warnf("[Reminder] No holiday calendar for %q, using weekdays only", r.country)
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.spec, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			logger.Errorf("[Reminder] Run failed: %v", err)
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	logger.Infof("[Reminder] Scheduler started (cron: %s, country: %s)", r.spec, r.country)
	return nil
}

func (r *ReminderScheduler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	logger.Infof("[Reminder] Scheduler stopped")
}

// RunOnce sends reminders for every open assessment and returns how many were re-sent.
// Nothing is sent on non-workdays.
func (r *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	today := r.now()
	if !r.holidays.IsWorkday(today, r.country) {
		logger.Infof("[Reminder] %s is not a workday in %s, skipping", today.Format("2006-01-02"), r.country)
		return 0, nil
	}

	if r.locker != nil {
		ok, err := r.locker.TryLock(ctx, "reminder", today.Format("2006-01-02"), reminderLockTTL)
		if err != nil {
			return 0, err
		}
		if !ok {
			logger.Infof("[Reminder] Another instance already ran for %s", today.Format("2006-01-02"))
			return 0, nil
		}
	}

	assessments, err := r.service.List(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range assessments {
		if a.Status != models.AssessmentSent || len(a.PendingReviewers()) == 0 {
			continue
		}
		if _, err := r.service.ResendInvitations(ctx, a.ID, true); err != nil {
			if errors.Is(err, models.ErrBusy) {
				continue
			}
			logger.Warnf("[Reminder] Failed to remind reviewers of %s: %v", a.ID, err)
			continue
		}
		sent++
	}

	logger.Infof("[Reminder] Reminders sent for %d assessment(s)", sent)
	return sent, nil
}
