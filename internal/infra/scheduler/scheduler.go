package scheduler

import (
	"context"
	"time"

	"event_reminder_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler triggers the daily reminder run. The cron engine
// runs in the business timezone so "9 AM" means 9 AM where the
// recipients live, not where the server does.
type ReminderScheduler struct {
	cronEngine       *cron.Cron
	reminderService  app.ReminderService
	logger           *logrus.Entry
	cronSpecDailyRun string
}

func NewReminderScheduler(
	svc app.ReminderService,
	location *time.Location,
	logger *logrus.Entry,
	cronSpecDailyRun string,
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:       cron.New(cron.WithLocation(location)),
		reminderService:  svc,
		logger:           logger,
		cronSpecDailyRun: cronSpecDailyRun,
	}
}

func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDailyRun, func() {
		s.logger.Info("Cron job triggered for daily reminder run.")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		// Zero time: the service derives today in the business zone.
		result := s.reminderService.Run(ctx, time.Time{})
		s.logger.WithFields(logrus.Fields{
			"run_id":  result.RunID,
			"today":   result.Today.Format("2006-01-02"),
			"due":     len(result.Due),
			"sent":    result.Sent,
			"skipped": result.Skipped,
			"errors":  len(result.Errors),
		}).Info("Scheduled reminder run finished")
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpecDailyRun).Info("Reminder scheduler started.")
	return nil
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
