package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/config"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/service/reporting"
	"github.com/mamadbah2/bakery/pkg/clients/whatsapp"
)

// Snapshotter produces the daily report of a date.
type Snapshotter interface {
	DailySnapshot(ctx context.Context, date string) (reporting.Snapshot, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	reporting Snapshotter
	messenger whatsapp.Client
	cfg       config.ReportingConfig
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
// messenger may be nil when no digest should be sent.
func NewScheduler(cfg config.ReportingConfig, reportingSvc Snapshotter, messenger whatsapp.Client, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		reporting: reportingSvc,
		messenger: messenger,
		cfg:       cfg,
		location:  loc,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Start registers the daily report and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule daily report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

// RunDailyReport snapshots today in the scheduler timezone and sends the digest.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	date := models.FormatDate(s.now().In(s.location))
	s.logger.Info("generating daily report", zap.String("date", date))

	snap, err := s.reporting.DailySnapshot(ctx, date)
	if err != nil {
		return fmt.Errorf("daily snapshot: %w", err)
	}

	if s.messenger == nil || s.cfg.Recipient == "" {
		return nil
	}

	_, err = s.messenger.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{
		To:   s.cfg.Recipient,
		Body: snap.Digest,
	})
	if err != nil {
		return fmt.Errorf("send daily digest: %w", err)
	}

	s.logger.Info("daily report sent successfully", zap.String("date", date))
	return nil
}
