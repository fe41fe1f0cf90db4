package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/config"
	"github.com/mamadbah2/fishfarm/internal/domain/models"
)

const reportTimeout = 2 * time.Minute

// WeeklyReporter builds the weekly pond report text.
type WeeklyReporter interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// Notifier delivers the report to the farm manager.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.ReportingConfig
	reporter  WeeklyReporter
	notifier  Notifier
	recipient string
	location  *time.Location
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured
// timezone. notifier may be nil, in which case reports are only logged.
func NewScheduler(cfg config.Config, reporter WeeklyReporter, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load report timezone: %w", err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg.Reporting,
		reporter:  reporter,
		notifier:  notifier,
		recipient: cfg.WhatsApp.ManagerNumber,
		location:  loc,
		logger:    logger,
	}, nil
}

// Start registers the weekly report and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := s.RunWeeklyReport(ctx); err != nil {
		s.logger.Error("weekly report failed", zap.Error(err))
	}
}

// RunWeeklyReport generates the report for the current week and sends it to
// the manager when messaging is configured.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) error {
	s.logger.Info("generating weekly report")

	report, err := s.reporter.GenerateWeeklyReport(ctx, time.Now().In(s.location))
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	if s.notifier == nil || s.recipient == "" {
		s.logger.Info("weekly report generated, no recipient configured", zap.String("report", report))
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient,
		Message: report,
	}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}

	s.logger.Info("weekly report sent successfully")
	return nil
}
