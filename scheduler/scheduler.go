package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/config"
	"arts_scrooper/models"
	"arts_scrooper/services"
)

const defaultPollInterval = 2 * time.Second

// Runner is the scrape pipeline as seen by the scheduler.
type Runner interface {
	Run(ctx context.Context) (*models.ScrapeReport, error)
	HandleCommand(ctx context.Context, cmd models.Command) error
}

// CommandQueue is the operational command table. *storage.SQLiteStore
// implements it.
type CommandQueue interface {
	GetPendingCommands() ([]models.Command, error)
	MarkCommandProcessed(id int64) error
}

type Scheduler struct {
	cfg          config.SchedulerConfig
	runner       Runner
	queue        CommandQueue
	cron         *cron.Cron
	ticker       *time.Ticker
	pollInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg config.SchedulerConfig, runner Runner, queue CommandQueue) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		runner:       runner,
		queue:        queue,
		cron:         cron.New(),
		pollInterval: defaultPollInterval,
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.queue != nil {
		s.wg.Add(1)
		go s.pollCommands(ctx)
	}

	if s.cfg.Cron != "" {
		zap.L().Info("scheduler: starting with cron", zap.String("cron", s.cfg.Cron))
		_, err := s.cron.AddFunc(s.cfg.Cron, func() { s.runScheduled(ctx) })
		if err != nil {
			return eris.Wrapf(err, "scheduler: invalid cron expression %q", s.cfg.Cron)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		zap.L().Info("scheduler: starting with interval", zap.Duration("interval", s.cfg.Interval))
		s.ticker = time.NewTicker(s.cfg.Interval)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.runScheduled(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		zap.L().Info("scheduler: no schedule configured, only responding to commands and API calls")
	}

	return nil
}

// Stop halts scheduling and waits for the background loops to exit. A run
// already in progress under cron is allowed to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		<-s.cron.Stop().Done()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, services.ErrPaused):
		zap.L().Info("scheduler: pipeline paused, skipping run")
	case err != nil:
		zap.L().Error("scheduler: scheduled run failed", zap.Error(err))
	default:
		zap.L().Info("scheduler: scheduled run complete",
			zap.Int("total", report.Total),
			zap.Int("added", report.Added),
		)
	}
}

func (s *Scheduler) pollCommands(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processCommands(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) processCommands(ctx context.Context) {
	cmds, err := s.queue.GetPendingCommands()
	if err != nil {
		zap.L().Warn("scheduler: read commands", zap.Error(err))
		return
	}

	for _, cmd := range cmds {
		zap.L().Info("scheduler: processing command", zap.String("command", string(cmd.Command)))
		if err := s.runner.HandleCommand(ctx, cmd); err != nil {
			zap.L().Warn("scheduler: command failed",
				zap.String("command", string(cmd.Command)),
				zap.Error(err),
			)
		}
		if err := s.queue.MarkCommandProcessed(cmd.ID); err != nil {
			zap.L().Warn("scheduler: mark command processed", zap.Int64("id", cmd.ID), zap.Error(err))
		}
	}
}
