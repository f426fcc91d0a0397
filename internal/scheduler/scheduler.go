package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/tasks"
	"github.com/decipherlabs/payroll-keeper/storage"
)

const DefaultPollInterval = 30 * time.Second

type QueueClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Config struct {
	CronExpression string
	PollInterval   time.Duration
	RunTimeout     time.Duration
}

type SchedulerService struct {
	contracts []common.Address
	schedule  cron.Schedule
	cfg       Config
	client    QueueClient
	ledger    storage.RunRepository
	logger    logrus.FieldLogger
	now       func() time.Time

	mu           sync.Mutex
	lastEnqueued map[common.Address]time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewSchedulerService enqueues one payroll run per contract each time the cron
// schedule comes due. ledger may be nil; when set, the last completed run seeds
// the schedule after a restart.
func NewSchedulerService(cfg Config, contracts []common.Address, client QueueClient, ledger storage.RunRepository, logger logrus.FieldLogger) (*SchedulerService, error) {
	if client == nil {
		return nil, fmt.Errorf("queue client is nil")
	}
	if len(contracts) == 0 {
		return nil, fmt.Errorf("no payroll contracts to schedule")
	}
	schedule, err := cron.ParseStandard(cfg.CronExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.CronExpression, err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &SchedulerService{
		contracts:    contracts,
		schedule:     schedule,
		cfg:          cfg,
		client:       client,
		ledger:       ledger,
		logger:       logger,
		now:          time.Now,
		lastEnqueued: make(map[common.Address]time.Time),
		done:         make(chan struct{}),
	}, nil
}

func (s *SchedulerService) Start() {
	go s.run()
}

func (s *SchedulerService) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *SchedulerService) run() {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.tick()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.done:
			return
		}
	}
}

func (s *SchedulerService) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PollInterval)
	defer cancel()

	s.logger.Debug("Checking and enqueuing payroll runs")
	if n := s.checkAndEnqueueTasks(ctx); n > 0 {
		s.logger.WithField("count", n).Info("Enqueued payroll runs")
	}
}

func (s *SchedulerService) lastRun(ctx context.Context, contract common.Address) (time.Time, bool) {
	s.mu.Lock()
	last, ok := s.lastEnqueued[contract]
	s.mu.Unlock()
	if ok || s.ledger == nil {
		return last, ok
	}

	t, err := s.ledger.LastRunTime(ctx, contract)
	if err != nil {
		s.logger.WithError(err).WithField("contract", contract.Hex()).Warn("Failed to read last run time")
		return time.Time{}, false
	}
	if t == nil {
		return time.Time{}, false
	}

	s.mu.Lock()
	s.lastEnqueued[contract] = *t
	s.mu.Unlock()
	return *t, true
}

// NextRun reports when the contract is next due. A contract that never ran is
// due immediately.
func (s *SchedulerService) NextRun(ctx context.Context, contract common.Address) time.Time {
	last, ok := s.lastRun(ctx, contract)
	if !ok {
		return s.now().UTC()
	}
	return s.schedule.Next(last.UTC())
}

func (s *SchedulerService) checkAndEnqueueTasks(ctx context.Context) int {
	enqueued := 0
	now := s.now().UTC()

	for _, contract := range s.contracts {
		nextTime := s.NextRun(ctx, contract)
		logger := s.logger.WithFields(logrus.Fields{
			"contract":  contract.Hex(),
			"next_time": nextTime,
			"now":       now,
		})
		if now.Before(nextTime) {
			continue
		}

		task, err := tasks.NewPayrollRunTask(contract)
		if err != nil {
			logger.WithError(err).Error("Failed to build payroll run task")
			continue
		}

		opts := append(tasks.RunOptions(s.cfg.RunTimeout), asynq.Unique(s.cfg.PollInterval))
		ti, err := s.client.Enqueue(task, opts...)
		switch {
		case errors.Is(err, asynq.ErrDuplicateTask):
			logger.Info("Payroll run already queued")
		case err != nil:
			logger.WithError(err).Error("Failed to enqueue payroll run task")
			continue
		default:
			logger.WithField("task_id", ti.ID).Info("Enqueued payroll run task")
			enqueued++
		}

		s.mu.Lock()
		s.lastEnqueued[contract] = now
		s.mu.Unlock()
	}

	return enqueued
}
