package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/tasks"
	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/storage"
)

type Runs interface {
	ListRuns(ctx context.Context, contract string, take int, skip int) (types.PayrollRunsPaginatedList, error)
	GetRun(ctx context.Context, runID string) (*types.PayrollRun, error)
	TriggerRun(ctx context.Context, contract string) (*asynq.TaskInfo, error)
	GetEmployeeLabels(ctx context.Context, contract string) (map[common.Address]string, error)
	ImportEmployeeLabels(ctx context.Context, contract string, labels map[string]string) error
}

type RunServiceStorage interface {
	storage.Transactor
	storage.RunRepository
	storage.LabelRepository
}

type QueueClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type RunService struct {
	db         RunServiceStorage
	queue      QueueClient
	runTimeout time.Duration
	logger     logrus.FieldLogger
}

func NewRunService(db RunServiceStorage, queue QueueClient, runTimeout time.Duration, logger logrus.FieldLogger) (*RunService, error) {
	if db == nil {
		return nil, fmt.Errorf("database storage cannot be nil")
	}
	return &RunService{
		db:         db,
		queue:      queue,
		runTimeout: runTimeout,
		logger:     logger,
	}, nil
}

// ErrInvalidInput is matched by errors caused by the caller's input rather
// than by storage.
var ErrInvalidInput = errors.New("invalid input")

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(format string, args ...interface{}) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

func parseContract(contract string) (common.Address, error) {
	if !common.IsHexAddress(contract) {
		return common.Address{}, invalidInput("invalid contract_address: %s", contract)
	}
	return common.HexToAddress(contract), nil
}

func (s *RunService) ListRuns(ctx context.Context, contract string, take int, skip int) (types.PayrollRunsPaginatedList, error) {
	var filter *common.Address
	if contract != "" {
		addr, err := parseContract(contract)
		if err != nil {
			return types.PayrollRunsPaginatedList{}, err
		}
		filter = &addr
	}
	runs, err := s.db.ListRuns(ctx, filter, take, skip)
	if err != nil {
		return types.PayrollRunsPaginatedList{}, fmt.Errorf("failed to get runs: %w", err)
	}
	return runs, nil
}

func (s *RunService) GetRun(ctx context.Context, runID string) (*types.PayrollRun, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run_id: %s", runID)
	}
	run, err := s.db.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// TriggerRun enqueues an immediate run outside the cron schedule.
func (s *RunService) TriggerRun(ctx context.Context, contract string) (*asynq.TaskInfo, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("task queue is not configured")
	}
	addr, err := parseContract(contract)
	if err != nil {
		return nil, err
	}
	task, err := tasks.NewPayrollRunTask(addr)
	if err != nil {
		return nil, err
	}
	ti, err := s.queue.Enqueue(task, tasks.RunOptions(s.runTimeout)...)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue payroll run: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"task_id":  ti.ID,
		"contract": addr.Hex(),
	}).Info("Enqueued manual payroll run")
	return ti, nil
}

func (s *RunService) GetEmployeeLabels(ctx context.Context, contract string) (map[common.Address]string, error) {
	addr, err := parseContract(contract)
	if err != nil {
		return nil, err
	}
	labels, err := s.db.GetEmployeeLabels(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee labels: %w", err)
	}
	return labels, nil
}

// ImportEmployeeLabels stores a batch of display names atomically; one bad
// entry rejects the whole batch.
func (s *RunService) ImportEmployeeLabels(ctx context.Context, contract string, labels map[string]string) error {
	addr, err := parseContract(contract)
	if err != nil {
		return err
	}
	entries := make([]types.EmployeeLabel, 0, len(labels))
	for employee, name := range labels {
		if !common.IsHexAddress(employee) {
			return invalidInput("invalid employee address: %s", employee)
		}
		if strings.TrimSpace(name) == "" {
			return invalidInput("display name is required for %s", employee)
		}
		entries = append(entries, types.EmployeeLabel{
			Contract:    addr,
			Employee:    common.HexToAddress(employee),
			DisplayName: strings.TrimSpace(name),
		})
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		for _, label := range entries {
			if err := s.db.SetEmployeeLabelTx(ctx, tx, label); err != nil {
				return fmt.Errorf("failed to set label for %s: %w", label.Employee.Hex(), err)
			}
		}
		return nil
	})
}
