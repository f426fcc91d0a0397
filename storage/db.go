package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

var ErrNotFound = errors.New("not found")

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type DatabaseStorage interface {
	Transactor
	RunRepository
	LabelRepository
	Close() error
}

// RunRepository is the ledger of payroll runs and their per-employee attempts.
type RunRepository interface {
	CreateRun(ctx context.Context, run *types.PayrollRun) error
	FinishRun(ctx context.Context, run *types.PayrollRun) error
	RecordAttempt(ctx context.Context, runID uuid.UUID, contract common.Address, outcome types.EmployeeOutcome) error
	GetRun(ctx context.Context, id uuid.UUID) (*types.PayrollRun, error)
	ListRuns(ctx context.Context, contract *common.Address, take int, skip int) (types.PayrollRunsPaginatedList, error)
	ListAttempts(ctx context.Context, runID uuid.UUID) ([]types.EmployeeOutcome, error)
	LastRunTime(ctx context.Context, contract common.Address) (*time.Time, error)
}

type LabelRepository interface {
	SetEmployeeLabel(ctx context.Context, label types.EmployeeLabel) error
	SetEmployeeLabelTx(ctx context.Context, dbTx pgx.Tx, label types.EmployeeLabel) error
	GetEmployeeLabels(ctx context.Context, contract common.Address) (map[common.Address]string, error)
}

// ClaimStore guards against paying the same employee twice for one pay period.
type ClaimStore interface {
	Claim(ctx context.Context, contract, employee common.Address, nextPayTimestamp uint64, ttl time.Duration) (bool, error)
	Release(ctx context.Context, contract, employee common.Address, nextPayTimestamp uint64) error
}

type ReportArchive interface {
	Upload(ctx context.Context, run *types.PayrollRun) (string, error)
}
