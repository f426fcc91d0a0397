package database

import (
	"context"
	"time"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)

	if val, ok := args.Get(0).(bool); ok && val {
		return fn(ctx, nil)
	}

	return args.Error(1)
}

func (m *MockDB) CreateRun(ctx context.Context, run *types.PayrollRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDB) FinishRun(ctx context.Context, run *types.PayrollRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockDB) RecordAttempt(ctx context.Context, runID uuid.UUID, contract gcommon.Address, outcome types.EmployeeOutcome) error {
	args := m.Called(ctx, runID, contract, outcome)
	return args.Error(0)
}

func (m *MockDB) GetRun(ctx context.Context, id uuid.UUID) (*types.PayrollRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PayrollRun), args.Error(1)
}

func (m *MockDB) ListRuns(ctx context.Context, contract *gcommon.Address, take int, skip int) (types.PayrollRunsPaginatedList, error) {
	args := m.Called(ctx, contract, take, skip)
	return args.Get(0).(types.PayrollRunsPaginatedList), args.Error(1)
}

func (m *MockDB) ListAttempts(ctx context.Context, runID uuid.UUID) ([]types.EmployeeOutcome, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.EmployeeOutcome), args.Error(1)
}

func (m *MockDB) LastRunTime(ctx context.Context, contract gcommon.Address) (*time.Time, error) {
	args := m.Called(ctx, contract)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockDB) SetEmployeeLabel(ctx context.Context, label types.EmployeeLabel) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

func (m *MockDB) SetEmployeeLabelTx(ctx context.Context, dbTx pgx.Tx, label types.EmployeeLabel) error {
	args := m.Called(ctx, dbTx, label)
	return args.Error(0)
}

func (m *MockDB) GetEmployeeLabels(ctx context.Context, contract gcommon.Address) (map[gcommon.Address]string, error) {
	args := m.Called(ctx, contract)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[gcommon.Address]string), args.Error(1)
}

func (m *MockDB) Close() error {
	args := m.Called()
	return args.Error(0)
}
