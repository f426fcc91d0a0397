package contract

import (
	"context"

	gcommon "github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

type MockPayrollContract struct {
	mock.Mock
	ContractAddress gcommon.Address
}

func (m *MockPayrollContract) Address() gcommon.Address {
	return m.ContractAddress
}

func (m *MockPayrollContract) GetEmployeeList(ctx context.Context) ([]gcommon.Address, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcommon.Address), args.Error(1)
}

func (m *MockPayrollContract) GetEmployee(ctx context.Context, employee gcommon.Address) (types.Employee, error) {
	args := m.Called(ctx, employee)
	return args.Get(0).(types.Employee), args.Error(1)
}

func (m *MockPayrollContract) SubmitPayment(ctx context.Context, method contracts.PaymentMethod, employee gcommon.Address, gasLimit uint64) (*gtypes.Transaction, error) {
	args := m.Called(ctx, method, employee, gasLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gtypes.Transaction), args.Error(1)
}
