package chain

import (
	"context"
	"math/big"

	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

type MockTxMonitor struct {
	mock.Mock
}

func (m *MockTxMonitor) WaitMined(ctx context.Context, tx *gtypes.Transaction) (*gtypes.Receipt, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gtypes.Receipt), args.Error(1)
}

func (m *MockTxMonitor) RevertReason(ctx context.Context, tx *gtypes.Transaction, blockNumber *big.Int) string {
	args := m.Called(ctx, tx, blockNumber)
	return args.String(0)
}
