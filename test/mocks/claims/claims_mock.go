package claims

import (
	"context"
	"time"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

type MockClaimStore struct {
	mock.Mock
}

func (m *MockClaimStore) Claim(ctx context.Context, contract, employee gcommon.Address, nextPayTimestamp uint64, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, contract, employee, nextPayTimestamp, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimStore) Release(ctx context.Context, contract, employee gcommon.Address, nextPayTimestamp uint64) error {
	args := m.Called(ctx, contract, employee, nextPayTimestamp)
	return args.Error(0)
}
