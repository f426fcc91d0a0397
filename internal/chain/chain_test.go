package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

type mockNonceSource struct {
	mock.Mock
}

func (m *mockNonceSource) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*gtypes.Receipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gtypes.Receipt), args.Error(1)
}

func (m *mockBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, account, blockNumber)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	args := m.Called(ctx, call, blockNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type revertDataError struct {
	data string
}

func (e revertDataError) Error() string          { return "execution reverted" }
func (e revertDataError) ErrorData() interface{} { return e.data }

func TestLoadPrivateKey(t *testing.T) {
	key, err := LoadPrivateKey("0x" + testKey)
	require.NoError(t, err)

	same, err := LoadPrivateKey(testKey)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(same.PublicKey))

	_, err = LoadPrivateKey("  ")
	require.ErrorIs(t, err, ErrEmptyPrivateKey)

	_, err = LoadPrivateKey("0xnothex")
	require.Error(t, err)
}

func TestNonceManager(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")

	source := new(mockNonceSource)
	source.On("PendingNonceAt", ctx, account).Return(uint64(7), nil).Twice()

	nm := NewNonceManager(source)

	nonce, err := nm.GetNextNonce(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	nonce, err = nm.GetNextNonce(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), nonce)

	nm.ResetNonce(account)
	nonce, err = nm.GetNextNonce(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	source.AssertExpectations(t)
}

func TestNonceManagerSourceError(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x2222222222222222222222222222222222222222")

	source := new(mockNonceSource)
	source.On("PendingNonceAt", ctx, account).Return(uint64(0), errors.New("connection refused"))

	_, err := NewNonceManager(source).GetNextNonce(ctx, account)
	require.ErrorContains(t, err, "failed to get nonce from network")
}

func TestSignerTransactOpts(t *testing.T) {
	ctx := context.Background()
	key, err := LoadPrivateKey(testKey)
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey)

	source := new(mockNonceSource)
	source.On("PendingNonceAt", ctx, address).Return(uint64(3), nil)

	signer := NewSigner(key, big.NewInt(84532), source)
	assert.Equal(t, address, signer.Address())
	assert.Equal(t, int64(84532), signer.ChainID().Int64())

	opts, err := signer.TransactOpts(ctx, 500000)
	require.NoError(t, err)
	assert.Equal(t, address, opts.From)
	assert.Equal(t, uint64(500000), opts.GasLimit)
	assert.Equal(t, int64(3), opts.Nonce.Int64())

	opts, err = signer.TransactOpts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), opts.Nonce.Int64())
}

func TestSignerResetNonceAfterDroppedTx(t *testing.T) {
	ctx := context.Background()
	key, err := LoadPrivateKey(testKey)
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey)

	// the node never saw nonce 5 mined, so pending stays at 5
	source := new(mockNonceSource)
	source.On("PendingNonceAt", ctx, address).Return(uint64(5), nil)

	signer := NewSigner(key, big.NewInt(84532), source)
	opts, err := signer.TransactOpts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), opts.Nonce.Int64())

	signer.ResetNonce()
	opts, err = signer.TransactOpts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), opts.Nonce.Int64())
	source.AssertNumberOfCalls(t, "PendingNonceAt", 2)
}

func TestClassifyError(t *testing.T) {
	sender := common.HexToAddress("0x3333333333333333333333333333333333333333")

	testCases := []struct {
		name string
		err  error
		code types.TransactionErrorCode
	}{
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), types.ErrInsufficientFunds},
		{"nonce too low", errors.New("nonce too low"), types.ErrRetriable},
		{"underpriced", errors.New("replacement transaction underpriced"), types.ErrRetriable},
		{"revert", errors.New("execution reverted: Not authorized"), types.ErrExecutionReverted},
		{"rejected", errors.New("user rejected transaction"), types.ErrRejected},
		{"deadline", context.DeadlineExceeded, types.ErrTxTimeout},
		{"not found", ethereum.NotFound, types.ErrTxDropped},
		{"unknown", errors.New("dial tcp: connection refused"), types.ErrRPCConnectionFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ClassifyError(tc.err, sender)
			var txErr *types.TransactionError
			require.ErrorAs(t, err, &txErr)
			assert.Equal(t, tc.code, txErr.Code)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	require.NoError(t, ClassifyError(nil, sender))

	reverted := ClassifyError(errors.New("execution reverted: Not authorized"), sender)
	assert.Equal(t, "Not authorized", FriendlyMessage(reverted))
}

func TestFriendlyMessage(t *testing.T) {
	assert.Equal(t, "Transaction rejected by user", FriendlyMessage(errors.New("user rejected the request")))
	assert.Equal(t, "Insufficient funds for transaction", FriendlyMessage(errors.New("INSUFFICIENT FUNDS for gas")))
	assert.Equal(t, "boom", FriendlyMessage(errors.New("boom")))
	assert.Equal(t, "", FriendlyMessage(nil))
}

func TestExtractRevertReason(t *testing.T) {
	assert.Equal(t, "Payment not due", ExtractRevertReason(errors.New("execution reverted: Payment not due")))
	assert.Equal(t, "out of gas", ExtractRevertReason(errors.New("out of gas")))

	// Error(string) with "Not owner"
	data := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000009" +
		"4e6f74206f776e65720000000000000000000000000000000000000000000000"
	assert.Equal(t, "Not owner", ExtractRevertReason(revertDataError{data: data}))
}

func newTestTx(t *testing.T) *gtypes.Transaction {
	key, err := LoadPrivateKey(testKey)
	require.NoError(t, err)
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")
	tx := gtypes.NewTx(&gtypes.DynamicFeeTx{
		ChainID:   big.NewInt(84532),
		Nonce:     1,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       500000,
		To:        &to,
		Data:      []byte{0x01, 0x02, 0x03, 0x04},
	})
	signed, err := gtypes.SignTx(tx, gtypes.LatestSignerForChainID(big.NewInt(84532)), key)
	require.NoError(t, err)
	return signed
}

func TestMonitorWaitMined(t *testing.T) {
	tx := newTestTx(t)
	backend := new(mockBackend)
	m := NewMonitor(backend, 50*time.Millisecond, logrus.New())

	t.Run("mined", func(t *testing.T) {
		m.waitMined = func(ctx context.Context, b bind.DeployBackend, got *gtypes.Transaction) (*gtypes.Receipt, error) {
			return &gtypes.Receipt{Status: gtypes.ReceiptStatusSuccessful, BlockNumber: big.NewInt(10)}, nil
		}
		receipt, err := m.WaitMined(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, gtypes.ReceiptStatusSuccessful, receipt.Status)
	})

	t.Run("timeout", func(t *testing.T) {
		m.waitMined = func(ctx context.Context, b bind.DeployBackend, got *gtypes.Transaction) (*gtypes.Receipt, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		_, err := m.WaitMined(context.Background(), tx)
		var txErr *types.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, types.ErrTxTimeout, txErr.Code)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m.waitMined = func(ctx context.Context, b bind.DeployBackend, got *gtypes.Transaction) (*gtypes.Receipt, error) {
			return nil, ctx.Err()
		}
		_, err := m.WaitMined(ctx, tx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestMonitorRevertReason(t *testing.T) {
	tx := newTestTx(t)
	backend := new(mockBackend)
	backend.On("CallContract", mock.Anything, mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == *tx.To() && msg.From != (common.Address{})
	}), big.NewInt(10)).Return(nil, errors.New("execution reverted: Insufficient balance"))

	m := NewMonitor(backend, time.Second, logrus.New())
	assert.Equal(t, "Insufficient balance", m.RevertReason(context.Background(), tx, big.NewInt(10)))
	backend.AssertExpectations(t)
}
