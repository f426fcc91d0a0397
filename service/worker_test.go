package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	gcommon "github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/decipherlabs/payroll-keeper/internal/tasks"
	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
	"github.com/decipherlabs/payroll-keeper/test/mocks/chain"
	"github.com/decipherlabs/payroll-keeper/test/mocks/contract"
)

type MockRunProcessor struct {
	mock.Mock
}

func (m *MockRunProcessor) Run(ctx context.Context) (*types.PayrollRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PayrollRun), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestHandlePayrollRun(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		payload      []byte
		mockSetup    func(*MockRunProcessor)
		factoryErr   error
		wantErr      bool
		skipRetry    bool
		errorMessage string
	}{
		{
			name:    "successful run",
			payload: mustJSON(t, types.PayrollRunEvent{ContractAddress: testContract.Hex()}),
			mockSetup: func(p *MockRunProcessor) {
				run := types.NewPayrollRun(testContract, testSigner, testNow)
				run.Finish(types.RunStatusCompleted, testNow, nil)
				p.On("Run", mock.Anything).Return(run, nil).Once()
			},
		},
		{
			name:         "invalid json",
			payload:      []byte("{"),
			wantErr:      true,
			skipRetry:    true,
			errorMessage: "json.Unmarshal failed",
		},
		{
			name:         "invalid contract address",
			payload:      mustJSON(t, types.PayrollRunEvent{ContractAddress: "not-an-address"}),
			wantErr:      true,
			skipRetry:    true,
			errorMessage: "invalid payroll run event",
		},
		{
			name:         "missing contract address",
			payload:      mustJSON(t, types.PayrollRunEvent{}),
			wantErr:      true,
			skipRetry:    true,
			errorMessage: "invalid payroll run event",
		},
		{
			name:         "processor cannot be built",
			payload:      mustJSON(t, types.PayrollRunEvent{ContractAddress: testContract.Hex()}),
			factoryErr:   errors.New("abi parse failed"),
			wantErr:      true,
			skipRetry:    true,
			errorMessage: "failed to create batch processor",
		},
		{
			name:    "employee list unreadable",
			payload: mustJSON(t, types.PayrollRunEvent{ContractAddress: testContract.Hex()}),
			mockSetup: func(p *MockRunProcessor) {
				run := types.NewPayrollRun(testContract, testSigner, testNow)
				p.On("Run", mock.Anything).Return(run, errors.New("failed to get employee list: rpc down")).Once()
			},
			wantErr:      true,
			skipRetry:    true,
			errorMessage: "payroll run failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := new(MockRunProcessor)
			if tt.mockSetup != nil {
				tt.mockSetup(processor)
			}
			var gotContract gcommon.Address
			worker := NewWorker(func(c gcommon.Address) (RunProcessor, error) {
				gotContract = c
				if tt.factoryErr != nil {
					return nil, tt.factoryErr
				}
				return processor, nil
			}, nil, testLogger())

			err := worker.HandlePayrollRun(ctx, asynq.NewTask(tasks.TypePayrollRun, tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
				if tt.skipRetry {
					assert.ErrorIs(t, err, asynq.SkipRetry)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, testContract, gotContract)
			}
			processor.AssertExpectations(t)
		})
	}
}

func TestHandlePayrollRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	worker := NewWorker(func(gcommon.Address) (RunProcessor, error) {
		called = true
		return nil, nil
	}, nil, testLogger())

	err := worker.HandlePayrollRun(ctx, asynq.NewTask(tasks.TypePayrollRun, mustJSON(t, types.PayrollRunEvent{ContractAddress: testContract.Hex()})))
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestKeeperNewProcessor(t *testing.T) {
	signer := &stubSigner{address: testSigner}
	keeper := NewKeeper(nil, signer, new(chain.MockTxMonitor), BatchConfig{}, testLogger())

	processor, err := keeper.NewProcessor(testContract)
	require.NoError(t, err)
	bp, ok := processor.(*BatchProcessor)
	require.True(t, ok)
	assert.Equal(t, testContract, bp.contract.Address())
	assert.Equal(t, testSigner, bp.signer)

	require.NotNil(t, bp.resetNonce)
	bp.resetNonce()
	assert.Equal(t, 1, signer.resets)
}

func TestPayEmployee(t *testing.T) {
	ctx := context.Background()
	emp := addr(1)

	t.Run("confirmed", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		tx := testTx(1)
		c.On("SubmitPayment", ctx, contracts.MethodStandard, emp, uint64(500000)).Return(tx, nil)
		m.On("WaitMined", ctx, tx).Return(successReceipt(), nil)

		res, err := PayEmployee(ctx, c, m, contracts.MethodStandard, emp, 0)
		require.NoError(t, err)
		assert.Equal(t, tx.Hash(), res.TxHash)
		assert.Equal(t, uint64(21000), res.GasUsed)
	})

	t.Run("reverted", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		tx := testTx(1)
		c.On("SubmitPayment", ctx, contracts.MethodStandard, emp, uint64(500000)).Return(tx, nil)
		m.On("WaitMined", ctx, tx).Return(revertedReceipt(), nil)
		m.On("RevertReason", ctx, tx, mock.Anything).Return("not due")

		_, err := PayEmployee(ctx, c, m, contracts.MethodStandard, emp, 0)
		var txErr *types.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, types.ErrExecutionReverted, txErr.Code)
		assert.Equal(t, "not due", txErr.Message)
	})
}

func TestForcePayEmployee(t *testing.T) {
	ctx := context.Background()
	emp := addr(1)

	t.Run("force succeeds", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		tx := testTx(1)
		c.On("SubmitPayment", ctx, contracts.MethodForce, emp, uint64(500000)).Return(tx, nil)
		m.On("WaitMined", ctx, tx).Return(successReceipt(), nil)

		res, err := ForcePayEmployee(ctx, c, m, emp, 0, testLogger())
		require.NoError(t, err)
		assert.Equal(t, contracts.MethodForce, res.Method)
		c.AssertNotCalled(t, "SubmitPayment", ctx, contracts.MethodHedge, emp, uint64(500000))
	})

	t.Run("falls back to hedge", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		tx := testTx(2)
		c.On("SubmitPayment", ctx, contracts.MethodForce, emp, uint64(500000)).Return(nil, errors.New("function not found"))
		c.On("SubmitPayment", ctx, contracts.MethodHedge, emp, uint64(500000)).Return(tx, nil)
		m.On("WaitMined", ctx, tx).Return(successReceipt(), nil)

		res, err := ForcePayEmployee(ctx, c, m, emp, 0, testLogger())
		require.NoError(t, err)
		assert.Equal(t, contracts.MethodHedge, res.Method)
		assert.Equal(t, tx.Hash(), res.TxHash)
	})

	t.Run("falls back after a reverted force payment", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		forceTx, hedgeTx := testTx(1), testTx(2)
		c.On("SubmitPayment", ctx, contracts.MethodForce, emp, uint64(500000)).Return(forceTx, nil)
		c.On("SubmitPayment", ctx, contracts.MethodHedge, emp, uint64(500000)).Return(hedgeTx, nil)
		m.On("WaitMined", ctx, forceTx).Return(revertedReceipt(), nil)
		m.On("RevertReason", ctx, forceTx, mock.Anything).Return("Not due yet")
		m.On("WaitMined", ctx, hedgeTx).Return(successReceipt(), nil)

		res, err := ForcePayEmployee(ctx, c, m, emp, 0, testLogger())
		require.NoError(t, err)
		assert.Equal(t, contracts.MethodHedge, res.Method)
		assert.Equal(t, hedgeTx.Hash(), res.TxHash)
	})

	t.Run("no fallback while the force payment may still be mined", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		tx := testTx(1)
		c.On("SubmitPayment", ctx, contracts.MethodForce, emp, uint64(500000)).Return(tx, nil)
		m.On("WaitMined", ctx, tx).Return(nil, &types.TransactionError{Code: types.ErrTxTimeout, Message: "timed out"})

		res, err := ForcePayEmployee(ctx, c, m, emp, 0, testLogger())
		var txErr *types.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, types.ErrTxTimeout, txErr.Code)
		assert.Contains(t, err.Error(), "sent but not confirmed")
		assert.Equal(t, contracts.MethodForce, res.Method)
		assert.Equal(t, tx.Hash(), res.TxHash)
		c.AssertNotCalled(t, "SubmitPayment", mock.Anything, contracts.MethodHedge, emp, mock.Anything)
	})

	t.Run("both fail", func(t *testing.T) {
		c := &contract.MockPayrollContract{ContractAddress: testContract}
		m := new(chain.MockTxMonitor)
		c.On("SubmitPayment", ctx, contracts.MethodForce, emp, uint64(500000)).Return(nil, errors.New("force boom"))
		c.On("SubmitPayment", ctx, contracts.MethodHedge, emp, uint64(500000)).Return(nil, errors.New("hedge boom"))

		_, err := ForcePayEmployee(ctx, c, m, emp, 0, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Force error: force boom")
		assert.Contains(t, err.Error(), "Hedge error: hedge boom")
	})
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

type stubSigner struct {
	address gcommon.Address
	resets  int
}

func (s *stubSigner) Address() gcommon.Address { return s.address }

func (s *stubSigner) TransactOpts(ctx context.Context, gasLimit uint64) (*bind.TransactOpts, error) {
	return nil, errors.New("read only")
}

func (s *stubSigner) ResetNonce() { s.resets++ }

func successReceipt() *gtypes.Receipt {
	return &gtypes.Receipt{Status: gtypes.ReceiptStatusSuccessful, GasUsed: 21000, BlockNumber: big.NewInt(10)}
}

func revertedReceipt() *gtypes.Receipt {
	return &gtypes.Receipt{Status: gtypes.ReceiptStatusFailed, GasUsed: 30000, BlockNumber: big.NewInt(11)}
}
