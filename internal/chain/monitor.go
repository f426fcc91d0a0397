package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

const DefaultWaitTimeout = 5 * time.Minute

type Backend interface {
	bind.DeployBackend
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Monitor struct {
	backend   Backend
	timeout   time.Duration
	logger    logrus.FieldLogger
	waitMined func(ctx context.Context, b bind.DeployBackend, tx *gtypes.Transaction) (*gtypes.Receipt, error)
}

func NewMonitor(backend Backend, timeout time.Duration, logger logrus.FieldLogger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	return &Monitor{
		backend:   backend,
		timeout:   timeout,
		logger:    logger,
		waitMined: bind.WaitMined,
	}
}

// WaitMined blocks until tx is included or the wait timeout elapses. A
// reverted receipt is returned without error; callers inspect Status.
func (m *Monitor) WaitMined(ctx context.Context, tx *gtypes.Transaction) (*gtypes.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	receipt, err := m.waitMined(waitCtx, m.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &types.TransactionError{
				Code:    types.ErrTxTimeout,
				Message: fmt.Sprintf("Transaction monitoring timed out for tx: %s", tx.Hash().Hex()),
				Err:     err,
			}
		}
		return nil, fmt.Errorf("failed to wait for tx %s: %w", tx.Hash().Hex(), err)
	}

	m.logger.WithFields(logrus.Fields{
		"hash":     tx.Hash().Hex(),
		"block":    receipt.BlockNumber,
		"status":   receipt.Status,
		"gas_used": receipt.GasUsed,
	}).Debug("Transaction mined")

	return receipt, nil
}

// RevertReason replays a failed transaction at its block to recover the
// revert message. Returns an empty string when no reason is available.
func (m *Monitor) RevertReason(ctx context.Context, tx *gtypes.Transaction, blockNumber *big.Int) string {
	callMsg := ethereum.CallMsg{
		To:    tx.To(),
		Data:  tx.Data(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
	}
	if from, err := gtypes.Sender(gtypes.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		callMsg.From = from
	}

	out, err := m.backend.CallContract(ctx, callMsg, blockNumber)
	if err != nil {
		return ExtractRevertReason(err)
	}
	if reason, err := abi.UnpackRevert(out); err == nil {
		return reason
	}
	return ""
}

type dataError interface {
	ErrorData() interface{}
}

// ExtractRevertReason pulls a human readable reason out of a provider error,
// falling back to the raw message.
func ExtractRevertReason(err error) string {
	if err == nil {
		return ""
	}

	var de dataError
	if errors.As(err, &de) {
		if data, ok := de.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(data); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason
				}
			}
		}
	}

	msg := err.Error()
	if parts := strings.SplitN(msg, "execution reverted:", 2); len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return msg
}
