package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

type PaymentResult struct {
	Method  contracts.PaymentMethod
	TxHash  common.Hash
	GasUsed uint64
}

// PayEmployee submits a single payment and waits for it to be mined. A
// reverted receipt is returned as an EXECUTION_REVERTED TransactionError.
func PayEmployee(ctx context.Context, pc PayrollContract, monitor TxMonitor, method contracts.PaymentMethod, employee common.Address, gasLimit uint64) (PaymentResult, error) {
	res := PaymentResult{Method: method}
	if gasLimit == 0 {
		gasLimit = contracts.DefaultPaymentGasLimit
	}

	tx, err := pc.SubmitPayment(ctx, method, employee, gasLimit)
	if err != nil {
		return res, err
	}
	res.TxHash = tx.Hash()

	receipt, err := monitor.WaitMined(ctx, tx)
	if err != nil {
		return res, err
	}
	res.GasUsed = receipt.GasUsed

	if receipt.Status != gtypes.ReceiptStatusSuccessful {
		reason := monitor.RevertReason(ctx, tx, receipt.BlockNumber)
		if reason == "" {
			reason = "transaction reverted"
		}
		return res, &types.TransactionError{Code: types.ErrExecutionReverted, Message: reason}
	}
	return res, nil
}

// ForcePayEmployee pays immediately regardless of the schedule. It tries
// forceProcessPayment first and falls back to processPaymentWithHedge when
// the force call was rejected or reverted. A force transaction that was sent
// but never confirmed may still be mined, so it gets no fallback.
func ForcePayEmployee(ctx context.Context, pc PayrollContract, monitor TxMonitor, employee common.Address, gasLimit uint64, logger logrus.FieldLogger) (PaymentResult, error) {
	res, forceErr := PayEmployee(ctx, pc, monitor, contracts.MethodForce, employee, gasLimit)
	if forceErr == nil {
		return res, nil
	}
	if res.TxHash != (common.Hash{}) && !isReverted(forceErr) {
		return res, fmt.Errorf("forceProcessPayment %s sent but not confirmed: %w", res.TxHash.Hex(), forceErr)
	}
	logger.WithError(forceErr).WithField("employee", employee.Hex()).Warn("forceProcessPayment failed, trying processPaymentWithHedge")

	res, hedgeErr := PayEmployee(ctx, pc, monitor, contracts.MethodHedge, employee, gasLimit)
	if hedgeErr == nil {
		return res, nil
	}
	return res, fmt.Errorf("all payment methods failed. Force error: %v. Hedge error: %w", forceErr, hedgeErr)
}

func isReverted(err error) bool {
	var txErr *types.TransactionError
	return errors.As(err, &txErr) && txErr.Code == types.ErrExecutionReverted
}
