package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

// ClassifyError maps a submission or RPC error to a TransactionError.
func ClassifyError(err error, sender common.Address) error {
	if err == nil {
		return nil
	}
	var txErr *types.TransactionError
	if errors.As(err, &txErr) {
		return txErr
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "insufficient funds"):
		return &types.TransactionError{
			Code:    types.ErrInsufficientFunds,
			Message: fmt.Sprintf("Account %s has insufficient funds", sender.Hex()),
			Err:     err,
		}
	case strings.Contains(errMsg, "nonce too low"),
		strings.Contains(errMsg, "nonce too high"),
		strings.Contains(errMsg, "replacement transaction underpriced"),
		strings.Contains(errMsg, "gas price too low"),
		strings.Contains(errMsg, "already known"):
		return &types.TransactionError{
			Code:    types.ErrRetriable,
			Message: err.Error(),
			Err:     err,
		}
	case strings.Contains(errMsg, "execution reverted"):
		return &types.TransactionError{
			Code:    types.ErrExecutionReverted,
			Message: ExtractRevertReason(err),
			Err:     err,
		}
	case strings.Contains(errMsg, "user rejected"), strings.Contains(errMsg, "user denied"):
		return &types.TransactionError{
			Code:    types.ErrRejected,
			Message: "Transaction rejected by user",
			Err:     err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &types.TransactionError{
			Code:    types.ErrTxTimeout,
			Message: "Request timed out",
			Err:     err,
		}
	case errors.Is(err, ethereum.NotFound):
		return &types.TransactionError{
			Code:    types.ErrTxDropped,
			Message: "Transaction not found",
			Err:     err,
		}
	default:
		return &types.TransactionError{
			Code:    types.ErrRPCConnectionFailed,
			Message: "Unknown RPC error",
			Err:     err,
		}
	}
}

// FriendlyMessage renders an error for a terminal user.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	var txErr *types.TransactionError
	if errors.As(err, &txErr) {
		switch txErr.Code {
		case types.ErrRejected:
			return "Transaction rejected by user"
		case types.ErrInsufficientFunds:
			return "Insufficient funds for transaction"
		case types.ErrExecutionReverted:
			if txErr.Message != "" {
				return txErr.Message
			}
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "user rejected"):
		return "Transaction rejected by user"
	case strings.Contains(strings.ToLower(msg), "insufficient funds"):
		return "Insufficient funds for transaction"
	case msg == "":
		return "Transaction failed"
	}
	return msg
}
