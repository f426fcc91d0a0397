package types

import "fmt"

type TransactionErrorCode string

const (
	ErrInsufficientFunds   TransactionErrorCode = "INSUFFICIENT_FUNDS"
	ErrRetriable           TransactionErrorCode = "RETRIABLE"
	ErrRPCConnectionFailed TransactionErrorCode = "RPC_CONNECTION_FAILED"
	ErrTxTimeout           TransactionErrorCode = "TX_TIMEOUT"
	ErrTxDropped           TransactionErrorCode = "TX_DROPPED"
	ErrExecutionReverted   TransactionErrorCode = "EXECUTION_REVERTED"
	ErrPermanentFailure    TransactionErrorCode = "PERMANENT_FAILURE"
	ErrRejected            TransactionErrorCode = "REJECTED"
)

type TransactionError struct {
	Code    TransactionErrorCode
	Message string
	Err     error
}

func (e *TransactionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
