package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hibiken/asynq"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

const (
	TypePayrollRun = "payroll:run"

	QUEUE_NAME = "payroll_queue"
)

const (
	DefaultRunTimeout = 30 * time.Minute
	DefaultRetention  = 24 * time.Hour
)

func NewPayrollRunTask(contract common.Address) (*asynq.Task, error) {
	buf, err := json.Marshal(types.PayrollRunEvent{ContractAddress: contract.Hex()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payroll run event: %w", err)
	}
	return asynq.NewTask(TypePayrollRun, buf), nil
}

// RunOptions never retries: a failed run is picked up by the next schedule.
func RunOptions(timeout time.Duration) []asynq.Option {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Retention(DefaultRetention),
		asynq.Queue(QUEUE_NAME),
	}
}
