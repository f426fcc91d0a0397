package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type PaymentOutcome string

const (
	OutcomePaid    PaymentOutcome = "PAID"
	OutcomeFailed  PaymentOutcome = "FAILED"
	OutcomeNotDue  PaymentOutcome = "NOT_DUE"
	OutcomeSkipped PaymentOutcome = "SKIPPED"
)

const (
	ReasonInactive       = "inactive"
	ReasonAlreadyClaimed = "already claimed for this pay period"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// EmployeeOutcome is what a single run decided for one listed employee.
type EmployeeOutcome struct {
	Employee         common.Address `json:"employee"`
	Outcome          PaymentOutcome `json:"outcome"`
	Reason           string         `json:"reason,omitempty"`
	NextPayTimestamp uint64         `json:"next_pay_timestamp,omitempty"`
	TxHash           string         `json:"tx_hash,omitempty"`
	GasUsed          uint64         `json:"gas_used,omitempty"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type PayrollRun struct {
	ID           uuid.UUID         `json:"id"`
	Contract     common.Address    `json:"contract"`
	Signer       common.Address    `json:"signer"`
	Status       RunStatus         `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
	Total        int               `json:"total"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	NotDue       int               `json:"not_due"`
	Skipped      int               `json:"skipped"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	Outcomes     []EmployeeOutcome `json:"outcomes,omitempty"`
}

func NewPayrollRun(contract, signer common.Address, startedAt time.Time) *PayrollRun {
	return &PayrollRun{
		ID:        uuid.New(),
		Contract:  contract,
		Signer:    signer,
		Status:    RunStatusRunning,
		StartedAt: startedAt,
	}
}

// Record tallies one employee outcome into the run counters.
func (r *PayrollRun) Record(o EmployeeOutcome) {
	switch o.Outcome {
	case OutcomePaid:
		r.Succeeded++
	case OutcomeFailed:
		r.Failed++
	case OutcomeNotDue:
		r.NotDue++
	case OutcomeSkipped:
		r.Skipped++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Tallied is the sum of the four counters, equal to Total once a run completes.
func (r *PayrollRun) Tallied() int {
	return r.Succeeded + r.Failed + r.NotDue + r.Skipped
}

func (r *PayrollRun) Finish(status RunStatus, finishedAt time.Time, runErr error) {
	r.Status = status
	r.FinishedAt = &finishedAt
	if runErr != nil {
		msg := runErr.Error()
		r.ErrorMessage = &msg
	}
}

type PayrollRunsPaginatedList struct {
	Runs       []PayrollRun `json:"runs"`
	TotalCount int          `json:"total_count"`
}

// PayrollRunEvent is the payload of a scheduled or API-triggered run task.
type PayrollRunEvent struct {
	ContractAddress string `json:"contract_address" validate:"required,eth_addr"`
}
