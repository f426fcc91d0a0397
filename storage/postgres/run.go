package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/storage"
)

const runColumns = `id, contract_address, signer_address, status, started_at, finished_at, total, succeeded, failed, not_due, skipped, error_message`

func (p *PostgresBackend) CreateRun(ctx context.Context, run *types.PayrollRun) error {
	query := `
        INSERT INTO payroll_runs (id, contract_address, signer_address, status, started_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := p.pool.Exec(ctx, query,
		run.ID,
		run.Contract.Hex(),
		run.Signer.Hex(),
		string(run.Status),
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payroll run: %w", err)
	}
	return nil
}

func (p *PostgresBackend) FinishRun(ctx context.Context, run *types.PayrollRun) error {
	query := `
        UPDATE payroll_runs
        SET status = $1, finished_at = $2, total = $3, succeeded = $4, failed = $5,
            not_due = $6, skipped = $7, error_message = $8
        WHERE id = $9
    `
	tag, err := p.pool.Exec(ctx, query,
		string(run.Status),
		run.FinishedAt,
		run.Total,
		run.Succeeded,
		run.Failed,
		run.NotDue,
		run.Skipped,
		run.ErrorMessage,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payroll run %s: %w", run.ID, storage.ErrNotFound)
	}
	return nil
}

func (p *PostgresBackend) RecordAttempt(ctx context.Context, runID uuid.UUID, contract common.Address, outcome types.EmployeeOutcome) error {
	query := `
        INSERT INTO payment_attempts (
            run_id, contract_address, employee_address, outcome, reason,
            next_pay_timestamp, tx_hash, gas_used, error_message, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := p.pool.Exec(ctx, query,
		runID,
		contract.Hex(),
		outcome.Employee.Hex(),
		string(outcome.Outcome),
		nullString(outcome.Reason),
		int64(outcome.NextPayTimestamp),
		nullString(outcome.TxHash),
		int64(outcome.GasUsed),
		nullString(outcome.Error),
		outcome.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record payment attempt: %w", err)
	}
	return nil
}

func (p *PostgresBackend) GetRun(ctx context.Context, id uuid.UUID) (*types.PayrollRun, error) {
	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1`

	run, err := scanRun(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payroll run %s: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}

	run.Outcomes, err = p.ListAttempts(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (p *PostgresBackend) ListRuns(ctx context.Context, contract *common.Address, take int, skip int) (types.PayrollRunsPaginatedList, error) {
	query := `
        SELECT ` + runColumns + `, COUNT(*) OVER() AS total_count
        FROM payroll_runs
        WHERE ($1::text IS NULL OR contract_address = $1)
        ORDER BY started_at DESC
        LIMIT $2 OFFSET $3
    `
	var contractFilter *string
	if contract != nil {
		hex := contract.Hex()
		contractFilter = &hex
	}

	rows, err := p.pool.Query(ctx, query, contractFilter, take, skip)
	if err != nil {
		return types.PayrollRunsPaginatedList{}, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	list := types.PayrollRunsPaginatedList{Runs: []types.PayrollRun{}}
	for rows.Next() {
		run, err := scanRun(rows, &list.TotalCount)
		if err != nil {
			return types.PayrollRunsPaginatedList{}, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		list.Runs = append(list.Runs, *run)
	}
	if err := rows.Err(); err != nil {
		return types.PayrollRunsPaginatedList{}, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	return list, nil
}

func (p *PostgresBackend) ListAttempts(ctx context.Context, runID uuid.UUID) ([]types.EmployeeOutcome, error) {
	query := `
        SELECT employee_address, outcome, reason, next_pay_timestamp, tx_hash, gas_used, error_message, created_at
        FROM payment_attempts
        WHERE run_id = $1
        ORDER BY id
    `
	rows, err := p.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}
	defer rows.Close()

	attempts := []types.EmployeeOutcome{}
	for rows.Next() {
		var (
			employee, outcome            string
			reason, txHash, errorMessage *string
			nextPay, gasUsed             *int64
			o                            types.EmployeeOutcome
		)
		if err := rows.Scan(&employee, &outcome, &reason, &nextPay, &txHash, &gasUsed, &errorMessage, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment attempt: %w", err)
		}
		o.Employee = common.HexToAddress(employee)
		o.Outcome = types.PaymentOutcome(outcome)
		o.Reason = deref(reason)
		o.TxHash = deref(txHash)
		o.Error = deref(errorMessage)
		if nextPay != nil {
			o.NextPayTimestamp = uint64(*nextPay)
		}
		if gasUsed != nil {
			o.GasUsed = uint64(*gasUsed)
		}
		attempts = append(attempts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}
	return attempts, nil
}

// LastRunTime returns the start of the latest completed run, nil if none.
func (p *PostgresBackend) LastRunTime(ctx context.Context, contract common.Address) (*time.Time, error) {
	query := `
        SELECT MAX(started_at) FROM payroll_runs
        WHERE contract_address = $1 AND status = 'COMPLETED'
    `
	var last *time.Time
	if err := p.pool.QueryRow(ctx, query, contract.Hex()).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}
	return last, nil
}

func scanRun(row pgx.Row, extra ...any) (*types.PayrollRun, error) {
	var (
		run              types.PayrollRun
		contract, signer string
		status           string
	)
	dest := []any{
		&run.ID,
		&contract,
		&signer,
		&status,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Total,
		&run.Succeeded,
		&run.Failed,
		&run.NotDue,
		&run.Skipped,
		&run.ErrorMessage,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	run.Contract = common.HexToAddress(contract)
	run.Signer = common.HexToAddress(signer)
	run.Status = types.RunStatus(status)
	return &run, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
