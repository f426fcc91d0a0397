package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (p *PostgresBackend) SetEmployeeLabel(ctx context.Context, label types.EmployeeLabel) error {
	return setEmployeeLabel(ctx, p.pool, label)
}

func (p *PostgresBackend) SetEmployeeLabelTx(ctx context.Context, dbTx pgx.Tx, label types.EmployeeLabel) error {
	return setEmployeeLabel(ctx, dbTx, label)
}

func setEmployeeLabel(ctx context.Context, db execer, label types.EmployeeLabel) error {
	name := strings.TrimSpace(label.DisplayName)
	if name == "" {
		return fmt.Errorf("display name is required")
	}
	query := `
        INSERT INTO employee_labels (contract_address, employee_address, display_name)
        VALUES ($1, $2, $3)
        ON CONFLICT (contract_address, employee_address) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            updated_at = NOW()
    `
	if _, err := db.Exec(ctx, query, label.Contract.Hex(), label.Employee.Hex(), name); err != nil {
		return fmt.Errorf("failed to set employee label: %w", err)
	}
	return nil
}

func (p *PostgresBackend) GetEmployeeLabels(ctx context.Context, contract common.Address) (map[common.Address]string, error) {
	query := `SELECT employee_address, display_name FROM employee_labels WHERE contract_address = $1`

	rows, err := p.pool.Query(ctx, query, contract.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to get employee labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[common.Address]string)
	for rows.Next() {
		var employee, name string
		if err := rows.Scan(&employee, &name); err != nil {
			return nil, fmt.Errorf("failed to scan employee label: %w", err)
		}
		labels[common.HexToAddress(employee)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get employee labels: %w", err)
	}
	return labels, nil
}
