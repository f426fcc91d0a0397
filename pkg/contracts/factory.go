package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

var (
	ErrInvalidOwner           = errors.New("invalid owner address")
	ErrDeploymentRejected     = errors.New("deployment failed - wallet may already have a contract deployed")
	ErrDeployedAddressUnknown = errors.New("contract deployed but could not retrieve address")
)

type WaitMinedFunc func(ctx context.Context, tx *gtypes.Transaction) (*gtypes.Receipt, error)

// Factory deploys per-company payroll contracts.
type Factory struct {
	*boundContract
	backend     Backend
	waitMined   WaitMinedFunc
	sleep       func(ctx context.Context, d time.Duration) error
	retryDelays []time.Duration
}

func NewFactory(address common.Address, backend Backend, signer TxSigner, waitMined WaitMinedFunc) (*Factory, error) {
	c, err := newBoundContract(address, FactoryABI, backend, signer)
	if err != nil {
		return nil, err
	}
	return &Factory{
		boundContract: c,
		backend:       backend,
		waitMined:     waitMined,
		sleep:         sleepCtx,
		retryDelays:   []time.Duration{2 * time.Second, 3 * time.Second},
	}, nil
}

func (f *Factory) Owner(ctx context.Context) (common.Address, error) {
	out, err := f.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// CompanyPayrolls lists the payroll contracts the factory deployed for owner,
// oldest first.
func (f *Factory) CompanyPayrolls(ctx context.Context, owner common.Address) ([]common.Address, error) {
	out, err := f.call(ctx, "getCompanyPayrolls", owner)
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

type DeployResult struct {
	Address common.Address
	TxHash  common.Hash
}

// DeployCompanyPayroll deploys a payroll contract for owner and resolves its
// address. A zero taxRecipient is passed through unchanged.
func (f *Factory) DeployCompanyPayroll(ctx context.Context, owner, taxRecipient common.Address) (DeployResult, error) {
	code, err := f.backend.CodeAt(ctx, f.address, nil)
	if err != nil {
		return DeployResult{}, fmt.Errorf("failed to read factory code: %w", err)
	}
	if len(code) == 0 {
		return DeployResult{}, fmt.Errorf("no contract at factory address %s", f.address.Hex())
	}
	if owner == (common.Address{}) {
		return DeployResult{}, ErrInvalidOwner
	}

	var expected common.Address
	if out, err := f.simulate(ctx, "deployCompanyPayroll", owner, taxRecipient); err == nil && len(out) == 1 {
		expected = out[0].(common.Address)
	}

	tx, err := f.transact(ctx, 0, "deployCompanyPayroll", owner, taxRecipient)
	if err != nil {
		var txErr *types.TransactionError
		if errors.As(err, &txErr) && txErr.Code == types.ErrExecutionReverted {
			return DeployResult{}, fmt.Errorf("%w: %v", ErrDeploymentRejected, err)
		}
		return DeployResult{}, err
	}

	receipt, err := f.waitMined(ctx, tx)
	if err != nil {
		return DeployResult{}, err
	}
	if receipt.Status != gtypes.ReceiptStatusSuccessful {
		return DeployResult{}, fmt.Errorf("%w: tx %s reverted", ErrDeploymentRejected, tx.Hash().Hex())
	}

	result := DeployResult{TxHash: tx.Hash()}

	if expected != (common.Address{}) {
		for _, delay := range f.retryDelays {
			if err := f.sleep(ctx, delay); err != nil {
				return DeployResult{}, err
			}
			code, err := f.backend.CodeAt(ctx, expected, nil)
			if err == nil && len(code) > 0 {
				result.Address = expected
				return result, nil
			}
		}
	}

	for _, log := range receipt.Logs {
		if f.isPayroll(ctx, log.Address) {
			result.Address = log.Address
			return result, nil
		}
	}

	return DeployResult{}, fmt.Errorf("%w, check tx %s on the block explorer", ErrDeployedAddressUnknown, tx.Hash().Hex())
}

func (f *Factory) isPayroll(ctx context.Context, address common.Address) bool {
	code, err := f.backend.CodeAt(ctx, address, nil)
	if err != nil || len(code) == 0 {
		return false
	}
	p, err := NewPayroll(address, f.backend, nil)
	if err != nil {
		return false
	}
	_, err = p.GetEmployeeList(ctx)
	return err == nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
