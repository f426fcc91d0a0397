package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/decipherlabs/payroll-keeper/internal/chain"
)

var ErrReadOnly = errors.New("contract client has no signer")

type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// TxSigner produces transact options for the keeper's account.
type TxSigner interface {
	Address() common.Address
	TransactOpts(ctx context.Context, gasLimit uint64) (*bind.TransactOpts, error)
	ResetNonce()
}

type boundContract struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	signer   TxSigner
}

func newBoundContract(address common.Address, abiJSON string, backend bind.ContractBackend, signer TxSigner) (*boundContract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return &boundContract{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		signer:   signer,
	}, nil
}

func (c *boundContract) Address() common.Address {
	return c.address
}

func (c *boundContract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

// transact submits method without waiting for inclusion. A rejected
// submission resets the signer nonce and comes back classified.
func (c *boundContract) transact(ctx context.Context, gasLimit uint64, method string, args ...interface{}) (*gtypes.Transaction, error) {
	return c.transactValue(ctx, gasLimit, nil, method, args...)
}

// transactValue is transact with wei attached for payable methods.
func (c *boundContract) transactValue(ctx context.Context, gasLimit uint64, value *big.Int, method string, args ...interface{}) (*gtypes.Transaction, error) {
	if c.signer == nil {
		return nil, ErrReadOnly
	}
	opts, err := c.signer.TransactOpts(ctx, gasLimit)
	if err != nil {
		return nil, err
	}
	opts.Value = value
	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		c.signer.ResetNonce()
		return nil, fmt.Errorf("%s: %w", method, chain.ClassifyError(err, opts.From))
	}
	return tx, nil
}

// simulate runs a state-changing method as a call from the signer account.
func (c *boundContract) simulate(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	opts := &bind.CallOpts{Context: ctx}
	if c.signer != nil {
		opts.From = c.signer.Address()
	}
	var out []interface{}
	if err := c.contract.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}
