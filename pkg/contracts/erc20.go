package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
)

var ErrNativeToken = errors.New("operation not supported for native ETH")

type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type TokenInfo struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
	Native   bool           `json:"native"`
}

// ERC20 is a token client. The zero address stands for the native asset.
type ERC20 struct {
	*boundContract
	backend Backend
}

func NewERC20(address common.Address, backend Backend, signer TxSigner) (*ERC20, error) {
	c, err := newBoundContract(address, ERC20ABI, backend, signer)
	if err != nil {
		return nil, err
	}
	return &ERC20{boundContract: c, backend: backend}, nil
}

func (e *ERC20) native() bool {
	return e.address == (common.Address{})
}

func (e *ERC20) Info(ctx context.Context) (TokenInfo, error) {
	if e.native() {
		return TokenInfo{Symbol: "ETH", Name: "Ether", Decimals: 18, Native: true}, nil
	}

	info := TokenInfo{Address: e.address}
	out, err := e.call(ctx, "symbol")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Symbol = out[0].(string)

	if out, err = e.call(ctx, "name"); err != nil {
		return TokenInfo{}, err
	}
	info.Name = out[0].(string)

	if out, err = e.call(ctx, "decimals"); err != nil {
		return TokenInfo{}, err
	}
	info.Decimals = out[0].(uint8)
	return info, nil
}

func (e *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	if e.native() {
		reader, ok := e.backend.(BalanceReader)
		if !ok {
			return nil, fmt.Errorf("backend cannot read native balances")
		}
		return reader.BalanceAt(ctx, owner, nil)
	}
	out, err := e.call(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (e *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	if e.native() {
		return nil, ErrNativeToken
	}
	out, err := e.call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (e *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*gtypes.Transaction, error) {
	if e.native() {
		return nil, ErrNativeToken
	}
	return e.transact(ctx, 0, "approve", spender, amount)
}

func (e *ERC20) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*gtypes.Transaction, error) {
	if e.native() {
		return nil, ErrNativeToken
	}
	return e.transact(ctx, 0, "transfer", to, amount)
}
