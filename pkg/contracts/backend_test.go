package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/decipherlabs/payroll-keeper/internal/chain"
)

const testKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

var testChainID = big.NewInt(84532)

type fakeContract struct {
	abi     abi.ABI
	results map[string][]interface{}
	errs    map[string]error
}

// fakeBackend answers contract calls with ABI-packed canned results and
// records submitted transactions.
type fakeBackend struct {
	mu        sync.Mutex
	contracts map[common.Address]*fakeContract
	code      map[common.Address][]byte
	balances  map[common.Address]*big.Int
	sent      []*gtypes.Transaction
	sendErr   error
	nonce     uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		contracts: make(map[common.Address]*fakeContract),
		code:      make(map[common.Address][]byte),
		balances:  make(map[common.Address]*big.Int),
	}
}

func (b *fakeBackend) deploy(t *testing.T, address common.Address, abiJSON string) *fakeContract {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)
	c := &fakeContract{abi: parsed, results: make(map[string][]interface{}), errs: make(map[string]error)}
	b.contracts[address] = c
	b.code[address] = []byte{0x60, 0x80}
	return c
}

func (b *fakeBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code[account], nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if call.To == nil {
		return nil, errors.New("missing to")
	}
	c, ok := b.contracts[*call.To]
	if !ok {
		return nil, nil
	}
	method, err := c.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	if err := c.errs[method.Name]; err != nil {
		return nil, err
	}
	results, ok := c.results[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: no result for %s", method.Name)
	}
	return method.Outputs.Pack(results...)
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*gtypes.Header, error) {
	return &gtypes.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.CodeAt(ctx, account, nil)
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 100000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *gtypes.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]gtypes.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- gtypes.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*gtypes.Receipt, error) {
	return nil, ethereum.NotFound
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if bal, ok := b.balances[account]; ok {
		return bal, nil
	}
	return big.NewInt(0), nil
}

type countingSigner struct {
	*chain.Signer
	resets int
}

func (s *countingSigner) ResetNonce() {
	s.resets++
	s.Signer.ResetNonce()
}

func newTestSigner(t *testing.T, backend *fakeBackend) *countingSigner {
	t.Helper()
	key, err := chain.LoadPrivateKey(testKey)
	require.NoError(t, err)
	return &countingSigner{Signer: chain.NewSigner(key, testChainID, backend)}
}
