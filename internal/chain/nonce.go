package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type PendingNonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out sequential nonces per account. The first nonce of an
// account comes from the node's pending state, later ones are counted locally
// until ResetNonce drops the cached value.
type NonceManager struct {
	source PendingNonceSource
	nonces map[common.Address]uint64
	mu     sync.Mutex
}

func NewNonceManager(source PendingNonceSource) *NonceManager {
	return &NonceManager{
		source: source,
		nonces: make(map[common.Address]uint64),
	}
}

func (n *NonceManager) GetNextNonce(ctx context.Context, account common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if nonce, ok := n.nonces[account]; ok {
		nonce++
		n.nonces[account] = nonce
		return nonce, nil
	}

	nonce, err := n.source.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce from network: %w", err)
	}

	n.nonces[account] = nonce
	return nonce, nil
}

func (n *NonceManager) ResetNonce(account common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.nonces, account)
}
