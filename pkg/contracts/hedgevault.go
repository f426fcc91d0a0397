package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

type HedgeVaultManager struct {
	*boundContract
}

func NewHedgeVaultManager(address common.Address, backend Backend, signer TxSigner) (*HedgeVaultManager, error) {
	c, err := newBoundContract(address, HedgeVaultManagerABI, backend, signer)
	if err != nil {
		return nil, err
	}
	return &HedgeVaultManager{boundContract: c}, nil
}

func (h *HedgeVaultManager) InitializeHedgeVault(ctx context.Context, employee, volatileToken, stableToken common.Address, risk types.RiskLevel, threshold *big.Int) (*gtypes.Transaction, error) {
	return h.transact(ctx, 0, "initializeHedgeVault", employee, volatileToken, stableToken, uint8(risk), threshold)
}
