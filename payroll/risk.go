package payroll

import (
	"math/big"
	"strings"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

// DefaultVolatilityThreshold is the hedge vault rebalance threshold in basis points.
const DefaultVolatilityThreshold = 500

type Allocation struct {
	VolatilePercent int `json:"volatile_percent"`
	StablePercent   int `json:"stable_percent"`
}

func ParseRiskLevel(s string) types.RiskLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONSERVATIVE":
		return types.RiskConservative
	case "AGGRESSIVE":
		return types.RiskAggressive
	default:
		return types.RiskModerate
	}
}

func AllocationFor(r types.RiskLevel) Allocation {
	switch r {
	case types.RiskConservative:
		return Allocation{VolatilePercent: 20, StablePercent: 80}
	case types.RiskAggressive:
		return Allocation{VolatilePercent: 60, StablePercent: 40}
	default:
		return Allocation{VolatilePercent: 40, StablePercent: 60}
	}
}

// Split divides amount by the allocation; the stable side takes the rounding remainder.
func (a Allocation) Split(amount *big.Int) (volatile, stable *big.Int) {
	volatile = new(big.Int).Mul(amount, big.NewInt(int64(a.VolatilePercent)))
	volatile.Div(volatile, big.NewInt(100))
	stable = new(big.Int).Sub(amount, volatile)
	return volatile, stable
}
