package payroll

import (
	"fmt"
	"math/big"
)

const (
	BpsDenominator = 10_000

	DefaultPlatformFeeBps = 100
	DefaultTaxBps         = 1000
)

// FeeBreakdown splits a gross salary into the platform fee, the tax withheld
// and what the employee actually receives.
type FeeBreakdown struct {
	Gross *big.Int `json:"gross"`
	Fee   *big.Int `json:"fee"`
	Tax   *big.Int `json:"tax"`
	Net   *big.Int `json:"net"`
}

// CalculateFees computes fee and tax as basis points of gross, both rounded down.
func CalculateFees(gross *big.Int, feeBps, taxBps uint64) (FeeBreakdown, error) {
	if gross == nil || gross.Sign() < 0 {
		return FeeBreakdown{}, fmt.Errorf("gross amount must be non-negative")
	}
	if feeBps+taxBps > BpsDenominator {
		return FeeBreakdown{}, fmt.Errorf("fee (%d bps) and tax (%d bps) exceed 100%%", feeBps, taxBps)
	}

	fee := bpsOf(gross, feeBps)
	tax := bpsOf(gross, taxBps)
	net := new(big.Int).Sub(gross, fee)
	net.Sub(net, tax)

	return FeeBreakdown{
		Gross: new(big.Int).Set(gross),
		Fee:   fee,
		Tax:   tax,
		Net:   net,
	}, nil
}

func bpsOf(amount *big.Int, bps uint64) *big.Int {
	return new(big.Int).Div(
		new(big.Int).Mul(amount, new(big.Int).SetUint64(bps)),
		big.NewInt(BpsDenominator),
	)
}
