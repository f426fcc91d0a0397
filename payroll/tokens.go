package payroll

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenSet holds the two tokens a payroll contract settles in.
type TokenSet struct {
	Stable   common.Address
	Volatile common.Address
}

// TokenForCurrency resolves the settlement token for a currency label as it
// appears in employee imports. Anything unrecognised settles in the stable token.
func (t TokenSet) TokenForCurrency(currency string) common.Address {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "ETH", "METH":
		return t.Volatile
	default:
		return t.Stable
	}
}

// IsNative reports whether token denotes the chain's native asset.
func IsNative(token common.Address) bool {
	return token == (common.Address{})
}
