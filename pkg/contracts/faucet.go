package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrFaucetCooldown         = errors.New("you can only claim tokens once every 24 hours, please try again later")
	ErrFaucetNoStableTokens   = errors.New("faucet is out of stable tokens, please contact support")
	ErrFaucetNoVolatileTokens = errors.New("faucet is out of volatile tokens, please contact support")
)

type Faucet struct {
	*boundContract
}

type ClaimStatus struct {
	CanClaim           bool          `json:"can_claim"`
	TimeUntilNextClaim time.Duration `json:"time_until_next_claim"`
}

type FaucetInfo struct {
	StableBalance          *big.Int      `json:"stable_balance"`
	VolatileBalance        *big.Int      `json:"volatile_balance"`
	StableAmountPerClaim   *big.Int      `json:"stable_amount_per_claim"`
	VolatileAmountPerClaim *big.Int      `json:"volatile_amount_per_claim"`
	Cooldown               time.Duration `json:"cooldown"`
}

func NewFaucet(address common.Address, backend Backend, signer TxSigner) (*Faucet, error) {
	if address == (common.Address{}) {
		return nil, errors.New("faucet not deployed")
	}
	c, err := newBoundContract(address, FaucetABI, backend, signer)
	if err != nil {
		return nil, err
	}
	return &Faucet{boundContract: c}, nil
}

func (f *Faucet) CanClaim(ctx context.Context, user common.Address) (ClaimStatus, error) {
	out, err := f.call(ctx, "canClaim", user)
	if err != nil {
		return ClaimStatus{}, err
	}
	wait := out[1].(*big.Int)
	return ClaimStatus{
		CanClaim:           out[0].(bool),
		TimeUntilNextClaim: time.Duration(wait.Int64()) * time.Second,
	}, nil
}

func (f *Faucet) ClaimTokens(ctx context.Context) (*gtypes.Transaction, error) {
	tx, err := f.transact(ctx, 0, "claimTokens")
	if err != nil {
		return nil, MapFaucetError(err)
	}
	return tx, nil
}

func (f *Faucet) Info(ctx context.Context) (FaucetInfo, error) {
	out, err := f.call(ctx, "getFaucetBalance")
	if err != nil {
		return FaucetInfo{}, err
	}
	info := FaucetInfo{
		StableBalance:   out[0].(*big.Int),
		VolatileBalance: out[1].(*big.Int),
	}

	if info.StableAmountPerClaim, err = f.uint256(ctx, "stableAmount"); err != nil {
		return FaucetInfo{}, err
	}
	if info.VolatileAmountPerClaim, err = f.uint256(ctx, "volatileAmount"); err != nil {
		return FaucetInfo{}, err
	}
	cooldown, err := f.uint256(ctx, "cooldownPeriod")
	if err != nil {
		return FaucetInfo{}, err
	}
	info.Cooldown = time.Duration(cooldown.Int64()) * time.Second
	return info, nil
}

func (f *Faucet) LastClaimTime(ctx context.Context, user common.Address) (time.Time, error) {
	out, err := f.call(ctx, "lastClaimTime", user)
	if err != nil {
		return time.Time{}, err
	}
	ts := out[0].(*big.Int)
	if ts.Sign() == 0 {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64(), 0).UTC(), nil
}

func (f *Faucet) uint256(ctx context.Context, method string) (*big.Int, error) {
	out, err := f.call(ctx, method)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// MapFaucetError turns the faucet's revert strings into actionable errors.
func MapFaucetError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Cooldown period not elapsed"):
		return fmt.Errorf("%w: %v", ErrFaucetCooldown, err)
	case strings.Contains(msg, "Insufficient stable tokens"):
		return fmt.Errorf("%w: %v", ErrFaucetNoStableTokens, err)
	case strings.Contains(msg, "Insufficient volatile tokens"):
		return fmt.Errorf("%w: %v", ErrFaucetNoVolatileTokens, err)
	}
	return err
}

// FormatTimeUntilClaim renders a wait as "Now", "Xh Ym" or "Ym".
func FormatTimeUntilClaim(d time.Duration) string {
	if d <= 0 {
		return "Now"
	}
	seconds := int64(d / time.Second)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
