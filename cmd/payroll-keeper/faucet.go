package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Claim test tokens from the faucet",
}

func withFaucet(cmd *cobra.Command, withSigner bool, fn func(ctx context.Context, s *session, f *contracts.Faucet) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := a.connect(ctx, withSigner)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := contracts.NewFaucet(a.cfg.Contracts.Faucet, s.client, s.txSigner())
	if err != nil {
		return err
	}
	return fn(ctx, s, f)
}

type faucetStatus struct {
	Address        string `json:"address"`
	CanClaim       bool   `json:"can_claim"`
	TimeUntilClaim string `json:"time_until_claim"`
	LastClaim      string `json:"last_claim,omitempty"`
}

var faucetStatusCmd = &cobra.Command{
	Use:   "status [address]",
	Short: "Show whether an address can claim (defaults to the configured key)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var user common.Address
		if len(args) == 1 {
			addr, err := parseAddress("user", args[0])
			if err != nil {
				return err
			}
			user = addr
		}
		return withFaucet(cmd, len(args) == 0, func(ctx context.Context, s *session, f *contracts.Faucet) error {
			if s.signer != nil {
				user = s.signer.Address()
			}
			status, err := f.CanClaim(ctx, user)
			if err != nil {
				return err
			}
			view := faucetStatus{
				Address:        user.Hex(),
				CanClaim:       status.CanClaim,
				TimeUntilClaim: contracts.FormatTimeUntilClaim(status.TimeUntilNextClaim),
			}
			last, err := f.LastClaimTime(ctx, user)
			if err != nil {
				return err
			}
			if !last.IsZero() {
				view.LastClaim = last.Format(time.RFC3339)
			}
			return s.app.print(view)
		})
	},
}

var faucetClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim test tokens for the configured key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withFaucet(cmd, true, func(ctx context.Context, s *session, f *contracts.Faucet) error {
			status, err := f.CanClaim(ctx, s.signer.Address())
			if err != nil {
				return err
			}
			if !status.CanClaim {
				return fmt.Errorf("%w: next claim in %s", contracts.ErrFaucetCooldown, contracts.FormatTimeUntilClaim(status.TimeUntilNextClaim))
			}
			tx, err := f.ClaimTokens(ctx)
			_, err = s.confirm(ctx, "Faucet claim", tx, err)
			return err
		})
	},
}

type faucetInfoView struct {
	Address                string `json:"address"`
	StableBalance          string `json:"stable_balance"`
	VolatileBalance        string `json:"volatile_balance"`
	StableAmountPerClaim   string `json:"stable_amount_per_claim"`
	VolatileAmountPerClaim string `json:"volatile_amount_per_claim"`
	Cooldown               string `json:"cooldown"`
}

var faucetInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show faucet balances and claim amounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withFaucet(cmd, false, func(ctx context.Context, s *session, f *contracts.Faucet) error {
			info, err := f.Info(ctx)
			if err != nil {
				return err
			}
			return s.app.print(faucetInfoView{
				Address:                f.Address().Hex(),
				StableBalance:          contracts.FormatUnits(info.StableBalance, 18),
				VolatileBalance:        contracts.FormatUnits(info.VolatileBalance, 18),
				StableAmountPerClaim:   contracts.FormatUnits(info.StableAmountPerClaim, 18),
				VolatileAmountPerClaim: contracts.FormatUnits(info.VolatileAmountPerClaim, 18),
				Cooldown:               info.Cooldown.String(),
			})
		})
	},
}

func init() {
	faucetCmd.AddCommand(faucetStatusCmd, faucetClaimCmd, faucetInfoCmd)
}
