package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect and approve ERC20 tokens",
}

func withToken(cmd *cobra.Command, token string, withSigner bool, fn func(ctx context.Context, s *session, t *contracts.ERC20, info contracts.TokenInfo) error) error {
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

	t, err := contracts.NewERC20(a.resolveToken(token), s.client, s.txSigner())
	if err != nil {
		return err
	}
	info, err := t.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token info: %w", err)
	}
	return fn(ctx, s, t, info)
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info <token>",
	Short: "Show symbol, name and decimals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToken(cmd, args[0], false, func(_ context.Context, s *session, _ *contracts.ERC20, info contracts.TokenInfo) error {
			return s.app.print(info)
		})
	},
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <token> [owner]",
	Short: "Show a balance (defaults to the configured key)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var owner common.Address
		if len(args) == 2 {
			addr, err := parseAddress("owner", args[1])
			if err != nil {
				return err
			}
			owner = addr
		}
		return withToken(cmd, args[0], len(args) == 1, func(ctx context.Context, s *session, t *contracts.ERC20, info contracts.TokenInfo) error {
			if s.signer != nil {
				owner = s.signer.Address()
			}
			balance, err := t.BalanceOf(ctx, owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.app.out, "%s %s\n", contracts.FormatUnits(balance, info.Decimals), info.Symbol)
			return nil
		})
	},
}

var tokenAllowanceCmd = &cobra.Command{
	Use:   "allowance <token> <owner> <spender>",
	Short: "Show how much spender may move on behalf of owner",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := parseAddress("owner", args[1])
		if err != nil {
			return err
		}
		spender, err := parseAddress("spender", args[2])
		if err != nil {
			return err
		}
		return withToken(cmd, args[0], false, func(ctx context.Context, s *session, t *contracts.ERC20, info contracts.TokenInfo) error {
			allowance, err := t.Allowance(ctx, owner, spender)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.app.out, "%s %s\n", contracts.FormatUnits(allowance, info.Decimals), info.Symbol)
			return nil
		})
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve <token> <spender> <amount>",
	Short: "Approve spender to move tokens from the configured key",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		spender, err := parseAddress("spender", args[1])
		if err != nil {
			return err
		}
		return withToken(cmd, args[0], true, func(ctx context.Context, s *session, t *contracts.ERC20, info contracts.TokenInfo) error {
			amount, err := contracts.ParseUnits(args[2], info.Decimals)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			tx, err := t.Approve(ctx, spender, amount)
			_, err = s.confirm(ctx, fmt.Sprintf("Approve %s", info.Symbol), tx, err)
			return err
		})
	},
}

func init() {
	tokenCmd.AddCommand(tokenInfoCmd, tokenBalanceCmd, tokenAllowanceCmd, tokenApproveCmd)
}
