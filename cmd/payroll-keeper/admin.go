package main

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/payroll"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

var (
	hedgeRisk      string
	hedgeThreshold uint64
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage payroll administrators",
}

var adminAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Grant admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := parseAddress("admin", args[0])
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.AddAdmin(ctx, who)
			_, err = s.confirm(ctx, "Add admin", tx, err)
			return err
		})
	},
}

var adminRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Revoke admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		who, err := parseAddress("admin", args[0])
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.RemoveAdmin(ctx, who)
			_, err = s.confirm(ctx, "Remove admin", tx, err)
			return err
		})
	},
}

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Configure tax withholding",
}

var taxToggleCmd = &cobra.Command{
	Use:   "toggle <on|off>",
	Short: "Enable or disable tax withholding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.ToggleTax(ctx, enabled)
			_, err = s.confirm(ctx, "Toggle tax", tx, err)
			return err
		})
	},
}

var taxRecipientCmd = &cobra.Command{
	Use:   "recipient <address>",
	Short: "Set the address receiving withheld tax",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient, err := parseAddress("tax recipient", args[0])
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.SetTaxRecipient(ctx, recipient)
			_, err = s.confirm(ctx, "Set tax recipient", tx, err)
			return err
		})
	},
}

var hedgeCmd = &cobra.Command{
	Use:   "hedge",
	Short: "Configure employee hedge vaults",
}

var hedgeConfigureCmd = &cobra.Command{
	Use:   "configure <employee>",
	Short: "Configure the hedge vault of an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		employee, err := employeeArg(args)
		if err != nil {
			return err
		}
		risk := payroll.ParseRiskLevel(hedgeRisk)
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tokens := s.app.tokenSet()
			tx, err := p.ConfigureHedgeVault(ctx, employee, risk, new(big.Int).SetUint64(hedgeThreshold), tokens.Volatile, tokens.Stable)
			_, err = s.confirm(ctx, fmt.Sprintf("Configure %s hedge vault", risk), tx, err)
			return err
		})
	},
}

var hedgeToggleCmd = &cobra.Command{
	Use:   "toggle <employee> <on|off>",
	Short: "Enable or disable the hedge vault of an employee",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		employee, err := employeeArg(args)
		if err != nil {
			return err
		}
		enabled, err := parseSwitch(args[1])
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.ToggleHedgeVault(ctx, employee, enabled)
			_, err = s.confirm(ctx, "Toggle hedge vault", tx, err)
			return err
		})
	},
}

var hedgeUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the company-wide hedge vault defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		risk := payroll.ParseRiskLevel(hedgeRisk)
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.UpdateHedgeVaultConfig(ctx, risk, new(big.Int).SetUint64(hedgeThreshold))
			_, err = s.confirm(ctx, "Update hedge vault config", tx, err)
			return err
		})
	},
}

var hedgeInitCmd = &cobra.Command{
	Use:   "init <employee>",
	Short: "Initialize a hedge vault through the hedge vault manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		employee, err := employeeArg(args)
		if err != nil {
			return err
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s, err := a.connect(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		manager, err := contracts.NewHedgeVaultManager(a.cfg.Contracts.HedgeVaultManager, s.client, s.txSigner())
		if err != nil {
			return err
		}
		tokens := a.tokenSet()
		tx, err := manager.InitializeHedgeVault(ctx, employee, tokens.Volatile, tokens.Stable,
			payroll.ParseRiskLevel(hedgeRisk), new(big.Int).SetUint64(hedgeThreshold))
		_, err = s.confirm(ctx, "Initialize hedge vault", tx, err)
		return err
	},
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", v)
	}
	return b, nil
}

func init() {
	for _, c := range []*cobra.Command{hedgeConfigureCmd, hedgeUpdateCmd, hedgeInitCmd} {
		c.Flags().StringVar(&hedgeRisk, "risk", "moderate", "conservative, moderate or aggressive")
		c.Flags().Uint64Var(&hedgeThreshold, "threshold", payroll.DefaultVolatilityThreshold, "volatility threshold in basis points")
	}

	adminCmd.AddCommand(adminAddCmd, adminRemoveCmd)
	taxCmd.AddCommand(taxToggleCmd, taxRecipientCmd)
	hedgeCmd.AddCommand(hedgeConfigureCmd, hedgeToggleCmd, hedgeUpdateCmd, hedgeInitCmd)
}
