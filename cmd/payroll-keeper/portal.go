package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

// Commands an employee runs with their own key against the payroll contract.

// selfOrArg resolves the optional [address] argument, falling back to the
// session signer.
func selfOrArg(args []string, s *session) (common.Address, error) {
	if len(args) == 1 {
		return parseAddress("employee", args[0])
	}
	return s.signer.Address(), nil
}

type paymentView struct {
	Kind      string `json:"kind"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
	Memo      string `json:"memo,omitempty"`
}

func newPaymentView(r contracts.PaymentRecord) paymentView {
	kind := "salary"
	if r.IsBonus {
		kind = "bonus"
	}
	return paymentView{
		Kind:      kind,
		Amount:    contracts.FormatUnits(r.Amount, 18),
		Timestamp: time.Unix(int64(r.Timestamp), 0).UTC().Format(time.RFC3339),
		Memo:      r.Memo,
	}
}

var employeeHistoryCmd = &cobra.Command{
	Use:   "history [address]",
	Short: "Show an employee's payment history (defaults to the configured key)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if _, err := employeeArg(args); err != nil {
				return err
			}
		}
		return withPayroll(cmd, len(args) == 0, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			who, err := selfOrArg(args, s)
			if err != nil {
				return err
			}
			records, err := p.PaymentHistory(ctx, who)
			if err != nil {
				return err
			}
			views := make([]paymentView, 0, len(records))
			for _, r := range records {
				views = append(views, newPaymentView(r))
			}
			if outputJSON {
				return s.app.print(views)
			}
			if len(views) == 0 {
				fmt.Fprintf(s.app.out, "No payments recorded for %s\n", who.Hex())
				return nil
			}
			w := tabwriter.NewWriter(s.app.out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tKIND\tAMOUNT\tMEMO")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Timestamp, v.Kind, v.Amount, v.Memo)
			}
			return w.Flush()
		})
	},
}

var employeeVestedCmd = &cobra.Command{
	Use:   "vested [address]",
	Short: "Show the vested amount an employee can release (defaults to the configured key)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if _, err := employeeArg(args); err != nil {
				return err
			}
		}
		return withPayroll(cmd, len(args) == 0, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			who, err := selfOrArg(args, s)
			if err != nil {
				return err
			}
			releasable, err := p.ReleasableVested(ctx, who)
			if err != nil {
				return err
			}
			if outputJSON {
				return s.app.print(map[string]string{"employee": who.Hex(), "releasable": contracts.FormatUnits(releasable, 18)})
			}
			fmt.Fprintf(s.app.out, "Releasable vested for %s: %s\n", who.Hex(), contracts.FormatUnits(releasable, 18))
			return nil
		})
	},
}

var employeeClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the owed balance of the configured key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.Claim(ctx)
			_, err = s.confirm(ctx, "Claim", tx, err)
			return err
		})
	},
}

var employeeReleaseVestedCmd = &cobra.Command{
	Use:   "release-vested",
	Short: "Release the vested tokens of the configured key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.ReleaseVested(ctx)
			_, err = s.confirm(ctx, "Release vested", tx, err)
			return err
		})
	},
}

var employeeUpdateWalletCmd = &cobra.Command{
	Use:   "update-wallet <new-wallet>",
	Short: "Move the configured key's employee record to a new wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := parseAddress("wallet", args[0])
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.UpdateMyWallet(ctx, wallet)
			if _, err = s.confirm(ctx, "Update wallet", tx, err); err != nil {
				return err
			}
			fmt.Fprintf(s.app.out, "Payments now go to %s; use that wallet's key from here on\n", wallet.Hex())
			return nil
		})
	},
}

func init() {
	employeeCmd.AddCommand(
		employeeHistoryCmd,
		employeeVestedCmd,
		employeeClaimCmd,
		employeeReleaseVestedCmd,
		employeeUpdateWalletCmd,
	)
}
