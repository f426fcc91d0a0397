package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/payroll"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

var (
	feesTaxPercent string
	feesRisk       string
)

type feesView struct {
	Gross    string              `json:"gross"`
	Fee      string              `json:"platform_fee"`
	Tax      string              `json:"tax"`
	Net      string              `json:"net"`
	FeeBps   uint64              `json:"fee_bps"`
	TaxBps   uint16              `json:"tax_bps"`
	Hedge    *payroll.Allocation `json:"hedge,omitempty"`
	HedgeNet *hedgeSplit         `json:"hedge_net,omitempty"`
}

type hedgeSplit struct {
	Volatile string `json:"volatile"`
	Stable   string `json:"stable"`
}

var feesCmd = &cobra.Command{
	Use:   "fees <gross salary>",
	Short: "Preview platform fee, tax and net pay for a salary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		gross, err := contracts.ParseUnits(args[0], 18)
		if err != nil {
			return fmt.Errorf("invalid salary: %w", err)
		}
		taxBps := uint16(payroll.DefaultTaxBps)
		if feesTaxPercent != "" {
			if taxBps, err = percentToBps(feesTaxPercent); err != nil {
				return err
			}
		}

		feeBps := a.cfg.Payment.PlatformFeeBps
		fees, err := payroll.CalculateFees(gross, feeBps, uint64(taxBps))
		if err != nil {
			return err
		}

		view := feesView{
			Gross:  contracts.FormatUnits(fees.Gross, 18),
			Fee:    contracts.FormatUnits(fees.Fee, 18),
			Tax:    contracts.FormatUnits(fees.Tax, 18),
			Net:    contracts.FormatUnits(fees.Net, 18),
			FeeBps: feeBps,
			TaxBps: taxBps,
		}
		if feesRisk != "" {
			alloc := payroll.AllocationFor(payroll.ParseRiskLevel(feesRisk))
			volatile, stable := alloc.Split(fees.Net)
			view.Hedge = &alloc
			view.HedgeNet = &hedgeSplit{
				Volatile: contracts.FormatUnits(volatile, 18),
				Stable:   contracts.FormatUnits(stable, 18),
			}
		}

		if outputJSON {
			return a.print(view)
		}
		fmt.Fprintf(a.out, "Gross:        %s\n", view.Gross)
		fmt.Fprintf(a.out, "Platform fee: %s (%d bps)\n", view.Fee, view.FeeBps)
		fmt.Fprintf(a.out, "Tax:          %s (%d bps)\n", view.Tax, view.TaxBps)
		fmt.Fprintf(a.out, "Net:          %s\n", view.Net)
		if view.HedgeNet != nil {
			fmt.Fprintf(a.out, "Hedge:        %s volatile (%d%%) / %s stable (%d%%)\n",
				view.HedgeNet.Volatile, view.Hedge.VolatilePercent, view.HedgeNet.Stable, view.Hedge.StablePercent)
		}
		return nil
	},
}

func init() {
	feesCmd.Flags().StringVar(&feesTaxPercent, "tax-percent", "", "tax withheld, in percent (default 10)")
	feesCmd.Flags().StringVar(&feesRisk, "risk", "", "also split net pay by hedge risk level")
}
