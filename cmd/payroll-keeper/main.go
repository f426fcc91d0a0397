package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	contractFlag string
	outputJSON   bool
)

var rootCmd = &cobra.Command{
	Use:           "payroll-keeper",
	Short:         "Payroll keeper",
	Long:          `Runs and administers on-chain company payroll contracts: scheduled salary payments, employee management, hedge vaults and test token faucets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contractFlag, "contract", "", "payroll contract address (defaults to PAYROLL_CONTRACT_ADDRESS)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(employeeCmd)
	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(taxCmd)
	rootCmd.AddCommand(hedgeCmd)
	rootCmd.AddCommand(faucetCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(feesCmd)
	rootCmd.AddCommand(apiTokenCmd)
}
