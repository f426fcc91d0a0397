package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

var (
	deployTaxRecipient string
	fundToken          string
	fundETH            bool
	fundTransfer       bool
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Deploy and inspect company payroll contracts",
}

var companyDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a payroll contract owned by the configured key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var taxRecipient common.Address
		if deployTaxRecipient != "" {
			addr, err := parseAddress("tax recipient", deployTaxRecipient)
			if err != nil {
				return err
			}
			taxRecipient = addr
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

		factory, err := contracts.NewFactory(a.cfg.Contracts.Factory, s.client, s.txSigner(), s.monitor.WaitMined)
		if err != nil {
			return err
		}
		res, err := factory.DeployCompanyPayroll(ctx, s.signer.Address(), taxRecipient)
		if err != nil {
			return err
		}
		if outputJSON {
			return a.print(res)
		}
		fmt.Fprintf(a.out, "Payroll contract deployed at %s\n", res.Address.Hex())
		fmt.Fprintf(a.out, "Transaction: %s\n", s.explorerTx(res.TxHash))
		return nil
	},
}

type companyInfo struct {
	Address       string `json:"address"`
	Name          string `json:"name"`
	Owner         string `json:"owner"`
	Employees     int    `json:"employees"`
	StableToken   string `json:"stable_token"`
	VolatileToken string `json:"volatile_token"`
}

var companyInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the payroll contract's name, owner and tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPayroll(cmd, false, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			info := companyInfo{Address: p.Address().Hex()}
			name, err := p.Name(ctx)
			if err != nil {
				return err
			}
			info.Name = name

			owner, err := p.CompanyOwner(ctx)
			if err != nil {
				return err
			}
			info.Owner = owner.Hex()

			list, err := p.GetEmployeeList(ctx)
			if err != nil {
				return err
			}
			info.Employees = len(list)

			if stable, err := p.StableTokenAddress(ctx); err == nil {
				info.StableToken = stable.Hex()
			}
			if volatile, err := p.VolatileTokenAddress(ctx); err == nil {
				info.VolatileToken = volatile.Hex()
			}
			return s.app.print(info)
		})
	},
}

var companyWithdrawCmd = &cobra.Command{
	Use:   "withdraw <token> <amount>",
	Short: "Withdraw funds from the payroll contract to the owner",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := contracts.ParseUnits(args[1], 18)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.EmergencyWithdraw(ctx, s.app.resolveToken(args[0]), amount)
			_, err = s.confirm(ctx, "Emergency withdraw", tx, err)
			return err
		})
	},
}

type companyListing struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

var companyListCmd = &cobra.Command{
	Use:   "list [owner]",
	Short: "List the payroll contracts the factory deployed for an owner (defaults to the configured key)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var owner common.Address
		if len(args) == 1 {
			addr, err := parseAddress("owner", args[0])
			if err != nil {
				return err
			}
			owner = addr
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s, err := a.connect(ctx, len(args) == 0)
		if err != nil {
			return err
		}
		defer s.Close()
		if s.signer != nil {
			owner = s.signer.Address()
		}

		factory, err := contracts.NewFactory(a.cfg.Contracts.Factory, s.client, nil, s.monitor.WaitMined)
		if err != nil {
			return err
		}
		payrolls, err := factory.CompanyPayrolls(ctx, owner)
		if err != nil {
			return err
		}

		// newest first
		listings := make([]companyListing, 0, len(payrolls))
		for i := len(payrolls) - 1; i >= 0; i-- {
			listing := companyListing{Address: payrolls[i].Hex(), Name: "Unnamed Company"}
			if p, err := contracts.NewPayroll(payrolls[i], s.client, nil); err == nil {
				if name, err := p.Name(ctx); err == nil && name != "" {
					listing.Name = name
				}
			}
			listings = append(listings, listing)
		}
		if outputJSON {
			return a.print(listings)
		}
		if len(listings) == 0 {
			fmt.Fprintf(a.out, "No payroll contracts deployed for %s\n", owner.Hex())
			return nil
		}
		for _, l := range listings {
			fmt.Fprintf(a.out, "%s  %s\n", l.Address, l.Name)
		}
		return nil
	},
}

func parseFundingAmount(value string, decimals uint8) (*big.Int, error) {
	amount, err := contracts.ParseUnits(value, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}
	return amount, nil
}

var companyFundCmd = &cobra.Command{
	Use:   "fund <amount>",
	Short: "Deposit tokens or ETH into the payroll contract",
	Long: `Deposits funds into the payroll contract. ERC20 deposits go through
fundWithERC20, approving the contract first when the allowance is short.
With --transfer the tokens are sent with a plain ERC20 transfer instead.
With --eth the amount is sent as native ETH through fundWithETH.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := parseFundingAmount(args[0], 18); err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			if fundETH {
				amount, err := parseFundingAmount(args[0], 18)
				if err != nil {
					return err
				}
				tx, err := p.FundWithETH(ctx, amount)
				_, err = s.confirm(ctx, "Fund with ETH", tx, err)
				return err
			}

			token, err := contracts.NewERC20(s.app.resolveToken(fundToken), s.client, s.txSigner())
			if err != nil {
				return err
			}
			info, err := token.Info(ctx)
			if err != nil {
				return fmt.Errorf("failed to read token info: %w", err)
			}
			if info.Native {
				return errors.New("use --eth to fund with native ETH")
			}
			amount, err := parseFundingAmount(args[0], info.Decimals)
			if err != nil {
				return err
			}

			if fundTransfer {
				tx, err := token.Transfer(ctx, p.Address(), amount)
				_, err = s.confirm(ctx, "Transfer "+info.Symbol, tx, err)
				return err
			}

			allowance, err := token.Allowance(ctx, s.signer.Address(), p.Address())
			if err != nil {
				return err
			}
			if allowance.Cmp(amount) < 0 {
				tx, err := token.Approve(ctx, p.Address(), amount)
				if _, err = s.confirm(ctx, "Approve "+info.Symbol, tx, err); err != nil {
					return err
				}
			}
			tx, err := p.FundWithERC20(ctx, info.Address, amount)
			_, err = s.confirm(ctx, "Fund with "+info.Symbol, tx, err)
			return err
		})
	},
}

func init() {
	companyDeployCmd.Flags().StringVar(&deployTaxRecipient, "tax-recipient", "", "address receiving withheld tax")

	companyFundCmd.Flags().StringVar(&fundToken, "token", "mUSDC", "mUSDC, mETH or a token address")
	companyFundCmd.Flags().BoolVar(&fundETH, "eth", false, "send native ETH instead of a token")
	companyFundCmd.Flags().BoolVar(&fundTransfer, "transfer", false, "send tokens with a plain transfer instead of fundWithERC20")
	companyFundCmd.MarkFlagsMutuallyExclusive("eth", "transfer")

	companyCmd.AddCommand(companyDeployCmd, companyInfoCmd, companyListCmd, companyFundCmd, companyWithdrawCmd)
}
