package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/internal/chain"
	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/payroll"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
	"github.com/decipherlabs/payroll-keeper/service"
	"github.com/decipherlabs/payroll-keeper/storage/postgres"
)

var (
	addSalary       string
	addToken        string
	addFrequency    string
	addCustomPeriod uint64
	addTaxPercent   string
	payMethod       string
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage the employees of a payroll contract",
}

type employeeView struct {
	Address         string `json:"address"`
	Name            string `json:"name,omitempty"`
	Token           string `json:"token"`
	Salary          string `json:"salary"`
	Frequency       string `json:"frequency"`
	CustomFrequency uint64 `json:"custom_frequency,omitempty"`
	NextPay         string `json:"next_pay"`
	Due             bool   `json:"due"`
	TaxBps          uint16 `json:"tax_bps"`
	Active          bool   `json:"active"`
	Owed            string `json:"owed"`
}

func newEmployeeView(addr common.Address, e types.Employee, name string, now time.Time) employeeView {
	return employeeView{
		Address:         addr.Hex(),
		Name:            name,
		Token:           e.TokenAddress.Hex(),
		Salary:          contracts.FormatUnits(e.SalaryPerPeriod, 18),
		Frequency:       e.Frequency.String(),
		CustomFrequency: e.CustomFrequency,
		NextPay:         e.NextPayTime().UTC().Format(time.RFC3339),
		Due:             e.Active && payroll.IsDueUnix(e.NextPayTimestamp, now),
		TaxBps:          e.TaxBps,
		Active:          e.Active,
		Owed:            contracts.FormatUnits(e.Owed, 18),
	}
}

// withPayroll connects, binds the payroll contract and runs fn.
func withPayroll(cmd *cobra.Command, withSigner bool, fn func(ctx context.Context, s *session, p *contracts.Payroll) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if _, err := a.payrollAddress(); err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := a.connect(ctx, withSigner)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.payroll()
	if err != nil {
		return err
	}
	return fn(ctx, s, p)
}

func employeeArg(args []string) (common.Address, error) {
	return parseAddress("employee", args[0])
}

func (a *app) employeeLabels(ctx context.Context, contract common.Address) map[common.Address]string {
	if a.cfg.Database.DSN == "" {
		return nil
	}
	db, err := postgres.NewPostgresBackend(ctx, a.cfg.Database.DSN)
	if err != nil {
		a.logger.WithError(err).Warn("Employee labels unavailable")
		return nil
	}
	defer db.Close()
	labels, err := db.GetEmployeeLabels(ctx, contract)
	if err != nil {
		a.logger.WithError(err).Warn("Employee labels unavailable")
		return nil
	}
	return labels
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all employees",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPayroll(cmd, false, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			list, err := p.GetEmployeeList(ctx)
			if err != nil {
				return err
			}
			labels := s.app.employeeLabels(ctx, p.Address())
			now := time.Now()

			views := make([]employeeView, 0, len(list))
			for _, addr := range list {
				e, err := p.GetEmployee(ctx, addr)
				if err != nil {
					s.app.logger.WithError(err).WithField("employee", addr.Hex()).Error("Failed to read employee")
					continue
				}
				views = append(views, newEmployeeView(addr, e, labels[addr], now))
			}
			if outputJSON {
				return s.app.print(views)
			}

			w := tabwriter.NewWriter(s.app.out, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ADDRESS\tNAME\tSALARY\tFREQUENCY\tNEXT PAY\tACTIVE\tDUE")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%t\n", v.Address, v.Name, v.Salary, v.Frequency, v.NextPay, v.Active, v.Due)
			}
			return w.Flush()
		})
	},
}

var employeeGetCmd = &cobra.Command{
	Use:   "get <employee>",
	Short: "Show one employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := employeeArg(args)
		if err != nil {
			return err
		}
		return withPayroll(cmd, false, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			e, err := p.GetEmployee(ctx, addr)
			if err != nil {
				return err
			}
			labels := s.app.employeeLabels(ctx, p.Address())
			return s.app.print(newEmployeeView(addr, e, labels[addr], time.Now()))
		})
	},
}

func (a *app) tokenSet() payroll.TokenSet {
	return payroll.TokenSet{Stable: a.cfg.Contracts.StableToken, Volatile: a.cfg.Contracts.VolatileToken}
}

// resolveToken accepts a currency symbol or a token address.
func (a *app) resolveToken(token string) common.Address {
	if common.IsHexAddress(token) {
		return common.HexToAddress(token)
	}
	return a.tokenSet().TokenForCurrency(token)
}

func percentToBps(percent string) (uint16, error) {
	if percent == "" {
		return 0, nil
	}
	bps, err := contracts.ParseUnits(percent, 2)
	if err != nil {
		return 0, fmt.Errorf("invalid tax percent %q: %w", percent, err)
	}
	if bps.Sign() < 0 || bps.Cmp(big.NewInt(10000)) > 0 {
		return 0, fmt.Errorf("tax percent must be between 0 and 100")
	}
	return uint16(bps.Uint64()), nil
}

var employeeAddCmd = &cobra.Command{
	Use:   "add <wallet>",
	Short: "Add an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wallet, err := parseAddress("wallet", args[0])
		if err != nil {
			return err
		}
		salary, err := contracts.ParseUnits(addSalary, 18)
		if err != nil {
			return fmt.Errorf("invalid salary: %w", err)
		}
		taxBps, err := percentToBps(addTaxPercent)
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			tx, err := p.AddEmployee(ctx, contracts.AddEmployeeParams{
				Wallet:          wallet,
				TokenAddress:    s.app.resolveToken(addToken),
				SalaryPerPeriod: salary,
				Frequency:       payroll.ParseFrequency(addFrequency),
				CustomFrequency: addCustomPeriod,
				TaxBps:          taxBps,
			})
			_, err = s.confirm(ctx, "Add employee", tx, err)
			return err
		})
	},
}

// employeeTxCmd builds a command that sends one employee-scoped transaction.
func employeeTxCmd(use, short, what string, send func(*contracts.Payroll, context.Context, common.Address) (*gtypes.Transaction, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <employee>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := employeeArg(args)
			if err != nil {
				return err
			}
			return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
				tx, err := send(p, ctx, addr)
				_, err = s.confirm(ctx, what, tx, err)
				return err
			})
		},
	}
}

var employeeCheckCmd = &cobra.Command{
	Use:   "check <address>",
	Short: "Check whether an address is an active employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := employeeArg(args)
		if err != nil {
			return err
		}
		return withPayroll(cmd, false, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			ok, err := p.IsEmployee(ctx, addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.app.out, "%s active employee: %t\n", addr.Hex(), ok)
			return nil
		})
	},
}

var employeePayCmd = &cobra.Command{
	Use:   "pay <employee>",
	Short: "Pay one employee with the configured payment method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := employeeArg(args)
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			method := contracts.PaymentMethod(s.app.cfg.Payment.Method)
			if payMethod != "" {
				method = contracts.PaymentMethod(payMethod)
			}
			res, err := service.PayEmployee(ctx, p, s.monitor, method, addr, s.app.cfg.Payment.GasLimit)
			return s.app.reportPayment(s, res, err)
		})
	},
}

var employeeForcePayCmd = &cobra.Command{
	Use:   "force-pay <employee>",
	Short: "Pay one employee now, ignoring the schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := employeeArg(args)
		if err != nil {
			return err
		}
		return withPayroll(cmd, true, func(ctx context.Context, s *session, p *contracts.Payroll) error {
			res, err := service.ForcePayEmployee(ctx, p, s.monitor, addr, s.app.cfg.Payment.GasLimit, s.app.logger)
			return s.app.reportPayment(s, res, err)
		})
	},
}

func (a *app) reportPayment(s *session, res service.PaymentResult, err error) error {
	if err != nil {
		return fmt.Errorf("payment failed: %s", chain.FriendlyMessage(err))
	}
	fmt.Fprintf(a.out, "Payment processed (%s, gas %d): %s\n", res.Method, res.GasUsed, s.explorerTx(res.TxHash))
	return nil
}

var employeeLabelCmd = &cobra.Command{
	Use:   "label <employee> <name>",
	Short: "Store a display name for an employee",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		employee, err := employeeArg(args)
		if err != nil {
			return err
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		contract, err := a.payrollAddress()
		if err != nil {
			return err
		}
		if a.cfg.Database.DSN == "" {
			return errors.New("database.dsn is not set")
		}
		db, err := postgres.NewPostgresBackend(cmd.Context(), a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.SetEmployeeLabel(cmd.Context(), types.EmployeeLabel{
			Contract:    contract,
			Employee:    employee,
			DisplayName: strings.Join(args[1:], " "),
		})
	},
}

func init() {
	employeeAddCmd.Flags().StringVar(&addSalary, "salary", "", "salary per period in token units")
	employeeAddCmd.Flags().StringVar(&addToken, "token", "mUSDC", "mUSDC, mETH, ETH or a token address")
	employeeAddCmd.Flags().StringVar(&addFrequency, "frequency", "monthly", "weekly, biweekly, monthly, hourly, minutely or custom")
	employeeAddCmd.Flags().Uint64Var(&addCustomPeriod, "custom-seconds", 0, "pay period in seconds for a custom frequency")
	employeeAddCmd.Flags().StringVar(&addTaxPercent, "tax-percent", "", "tax withheld, in percent")
	_ = employeeAddCmd.MarkFlagRequired("salary")

	employeePayCmd.Flags().StringVar(&payMethod, "method", "", "standard, hedge or force (defaults to payment.method)")

	employeeCmd.AddCommand(
		employeeListCmd,
		employeeGetCmd,
		employeeAddCmd,
		employeeTxCmd("remove", "Deactivate an employee", "Remove employee", (*contracts.Payroll).RemoveEmployee),
		employeeTxCmd("reactivate", "Reactivate a removed employee", "Reactivate employee", (*contracts.Payroll).ReactivateEmployee),
		employeeTxCmd("delete", "Delete an employee permanently", "Delete employee", (*contracts.Payroll).DeleteEmployeePermanently),
		employeeCheckCmd,
		employeePayCmd,
		employeeForcePayCmd,
		employeeLabelCmd,
	)
}
