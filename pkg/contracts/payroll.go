package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

// PaymentMethod selects which payroll entry point settles a due salary.
type PaymentMethod string

const (
	MethodStandard PaymentMethod = "standard"
	MethodHedge    PaymentMethod = "hedge"
	MethodForce    PaymentMethod = "force"
)

func (m PaymentMethod) contractMethod() (string, error) {
	switch m {
	case MethodStandard, "":
		return "processPayment", nil
	case MethodHedge:
		return "processPaymentWithHedge", nil
	case MethodForce:
		return "forceProcessPayment", nil
	default:
		return "", fmt.Errorf("unknown payment method %q", m)
	}
}

// DefaultPaymentGasLimit is the gas ceiling attached to payment submissions.
const DefaultPaymentGasLimit = 500000

// Payroll is a client for one company's payroll contract.
type Payroll struct {
	*boundContract
}

func NewPayroll(address common.Address, backend Backend, signer TxSigner) (*Payroll, error) {
	c, err := newBoundContract(address, PayrollABI, backend, signer)
	if err != nil {
		return nil, err
	}
	return &Payroll{boundContract: c}, nil
}

func (p *Payroll) Name(ctx context.Context) (string, error) {
	out, err := p.call(ctx, "name")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (p *Payroll) CompanyOwner(ctx context.Context) (common.Address, error) {
	out, err := p.call(ctx, "companyOwner")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (p *Payroll) GetEmployeeList(ctx context.Context) ([]common.Address, error) {
	out, err := p.call(ctx, "getEmployeeList")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (p *Payroll) GetEmployee(ctx context.Context, employee common.Address) (types.Employee, error) {
	out, err := p.call(ctx, "getEmployee", employee)
	if err != nil {
		return types.Employee{}, err
	}
	if len(out) != 10 {
		return types.Employee{}, fmt.Errorf("getEmployee: unexpected %d return values", len(out))
	}
	return types.Employee{
		Wallet:           out[0].(common.Address),
		TokenType:        out[1].(uint8),
		TokenAddress:     out[2].(common.Address),
		SalaryPerPeriod:  out[3].(*big.Int),
		Frequency:        types.Frequency(out[4].(uint8)),
		CustomFrequency:  out[5].(uint64),
		NextPayTimestamp: out[6].(uint64),
		TaxBps:           out[7].(uint16),
		Active:           out[8].(bool),
		Owed:             out[9].(*big.Int),
	}, nil
}

// IsEmployee reports whether account is listed and currently active.
func (p *Payroll) IsEmployee(ctx context.Context, account common.Address) (bool, error) {
	list, err := p.GetEmployeeList(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range list {
		if e == account {
			emp, err := p.GetEmployee(ctx, account)
			if err != nil {
				return false, err
			}
			return emp.Active, nil
		}
	}
	return false, nil
}

func (p *Payroll) IsOwner(ctx context.Context, account common.Address) (bool, error) {
	owner, err := p.CompanyOwner(ctx)
	if err != nil {
		return false, err
	}
	return owner == account, nil
}

func (p *Payroll) StableTokenAddress(ctx context.Context) (common.Address, error) {
	out, err := p.call(ctx, "USDC_ADDRESS")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (p *Payroll) VolatileTokenAddress(ctx context.Context) (common.Address, error) {
	out, err := p.call(ctx, "METH_ADDRESS")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// SubmitPayment sends the payment call for employee using method. It does not
// wait for inclusion.
func (p *Payroll) SubmitPayment(ctx context.Context, method PaymentMethod, employee common.Address, gasLimit uint64) (*gtypes.Transaction, error) {
	name, err := method.contractMethod()
	if err != nil {
		return nil, err
	}
	return p.transact(ctx, gasLimit, name, employee)
}

func (p *Payroll) ProcessPayment(ctx context.Context, employee common.Address, gasLimit uint64) (*gtypes.Transaction, error) {
	return p.SubmitPayment(ctx, MethodStandard, employee, gasLimit)
}

func (p *Payroll) ProcessPaymentWithHedge(ctx context.Context, employee common.Address, gasLimit uint64) (*gtypes.Transaction, error) {
	return p.SubmitPayment(ctx, MethodHedge, employee, gasLimit)
}

func (p *Payroll) ForceProcessPayment(ctx context.Context, employee common.Address, gasLimit uint64) (*gtypes.Transaction, error) {
	return p.SubmitPayment(ctx, MethodForce, employee, gasLimit)
}

type AddEmployeeParams struct {
	Wallet          common.Address
	TokenAddress    common.Address
	SalaryPerPeriod *big.Int
	Frequency       types.Frequency
	CustomFrequency uint64
	TaxBps          uint16
}

func (p *Payroll) AddEmployee(ctx context.Context, params AddEmployeeParams) (*gtypes.Transaction, error) {
	if params.SalaryPerPeriod == nil || params.SalaryPerPeriod.Sign() <= 0 {
		return nil, fmt.Errorf("invalid salary amount")
	}
	if params.Frequency == types.FrequencyCustom && params.CustomFrequency == 0 {
		return nil, fmt.Errorf("custom frequency requires a period in seconds")
	}
	return p.transact(ctx, 0, "addEmployee",
		params.Wallet,
		params.TokenAddress,
		params.SalaryPerPeriod,
		uint8(params.Frequency),
		params.CustomFrequency,
		params.TaxBps,
	)
}

func (p *Payroll) RemoveEmployee(ctx context.Context, employee common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "removeEmployee", employee)
}

func (p *Payroll) ReactivateEmployee(ctx context.Context, employee common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "reactivateEmployee", employee)
}

func (p *Payroll) DeleteEmployeePermanently(ctx context.Context, employee common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "deleteEmployeePermanently", employee)
}

func (p *Payroll) AddAdmin(ctx context.Context, who common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "addAdmin", who)
}

func (p *Payroll) RemoveAdmin(ctx context.Context, who common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "removeAdmin", who)
}

func (p *Payroll) ToggleTax(ctx context.Context, enabled bool) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "toggleTax", enabled)
}

func (p *Payroll) SetTaxRecipient(ctx context.Context, recipient common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "setTaxRecipient", recipient)
}

func (p *Payroll) ConfigureHedgeVault(ctx context.Context, employee common.Address, risk types.RiskLevel, threshold *big.Int, volatileToken, stableToken common.Address) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "configureHedgeVault", employee, uint8(risk), threshold, volatileToken, stableToken)
}

func (p *Payroll) ToggleHedgeVault(ctx context.Context, employee common.Address, enabled bool) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "toggleHedgeVault", employee, enabled)
}

func (p *Payroll) UpdateHedgeVaultConfig(ctx context.Context, risk types.RiskLevel, threshold *big.Int) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "updateHedgeVaultConfig", uint8(risk), threshold)
}

func (p *Payroll) EmergencyWithdraw(ctx context.Context, token common.Address, amount *big.Int) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "emergencyWithdraw", token, amount)
}

// FundWithERC20 deposits amount of token into the contract. The contract pulls
// the tokens, so the caller must approve it first.
func (p *Payroll) FundWithERC20(ctx context.Context, token common.Address, amount *big.Int) (*gtypes.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid funding amount")
	}
	return p.transact(ctx, 0, "fundWithERC20", token, amount)
}

func (p *Payroll) FundWithETH(ctx context.Context, amount *big.Int) (*gtypes.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid funding amount")
	}
	return p.transactValue(ctx, 0, amount, "fundWithETH")
}

// PaymentRecord is one entry of an employee's on-chain payment history.
type PaymentRecord struct {
	Amount    *big.Int `json:"amount"`
	Timestamp uint64   `json:"timestamp"`
	IsBonus   bool     `json:"is_bonus"`
	Memo      string   `json:"memo"`
}

func (p *Payroll) PaymentHistory(ctx context.Context, employee common.Address) ([]PaymentRecord, error) {
	out, err := p.call(ctx, "getPaymentHistory", employee)
	if err != nil {
		return nil, err
	}
	records := *abi.ConvertType(out[0], new([]PaymentRecord)).(*[]PaymentRecord)
	return records, nil
}

func (p *Payroll) ReleasableVested(ctx context.Context, employee common.Address) (*big.Int, error) {
	out, err := p.call(ctx, "releasableVested", employee)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Claim withdraws the signer's owed balance. Claim, ReleaseVested and
// UpdateMyWallet act on the signer's own employee record.
func (p *Payroll) Claim(ctx context.Context) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "claim")
}

func (p *Payroll) ReleaseVested(ctx context.Context) (*gtypes.Transaction, error) {
	return p.transact(ctx, 0, "releaseVested")
}

func (p *Payroll) UpdateMyWallet(ctx context.Context, newWallet common.Address) (*gtypes.Transaction, error) {
	if newWallet == (common.Address{}) {
		return nil, fmt.Errorf("invalid wallet address")
	}
	return p.transact(ctx, 0, "updateMyWallet", newWallet)
}
