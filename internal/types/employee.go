package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Frequency mirrors the payment frequency enum stored by the payroll contract.
type Frequency uint8

const (
	FrequencyWeekly Frequency = iota
	FrequencyBiweekly
	FrequencyMonthly
	FrequencyHourly
	FrequencyMinutely
	FrequencyCustom
)

func (f Frequency) String() string {
	switch f {
	case FrequencyWeekly:
		return "weekly"
	case FrequencyBiweekly:
		return "biweekly"
	case FrequencyMonthly:
		return "monthly"
	case FrequencyHourly:
		return "hourly"
	case FrequencyMinutely:
		return "minutely"
	case FrequencyCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// RiskLevel is the hedge vault allocation profile of an employee.
type RiskLevel uint8

const (
	RiskConservative RiskLevel = iota
	RiskModerate
	RiskAggressive
)

func (r RiskLevel) String() string {
	switch r {
	case RiskConservative:
		return "CONSERVATIVE"
	case RiskModerate:
		return "MODERATE"
	case RiskAggressive:
		return "AGGRESSIVE"
	default:
		return "UNKNOWN"
	}
}

// Employee is the record returned by getEmployee on a payroll contract.
type Employee struct {
	Wallet           common.Address `json:"wallet"`
	TokenType        uint8          `json:"token_type"`
	TokenAddress     common.Address `json:"token_address"`
	SalaryPerPeriod  *big.Int       `json:"salary_per_period"`
	Frequency        Frequency      `json:"frequency"`
	CustomFrequency  uint64         `json:"custom_frequency"`
	NextPayTimestamp uint64         `json:"next_pay_timestamp"`
	TaxBps           uint16         `json:"tax_bps"`
	Active           bool           `json:"active"`
	Owed             *big.Int       `json:"owed"`
}

func (e Employee) NextPayTime() time.Time {
	return time.Unix(int64(e.NextPayTimestamp), 0).UTC()
}

// EmployeeLabel is a display name kept off-chain, the contract does not store names.
type EmployeeLabel struct {
	Contract    common.Address `json:"contract"`
	Employee    common.Address `json:"employee"`
	DisplayName string         `json:"display_name"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
