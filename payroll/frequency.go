package payroll

import (
	"strings"
	"time"

	"github.com/decipherlabs/payroll-keeper/internal/types"
)

const (
	Week  = 7 * 24 * time.Hour
	Month = 30 * 24 * time.Hour
)

// ParseFrequency maps a user supplied frequency name to the contract enum.
// Unknown names fall back to monthly.
func ParseFrequency(s string) types.Frequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return types.FrequencyWeekly
	case "biweekly", "bi-weekly":
		return types.FrequencyBiweekly
	case "monthly":
		return types.FrequencyMonthly
	case "hourly":
		return types.FrequencyHourly
	case "minutely":
		return types.FrequencyMinutely
	case "custom":
		return types.FrequencyCustom
	default:
		return types.FrequencyMonthly
	}
}

// Period returns the length of one pay period. customSeconds is only used for
// FrequencyCustom.
func Period(f types.Frequency, customSeconds uint64) time.Duration {
	switch f {
	case types.FrequencyWeekly:
		return Week
	case types.FrequencyBiweekly:
		return 2 * Week
	case types.FrequencyHourly:
		return time.Hour
	case types.FrequencyMinutely:
		return time.Minute
	case types.FrequencyCustom:
		return time.Duration(customSeconds) * time.Second
	default:
		return Month
	}
}

func NextPayment(last time.Time, f types.Frequency, customSeconds uint64) time.Time {
	return last.Add(Period(f, customSeconds))
}

// IsDue reports whether a payment scheduled at next may be processed at now.
// A payment becomes due exactly at its timestamp.
func IsDue(next, now time.Time) bool {
	return !now.Before(next)
}

// IsDueUnix is IsDue for the unix-seconds timestamps stored on chain.
// Timestamps past math.MaxInt64 are never due.
func IsDueUnix(nextPayTimestamp uint64, now time.Time) bool {
	sec := now.Unix()
	if sec < 0 {
		return false
	}
	return uint64(sec) >= nextPayTimestamp
}
