package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/chains"
	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/payroll"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
	"github.com/decipherlabs/payroll-keeper/storage"
)

type PayrollContract interface {
	Address() common.Address
	GetEmployeeList(ctx context.Context) ([]common.Address, error)
	GetEmployee(ctx context.Context, employee common.Address) (types.Employee, error)
	SubmitPayment(ctx context.Context, method contracts.PaymentMethod, employee common.Address, gasLimit uint64) (*gtypes.Transaction, error)
}

type TxMonitor interface {
	WaitMined(ctx context.Context, tx *gtypes.Transaction) (*gtypes.Receipt, error)
	RevertReason(ctx context.Context, tx *gtypes.Transaction, blockNumber *big.Int) string
}

type BatchConfig struct {
	GasLimit       uint64
	Method         contracts.PaymentMethod
	PlatformFeeBps uint64
	ExplorerURL    string
	ClaimTTL       time.Duration
}

const DefaultClaimTTL = 7 * 24 * time.Hour

type BatchOption func(*BatchProcessor)

func WithLedger(ledger storage.RunRepository) BatchOption {
	return func(b *BatchProcessor) { b.ledger = ledger }
}

func WithClaimStore(claims storage.ClaimStore) BatchOption {
	return func(b *BatchProcessor) { b.claims = claims }
}

func WithReportArchive(archive storage.ReportArchive) BatchOption {
	return func(b *BatchProcessor) { b.archive = archive }
}

func WithStatsd(sdClient statsd.ClientInterface) BatchOption {
	return func(b *BatchProcessor) { b.sdClient = sdClient }
}

func WithClock(now func() time.Time) BatchOption {
	return func(b *BatchProcessor) { b.now = now }
}

// WithNonceReset sets the hook that drops the signer's cached nonce. It runs
// at the start of every run and after any payment whose receipt never came.
func WithNonceReset(reset func()) BatchOption {
	return func(b *BatchProcessor) { b.resetNonce = reset }
}

// BatchProcessor pays every due, active employee of one payroll contract,
// one at a time. Each listed employee gets exactly one outcome per run.
type BatchProcessor struct {
	contract PayrollContract
	monitor  TxMonitor
	signer   common.Address
	cfg      BatchConfig
	ledger   storage.RunRepository
	claims   storage.ClaimStore
	archive  storage.ReportArchive
	sdClient statsd.ClientInterface
	logger   logrus.FieldLogger
	now      func() time.Time

	resetNonce func()
}

func NewBatchProcessor(contract PayrollContract, monitor TxMonitor, signer common.Address, cfg BatchConfig, logger logrus.FieldLogger, opts ...BatchOption) *BatchProcessor {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = contracts.DefaultPaymentGasLimit
	}
	if cfg.Method == "" {
		cfg.Method = contracts.MethodStandard
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = DefaultClaimTTL
	}
	b := &BatchProcessor{
		contract: contract,
		monitor:  monitor,
		signer:   signer,
		cfg:      cfg,
		sdClient: &statsd.NoOpClient{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BatchProcessor) incCounter(name string, tags []string) {
	if err := b.sdClient.Count(name, 1, tags, 1); err != nil {
		b.logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (b *BatchProcessor) measureTime(name string, start time.Time, tags []string) {
	if err := b.sdClient.Timing(name, b.now().Sub(start), tags, 1); err != nil {
		b.logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

func (b *BatchProcessor) syncNonce() {
	if b.resetNonce != nil {
		b.resetNonce()
	}
}

// Run processes the whole employee list. The returned error is set only when
// the list itself could not be read; per-employee failures are counted.
func (b *BatchProcessor) Run(ctx context.Context) (*types.PayrollRun, error) {
	start := b.now()
	contractTag := []string{"contract:" + strings.ToLower(b.contract.Address().Hex())}
	defer b.measureTime("payroll.run.latency", start, contractTag)

	run := types.NewPayrollRun(b.contract.Address(), b.signer, start)
	logger := b.logger.WithFields(logrus.Fields{
		"contract": b.contract.Address().Hex(),
		"run_id":   run.ID,
	})
	logger.Info("Starting payroll payment processing")
	b.incCounter("payroll.run", contractTag)
	b.syncNonce()

	if b.ledger != nil {
		if err := b.ledger.CreateRun(ctx, run); err != nil {
			logger.WithError(err).Error("Failed to record run start")
		}
	}

	employees, err := b.contract.GetEmployeeList(ctx)
	if err != nil {
		err = fmt.Errorf("failed to get employee list: %w", err)
		logger.WithError(err).Error("Payroll run aborted")
		b.incCounter("payroll.run.error", contractTag)
		b.finish(ctx, logger, run, types.RunStatusFailed, err)
		return run, err
	}

	run.Total = len(employees)
	if run.Total == 0 {
		logger.Info("No employees to process")
		b.finish(ctx, logger, run, types.RunStatusCompleted, nil)
		return run, nil
	}
	logger.Infof("Found %d employees", run.Total)

	for _, employee := range employees {
		outcome := b.processEmployee(ctx, logger.WithField("employee", employee.Hex()), employee)
		run.Record(outcome)
		b.incCounter("payroll.payment."+strings.ToLower(string(outcome.Outcome)), contractTag)

		if b.ledger != nil {
			if err := b.ledger.RecordAttempt(ctx, run.ID, run.Contract, outcome); err != nil {
				logger.WithError(err).Error("Failed to record payment attempt")
			}
		}
	}

	b.finish(ctx, logger, run, types.RunStatusCompleted, nil)
	return run, nil
}

func (b *BatchProcessor) finish(ctx context.Context, logger logrus.FieldLogger, run *types.PayrollRun, status types.RunStatus, runErr error) {
	run.Finish(status, b.now(), runErr)

	logger.WithFields(logrus.Fields{
		"status":    run.Status,
		"total":     run.Total,
		"succeeded": run.Succeeded,
		"failed":    run.Failed,
		"not_due":   run.NotDue,
		"skipped":   run.Skipped,
	}).Info("Payment processing complete")

	if b.ledger != nil {
		if err := b.ledger.FinishRun(ctx, run); err != nil {
			logger.WithError(err).Error("Failed to record run result")
		}
	}
	if b.archive != nil {
		key, err := b.archive.Upload(ctx, run)
		if err != nil {
			logger.WithError(err).Error("Failed to archive run report")
		} else {
			logger.WithField("key", key).Info("Run report archived")
		}
	}
}

func (b *BatchProcessor) processEmployee(ctx context.Context, logger logrus.FieldLogger, employee common.Address) types.EmployeeOutcome {
	outcome := types.EmployeeOutcome{Employee: employee, CreatedAt: b.now()}
	failed := func(err error) types.EmployeeOutcome {
		outcome.Outcome = types.OutcomeFailed
		outcome.Error = err.Error()
		logger.WithError(err).Error("Payment failed")
		return outcome
	}

	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	emp, err := b.contract.GetEmployee(ctx, employee)
	if err != nil {
		return failed(fmt.Errorf("failed to read employee: %w", err))
	}
	outcome.NextPayTimestamp = emp.NextPayTimestamp

	if !emp.Active {
		logger.Info("Employee is inactive, skipping")
		outcome.Outcome = types.OutcomeSkipped
		outcome.Reason = types.ReasonInactive
		return outcome
	}

	if !payroll.IsDueUnix(emp.NextPayTimestamp, b.now()) {
		logger.WithField("next_pay", emp.NextPayTime()).Info("Payment not due yet")
		outcome.Outcome = types.OutcomeNotDue
		return outcome
	}

	b.logFeePreview(logger, emp)

	if b.claims != nil {
		claimed, err := b.claims.Claim(ctx, b.contract.Address(), employee, emp.NextPayTimestamp, b.cfg.ClaimTTL)
		if err != nil {
			return failed(fmt.Errorf("failed to claim pay period: %w", err))
		}
		if !claimed {
			logger.WithField("next_pay", emp.NextPayTime()).Warn("Pay period already claimed by a previous run, skipping")
			outcome.Outcome = types.OutcomeSkipped
			outcome.Reason = types.ReasonAlreadyClaimed
			return outcome
		}
	}

	tx, err := b.contract.SubmitPayment(ctx, b.cfg.Method, employee, b.cfg.GasLimit)
	if err != nil {
		b.releaseClaim(ctx, logger, employee, emp.NextPayTimestamp)
		return failed(fmt.Errorf("failed to submit payment: %w", err))
	}
	outcome.TxHash = tx.Hash().Hex()

	txLogger := logger.WithField("tx_hash", outcome.TxHash)
	if url := chains.TxURL(b.cfg.ExplorerURL, outcome.TxHash); url != "" {
		txLogger = txLogger.WithField("explorer", url)
	}
	txLogger.Info("Payment transaction sent")

	receipt, err := b.monitor.WaitMined(ctx, tx)
	if err != nil {
		// the tx may still be mined, so the claim stays
		b.syncNonce()
		return failed(fmt.Errorf("failed to wait for payment: %w", err))
	}
	outcome.GasUsed = receipt.GasUsed

	if receipt.Status != gtypes.ReceiptStatusSuccessful {
		b.releaseClaim(ctx, logger, employee, emp.NextPayTimestamp)
		reason := b.monitor.RevertReason(ctx, tx, receipt.BlockNumber)
		if reason == "" {
			reason = "unknown reason"
		}
		return failed(fmt.Errorf("payment transaction reverted: %s", reason))
	}

	txLogger.WithField("gas_used", receipt.GasUsed).Info("Payment confirmed")
	outcome.Outcome = types.OutcomePaid
	return outcome
}

func (b *BatchProcessor) releaseClaim(ctx context.Context, logger logrus.FieldLogger, employee common.Address, nextPay uint64) {
	if b.claims == nil {
		return
	}
	if err := b.claims.Release(ctx, b.contract.Address(), employee, nextPay); err != nil {
		logger.WithError(err).Warn("Failed to release pay period claim")
	}
}

func (b *BatchProcessor) logFeePreview(logger logrus.FieldLogger, emp types.Employee) {
	if emp.SalaryPerPeriod == nil {
		return
	}
	fees, err := payroll.CalculateFees(emp.SalaryPerPeriod, b.cfg.PlatformFeeBps, uint64(emp.TaxBps))
	if err != nil {
		logger.WithError(err).Warn("Could not compute fee preview")
		return
	}
	logger.WithFields(logrus.Fields{
		"gross": contracts.FormatUnits(fees.Gross, 18),
		"fee":   contracts.FormatUnits(fees.Fee, 18),
		"tax":   contracts.FormatUnits(fees.Tax, 18),
		"net":   contracts.FormatUnits(fees.Net, 18),
	}).Info("Payment due, processing")
}
