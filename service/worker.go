package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/decipherlabs/payroll-keeper/internal/types"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
)

type RunProcessor interface {
	Run(ctx context.Context) (*types.PayrollRun, error)
}

type ProcessorFactory func(contract common.Address) (RunProcessor, error)

// Keeper builds batch processors that share one signer and monitor. The
// worker runs with concurrency 1, so the signer's nonce sequence is never
// used by two runs at once. Each processor resyncs the nonce from the node
// before it starts, so a dropped transaction cannot leave a gap for later runs.
type Keeper struct {
	backend contracts.Backend
	signer  contracts.TxSigner
	monitor TxMonitor
	cfg     BatchConfig
	opts    []BatchOption
	logger  logrus.FieldLogger
}

func NewKeeper(backend contracts.Backend, signer contracts.TxSigner, monitor TxMonitor, cfg BatchConfig, logger logrus.FieldLogger, opts ...BatchOption) *Keeper {
	return &Keeper{
		backend: backend,
		signer:  signer,
		monitor: monitor,
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
	}
}

func (k *Keeper) NewProcessor(contract common.Address) (RunProcessor, error) {
	pc, err := contracts.NewPayroll(contract, k.backend, k.signer)
	if err != nil {
		return nil, fmt.Errorf("failed to bind payroll contract %s: %w", contract.Hex(), err)
	}
	opts := append([]BatchOption{WithNonceReset(k.signer.ResetNonce)}, k.opts...)
	return NewBatchProcessor(pc, k.monitor, k.signer.Address(), k.cfg, k.logger, opts...), nil
}

type WorkerService struct {
	logger       logrus.FieldLogger
	sdClient     statsd.ClientInterface
	validate     *validator.Validate
	newProcessor ProcessorFactory
}

func NewWorker(newProcessor ProcessorFactory, sdClient statsd.ClientInterface, logger logrus.FieldLogger) *WorkerService {
	if sdClient == nil {
		sdClient = &statsd.NoOpClient{}
	}
	return &WorkerService{
		logger:       logger,
		sdClient:     sdClient,
		validate:     validator.New(),
		newProcessor: newProcessor,
	}
}

func (s *WorkerService) incCounter(name string, tags []string) {
	if err := s.sdClient.Count(name, 1, tags, 1); err != nil {
		s.logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (s *WorkerService) measureTime(name string, start time.Time, tags []string) {
	if err := s.sdClient.Timing(name, time.Since(start), tags, 1); err != nil {
		s.logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

func (s *WorkerService) HandlePayrollRun(ctx context.Context, t *asynq.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.measureTime("worker.payroll.run.latency", time.Now(), []string{})

	var event types.PayrollRunEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := s.validate.Struct(event); err != nil {
		return fmt.Errorf("invalid payroll run event: %v: %w", err, asynq.SkipRetry)
	}

	contract := common.HexToAddress(event.ContractAddress)
	tags := []string{"contract:" + strings.ToLower(contract.Hex())}
	s.incCounter("worker.payroll.run", tags)
	s.logger.WithField("contract", contract.Hex()).Info("Starting scheduled payroll run")

	processor, err := s.newProcessor(contract)
	if err != nil {
		s.incCounter("worker.payroll.run.error", tags)
		return fmt.Errorf("failed to create batch processor: %v: %w", err, asynq.SkipRetry)
	}

	run, err := processor.Run(ctx)
	if err != nil {
		s.incCounter("worker.payroll.run.error", tags)
		return fmt.Errorf("payroll run failed: %v: %w", err, asynq.SkipRetry)
	}

	resultBytes, err := json.Marshal(run)
	if err != nil {
		s.logger.Errorf("json.Marshal failed: %v", err)
		return fmt.Errorf("json.Marshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if w := t.ResultWriter(); w != nil {
		if _, err := w.Write(resultBytes); err != nil {
			s.logger.Errorf("t.ResultWriter.Write failed: %v", err)
		}
	}
	return nil
}
