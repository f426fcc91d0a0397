package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/config"
	"github.com/decipherlabs/payroll-keeper/internal/chain"
	"github.com/decipherlabs/payroll-keeper/internal/chains"
	"github.com/decipherlabs/payroll-keeper/internal/metrics"
	"github.com/decipherlabs/payroll-keeper/pkg/contracts"
	"github.com/decipherlabs/payroll-keeper/service"
	"github.com/decipherlabs/payroll-keeper/storage"
	"github.com/decipherlabs/payroll-keeper/storage/postgres"
	redisstore "github.com/decipherlabs/payroll-keeper/storage/redis"
)

type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	out    io.Writer
}

func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.GetConfigure()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// payrollAddress resolves --contract, falling back to PAYROLL_CONTRACT_ADDRESS.
func (a *app) payrollAddress() (common.Address, error) {
	if contractFlag != "" {
		return parseAddress("contract", contractFlag)
	}
	if a.cfg.PayrollContract == (common.Address{}) {
		return common.Address{}, config.ErrPayrollAddressNotSet
	}
	return a.cfg.PayrollContract, nil
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, value)
	}
	return common.HexToAddress(value), nil
}

type session struct {
	app     *app
	client  *ethclient.Client
	chainID *big.Int
	signer  *chain.Signer
	monitor *chain.Monitor
}

// connect dials the RPC endpoint. With withSigner the private key must be
// configured; it is checked before any network access.
func (a *app) connect(ctx context.Context, withSigner bool) (*session, error) {
	var s session
	s.app = a

	if withSigner && a.cfg.PrivateKey == "" {
		return nil, config.ErrPrivateKeyNotSet
	}

	client, chainID, err := chain.Dial(ctx, a.cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	if a.cfg.ChainID > 0 && chainID.Int64() != a.cfg.ChainID {
		client.Close()
		return nil, fmt.Errorf("rpc endpoint is on chain %s, expected %d", chainID, a.cfg.ChainID)
	}
	s.client = client
	s.chainID = chainID
	if network, ok := chains.Lookup(chainID.Int64()); ok && a.cfg.ExplorerURL == "" {
		a.cfg.ExplorerURL = network.Explorer
	}
	a.logger.WithField("network", chains.Name(chainID.Int64())).Debug("RPC endpoint reachable")
	s.monitor = chain.NewMonitor(client, a.cfg.Payment.WaitTimeout, a.logger)

	if withSigner {
		key, err := chain.LoadPrivateKey(a.cfg.PrivateKey)
		if err != nil {
			client.Close()
			return nil, err
		}
		s.signer = chain.NewSigner(key, chainID, client)
		a.logger.WithField("address", s.signer.Address().Hex()).Info("Connected")
	}
	return &s, nil
}

func (s *session) Close() {
	s.client.Close()
}

func (s *session) txSigner() contracts.TxSigner {
	if s.signer == nil {
		return nil
	}
	return s.signer
}

func (s *session) payroll() (*contracts.Payroll, error) {
	addr, err := s.app.payrollAddress()
	if err != nil {
		return nil, err
	}
	return contracts.NewPayroll(addr, s.client, s.txSigner())
}

func (s *session) explorerTx(hash common.Hash) string {
	if url := chains.TxURL(s.app.cfg.ExplorerURL, hash.Hex()); url != "" {
		return url
	}
	return hash.Hex()
}

// confirm waits for tx and turns a failed submission, timeout or revert into
// a readable error.
func (s *session) confirm(ctx context.Context, what string, tx *gtypes.Transaction, submitErr error) (*gtypes.Receipt, error) {
	if submitErr != nil {
		return nil, fmt.Errorf("%s failed: %s", what, chain.FriendlyMessage(submitErr))
	}
	s.app.logger.WithField("tx_hash", tx.Hash().Hex()).Infof("%s transaction sent", what)

	receipt, err := s.monitor.WaitMined(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %s", what, chain.FriendlyMessage(err))
	}
	if receipt.Status != gtypes.ReceiptStatusSuccessful {
		reason := s.monitor.RevertReason(ctx, tx, receipt.BlockNumber)
		if reason == "" {
			reason = "transaction reverted"
		}
		return receipt, fmt.Errorf("%s failed: %s", what, reason)
	}
	fmt.Fprintf(s.app.out, "%s confirmed in block %s: %s\n", what, receipt.BlockNumber, s.explorerTx(tx.Hash()))
	return receipt, nil
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type runDeps struct {
	opts     []service.BatchOption
	db       *postgres.PostgresBackend
	sdClient statsd.ClientInterface
	closers  []func()
}

func (d *runDeps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// batchDeps wires the optional ledger, claim guard, report archive and
// metrics. Close releases whatever was opened, also on error.
func (a *app) batchDeps(ctx context.Context) (*runDeps, error) {
	d := &runDeps{}

	sdClient, err := metrics.NewStatsdClient(a.cfg.Datadog.Host, a.cfg.Datadog.Port)
	if err != nil {
		return d, err
	}
	d.sdClient = sdClient
	d.closers = append(d.closers, func() { _ = sdClient.Close() })
	d.opts = append(d.opts, service.WithStatsd(sdClient))

	if a.cfg.Database.DSN != "" {
		db, err := postgres.NewPostgresBackend(ctx, a.cfg.Database.DSN)
		if err != nil {
			return d, err
		}
		d.db = db
		d.closers = append(d.closers, func() { _ = db.Close() })
		d.opts = append(d.opts, service.WithLedger(db))
	}

	if addr := a.cfg.RedisAddr(); addr != "" {
		client, err := redisstore.NewClient(ctx, addr, a.cfg.Redis.User, a.cfg.Redis.Password, a.cfg.Redis.DB)
		if err != nil {
			return d, err
		}
		d.closers = append(d.closers, func() { _ = client.Close() })
		d.opts = append(d.opts, service.WithClaimStore(redisstore.NewClaimStore(client)))
	}

	if a.cfg.BlockStorage.Bucket != "" {
		bs, err := storage.NewBlockStorage(a.cfg.BlockStorage.Host, a.cfg.BlockStorage.Region, a.cfg.BlockStorage.AccessKey, a.cfg.BlockStorage.SecretKey, a.cfg.BlockStorage.Bucket)
		if err != nil {
			return d, err
		}
		d.opts = append(d.opts, service.WithReportArchive(bs))
	}

	return d, nil
}

func (a *app) batchConfig() service.BatchConfig {
	return service.BatchConfig{
		GasLimit:       a.cfg.Payment.GasLimit,
		Method:         contracts.PaymentMethod(a.cfg.Payment.Method),
		PlatformFeeBps: a.cfg.Payment.PlatformFeeBps,
		ExplorerURL:    a.cfg.ExplorerURL,
		ClaimTTL:       a.cfg.Payment.ClaimTTL,
	}
}
