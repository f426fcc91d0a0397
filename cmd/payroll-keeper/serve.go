package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/decipherlabs/payroll-keeper/api"
	"github.com/decipherlabs/payroll-keeper/config"
	"github.com/decipherlabs/payroll-keeper/internal/scheduler"
	"github.com/decipherlabs/payroll-keeper/internal/tasks"
	"github.com/decipherlabs/payroll-keeper/service"
	"github.com/decipherlabs/payroll-keeper/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run payroll on a cron schedule with a status API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, a)
	},
}

func serve(ctx context.Context, a *app) error {
	if a.cfg.PrivateKey == "" {
		return config.ErrPrivateKeyNotSet
	}
	if contractFlag != "" {
		addr, err := parseAddress("contract", contractFlag)
		if err != nil {
			return err
		}
		a.cfg.PayrollContract = addr
	}
	contracts := a.cfg.ScheduledContracts()
	if len(contracts) == 0 {
		return config.ErrPayrollAddressNotSet
	}
	if a.cfg.RedisAddr() == "" {
		return errors.New("redis.host is required for serve mode")
	}

	s, err := a.connect(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	deps, err := a.batchDeps(ctx)
	defer deps.Close()
	if err != nil {
		return err
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     a.cfg.RedisAddr(),
		Username: a.cfg.Redis.User,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	var ledger storage.RunRepository
	if deps.db != nil {
		ledger = deps.db
	}
	sched, err := scheduler.NewSchedulerService(scheduler.Config{
		CronExpression: a.cfg.Scheduler.Cron,
		PollInterval:   a.cfg.Scheduler.PollInterval,
		RunTimeout:     a.cfg.Scheduler.RunTimeout,
	}, contracts, queueClient, ledger, a.logger.WithField("service", "scheduler"))
	if err != nil {
		return err
	}

	keeper := service.NewKeeper(s.client, s.signer, s.monitor, a.batchConfig(), a.logger.WithField("service", "batch"), deps.opts...)
	worker := service.NewWorker(keeper.NewProcessor, deps.sdClient, a.logger.WithField("service", "worker"))

	// one run at a time: runs share the signer's nonce sequence
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{tasks.QUEUE_NAME: 1},
		Logger:      a.logger,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePayrollRun, worker.HandlePayrollRun)
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	defer srv.Shutdown()

	sched.Start()
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if deps.db != nil {
		runs, err := service.NewRunService(deps.db, queueClient, a.cfg.Scheduler.RunTimeout, a.logger.WithField("service", "runs"))
		if err != nil {
			return err
		}
		var auth api.TokenValidator
		if a.cfg.JWTSecret != "" {
			authService, err := service.NewAuthService(a.cfg.JWTSecret, time.Hour)
			if err != nil {
				return err
			}
			auth = authService
		} else {
			a.logger.Warn("jwt_secret is not set, write endpoints are disabled")
		}
		server := api.NewServer(a.cfg.Server.Host, a.cfg.Server.Port, runs, auth, deps.sdClient, a.logger.WithField("service", "api"))
		g.Go(func() error {
			if err := server.StartServer(); err != nil {
				return fmt.Errorf("api server stopped: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.WithError(err).Error("Failed to shut down API server")
			}
			return nil
		})
	} else {
		a.logger.Warn("database.dsn is not set, run ledger and API are disabled")
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	}

	a.logger.WithField("contracts", len(contracts)).Info("Payroll keeper started")
	err = g.Wait()
	a.logger.Info("Shutting down")
	return err
}
