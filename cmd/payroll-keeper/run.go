package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Pay every due employee of the payroll contract once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPayroll(ctx, a)
	},
}

func runPayroll(ctx context.Context, a *app) error {
	if contractFlag != "" {
		addr, err := parseAddress("contract", contractFlag)
		if err != nil {
			return err
		}
		a.cfg.PayrollContract = addr
	}
	if err := a.cfg.ValidateForRun(); err != nil {
		return err
	}

	a.logger.WithFields(logrus.Fields{
		"rpc_url":  a.cfg.RPCURL,
		"contract": a.cfg.PayrollContract.Hex(),
	}).Info("Starting payment automation")

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

	keeper := service.NewKeeper(s.client, s.signer, s.monitor, a.batchConfig(), a.logger, deps.opts...)
	processor, err := keeper.NewProcessor(a.cfg.PayrollContract)
	if err != nil {
		return err
	}

	run, err := processor.Run(ctx)
	if err != nil {
		return err
	}

	if outputJSON {
		return a.print(run)
	}
	fmt.Fprintln(a.out, "=== Payment Run Complete ===")
	fmt.Fprintf(a.out, "Successful: %d\n", run.Succeeded)
	fmt.Fprintf(a.out, "Failed: %d\n", run.Failed)
	fmt.Fprintf(a.out, "Not Due: %d\n", run.NotDue)
	fmt.Fprintf(a.out, "Skipped: %d\n", run.Skipped)
	return nil
}

