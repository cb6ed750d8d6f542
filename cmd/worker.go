/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hope-foundation/apiserver/config"
	"github.com/hope-foundation/apiserver/internal/app"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/worker"
	"github.com/spf13/cobra"
)

var reconcileSchedule string

// workerCmd runs the queue consumers and the payment reconciler.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs queue consumers and scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Env, cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		w := worker.New(a.Queue, a.Mailer, a.Services.Donations, reconcileSchedule, log)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().StringVar(&reconcileSchedule, "reconcile-schedule", worker.DefaultReconcileSchedule,
		"cron schedule for the payment reconciler")
}
