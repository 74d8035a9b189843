package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleeteffects/app"
	"github.com/kilianp07/fleeteffects/config"
	"github.com/kilianp07/fleeteffects/infra/logger"
)

var (
	cfgPath   string
	batchPath string
)

var rootCmd = &cobra.Command{
	Use:          "effects",
	Short:        "Fleet policy effects engine",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate every session of a batch and write the effects tables",
	RunE:  run,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the batch settings and load every input table",
	RunE:  check,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "runtime options file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&batchPath, "batch", "b", "", "batch settings file")
	_ = rootCmd.MarkPersistentFlagRequired("batch")
	rootCmd.AddCommand(runCmd, checkCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg, batchPath)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	manifest, err := svc.Run(ctx)
	if manifest != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "manifest: %s\n", manifest)
	}
	return err
}

func check(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()
	loaded, err := svc.Check()
	for _, lt := range loaded {
		fmt.Fprintf(cmd.OutOrStdout(), "%-45s %6d rows  %s\n", lt.Template, lt.Rows, lt.Path)
	}
	return err
}
