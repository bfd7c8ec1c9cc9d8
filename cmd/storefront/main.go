package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"storefront-service/internal/config"
)

var Version = "dev"

var (
	envFile string
	cfg     config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront backend for revision resources sold through Stripe",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(envFile)
			if err != nil {
				return err
			}
			setupSlog(cfg.SlogLevel())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.String("ERROR", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupSlog(level slog.Level) {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
	slog.SetDefault(slog.New(logHandler))
}
