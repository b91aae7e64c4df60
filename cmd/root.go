package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/billing-recon/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "billing-recon",
	Short: "Reconcile employee headcounts against pricing contracts",
	Long:  "Joins active-employee counts per company with per-company pricing contracts, computes each company's bill under its contract model, and renders, exports and summarizes the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
