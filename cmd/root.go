package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oslo-method/nldnorm/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nldnorm",
	Short: "Oslo-method nuclear level density normalization",
	Long:  "Normalizes experimental NLD curves to absolute units against discrete levels and a resonance-spacing anchored extrapolation, with full uncertainty propagation.",
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
