// Package cmd holds the sentinel CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"StockSentinel/internal/config"
	"StockSentinel/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "StockSentinel buy/sell signal batch",
	Long: `StockSentinel classifies six technical signals for every ticker of a
universe and saves one row per ticker.

Commands:
    run         analyze the universe once
    schedule    analyze on a cron schedule
    show        print the latest saved run
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(showCmd)
}

func initConfig() error {
	path := cfgFile
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:         c.Log.Level,
		Format:        c.Log.Format,
		FilePath:      c.Log.Dir,
		RotationSize:  c.Log.RotationSize,
		RetentionDays: c.Log.RetentionDays,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg = c
	return nil
}
