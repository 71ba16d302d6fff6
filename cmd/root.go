// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/config"
	"firestige.xyz/csumlab/internal/log"
)

var (
	// Global flags
	configFile   string
	outputFormat string

	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "csumlab",
	Short: "csumlab - packet checksum and delta calculator",
	Long: `csumlab builds Ethernet/IPv4/IPv6/UDP/TCP packets from byte strings and
computes their checksums, including the pseudo-header of UDP and TCP.

Unknown bytes are written as "__". Headers containing unknown bytes are
reported as N/A instead of failing the whole packet. In delta mode the
checksum difference and the changed byte ranges between an original and a
modified packet are reported.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return setup() },
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"output format: table or yaml (overrides config)")

	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(checksumCmd)
	rootCmd.AddCommand(deltaCmd)
	rootCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

// setup loads the configuration and initializes logging before any command runs.
func setup() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
		if err := cfg.ValidateAndApplyDefaults(); err != nil {
			return err
		}
	}
	if err := log.Init(&cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	appConfig = cfg
	log.GetLogger().WithField("config", configFile).Debug("configuration loaded")
	return nil
}

// currentConfig returns the loaded configuration, or defaults when a command
// runs without the root pre-run hook.
func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	cfg, err := config.Load("")
	if err != nil {
		log.GetLogger().WithError(err).Warn("falling back to built-in defaults")
		return &config.Config{Output: config.OutputConfig{Format: config.FormatTable}}
	}
	return cfg
}
