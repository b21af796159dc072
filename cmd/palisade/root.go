package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "palisade",
	Short: "Palisade - API gateway for content moderation",
	Long: `Palisade fronts a content moderation backend with API key
authentication, per-key rate limiting, and an append-only request log.

It provides:
  - API key issuance, verification, and revocation
  - Fixed-window rate limiting per key
  - Text, image, and conversation moderation endpoints
  - Queryable request logs with scheduled retention pruning`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
