package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "supportmesh",
	Short: "Supportmesh is a multi-team customer-support assistant",
	Long: `Supportmesh runs a routing supervisor in front of specialist teams for
orders, refunds and payments, and human escalation, exposed as an HTTP API
with blocking and streaming chat endpoints.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the YAML config file")
}
