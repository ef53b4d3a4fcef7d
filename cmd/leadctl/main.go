package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Inspect leads captured by the intake service",
	Long: `leadctl reads the lead store the intake service writes to.

It uses the same environment as the service (LEAD_STORE, LEAD_STORE_URL,
DATABASE_URL, STORE_TIMEOUT) and an optional .env file.

Examples:
  leadctl list
  leadctl list --temperature warm --min-score 50
  leadctl list -o yaml
  leadctl schema`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
}
