package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host    string
	rawJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "tekken-cli",
	Short: "Query a running tekken-tracker server",
	Long: `A command-line interface for the read-only endpoints of the tracker:
players, rank history, report previews and metrics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().BoolVar(&rawJSON, "json", false, "Print the raw JSON response")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
