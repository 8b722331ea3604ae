package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverURL is the base URL of the orchestrator service.
var serverURL string

// documentServerURL is the base URL of the document service.
var documentServerURL string

var rootCmd = &cobra.Command{
	Use:   "leximind-cli",
	Short: "A CLI client to interact with the LexiMind services",
	Long:  `A command-line interface for submitting analysis tasks to the orchestrator and uploading documents to the document service.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8081", "base URL of the orchestrator service")
	rootCmd.PersistentFlags().StringVar(&documentServerURL, "document-server", "http://localhost:8082", "base URL of the document service")
}
