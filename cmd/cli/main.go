package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host  string
	token string
)

var rootCmd = &cobra.Command{
	Use:   "rivalry-cli",
	Short: "A CLI to interact with the rivalry server",
	Long: `A command-line interface for challenging teams, negotiating match
proposals and following a match chat on the rivalry server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("RIVALRY_TOKEN"), "Bearer token of the acting user")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
