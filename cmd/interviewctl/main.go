package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interviewctl",
	Short: "Operate the mock interview backend",
	Long: `interviewctl runs the HTTP API, applies database migrations and
extracts structured resumes from local documents.

Configuration is read from the environment and .env files, the same way the
API server reads it.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
