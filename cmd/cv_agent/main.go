// Package main provides the entry point for the CV tailoring agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cv_agent",
	Short: "CV tailoring pipeline",
	Long:  "cv_agent parses a raw CV, analyzes a job advertisement, collects gap answers, and produces a job-tailored resume with a rendering payload.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
