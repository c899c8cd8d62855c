package main

import (
	"os"

	"github.com/spf13/cobra"
	"tasnim.dev/deployment-cleaner/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deployment-cleaner",
		Short: "Retain the N most recent deployments in an S3 bucket and delete the rest",
	}

	rootCmd.AddCommand(cmd.NewCleanCmd())
	rootCmd.AddCommand(cmd.NewListCmd())

	// Commands log their own failures; cobra prints flag and usage errors.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
