package cmd

import (
	"github.com/spf13/cobra"

	"tasnim.dev/deployment-cleaner/internal/deploy"
	"tasnim.dev/deployment-cleaner/internal/report"
)

func NewListCmd() *cobra.Command {
	var (
		flags connectionFlags
		keep  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the deployments in a bucket, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			log, store, err := flags.open(cmd)
			if err != nil {
				return err
			}

			pruner := deploy.NewPruner(store, log, deploy.WithPrefix(flags.prefix))
			records, err := pruner.ListDeployments(cmd.Context(), flags.bucket)
			if err != nil {
				logRunError(log, nil, err)
				return err
			}

			return report.WriteDeployments(cmd.OutOrStdout(), flags.bucket, deploy.Summarize(records), keep)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&keep, "deployments", "n", -1, "Mark which deployments a clean keeping N would retain")

	return cmd
}
