package cmd

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	awss3 "tasnim.dev/deployment-cleaner/internal/aws/s3"
	"tasnim.dev/deployment-cleaner/internal/deploy"
	"tasnim.dev/deployment-cleaner/internal/report"
)

func NewCleanCmd() *cobra.Command {
	var (
		flags  connectionFlags
		keep   int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete all but the N most recent deployments in a bucket",
		Long: `Lists every object in the bucket, groups objects into deployments by the
first segment of their key, dates each deployment by its oldest object, and
deletes every deployment except the N most recent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			log, store, err := flags.open(cmd)
			if err != nil {
				return err
			}

			log.Info().
				Str("bucket", flags.bucket).
				Int("keep", keep).
				Bool("dry_run", dryRun).
				Msg("Starting deployment cleaner")

			pruner := deploy.NewPruner(store, log, deploy.WithPrefix(flags.prefix))
			rep, err := pruner.Run(cmd.Context(), flags.bucket, keep, dryRun)
			if rep != nil {
				if werr := report.WritePrune(cmd.OutOrStdout(), rep); werr != nil {
					log.Warn().Err(werr).Msg("Failed to write report")
				}
			}
			if err != nil {
				logRunError(log, rep, err)
				return err
			}

			log.Info().Msg("Finished")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&keep, "deployments", "n", 0, "Number of deployments to retain, the most recent N are kept")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the deployments that would be deleted without deleting them")
	_ = cmd.MarkFlagRequired("deployments")

	return cmd
}

func logRunError(log zerolog.Logger, rep *deploy.PruneReport, err error) {
	var (
		rc *deploy.InvalidRetentionCountError
		le *deploy.ListError
	)
	switch {
	case errors.As(err, &rc):
		log.Error().Int("keep", rc.Keep).Int("found", rc.Found).Msg(rc.Error())
	case errors.Is(err, deploy.ErrNegativeRetentionCount):
		log.Error().Msg(err.Error())
	case errors.As(err, &le):
		ev := log.Error().Err(le.Err).Str("bucket", le.Bucket)
		if code := awss3.ErrorCode(le.Err); code != "" {
			ev = ev.Str("code", code)
		}
		ev.Msg("Failed to list objects")
	case rep != nil:
		log.Error().Int("failed", rep.Failed()).Int("selected", len(rep.Deployments)).
			Msg("Some deployments could not be deleted")
	default:
		log.Error().Err(err).Msg("Clean failed")
	}
}
