package cmd

import (
	"errors"

	"tasnim.dev/deployment-cleaner/internal/deploy"
)

// Process exit codes.
const (
	ExitOK     = 0
	ExitUsage  = 1
	ExitList   = 2
	ExitDelete = 3
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var (
		le *deploy.ListError
		de *deploy.DeleteError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, deploy.ErrInvalidRetentionCount), errors.Is(err, deploy.ErrNegativeRetentionCount):
		return ExitUsage
	case errors.As(err, &le):
		return ExitList
	case errors.As(err, &de):
		return ExitDelete
	default:
		return ExitUsage
	}
}
