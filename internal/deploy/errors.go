package deploy

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRetentionCount  = errors.New("invalid number of deployments to retain")
	ErrNegativeRetentionCount = errors.New("number of deployments to retain must not be negative")
)

// InvalidRetentionCountError is returned when the retention count would
// leave nothing to delete. It matches ErrInvalidRetentionCount.
type InvalidRetentionCountError struct {
	Keep  int
	Found int
}

func (e *InvalidRetentionCountError) Error() string {
	return fmt.Sprintf("%s: asked to keep %d but only %d deployments exist, nothing would be deleted",
		ErrInvalidRetentionCount, e.Keep, e.Found)
}

func (e *InvalidRetentionCountError) Is(target error) bool {
	return target == ErrInvalidRetentionCount
}

// ListError wraps a failed bucket listing.
type ListError struct {
	Bucket string
	Err    error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("listing bucket %q: %v", e.Bucket, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// DeleteError wraps a failed delete call for one deployment.
type DeleteError struct {
	Deployment string
	Keys       int
	Err        error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("deleting deployment %q (%d objects): %v", e.Deployment, e.Keys, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
