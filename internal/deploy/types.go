package deploy

import (
	"errors"
	"time"
)

// ObjectRecord is one listed object tagged with the deployment it belongs to.
type ObjectRecord struct {
	Key          string
	LastModified time.Time
	Size         int64
	DeploymentID string
}

// DeploymentSummary describes one deployment. RepresentativeTime is the
// earliest LastModified among its objects, so later edits to files inside
// a deployment do not change its age.
type DeploymentSummary struct {
	DeploymentID       string
	RepresentativeTime time.Time
	Objects            int
	Size               int64
}

// DeploymentResult is the outcome of pruning a single deployment.
type DeploymentResult struct {
	Summary DeploymentSummary
	Keys    []string
	Size    int64
	Deleted bool
	Err     error
}

// PruneReport lists what a run kept and what it deleted, or would delete
// when DryRun is set.
type PruneReport struct {
	Bucket      string
	DryRun      bool
	Kept        []DeploymentSummary
	Deployments []DeploymentResult
}

// Err joins the errors of every deployment that failed to delete.
func (r *PruneReport) Err() error {
	var errs []error
	for _, d := range r.Deployments {
		if d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errors.Join(errs...)
}

// Failed returns the number of deployments whose delete call failed.
func (r *PruneReport) Failed() int {
	n := 0
	for _, d := range r.Deployments {
		if d.Err != nil {
			n++
		}
	}
	return n
}
