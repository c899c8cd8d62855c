package deploy

import (
	"slices"
	"strings"
)

// DeploymentID returns the first path segment of key. Keys without a slash
// are their own deployment.
func DeploymentID(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}

// Summarize groups records by deployment and orders the result newest
// first. Ties are broken by deployment ID so the output is deterministic.
// Input order does not matter.
func Summarize(records []ObjectRecord) []DeploymentSummary {
	byID := make(map[string]*DeploymentSummary)
	for _, r := range records {
		s, ok := byID[r.DeploymentID]
		if !ok {
			s = &DeploymentSummary{
				DeploymentID:       r.DeploymentID,
				RepresentativeTime: r.LastModified,
			}
			byID[r.DeploymentID] = s
		} else if r.LastModified.Before(s.RepresentativeTime) {
			s.RepresentativeTime = r.LastModified
		}
		s.Objects++
		s.Size += r.Size
	}

	summaries := make([]DeploymentSummary, 0, len(byID))
	for _, s := range byID {
		summaries = append(summaries, *s)
	}
	slices.SortFunc(summaries, func(a, b DeploymentSummary) int {
		if c := b.RepresentativeTime.Compare(a.RepresentativeTime); c != 0 {
			return c
		}
		return strings.Compare(a.DeploymentID, b.DeploymentID)
	})
	return summaries
}

// SelectForDeletion drops the keep newest summaries and returns the rest.
// summaries must be ordered newest first, as returned by Summarize.
//
// A keep count that is not smaller than the number of deployments is a
// usage error rather than a no-op.
func SelectForDeletion(summaries []DeploymentSummary, keep int) ([]DeploymentSummary, error) {
	if keep < 0 {
		return nil, ErrNegativeRetentionCount
	}
	if keep >= len(summaries) {
		return nil, &InvalidRetentionCountError{Keep: keep, Found: len(summaries)}
	}
	return slices.Clone(summaries[keep:]), nil
}
