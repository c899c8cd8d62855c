// Package deploy selects the deployments in a bucket that fall outside the
// retention count and deletes their objects.
//
// A deployment is every object sharing the first path segment of its key
// (after an optional listing prefix).
package deploy

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"tasnim.dev/deployment-cleaner/internal/storage"
)

type Pruner struct {
	store  storage.Storage
	log    zerolog.Logger
	prefix string
}

type Option func(*Pruner)

// WithPrefix restricts the listing to keys under prefix. Deployment IDs are
// taken from the key with the prefix removed. A trailing slash is added
// when missing.
func WithPrefix(prefix string) Option {
	return func(p *Pruner) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		p.prefix = prefix
	}
}

func NewPruner(store storage.Storage, log zerolog.Logger, opts ...Option) *Pruner {
	p := &Pruner{store: store, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ListDeployments lists every object in bucket and tags it with its
// deployment ID. An empty bucket yields no records and no error.
func (p *Pruner) ListDeployments(ctx context.Context, bucket string) ([]ObjectRecord, error) {
	objects, err := p.store.ListAllObjects(ctx, bucket, p.prefix)
	if err != nil {
		return nil, &ListError{Bucket: bucket, Err: err}
	}

	records := make([]ObjectRecord, 0, len(objects))
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, p.prefix)
		if p.prefix != "" && rel == "" {
			p.log.Debug().Str("key", obj.Key).Msg("Skipping prefix marker object")
			continue
		}
		records = append(records, ObjectRecord{
			Key:          obj.Key,
			LastModified: obj.LastModified,
			Size:         obj.Size,
			DeploymentID: DeploymentID(rel),
		})
	}

	p.log.Info().
		Str("bucket", bucket).
		Str("prefix", p.prefix).
		Int("objects", len(records)).
		Msg("Listed objects")
	return records, nil
}

// Prune deletes the objects of every deployment in toDelete, issuing one
// delete call per deployment with its full key set taken from records.
//
// A failed delete call is recorded on that deployment's result and the
// remaining deployments are still processed. With dryRun set nothing is
// deleted and the report lists the keys that would have been.
func (p *Pruner) Prune(ctx context.Context, bucket string, records []ObjectRecord, toDelete []DeploymentSummary, dryRun bool) *PruneReport {
	byID := make(map[string][]ObjectRecord)
	for _, r := range records {
		byID[r.DeploymentID] = append(byID[r.DeploymentID], r)
	}

	report := &PruneReport{Bucket: bucket, DryRun: dryRun}
	if dryRun {
		p.log.Info().Msg("Running as a dry run, these are the deployments that would be deleted")
	}

	for _, d := range toDelete {
		objs := byID[d.DeploymentID]
		res := DeploymentResult{Summary: d, Keys: make([]string, 0, len(objs))}
		for _, o := range objs {
			res.Keys = append(res.Keys, o.Key)
			res.Size += o.Size
		}

		log := p.log.With().
			Str("deployment", d.DeploymentID).
			Int("objects", len(res.Keys)).
			Logger()

		if dryRun {
			log.Info().Msg("Would delete deployment")
			report.Deployments = append(report.Deployments, res)
			continue
		}

		log.Info().Msg("Deleting deployment")
		if err := p.store.DeleteObjects(ctx, bucket, res.Keys); err != nil {
			res.Err = &DeleteError{Deployment: d.DeploymentID, Keys: len(res.Keys), Err: err}
			log.Error().Err(err).Msg("Failed to delete deployment")
		} else {
			res.Deleted = true
		}
		report.Deployments = append(report.Deployments, res)
	}

	return report
}

// Run lists bucket, keeps the keep most recent deployments and prunes the
// rest. The returned error joins any per-deployment delete failures; the
// report is still returned in that case.
func (p *Pruner) Run(ctx context.Context, bucket string, keep int, dryRun bool) (*PruneReport, error) {
	if keep < 0 {
		return nil, ErrNegativeRetentionCount
	}

	records, err := p.ListDeployments(ctx, bucket)
	if err != nil {
		return nil, err
	}

	summaries := Summarize(records)
	p.log.Info().Int("deployments", len(summaries)).Int("keep", keep).Msg("Found deployments")

	toDelete, err := SelectForDeletion(summaries, keep)
	if err != nil {
		return nil, err
	}

	report := p.Prune(ctx, bucket, records, toDelete, dryRun)
	report.Kept = summaries[:keep]
	return report, report.Err()
}
