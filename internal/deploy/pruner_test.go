package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/deployment-cleaner/internal/storage"
)

type deleteCall struct {
	bucket string
	keys   []string
}

type fakeStore struct {
	objects   []storage.Object
	listErr   error
	deleteErr map[string]error
	prefixes  []string
	deletes   []deleteCall
}

func (f *fakeStore) ListAllObjects(ctx context.Context, bucket, prefix string) ([]storage.Object, error) {
	f.prefixes = append(f.prefixes, prefix)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

func (f *fakeStore) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	f.deletes = append(f.deletes, deleteCall{bucket: bucket, keys: keys})
	if len(keys) > 0 {
		if err, ok := f.deleteErr[DeploymentID(keys[0])]; ok {
			return err
		}
	}
	return nil
}

func scenarioA() *fakeStore {
	return &fakeStore{objects: []storage.Object{
		{Key: "v1/a.txt", LastModified: date(2021, 1, 1, 0, 0, 0), Size: 3},
		{Key: "v2/a.txt", LastModified: date(2022, 1, 1, 0, 0, 0), Size: 5},
		{Key: "v1/b.txt", LastModified: date(2021, 1, 2, 0, 0, 0), Size: 4},
	}}
}

func TestListDeployments(t *testing.T) {
	store := scenarioA()
	p := NewPruner(store, zerolog.Nop())

	records, err := p.ListDeployments(context.Background(), "deployments")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "v1", records[0].DeploymentID)
	assert.Equal(t, "v2", records[1].DeploymentID)
	assert.Equal(t, "v1/b.txt", records[2].Key)
	assert.Equal(t, int64(4), records[2].Size)
	assert.Equal(t, []string{""}, store.prefixes)
}

func TestListDeployments_Empty(t *testing.T) {
	p := NewPruner(&fakeStore{}, zerolog.Nop())

	records, err := p.ListDeployments(context.Background(), "deployments")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListDeployments_Prefix(t *testing.T) {
	store := &fakeStore{objects: []storage.Object{
		{Key: "sites/", LastModified: date(2020, 1, 1, 0, 0, 0)},
		{Key: "sites/v1/index.html", LastModified: date(2021, 1, 1, 0, 0, 0)},
		{Key: "sites/v2/index.html", LastModified: date(2022, 1, 1, 0, 0, 0)},
	}}
	p := NewPruner(store, zerolog.Nop(), WithPrefix("sites"))

	records, err := p.ListDeployments(context.Background(), "deployments")
	require.NoError(t, err)
	assert.Equal(t, []string{"sites/"}, store.prefixes)
	require.Len(t, records, 2)
	assert.Equal(t, "v1", records[0].DeploymentID)
	assert.Equal(t, "sites/v1/index.html", records[0].Key)
	assert.Equal(t, "v2", records[1].DeploymentID)
}

func TestListDeployments_Error(t *testing.T) {
	cause := errors.New("no such bucket")
	p := NewPruner(&fakeStore{listErr: cause}, zerolog.Nop())

	_, err := p.ListDeployments(context.Background(), "missing")
	require.Error(t, err)

	var le *ListError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "missing", le.Bucket)
	assert.ErrorIs(t, err, cause)
}

func TestRun_ScenarioA(t *testing.T) {
	store := scenarioA()
	p := NewPruner(store, zerolog.Nop())

	report, err := p.Run(context.Background(), "deployments", 1, false)
	require.NoError(t, err)

	require.Len(t, store.deletes, 1)
	assert.Equal(t, "deployments", store.deletes[0].bucket)
	assert.ElementsMatch(t, []string{"v1/a.txt", "v1/b.txt"}, store.deletes[0].keys)

	require.Len(t, report.Kept, 1)
	assert.Equal(t, "v2", report.Kept[0].DeploymentID)
	require.Len(t, report.Deployments, 1)
	res := report.Deployments[0]
	assert.Equal(t, "v1", res.Summary.DeploymentID)
	assert.Equal(t, date(2021, 1, 1, 0, 0, 0), res.Summary.RepresentativeTime)
	assert.True(t, res.Deleted)
	assert.Equal(t, int64(7), res.Size)
	assert.NoError(t, res.Err)
}

func TestRun_ScenarioB_KeepAll(t *testing.T) {
	store := &fakeStore{objects: []storage.Object{
		{Key: "a/1", LastModified: date(2021, 1, 1, 0, 0, 0)},
		{Key: "b/1", LastModified: date(2022, 1, 1, 0, 0, 0)},
		{Key: "c/1", LastModified: date(2023, 1, 1, 0, 0, 0)},
	}}
	p := NewPruner(store, zerolog.Nop())

	report, err := p.Run(context.Background(), "deployments", 3, false)
	assert.Nil(t, report)
	require.ErrorIs(t, err, ErrInvalidRetentionCount)
	assert.Empty(t, store.deletes)
}

func TestRun_ScenarioC_EmptyBucket(t *testing.T) {
	store := &fakeStore{}
	p := NewPruner(store, zerolog.Nop())

	_, err := p.Run(context.Background(), "deployments", 0, false)
	require.ErrorIs(t, err, ErrInvalidRetentionCount)

	var rc *InvalidRetentionCountError
	require.True(t, errors.As(err, &rc))
	assert.Equal(t, 0, rc.Found)
	assert.Empty(t, store.deletes)
}

func TestRun_ScenarioD_DryRun(t *testing.T) {
	store := &fakeStore{objects: []storage.Object{
		{Key: "old/a", LastModified: date(2020, 1, 1, 0, 0, 0)},
		{Key: "old/b", LastModified: date(2020, 1, 2, 0, 0, 0)},
		{Key: "mid/a", LastModified: date(2021, 1, 1, 0, 0, 0)},
		{Key: "new/a", LastModified: date(2022, 1, 1, 0, 0, 0)},
	}}
	var buf bytes.Buffer
	p := NewPruner(store, zerolog.New(&buf))

	report, err := p.Run(context.Background(), "deployments", 1, true)
	require.NoError(t, err)
	assert.Empty(t, store.deletes, "dry run must not delete")

	assert.True(t, report.DryRun)
	require.Len(t, report.Deployments, 2)
	assert.Equal(t, "mid", report.Deployments[0].Summary.DeploymentID)
	assert.Equal(t, []string{"mid/a"}, report.Deployments[0].Keys)
	assert.Equal(t, "old", report.Deployments[1].Summary.DeploymentID)
	assert.ElementsMatch(t, []string{"old/a", "old/b"}, report.Deployments[1].Keys)
	for _, d := range report.Deployments {
		assert.False(t, d.Deleted)
		assert.NoError(t, d.Err)
	}

	assert.Contains(t, buf.String(), "dry run")
	assert.Contains(t, buf.String(), `"deployment":"old"`)
}

func TestRun_NegativeKeep(t *testing.T) {
	store := scenarioA()
	p := NewPruner(store, zerolog.Nop())

	_, err := p.Run(context.Background(), "deployments", -1, false)
	require.ErrorIs(t, err, ErrNegativeRetentionCount)
	assert.Empty(t, store.prefixes, "nothing is listed for a negative count")
}

func TestRun_ListError(t *testing.T) {
	p := NewPruner(&fakeStore{listErr: errors.New("access denied")}, zerolog.Nop())

	_, err := p.Run(context.Background(), "deployments", 1, false)
	var le *ListError
	require.True(t, errors.As(err, &le))
}

func TestPrune_ContinuesAfterDeleteError(t *testing.T) {
	store := &fakeStore{
		objects: []storage.Object{
			{Key: "d4/a", LastModified: date(2024, 1, 1, 0, 0, 0)},
			{Key: "d3/a", LastModified: date(2023, 1, 1, 0, 0, 0)},
			{Key: "d2/a", LastModified: date(2022, 1, 1, 0, 0, 0)},
			{Key: "d1/a", LastModified: date(2021, 1, 1, 0, 0, 0)},
		},
		deleteErr: map[string]error{
			"d3": errors.New("throttled"),
			"d2": &storage.PartialDeleteError{Requested: 1, Failed: []storage.KeyError{{Key: "d2/a", Code: "AccessDenied"}}},
		},
	}
	var buf bytes.Buffer
	p := NewPruner(store, zerolog.New(&buf))

	report, err := p.Run(context.Background(), "deployments", 1, false)
	require.Error(t, err)
	require.NotNil(t, report)

	require.Len(t, store.deletes, 3, "every selected deployment is attempted")
	assert.Equal(t, 2, report.Failed())

	var de *DeleteError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "d3", de.Deployment)

	var pe *storage.PartialDeleteError
	require.True(t, errors.As(report.Deployments[1].Err, &pe))
	assert.False(t, report.Deployments[1].Deleted)
	assert.True(t, report.Deployments[2].Deleted)

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "throttled")
}

func TestPrune_OneCallPerDeployment(t *testing.T) {
	var records []ObjectRecord
	var toDelete []DeploymentSummary
	for d := 0; d < 3; d++ {
		id := fmt.Sprintf("release-%d", d)
		toDelete = append(toDelete, DeploymentSummary{DeploymentID: id})
		for i := 0; i < 5; i++ {
			records = append(records, record(fmt.Sprintf("%s/file-%d", id, i), date(2020, 1, 1, 0, 0, 0)))
		}
	}
	records = append(records, record("keep/file", date(2025, 1, 1, 0, 0, 0)))

	store := &fakeStore{}
	p := NewPruner(store, zerolog.Nop())
	report := p.Prune(context.Background(), "deployments", records, toDelete, false)

	require.NoError(t, report.Err())
	require.Len(t, store.deletes, 3)
	for i, call := range store.deletes {
		assert.Len(t, call.keys, 5)
		for _, k := range call.keys {
			assert.Equal(t, toDelete[i].DeploymentID, DeploymentID(k))
		}
	}
}
