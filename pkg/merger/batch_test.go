package merger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passkeyradar/radar/pkg/combiner"
	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
	"github.com/passkeyradar/radar/pkg/snapshot"
)

func TestMergeAll_WritesOutputs(t *testing.T) {
	store := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, store.WriteArtifact(constants.CombinedDir, testID, richFixture().artifact))

	broken := newFixture().dir("passkeys.directory", `{"domain":"a.com","passkey_signin":true}`)
	brokenID := snapshot.ID("2024-03-02-12-00-00")
	require.NoError(t, store.WriteArtifact(constants.CombinedDir, brokenID, broken.artifact))

	pending, err := Unmerged(store)
	require.NoError(t, err)
	assert.Equal(t, []snapshot.ID{testID, brokenID}, pending)

	results, err := newTestMerger(t).MergeAll(context.Background(), store, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, testID, results[0].ID)
	assert.Equal(t, combiner.StatusSuccess, results[0].Status)
	assert.Equal(t, 5, results[0].Entities)
	assert.Equal(t, 1, results[0].Conflicts)

	assert.Equal(t, brokenID, results[1].ID)
	assert.Equal(t, combiner.StatusPartial, results[1].Status)
	assert.Equal(t, []string{"passkeys.directory"}, results[1].Skipped)
	assert.Contains(t, results[1].Error, "missing required field")

	var entities []Entity
	require.NoError(t, store.ReadArtifact(constants.MergedDir, testID, &entities))
	require.Len(t, entities, 5)
	assert.Equal(t, "Example", *entities[0].Name)

	var conflicts []Conflict
	require.NoError(t, store.ReadArtifact(constants.ConflictsDir, testID, &conflicts))
	require.Len(t, conflicts, 1)
	assert.Equal(t, "mfa mismatch", conflicts[0].Reason)

	var empty []Entity
	require.NoError(t, store.ReadArtifact(constants.MergedDir, brokenID, &empty))
	assert.Empty(t, empty)

	pending, err = Unmerged(store)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMergeAll_ExplicitIDs(t *testing.T) {
	store := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, store.WriteArtifact(constants.CombinedDir, testID, richFixture().artifact))

	missing := snapshot.ID("2023-01-01-00-00-00")
	results, err := newTestMerger(t).MergeAll(context.Background(), store, 1, missing, testID)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, missing, results[0].ID)
	assert.Equal(t, combiner.StatusError, results[0].Status)
	assert.Equal(t, combiner.StatusSuccess, results[1].Status)
	assert.True(t, store.HasArtifact(constants.MergedDir, testID))
	assert.False(t, store.HasArtifact(constants.MergedDir, missing))
}

func TestLoadCombined(t *testing.T) {
	store := snapshot.NewFileStore(t.TempDir())
	_, err := LoadCombined(store, testID)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, store.WriteArtifact(constants.CombinedDir, testID, richFixture().artifact))
	artifact, err := LoadCombined(store, testID)
	require.NoError(t, err)
	assert.Equal(t, testID, artifact.ID)
	assert.Len(t, artifact.Records(constants.CategoryWellknown, "endpoints"), 1)
}

func TestMergeAll_NilStore(t *testing.T) {
	_, err := newTestMerger(t).MergeAll(context.Background(), nil, 1)
	assert.True(t, errors.IsValidationError(err))
}
