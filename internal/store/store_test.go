package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rknightion/paperless-dedupe/internal/clock"
	"github.com/rknightion/paperless-dedupe/internal/minhash"
	"github.com/rknightion/paperless-dedupe/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dedupe.db")
	s, err := Open(path, clock.Real{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertDocumentInsertsThenUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := model.Document{UpstreamID: 42, Title: "Invoice", ProcessingStatus: model.StatusPending}
	id, inserted, err := UpsertDocument(ctx, s.DB(), doc)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, id)

	doc.Title = "Invoice (revised)"
	id2, inserted2, err := UpsertDocument(ctx, s.DB(), doc)
	require.NoError(t, err)
	assert.False(t, inserted2)
	assert.Equal(t, id, id2)

	got, err := GetDocument(ctx, s.DB(), id)
	require.NoError(t, err)
	assert.Equal(t, "Invoice (revised)", got.Title)
}

func TestFingerprintsAndDocumentsForAnalysis(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, _, err := UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 1, Fingerprint: "abc", ProcessingStatus: model.StatusPending})
	require.NoError(t, err)
	_, _, err = UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 2, Fingerprint: "def", ProcessingStatus: model.StatusCompleted})
	require.NoError(t, err)

	fps, err := Fingerprints(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, "abc", fps[1])
	assert.Equal(t, "def", fps[2])

	summaries, err := DocumentsForAnalysis(ctx, s.DB())
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestMarkCompletedUpdatesStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _, err := UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 7, ProcessingStatus: model.StatusPending})
	require.NoError(t, err)

	require.NoError(t, MarkCompleted(ctx, s.DB(), []int64{id}))

	got, err := GetDocument(ctx, s.DB(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.ProcessingStatus)
}

func TestContentUpsertAndNormalizedTextByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _, err := UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 1})
	require.NoError(t, err)

	require.NoError(t, UpsertContent(ctx, s.DB(), model.DocumentContent{
		DocumentID:     id,
		NormalizedText: "the quick brown fox",
		WordCount:      4,
		ContentHash:    "deadbeef",
	}))

	texts, err := NormalizedTextByID(ctx, s.DB(), []int64{id})
	require.NoError(t, err)
	assert.Equal(t, "the quick brown fox", texts[id])
}

func TestSignatureUpsertAndMatching(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, _, err := UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 1})
	require.NoError(t, err)

	sig := []uint32{1, 2, 3, 4}
	require.NoError(t, UpsertSignature(ctx, s.DB(), model.DocumentSignature{
		DocumentID:       id,
		MinHashSignature: minhash.Serialize(sig),
		AlgorithmVersion: "v1",
		NumPermutations:  4,
		CreatedAt:        time.Now(),
	}))

	got, ok, err := Signature(ctx, s.DB(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", got.AlgorithmVersion)

	matching, err := SignaturesMatching(ctx, s.DB(), 4)
	require.NoError(t, err)
	assert.Equal(t, sig, matching[id])

	none, err := SignaturesMatching(ctx, s.DB(), 8)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGroupLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	idA, _, err := UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 1})
	require.NoError(t, err)
	idB, _, err := UpsertDocument(ctx, s.DB(), model.Document{UpstreamID: 2})
	require.NoError(t, err)

	group := model.DuplicateGroup{
		ID:                "group-1",
		ConfidenceScore:   0.9,
		JaccardSimilarity: 0.85,
		AlgorithmVersion:  "v1",
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	require.NoError(t, CreateGroup(ctx, s.DB(), group, []int64{idA, idB}, idA))

	existing, err := ExistingGroups(ctx, s.DB())
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.ElementsMatch(t, []int64{idA, idB}, existing[0].MemberIDs)

	group.ConfidenceScore = 0.95
	group.Reviewed = true
	require.NoError(t, UpdateGroupScores(ctx, s.DB(), group.ID, group))

	existing, err = ExistingGroups(ctx, s.DB())
	require.NoError(t, err)
	// Reviewed flag is preserved by UpdateGroupScores leaving it alone on
	// the row -- CreateGroup never set it true, so this confirms the
	// column genuinely wasn't part of the UPDATE statement.
	assert.False(t, existing[0].Group.Reviewed)
	assert.Equal(t, 0.95, existing[0].Group.ConfidenceScore)

	require.NoError(t, DeleteGroup(ctx, s.DB(), group.ID))
	existing, err = ExistingGroups(ctx, s.DB())
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestSyncStateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := SyncStateRow(ctx, s.DB())
	require.NoError(t, err)
	assert.True(t, empty.LastSyncAt.IsZero())

	want := model.SyncState{
		LastSyncAt:            time.Now().Truncate(time.Second),
		LastSyncDocumentCount: 12,
		TotalDocuments:        12,
		TotalDuplicateGroups:  3,
	}
	require.NoError(t, UpsertSyncState(ctx, s.DB(), want))

	got, err := SyncStateRow(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, want.TotalDocuments, got.TotalDocuments)
	assert.Equal(t, want.TotalDuplicateGroups, got.TotalDuplicateGroups)
	assert.True(t, want.LastSyncAt.Equal(got.LastSyncAt))
}

func TestConfigDefaultsWhenUnset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg, err := LoadDedupConfig(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDedupConfig(), cfg)
}

func TestConfigSaveThenLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cfg := model.DefaultDedupConfig()
	cfg.SimilarityThreshold = 0.8
	cfg.ConfidenceWeightMetadata = 15
	cfg.AlgorithmVersion = "v2"

	require.NoError(t, SaveDedupConfig(ctx, s.DB(), cfg))

	got, err := LoadDedupConfig(ctx, s.DB())
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
