//go:build integration

package outbox_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askcampus/askcampus/internal/log"
	"github.com/askcampus/askcampus/internal/outbox"
	"github.com/askcampus/askcampus/internal/storage"
	"github.com/askcampus/askcampus/internal/testutil"
	"github.com/askcampus/askcampus/internal/vecindex"
)

// insertChunk writes one chunk row with a zero vector, bypassing the
// embedder; the relay path under test never embeds.
func insertChunk(t *testing.T, db *testutil.TestDBContainer, materialID, classID int32, text string) {
	t.Helper()
	vec := pgvector.NewVector(make([]float32, 768))
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO material_chunks (id, material_id, class_id, name, file_name, content, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), materialID, classID, "Doc", "doc.txt", text, &vec)
	require.NoError(t, err)
}

func chunkCount(t *testing.T, db *testutil.TestDBContainer, materialID int32) int {
	t.Helper()
	var count int
	require.NoError(t, db.Pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM material_chunks WHERE material_id = $1`, materialID).Scan(&count))
	return count
}

func TestRelay_DrainsDeletionBacklog_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := storage.New(db.Pool, log.NewNop())
	index := vecindex.New(db.Pool, nil, log.NewNop())

	c, err := store.CreateClass(ctx, "Databases")
	require.NoError(t, err)
	m, err := store.InsertMaterial(ctx, c.ID, "Lecture 3")
	require.NoError(t, err)
	insertChunk(t, db, m.ID, c.ID, "transactions and isolation levels")
	insertChunk(t, db, m.ID, c.ID, "write-ahead logging")

	// Commit the deletion; chunks survive until the relay runs.
	require.NoError(t, store.DeleteMaterial(ctx, m.ID, true))
	assert.Equal(t, 2, chunkCount(t, db, m.ID))

	relay := outbox.NewRelay(store, index, log.NewNop())
	relay.Tick(ctx)

	assert.Zero(t, chunkCount(t, db, m.ID))
	events, err := store.ListUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	// A second tick finds nothing to do.
	relay.Tick(ctx)
	assert.Zero(t, chunkCount(t, db, m.ID))
}

func TestRelay_LeavesOtherMaterialsAlone_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := storage.New(db.Pool, log.NewNop())
	index := vecindex.New(db.Pool, nil, log.NewNop())

	c, err := store.CreateClass(ctx, "Compilers")
	require.NoError(t, err)
	doomed, err := store.InsertMaterial(ctx, c.ID, "Old Notes")
	require.NoError(t, err)
	kept, err := store.InsertMaterial(ctx, c.ID, "Current Notes")
	require.NoError(t, err)
	insertChunk(t, db, doomed.ID, c.ID, "obsolete content")
	insertChunk(t, db, kept.ID, c.ID, "current content")

	require.NoError(t, store.DeleteMaterial(ctx, doomed.ID, true))
	outbox.NewRelay(store, index, log.NewNop()).Tick(ctx)

	assert.Zero(t, chunkCount(t, db, doomed.ID))
	assert.Equal(t, 1, chunkCount(t, db, kept.ID))
}
