//go:build integration

package ask_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askcampus/askcampus/internal/ask"
	"github.com/askcampus/askcampus/internal/material"
	"github.com/askcampus/askcampus/internal/outbox"
	"github.com/askcampus/askcampus/internal/storage"
	"github.com/askcampus/askcampus/internal/testutil"
	"github.com/askcampus/askcampus/internal/vecindex"
)

// echoGenerator returns the prompt it was given, so tests can assert
// on retrieval and assembly without depending on model output.
type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	return prompt, nil
}

// TestAsk_EndToEnd_Integration exercises the full pipeline: ingest a
// document, ask a question, verify the retrieved context, delete the
// material, run the relay, and verify the answer loses its context.
func TestAsk_EndToEnd_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	setup := testutil.SetupEmbedder(t)

	store := storage.New(db.Pool, setup.Logger)
	index := vecindex.New(db.Pool, setup.Embedder, setup.Logger)
	materials := material.NewService(store, index, material.NewSplitter(40, 5), setup.Logger)
	asker := ask.NewService(index, store, echoGenerator{}, setup.Logger)

	c, err := store.CreateClass(ctx, "Operating Systems")
	require.NoError(t, err)

	syllabus := "Course syllabus. Office hours are held Monday 2-4pm in room 301. " +
		"Grading is 40 percent homework, 60 percent exams. " +
		"The midterm takes place in week seven."
	m, err := materials.Create(ctx, c.ID, []byte(syllabus), "Syllabus", "syllabus.txt")
	require.NoError(t, err)

	ans, err := asker.Ask(ctx, "When are office hours?", c.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "Monday 2-4pm", "retrieved context missing")
	assert.Contains(t, ans.Text, "courseName=Operating Systems", "course context missing")
	assert.Contains(t, ans.Text, fmt.Sprintf("Source [%d | Syllabus]:", m.ID))
	require.NotEmpty(t, ans.Sources)
	assert.Equal(t, m.ID, ans.Sources[0].MaterialID)
	assert.Equal(t, "Syllabus", ans.Sources[0].Name)

	// Deletion becomes visible to retrieval only after the relay runs.
	require.NoError(t, materials.Delete(ctx, m.ID, true))
	outbox.NewRelay(store, index, setup.Logger).Tick(ctx)

	ans, err = asker.Ask(ctx, "When are office hours?", c.ID, 0)
	require.NoError(t, err)
	assert.True(t, strings.Contains(ans.Text, "(none)"),
		"context should be empty after delete and relay, got:\n%s", ans.Text)
	assert.Empty(t, ans.Sources)
}

// TestAsk_ContentReplacement_Integration verifies that replacing a
// material's content swaps its chunks synchronously.
func TestAsk_ContentReplacement_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	setup := testutil.SetupEmbedder(t)

	store := storage.New(db.Pool, setup.Logger)
	index := vecindex.New(db.Pool, setup.Embedder, setup.Logger)
	materials := material.NewService(store, index, material.NewSplitter(40, 5), setup.Logger)
	asker := ask.NewService(index, store, echoGenerator{}, setup.Logger)

	c, err := store.CreateClass(ctx, "Networks")
	require.NoError(t, err)
	m, err := materials.Create(ctx, c.ID,
		[]byte("The project deadline is Friday of week ten."), "Project", "project.txt")
	require.NoError(t, err)

	_, err = materials.Update(ctx, m.ID, "",
		[]byte("The project deadline has moved to Monday of week twelve."), "project.txt")
	require.NoError(t, err)

	ans, err := asker.Ask(ctx, "When is the project due?", c.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, ans.Text, "week twelve")
	assert.NotContains(t, ans.Text, "week ten")
}
