package gradestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ifsuap/internal/reconcile"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	database, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()
	store := NewStore(database)

	{
		runs, err := store.Pull(ctx, PullRequest{})
		require.NoError(t, err)
		require.Len(t, runs, 0)
	}

	first := []reconcile.Outcome{
		{StudentId: "A1", StudentName: "Alice", Concept: "S", Status: reconcile.Applied, Verified: true},
		{StudentId: "Z9", StudentName: "Zack", Concept: "S", Status: reconcile.StudentRowNotFound, Detail: "student row not found: Z9"},
	}
	second := []reconcile.Outcome{
		{StudentId: "B2", StudentName: "Bruno", Concept: "A", Status: reconcile.FieldNotFound, Detail: "field not found: step 2"},
	}
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	firstId, err := store.Push(ctx, PushRequest{Time: start, DisciplineId: "4821", Step: 1, Outcomes: first})
	require.NoError(t, err)
	secondId, err := store.Push(ctx, PushRequest{Time: start.Add(time.Hour), DisciplineId: "4822", Step: 2, Outcomes: second})
	require.NoError(t, err)
	require.NotEqual(t, firstId, secondId)

	{
		runs, err := store.Pull(ctx, PullRequest{})
		require.NoError(t, err)
		require.Len(t, runs, 2)
		require.Equal(t, secondId, runs[0].Id)
		require.Equal(t, firstId, runs[1].Id)
		require.True(t, runs[1].At.Equal(start))
		require.Equal(t, 1, runs[1].Step)
		if diff := cmp.Diff(first, runs[1].Outcomes); diff != "" {
			t.Fatal(diff)
		}
	}
	{
		runs, err := store.Pull(ctx, PullRequest{DisciplineId: "4822"})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		if diff := cmp.Diff(second, runs[0].Outcomes); diff != "" {
			t.Fatal(diff)
		}
	}
	{
		runs, err := store.Pull(ctx, PullRequest{Limit: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.Equal(t, secondId, runs[0].Id)
	}
}

func TestOpenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	database, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = NewStore(database).Push(ctx, PushRequest{Time: time.Now(), DisciplineId: "1", Step: 1})
	require.NoError(t, err)
	require.NoError(t, database.Close())

	database, err = Open(ctx, path)
	require.NoError(t, err)
	defer database.Close()
	runs, err := NewStore(database).Pull(ctx, PullRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Empty(t, runs[0].Outcomes)
	require.NotNil(t, runs[0].Outcomes)

	_, err = Open(ctx, "")
	require.Error(t, err)
}
