package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/boardroom/internal/models"
)

var fixedNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func clock() Option {
	return WithClock(func() time.Time { return fixedNow })
}

// forEachRepo runs fn against every Repository implementation.
func forEachRepo(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory(clock()))
	})
	t.Run("sqlite", func(t *testing.T) {
		repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "boardroom.db"), clock())
		require.NoError(t, err)
		t.Cleanup(func() { _ = repo.Close() })
		fn(t, repo)
	})
}

func TestSeedDemo(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		created, err := SeedDemo(ctx, repo)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = SeedDemo(ctx, repo)
		require.NoError(t, err)
		assert.False(t, created)

		b, err := repo.GetBoard(ctx, DemoBoardID)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(DemoBoard(), b))

		boards, err := repo.ListBoards(ctx)
		require.NoError(t, err)
		assert.Len(t, boards, 1)
	})
}

func TestBoards_CreatePutDelete(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		b, err := repo.CreateBoard(ctx, models.Board{ID: "b1", Name: "Roadmap"})
		require.NoError(t, err)
		assert.Equal(t, models.BoardStrategic, b.Type)
		assert.Equal(t, fixedNow, b.CreatedAt)
		assert.NotNil(t, b.Items)

		_, err = repo.CreateBoard(ctx, models.Board{ID: "b1", Name: "Again"})
		assert.ErrorIs(t, err, ErrConflict)

		put, err := repo.PutBoard(ctx, models.Board{
			ID:   "b1",
			Name: "Roadmap v2",
			Items: []models.BoardItem{
				{ID: "i2", Type: models.TypeMilestone, Title: "Second"},
				{ID: "i1", Type: models.TypeMilestone, Title: "First", Connections: []string{"i2"}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Roadmap v2", put.Name)
		require.Len(t, put.Items, 2)
		assert.Equal(t, "i2", put.Items[0].ID, "insertion order kept")
		assert.Equal(t, models.StatusTodo, put.Items[1].Status)
		assert.Equal(t, "b1", put.Items[1].BoardID)

		_, err = repo.PutBoard(ctx, models.Board{ID: "b2", Name: "Other", Items: []models.BoardItem{
			{ID: "i1", Type: models.TypeTask, Title: "Stolen"},
		}})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = repo.PutBoard(ctx, models.Board{ID: "b3", Name: "Bad", Type: "kanban"})
		assert.Error(t, err)

		require.NoError(t, repo.DeleteBoard(ctx, "b1"))
		assert.ErrorIs(t, repo.DeleteBoard(ctx, "b1"), ErrNotFound)
		_, err = repo.GetBoard(ctx, "b1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.GetItem(ctx, "i1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestItems_Lifecycle(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		_, err := SeedDemo(ctx, repo)
		require.NoError(t, err)

		it, err := repo.CreateItem(ctx, models.BoardItem{
			ID: "new", BoardID: DemoBoardID, Type: models.TypeRisk, Title: "Supplier delay",
			Connections: []string{"3dc19a31-b99f-4bd8-b46e-b2b239f63d56"},
		})
		require.NoError(t, err)
		assert.Equal(t, models.ColorRed, it.Color)
		assert.Equal(t, models.PriorityMedium, it.Priority)
		assert.Equal(t, fixedNow, it.CreatedAt)

		_, err = repo.CreateItem(ctx, models.BoardItem{ID: "new", BoardID: DemoBoardID, Type: models.TypeRisk, Title: "Dup"})
		assert.ErrorIs(t, err, ErrConflict)
		_, err = repo.CreateItem(ctx, models.BoardItem{ID: "x", BoardID: "nope", Type: models.TypeRisk, Title: "X"})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.CreateItem(ctx, models.BoardItem{ID: "y", BoardID: DemoBoardID, Type: "sticky", Title: "Y"})
		assert.ErrorIs(t, err, models.ErrInvalidType)

		status := models.StatusBlocked
		tags := []string{"supply"}
		updated, err := repo.UpdateItem(ctx, "new", models.ItemPatch{Status: &status, Tags: &tags})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.Equal(t, tags, updated.Tags)
		assert.Equal(t, "Supplier delay", updated.Title)

		got, err := repo.GetItem(ctx, "new")
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(updated, got))

		bad := models.Priority("urgent")
		_, err = repo.UpdateItem(ctx, "new", models.ItemPatch{Priority: &bad})
		assert.ErrorIs(t, err, models.ErrInvalidPriority)
		_, err = repo.UpdateItem(ctx, "ghost", models.ItemPatch{Status: &status})
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting the target prunes the link held by "new".
		require.NoError(t, repo.DeleteItem(ctx, "3dc19a31-b99f-4bd8-b46e-b2b239f63d56"))
		got, err = repo.GetItem(ctx, "new")
		require.NoError(t, err)
		assert.Empty(t, got.Connections)
		assert.ErrorIs(t, repo.DeleteItem(ctx, "3dc19a31-b99f-4bd8-b46e-b2b239f63d56"), ErrNotFound)

		b, err := repo.GetBoard(ctx, DemoBoardID)
		require.NoError(t, err)
		require.Len(t, b.Items, 4)
		assert.Equal(t, "new", b.Items[3].ID)
	})
}

func TestPosts_Feed(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		_, err := repo.CreatePost(ctx, models.Post{ID: "p1", Title: "Kickoff", Type: models.PostDiscussion, Author: "sam"})
		require.NoError(t, err)
		_, err = repo.CreatePost(ctx, models.Post{ID: "p2", Title: "Launch", Type: models.PostAnnouncement, Author: "lee"})
		require.NoError(t, err)
		_, err = repo.CreatePost(ctx, models.Post{ID: "p1", Title: "Dup", Author: "sam"})
		assert.ErrorIs(t, err, ErrConflict)

		p, err := repo.AddReply(ctx, "p1", models.Reply{ID: "r1", Content: "+1", Author: "lee"})
		require.NoError(t, err)
		require.Len(t, p.Replies, 1)
		assert.Equal(t, fixedNow, p.Replies[0].CreatedAt)

		p, err = repo.LikePost(ctx, "p1")
		require.NoError(t, err)
		p, err = repo.LikePost(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 2, p.Likes)

		_, err = repo.LikePost(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.AddReply(ctx, "ghost", models.Reply{ID: "r2", Content: "?"})
		assert.ErrorIs(t, err, ErrNotFound)

		feed, err := repo.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, "p2", feed[0].ID)
		assert.Equal(t, "p1", feed[1].ID)
		assert.Len(t, feed[1].Replies, 1)
	})
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "boardroom.db")
	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = SeedDemo(ctx, repo)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()
	created, err := SeedDemo(ctx, repo)
	require.NoError(t, err)
	assert.False(t, created)
}
