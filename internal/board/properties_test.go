package board

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/harrylevesque/boardroom/internal/models"
)

func itemGen() *rapid.Generator[models.BoardItem] {
	return rapid.Custom(func(t *rapid.T) models.BoardItem {
		return models.BoardItem{
			Type:     rapid.SampledFrom(models.ItemTypes).Draw(t, "type"),
			Title:    rapid.StringMatching(`[a-dA-D ]{1,12}`).Draw(t, "title"),
			Content:  rapid.StringMatching(`[a-dA-D ]{0,20}`).Draw(t, "content"),
			Priority: rapid.SampledFrom(models.Priorities).Draw(t, "priority"),
			Status:   rapid.SampledFrom(models.Statuses).Draw(t, "status"),
			Position: models.Position{
				X: rapid.Float64Range(0, CanvasWidth).Draw(t, "x"),
				Y: rapid.Float64Range(0, CanvasHeight).Draw(t, "y"),
			},
			Tags: rapid.SliceOfN(rapid.SampledFrom([]string{"q4", "launch", "risk"}), 0, 3).Draw(t, "tags"),
		}
	})
}

// populated returns an in-memory workspace with one board holding items.
func populated(t *rapid.T, items []models.BoardItem) *Workspace {
	ctx := context.Background()
	w, err := Open(ctx, WithIDs(sequentialIDs()), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddBoard(ctx, "Property board"); err != nil {
		t.Fatal(err)
	}
	for _, it := range items {
		if _, err := w.AddItem(ctx, it); err != nil {
			t.Fatal(err)
		}
	}
	return w
}

func TestSearch_MatchesTitleOrContentIgnoringCase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOfN(itemGen(), 0, 12).Draw(t, "items")
		query := rapid.StringMatching(`[a-dA-D]{0,3}`).Draw(t, "query")
		w := populated(t, items)
		defer w.Close(context.Background())

		board, _ := w.CurrentBoard()
		got, err := w.Filter(Filter{Search: query})
		if err != nil {
			t.Fatal(err)
		}

		q := strings.ToLower(query)
		var want []string
		for _, it := range board.Items {
			if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Content), q) {
				want = append(want, it.ID)
			}
		}
		if diff := cmp.Diff(want, ids(got), cmpEmptyNil); diff != "" {
			t.Fatalf("search %q mismatch (-want +got):\n%s", query, diff)
		}
	})
}

var cmpEmptyNil = cmp.Transformer("nilToEmpty", func(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
})

func TestAdvanceStatus_FourTimesRestoresStatus(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		item := itemGen().Draw(t, "item")
		w := populated(t, []models.BoardItem{item})
		defer w.Close(context.Background())

		board, _ := w.CurrentBoard()
		start := board.Items[0]
		cur := start
		for i := 0; i < len(models.Statuses); i++ {
			var err error
			if cur, err = w.AdvanceStatus(context.Background(), start.ID); err != nil {
				t.Fatal(err)
			}
			if i < len(models.Statuses)-1 && cur.Status == start.Status {
				t.Fatalf("status repeated after %d advances", i+1)
			}
		}
		if cur.Status != start.Status {
			t.Fatalf("after full cycle got %q, want %q", cur.Status, start.Status)
		}
	})
}

func TestDeleteItem_RemovesExactlyOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOfN(itemGen(), 1, 10).Draw(t, "items")
		w := populated(t, items)
		defer w.Close(context.Background())
		ctx := context.Background()

		before, _ := w.CurrentBoard()
		victim := rapid.IntRange(0, len(before.Items)-1).Draw(t, "victim")
		id := before.Items[victim].ID

		removed, err := w.DeleteItem(ctx, id)
		if err != nil || !removed {
			t.Fatalf("first delete: removed=%v err=%v", removed, err)
		}
		after, _ := w.CurrentBoard()
		if len(after.Items) != len(before.Items)-1 {
			t.Fatalf("item count %d, want %d", len(after.Items), len(before.Items)-1)
		}
		if after.IndexOf(id) >= 0 {
			t.Fatalf("item %s still present", id)
		}

		removed, err = w.DeleteItem(ctx, id)
		if err != nil || removed {
			t.Fatalf("second delete: removed=%v err=%v", removed, err)
		}
		again, _ := w.CurrentBoard()
		if diff := cmp.Diff(after, again); diff != "" {
			t.Fatalf("second delete changed board:\n%s", diff)
		}
	})
}

func TestExportImport_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOfN(itemGen(), 0, 10).Draw(t, "items")
		src := populated(t, items)
		defer src.Close(context.Background())

		data, err := src.ExportBoard("")
		if err != nil {
			t.Fatal(err)
		}
		dst, err := Open(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		defer dst.Close(context.Background())

		imported, err := dst.ImportBoard(context.Background(), data)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := src.CurrentBoard()
		if diff := cmp.Diff(want.Items, imported.Items); diff != "" {
			t.Fatalf("round trip changed items (-want +got):\n%s", diff)
		}
		cur, ok := dst.CurrentBoard()
		if !ok || cur.ID != want.ID {
			t.Fatalf("imported board is not current")
		}
	})
}

func TestImportBoard_ReplacesExisting(t *testing.T) {
	w := newTestWorkspace(t)
	ctx := context.Background()
	b, err := w.AddBoard(ctx, "Board")
	require.NoError(t, err)
	data, err := w.ExportBoard(b.ID)
	require.NoError(t, err)

	_, err = w.AddItemOfType(ctx, models.TypeIdea, nil)
	require.NoError(t, err)

	_, err = w.ImportBoard(ctx, data)
	require.NoError(t, err)
	require.Len(t, w.Boards(), 1)
	cur, _ := w.CurrentBoard()
	require.Empty(t, cur.Items)

	_, err = w.ExportBoard("missing")
	require.ErrorIs(t, err, ErrBoardNotFound)
}

func TestImportBoard_RejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":          ``,
		"not json":       `board`,
		"wrong version":  `{"version":2,"exported_at":"2025-08-27T16:03:05Z","board":{"id":"b","name":"B","items":[]}}`,
		"unknown field":  `{"version":1,"board":{"id":"b","name":"B","items":[]},"extra":true}`,
		"trailing data":  `{"version":1,"board":{"id":"b","name":"B","items":[]}} {}`,
		"missing id":     `{"version":1,"board":{"name":"B","items":[]}}`,
		"bad status":     `{"version":1,"board":{"id":"b","name":"B","items":[{"id":"i","type":"task","title":"T","status":"done"}]}}`,
		"duplicate item": `{"version":1,"board":{"id":"b","name":"B","items":[{"id":"i","type":"task","title":"T"},{"id":"i","type":"task","title":"U"}]}}`,
		"dangling link":  `{"version":1,"board":{"id":"b","name":"B","items":[{"id":"i","type":"task","title":"T","connections":["x"]}]}}`,
		"wrong type":     `{"version":"1"}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			w := newTestWorkspace(t)
			_, err := w.AddBoard(context.Background(), "Existing")
			require.NoError(t, err)
			before := w.Snapshot()

			_, err = w.ImportBoard(context.Background(), []byte(doc))
			require.ErrorIs(t, err, ErrInvalidImport)
			require.Empty(t, cmp.Diff(before, w.Snapshot()))
		})
	}
}

func FuzzImportBoard(f *testing.F) {
	w := newTestWorkspace(f)
	ctx := context.Background()
	_, err := w.AddBoard(ctx, "Seed")
	require.NoError(f, err)
	_, err = w.ApplyTemplate(ctx, TemplateOKR, models.Position{})
	require.NoError(f, err)
	seed, err := w.ExportBoard("")
	require.NoError(f, err)

	f.Add(seed)
	f.Add([]byte(`{"version":1,"board":{"id":"b","name":"B","items":[]}}`))
	f.Add([]byte(`{"version":1,"board":null}`))
	f.Add([]byte(`[]`))
	f.Add([]byte{0xff, 0xfe})

	f.Fuzz(func(t *testing.T, data []byte) {
		ws, err := Open(context.Background(), WithClock(func() time.Time { return testNow }))
		require.NoError(t, err)
		defer ws.Close(context.Background())
		before := ws.Snapshot()

		b, err := ws.ImportBoard(context.Background(), data)
		if err != nil {
			require.ErrorIs(t, err, ErrInvalidImport)
			require.Empty(t, cmp.Diff(before, ws.Snapshot()))
			return
		}
		require.NoError(t, b.Validate())
		cur, ok := ws.CurrentBoard()
		require.True(t, ok)
		require.Equal(t, b.ID, cur.ID)
	})
}
