package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStatusNext_FixedCycle(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusTodo.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusBlocked, StatusCompleted.Next())
	assert.Equal(t, StatusTodo, StatusBlocked.Next())
}

func TestStatusNext_UnknownTreatedAsTodo(t *testing.T) {
	assert.Equal(t, StatusInProgress, Status("").Next())
	assert.Equal(t, StatusInProgress, Status("archived").Next())
}

func TestStatusNext_FourStepsIsIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.SampledFrom(Statuses).Draw(t, "start")
		s := start
		for i := 0; i < 4; i++ {
			s = s.Next()
		}
		if s != start {
			t.Fatalf("after 4 advances got %q, want %q", s, start)
		}
	})
}

func TestParseHelpers(t *testing.T) {
	_, err := ParseItemType("swot-threat")
	require.NoError(t, err)

	_, err = ParseItemType("swot")
	assert.True(t, errors.Is(err, ErrInvalidType))

	_, err = ParseColor("teal")
	assert.True(t, errors.Is(err, ErrInvalidColor))

	p, err := ParsePriority("critical")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, p)

	_, err = ParseStatus("done")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestTypeDefaults_CoverEveryType(t *testing.T) {
	for _, typ := range ItemTypes {
		title, _, color := TypeDefaults(typ)
		assert.NotEmpty(t, title, typ)
		assert.True(t, color.Valid(), typ)
	}
	title, content, color := TypeDefaults(TypeNote)
	assert.Equal(t, "Strategic Note", title)
	assert.Equal(t, "Add your strategic insights here...", content)
	assert.Equal(t, ColorGold, color)
}

func TestNormalize_FillsDefaults(t *testing.T) {
	it := BoardItem{ID: "a", Type: TypeRisk, Title: "Churn"}
	it.Normalize()
	assert.Equal(t, ColorRed, it.Color)
	assert.Equal(t, PriorityMedium, it.Priority)
	assert.Equal(t, StatusTodo, it.Status)
	assert.NotNil(t, it.Tags)
	assert.NotNil(t, it.Comments)
	assert.NotNil(t, it.Connections)
}

func TestBoardItemValidate(t *testing.T) {
	valid := BoardItem{ID: "a", Type: TypeTask, Title: "Ship"}
	require.NoError(t, valid.Validate())

	cases := map[string]struct {
		mutate func(*BoardItem)
		want   error
	}{
		"missing id":   {func(it *BoardItem) { it.ID = "" }, ErrMissingID},
		"no title":     {func(it *BoardItem) { it.Title = "" }, ErrMissingTitle},
		"bad type":     {func(it *BoardItem) { it.Type = "poster" }, ErrInvalidType},
		"bad color":    {func(it *BoardItem) { it.Color = "teal" }, ErrInvalidColor},
		"bad priority": {func(it *BoardItem) { it.Priority = "urgent" }, ErrInvalidPriority},
		"bad status":   {func(it *BoardItem) { it.Status = "done" }, ErrInvalidStatus},
		"nan x":        {func(it *BoardItem) { it.Position.X = math.NaN() }, ErrBadPosition},
		"infinite y":   {func(it *BoardItem) { it.Position.Y = math.Inf(-1) }, ErrBadPosition},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			it := valid
			tc.mutate(&it)
			assert.ErrorIs(t, it.Validate(), tc.want)
		})
	}
}

func TestBoardValidate_DuplicateAndDangling(t *testing.T) {
	b := Board{ID: "b", Name: "Plan", Items: []BoardItem{
		{ID: "a", Type: TypeNote, Title: "A"},
		{ID: "a", Type: TypeNote, Title: "B"},
	}}
	assert.ErrorIs(t, b.Validate(), ErrDuplicateID)

	b.Items[1].ID = "b"
	b.Items[1].Connections = []string{"zzz"}
	assert.ErrorIs(t, b.Validate(), ErrDanglingLink)

	b.Items[1].Connections = []string{"a"}
	assert.NoError(t, b.Validate())

	b.Name = ""
	assert.ErrorIs(t, b.Validate(), ErrMissingName)
}

func TestApplyPatch(t *testing.T) {
	it := BoardItem{ID: "a", Type: TypeTask, Title: "Old", Tags: []string{"x"}}
	title := "New"
	status := StatusBlocked
	tags := []string{"y", "z"}
	out := it.Apply(ItemPatch{Title: &title, Status: &status, Tags: &tags})

	assert.Equal(t, "New", out.Title)
	assert.Equal(t, StatusBlocked, out.Status)
	assert.Equal(t, []string{"y", "z"}, out.Tags)
	assert.Equal(t, "Old", it.Title, "original must be untouched")

	tags[0] = "mutated"
	assert.Equal(t, "y", out.Tags[0], "patch slices are copied")
}

func TestItemPatchValidate(t *testing.T) {
	empty := ""
	assert.ErrorIs(t, ItemPatch{Title: &empty}.Validate(), ErrMissingTitle)
	bad := Priority("urgent")
	assert.ErrorIs(t, ItemPatch{Priority: &bad}.Validate(), ErrInvalidPriority)
	nan := Position{X: math.NaN()}
	assert.ErrorIs(t, ItemPatch{Position: &nan}.Validate(), ErrBadPosition)
	inf := Position{Y: math.Inf(1)}
	assert.ErrorIs(t, ItemPatch{Position: &inf}.Validate(), ErrBadPosition)
	assert.False(t, ItemPatch{Position: &inf}.Empty())
	assert.True(t, ItemPatch{}.Empty())
	assert.NoError(t, ItemPatch{}.Validate())
}

func TestNewPostValidate(t *testing.T) {
	assert.ErrorIs(t, NewPost{Author: "a"}.Validate(), ErrMissingTitle)
	assert.Error(t, NewPost{Title: "t"}.Validate())
	assert.ErrorIs(t, NewPost{Title: "t", Author: "a", Type: "memo"}.Validate(), ErrInvalidPostType)
	assert.NoError(t, NewPost{Title: "t", Author: "a", Type: PostDiscussion}.Validate())
}
