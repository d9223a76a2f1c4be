package board

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/harrylevesque/boardroom/internal/models"
)

// Canvas bounds used for random placement of new items.
const (
	CanvasWidth  = 400
	CanvasHeight = 300
)

var ErrSelfConnection = errors.New("item cannot connect to itself")

// AddItem appends item to the current board. A missing id is generated, a
// missing title falls back to the type's default, and empty enums take their
// defaults.
func (w *Workspace) AddItem(ctx context.Context, item models.BoardItem) (models.BoardItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.BoardItem{}, err
	}
	bi, err := w.currentLocked()
	if err != nil {
		return models.BoardItem{}, err
	}

	it, err := w.prepareItemLocked(bi, item)
	if err != nil {
		return models.BoardItem{}, err
	}
	w.boards[bi].Items = append(w.boards[bi].Items, it)
	w.boards[bi].UpdatedAt = it.UpdatedAt

	w.enqueueCreateLocked(ctx, it)
	return it.Clone(), w.saveLocked(ctx)
}

// AddItemOfType creates an item from the type's default title, content and
// color. A nil pos places it at random on the canvas.
func (w *Workspace) AddItemOfType(ctx context.Context, t models.ItemType, pos *models.Position) (models.BoardItem, error) {
	if !t.Valid() {
		return models.BoardItem{}, fmt.Errorf("%w: %q", models.ErrInvalidType, t)
	}
	title, content, color := models.TypeDefaults(t)
	item := models.BoardItem{Type: t, Title: title, Content: content, Color: color}
	if pos != nil {
		item.Position = *pos
	} else {
		item.Position = models.Position{X: rand.Float64() * CanvasWidth, Y: rand.Float64() * CanvasHeight}
	}
	return w.AddItem(ctx, item)
}

func (w *Workspace) prepareItemLocked(bi int, item models.BoardItem) (models.BoardItem, error) {
	it := item.Clone()
	if it.ID == "" {
		it.ID = w.newID()
	}
	if it.Title == "" {
		it.Title, _, _ = models.TypeDefaults(it.Type)
	}
	if err := it.Validate(); err != nil {
		return models.BoardItem{}, err
	}
	b := w.boards[bi]
	if b.IndexOf(it.ID) >= 0 {
		return models.BoardItem{}, fmt.Errorf("%w: %s", models.ErrDuplicateID, it.ID)
	}
	for _, c := range it.Connections {
		if c == it.ID {
			return models.BoardItem{}, ErrSelfConnection
		}
		if b.IndexOf(c) < 0 {
			return models.BoardItem{}, fmt.Errorf("%w: %s", models.ErrDanglingLink, c)
		}
	}
	it.Normalize()
	it.BoardID = b.ID
	now := w.now()
	it.CreatedAt = now
	it.UpdatedAt = now
	return it, nil
}

// Item returns a copy of an item on the current board.
func (w *Workspace) Item(id string) (models.BoardItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	bi, err := w.currentLocked()
	if err != nil {
		return models.BoardItem{}, err
	}
	j := w.boards[bi].IndexOf(id)
	if j < 0 {
		return models.BoardItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return w.boards[bi].Items[j].Clone(), nil
}

// UpdateItem applies patch to an item on the current board.
func (w *Workspace) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.BoardItem, error) {
	return w.mutateItem(ctx, id, func(models.BoardItem) (models.ItemPatch, error) {
		return patch, nil
	})
}

// MoveItem assigns new canvas coordinates, as after a drag.
func (w *Workspace) MoveItem(ctx context.Context, id string, pos models.Position) (models.BoardItem, error) {
	return w.UpdateItem(ctx, id, models.ItemPatch{Position: &pos})
}

// AdvanceStatus moves an item one step along the status cycle.
func (w *Workspace) AdvanceStatus(ctx context.Context, id string) (models.BoardItem, error) {
	return w.mutateItem(ctx, id, func(cur models.BoardItem) (models.ItemPatch, error) {
		next := cur.Status.Next()
		return models.ItemPatch{Status: &next}, nil
	})
}

// AddComment appends a comment to an item.
func (w *Workspace) AddComment(ctx context.Context, id, author, content string) (models.BoardItem, error) {
	if content == "" {
		return models.BoardItem{}, errors.New("comment content is required")
	}
	return w.mutateItem(ctx, id, func(cur models.BoardItem) (models.ItemPatch, error) {
		comments := append(slices.Clone(cur.Comments), models.Comment{
			ID:        w.newID(),
			Author:    author,
			Content:   content,
			Timestamp: w.now(),
		})
		return models.ItemPatch{Comments: &comments}, nil
	})
}

// Connect links from -> to. Connecting twice is a no-op.
func (w *Workspace) Connect(ctx context.Context, from, to string) (models.BoardItem, error) {
	if from == to {
		return models.BoardItem{}, ErrSelfConnection
	}
	return w.mutateItem(ctx, from, func(cur models.BoardItem) (models.ItemPatch, error) {
		conns := slices.Clone(cur.Connections)
		if !slices.Contains(conns, to) {
			conns = append(conns, to)
		}
		return models.ItemPatch{Connections: &conns}, nil
	})
}

// Disconnect removes the from -> to link if present.
func (w *Workspace) Disconnect(ctx context.Context, from, to string) (models.BoardItem, error) {
	return w.mutateItem(ctx, from, func(cur models.BoardItem) (models.ItemPatch, error) {
		conns := slices.DeleteFunc(slices.Clone(cur.Connections), func(c string) bool { return c == to })
		return models.ItemPatch{Connections: &conns}, nil
	})
}

// mutateItem runs a read-modify-write on one item of the current board
// under the workspace lock, persists, and queues the PATCH.
func (w *Workspace) mutateItem(ctx context.Context, id string, build func(models.BoardItem) (models.ItemPatch, error)) (models.BoardItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.BoardItem{}, err
	}
	bi, err := w.currentLocked()
	if err != nil {
		return models.BoardItem{}, err
	}
	b := &w.boards[bi]
	j := b.IndexOf(id)
	if j < 0 {
		return models.BoardItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	patch, err := build(b.Items[j])
	if err != nil {
		return models.BoardItem{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.BoardItem{}, err
	}
	if patch.Connections != nil {
		for _, c := range *patch.Connections {
			if c == id {
				return models.BoardItem{}, ErrSelfConnection
			}
			if b.IndexOf(c) < 0 {
				return models.BoardItem{}, fmt.Errorf("%w: %s", models.ErrDanglingLink, c)
			}
		}
	}

	updated := b.Items[j].Apply(patch)
	updated.UpdatedAt = w.now()
	b.Items[j] = updated
	b.UpdatedAt = updated.UpdatedAt

	w.enqueueLocked(ctx, "update-item", id, func(ctx context.Context) error {
		_, err := w.remote.UpdateItem(ctx, id, patch)
		return err
	})
	return updated.Clone(), w.saveLocked(ctx)
}

// DeleteItem removes the item with the given id from the current board and
// prunes connections that pointed at it. It reports whether an item was
// removed; deleting an absent id is a no-op without error.
func (w *Workspace) DeleteItem(ctx context.Context, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return false, err
	}
	bi, err := w.currentLocked()
	if err != nil {
		return false, err
	}
	b := &w.boards[bi]
	j := b.IndexOf(id)
	if j < 0 {
		return false, nil
	}
	b.Items = slices.Delete(b.Items, j, j+1)
	for k := range b.Items {
		if slices.Contains(b.Items[k].Connections, id) {
			b.Items[k].Connections = slices.DeleteFunc(b.Items[k].Connections, func(c string) bool { return c == id })
		}
	}
	b.UpdatedAt = w.now()

	w.enqueueLocked(ctx, "delete-item", id, func(ctx context.Context) error {
		return w.remote.DeleteItem(ctx, id)
	})
	return true, w.saveLocked(ctx)
}

// Filter applies f to the items of the current board.
func (w *Workspace) Filter(f Filter) ([]models.BoardItem, error) {
	b, ok := w.CurrentBoard()
	if !ok {
		return nil, ErrNoCurrentBoard
	}
	return f.Apply(b.Items)
}

func (w *Workspace) enqueueCreateLocked(ctx context.Context, it models.BoardItem) {
	it = it.Clone()
	w.enqueueLocked(ctx, "create-item", it.ID, func(ctx context.Context) error {
		_, err := w.remote.CreateItem(ctx, it)
		return err
	})
}
