package board

import (
	"context"
	"fmt"

	"github.com/harrylevesque/boardroom/internal/models"
)

// AddBoard creates an empty strategic board and makes it current.
func (w *Workspace) AddBoard(ctx context.Context, name string) (models.Board, error) {
	if name == "" {
		return models.Board{}, models.ErrMissingName
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Board{}, err
	}

	now := w.now()
	b := models.Board{
		ID:        w.newID(),
		Name:      name,
		Type:      models.BoardStrategic,
		Items:     []models.BoardItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.boards = append(w.boards, b)
	w.currentID = b.ID
	w.Notify("Board created: " + name)

	w.enqueuePutLocked(ctx, b)
	return b.Clone(), w.saveLocked(ctx)
}

// Boards returns copies of every board in creation order.
func (w *Workspace) Boards() []models.Board {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Board, len(w.boards))
	for i, b := range w.boards {
		out[i] = b.Clone()
	}
	return out
}

// Board returns a copy of the board with the given id.
func (w *Workspace) Board(id string) (models.Board, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.boardIndex(id)
	if i < 0 {
		return models.Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	return w.boards[i].Clone(), nil
}

// CurrentBoard returns the current board, if any.
func (w *Workspace) CurrentBoard() (models.Board, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.boardIndex(w.currentID)
	if i < 0 {
		return models.Board{}, false
	}
	return w.boards[i].Clone(), true
}

// LoadBoard makes an existing board current.
func (w *Workspace) LoadBoard(ctx context.Context, id string) (models.Board, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Board{}, err
	}
	i := w.boardIndex(id)
	if i < 0 {
		return models.Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	w.currentID = id
	return w.boards[i].Clone(), w.saveLocked(ctx)
}

// SetCurrentBoard moves the current pointer. An empty id clears it.
func (w *Workspace) SetCurrentBoard(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	if id != "" && w.boardIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	w.currentID = id
	return w.saveLocked(ctx)
}

// UpdateBoard replaces the item list of a board wholesale.
func (w *Workspace) UpdateBoard(ctx context.Context, id string, items []models.BoardItem) (models.Board, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Board{}, err
	}
	i := w.boardIndex(id)
	if i < 0 {
		return models.Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}

	next := w.boards[i].Clone()
	next.Items = make([]models.BoardItem, len(items))
	for j, it := range items {
		it = it.Clone()
		it.BoardID = id
		it.Normalize()
		next.Items[j] = it
	}
	if err := next.Validate(); err != nil {
		return models.Board{}, err
	}
	next.UpdatedAt = w.now()
	w.boards[i] = next

	w.enqueuePutLocked(ctx, next)
	return next.Clone(), w.saveLocked(ctx)
}

// RenameBoard changes a board's display name.
func (w *Workspace) RenameBoard(ctx context.Context, id, name string) (models.Board, error) {
	if name == "" {
		return models.Board{}, models.ErrMissingName
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Board{}, err
	}
	i := w.boardIndex(id)
	if i < 0 {
		return models.Board{}, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	w.boards[i].Name = name
	w.boards[i].UpdatedAt = w.now()

	w.enqueuePutLocked(ctx, w.boards[i])
	return w.boards[i].Clone(), w.saveLocked(ctx)
}

// DeleteBoard removes a board and clears the current pointer when it pointed
// at it. Deleting an unknown board is a no-op and reports false.
func (w *Workspace) DeleteBoard(ctx context.Context, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return false, err
	}
	i := w.boardIndex(id)
	if i < 0 {
		return false, nil
	}
	w.boards = append(w.boards[:i], w.boards[i+1:]...)
	if w.currentID == id {
		w.currentID = ""
	}
	w.enqueueLocked(ctx, "delete-board", id, func(ctx context.Context) error {
		return w.remote.DeleteBoard(ctx, id)
	})
	return true, w.saveLocked(ctx)
}

func (w *Workspace) enqueuePutLocked(ctx context.Context, b models.Board) {
	b = b.Clone()
	w.enqueueLocked(ctx, "put-board", b.ID, func(ctx context.Context) error {
		return w.remote.PutBoard(ctx, b)
	})
}
