package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/harrylevesque/boardroom/internal/models"
)

// Memory is a Repository held in process memory. Values are deep-copied on
// the way in and out.
type Memory struct {
	mu     sync.RWMutex
	boards []models.Board
	posts  []models.Post
	opts   options
}

var _ Repository = (*Memory)(nil)

func NewMemory(opts ...Option) *Memory {
	return &Memory{opts: buildOptions(opts)}
}

func (m *Memory) boardIndex(id string) int {
	for i := range m.boards {
		if m.boards[i].ID == id {
			return i
		}
	}
	return -1
}

// itemIndex locates an item across all boards.
func (m *Memory) itemIndex(id string) (int, int) {
	for i := range m.boards {
		if j := m.boards[i].IndexOf(id); j >= 0 {
			return i, j
		}
	}
	return -1, -1
}

func (m *Memory) ListBoards(_ context.Context) ([]models.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Board, len(m.boards))
	for i, b := range m.boards {
		out[i] = b.Clone()
	}
	return out, nil
}

func (m *Memory) GetBoard(_ context.Context, id string) (models.Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.boardIndex(id)
	if i < 0 {
		return models.Board{}, fmt.Errorf("board %s: %w", id, ErrNotFound)
	}
	return m.boards[i].Clone(), nil
}

func (m *Memory) CreateBoard(_ context.Context, b models.Board) (models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boardIndex(b.ID) >= 0 {
		return models.Board{}, fmt.Errorf("board %s: %w", b.ID, ErrConflict)
	}
	return m.putLocked(b)
}

func (m *Memory) PutBoard(_ context.Context, b models.Board) (models.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(b)
}

func (m *Memory) putLocked(b models.Board) (models.Board, error) {
	p, err := prepareBoard(b, m.opts.now())
	if err != nil {
		return models.Board{}, err
	}
	for _, it := range p.Items {
		if bi, _ := m.itemIndex(it.ID); bi >= 0 && m.boards[bi].ID != p.ID {
			return models.Board{}, fmt.Errorf("item %s: %w", it.ID, ErrConflict)
		}
	}
	if i := m.boardIndex(p.ID); i >= 0 {
		p.CreatedAt = m.boards[i].CreatedAt
		m.boards[i] = p
	} else {
		m.boards = append(m.boards, p)
	}
	return p.Clone(), nil
}

func (m *Memory) DeleteBoard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.boardIndex(id)
	if i < 0 {
		return fmt.Errorf("board %s: %w", id, ErrNotFound)
	}
	m.boards = append(m.boards[:i], m.boards[i+1:]...)
	return nil
}

func (m *Memory) CreateItem(_ context.Context, it models.BoardItem) (models.BoardItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bi := m.boardIndex(it.BoardID)
	if bi < 0 {
		return models.BoardItem{}, fmt.Errorf("board %s: %w", it.BoardID, ErrNotFound)
	}
	if i, _ := m.itemIndex(it.ID); i >= 0 {
		return models.BoardItem{}, fmt.Errorf("item %s: %w", it.ID, ErrConflict)
	}
	p, err := prepareItem(it, it.BoardID, m.opts.now())
	if err != nil {
		return models.BoardItem{}, err
	}
	m.boards[bi].Items = append(m.boards[bi].Items, p)
	return p.Clone(), nil
}

func (m *Memory) GetItem(_ context.Context, id string) (models.BoardItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, j := m.itemIndex(id)
	if i < 0 {
		return models.BoardItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return m.boards[i].Items[j].Clone(), nil
}

func (m *Memory) UpdateItem(_ context.Context, id string, patch models.ItemPatch) (models.BoardItem, error) {
	if err := patch.Validate(); err != nil {
		return models.BoardItem{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i, j := m.itemIndex(id)
	if i < 0 {
		return models.BoardItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	updated := m.boards[i].Items[j].Apply(patch)
	updated.UpdatedAt = m.opts.now()
	m.boards[i].Items[j] = updated
	return updated.Clone(), nil
}

func (m *Memory) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, j := m.itemIndex(id)
	if i < 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	b := &m.boards[i]
	b.Items = append(b.Items[:j], b.Items[j+1:]...)
	for k := range b.Items {
		b.Items[k].Connections, _ = removeConnection(b.Items[k].Connections, id)
	}
	return nil
}

func (m *Memory) ListPosts(_ context.Context) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Post, len(m.posts))
	for i, p := range m.posts {
		out[i] = p.Clone()
	}
	return out, nil
}

func (m *Memory) CreatePost(_ context.Context, p models.Post) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.posts {
		if existing.ID == p.ID {
			return models.Post{}, fmt.Errorf("post %s: %w", p.ID, ErrConflict)
		}
	}
	p = p.Clone()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.opts.now()
	}
	m.posts = append([]models.Post{p}, m.posts...)
	return p.Clone(), nil
}

func (m *Memory) AddReply(_ context.Context, postID string, r models.Reply) (models.Post, error) {
	return m.mutatePost(postID, func(p *models.Post) {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = m.opts.now()
		}
		p.Replies = append(p.Replies, r)
	})
}

func (m *Memory) LikePost(_ context.Context, postID string) (models.Post, error) {
	return m.mutatePost(postID, func(p *models.Post) { p.Likes++ })
}

func (m *Memory) mutatePost(postID string, fn func(*models.Post)) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.posts {
		if m.posts[i].ID == postID {
			fn(&m.posts[i])
			return m.posts[i].Clone(), nil
		}
	}
	return models.Post{}, fmt.Errorf("post %s: %w", postID, ErrNotFound)
}

func (m *Memory) Close() error { return nil }
