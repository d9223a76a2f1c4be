// Package db is the server-side persistence for boards, items and posts.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/harrylevesque/boardroom/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Repository stores boards with their ordered items, and the post feed.
// Item ids are unique across all boards. Connections are stored as given;
// deleting an item prunes references to it.
type Repository interface {
	ListBoards(ctx context.Context) ([]models.Board, error)
	GetBoard(ctx context.Context, id string) (models.Board, error)
	CreateBoard(ctx context.Context, b models.Board) (models.Board, error)
	// PutBoard inserts or replaces a board together with its full item list.
	PutBoard(ctx context.Context, b models.Board) (models.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	CreateItem(ctx context.Context, it models.BoardItem) (models.BoardItem, error)
	GetItem(ctx context.Context, id string) (models.BoardItem, error)
	UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.BoardItem, error)
	DeleteItem(ctx context.Context, id string) error

	// ListPosts returns the feed newest first.
	ListPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, p models.Post) (models.Post, error)
	AddReply(ctx context.Context, postID string, r models.Reply) (models.Post, error)
	LikePost(ctx context.Context, postID string) (models.Post, error)

	Close() error
}

type options struct {
	now func() time.Time
}

// Option configures a repository.
type Option func(*options)

// WithClock overrides the time source used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// prepareItem normalises an item for storage under boardID.
func prepareItem(it models.BoardItem, boardID string, now time.Time) (models.BoardItem, error) {
	it = it.Clone()
	it.BoardID = boardID
	it.Normalize()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = it.CreatedAt
	}
	return it, it.Validate()
}

// prepareBoard normalises a board and its items for storage.
func prepareBoard(b models.Board, now time.Time) (models.Board, error) {
	b = b.Clone()
	if b.Type == "" {
		b.Type = models.BoardStrategic
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	if b.ID == "" {
		return b, models.ErrMissingID
	}
	if b.Name == "" {
		return b, models.ErrMissingName
	}
	if !b.Type.Valid() {
		return b, models.ErrInvalidBoardType
	}
	seen := make(map[string]struct{}, len(b.Items))
	for i, it := range b.Items {
		p, err := prepareItem(it, b.ID, now)
		if err != nil {
			return b, err
		}
		if _, dup := seen[p.ID]; dup {
			return b, models.ErrDuplicateID
		}
		seen[p.ID] = struct{}{}
		b.Items[i] = p
	}
	return b, nil
}

func removeConnection(conns []string, id string) ([]string, bool) {
	out := conns[:0:0]
	changed := false
	for _, c := range conns {
		if c == id {
			changed = true
			continue
		}
		out = append(out, c)
	}
	if out == nil {
		out = []string{}
	}
	return out, changed
}
