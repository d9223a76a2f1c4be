package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrylevesque/boardroom/internal/models"
)

// AddPost publishes a discussion post. New posts go to the front of the feed.
func (w *Workspace) AddPost(ctx context.Context, np models.NewPost) (models.Post, error) {
	if err := np.Validate(); err != nil {
		return models.Post{}, err
	}
	if np.Type == "" {
		np.Type = models.PostDiscussion
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Post{}, err
	}
	p := models.Post{
		ID:        w.newID(),
		Title:     np.Title,
		Content:   np.Content,
		Type:      np.Type,
		Room:      np.Room,
		Author:    np.Author,
		CreatedAt: w.now(),
		Replies:   []models.Reply{},
	}
	w.posts = append([]models.Post{p}, w.posts...)
	w.Notify("New post created: " + p.Title)
	return p.Clone(), w.saveLocked(ctx)
}

// Posts returns the feed, newest first.
func (w *Workspace) Posts() []models.Post {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Post, len(w.posts))
	for i, p := range w.posts {
		out[i] = p.Clone()
	}
	return out
}

// AddReply appends a reply to a post.
func (w *Workspace) AddReply(ctx context.Context, postID, author, content string) (models.Post, error) {
	if content == "" {
		return models.Post{}, errors.New("reply content is required")
	}
	return w.mutatePost(ctx, postID, func(p *models.Post) {
		p.Replies = append(p.Replies, models.Reply{
			ID:        w.newID(),
			Content:   content,
			Author:    author,
			CreatedAt: w.now(),
		})
	})
}

// LikePost increments a post's like counter.
func (w *Workspace) LikePost(ctx context.Context, postID string) (models.Post, error) {
	return w.mutatePost(ctx, postID, func(p *models.Post) { p.Likes++ })
}

func (w *Workspace) mutatePost(ctx context.Context, postID string, fn func(*models.Post)) (models.Post, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Post{}, err
	}
	for i := range w.posts {
		if w.posts[i].ID == postID {
			fn(&w.posts[i])
			return w.posts[i].Clone(), w.saveLocked(ctx)
		}
	}
	return models.Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
}
