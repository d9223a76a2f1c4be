package models

import (
	"fmt"
	"slices"
	"time"
)

type Reply struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is a discussion-room entry with its replies in arrival order.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      PostType  `json:"type"`
	Room      string    `json:"room,omitempty"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
	Replies   []Reply   `json:"replies"`
}

// NewPost is the user-supplied part of a post.
type NewPost struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Type    PostType `json:"type"`
	Room    string   `json:"room,omitempty"`
	Author  string   `json:"author"`
}

func (n NewPost) Validate() error {
	if n.Title == "" {
		return ErrMissingTitle
	}
	if n.Author == "" {
		return fmt.Errorf("post %q: missing author", n.Title)
	}
	if n.Type != "" && !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPostType, n.Type)
	}
	return nil
}

func (p Post) Clone() Post {
	out := p
	out.Replies = slices.Clone(p.Replies)
	if out.Replies == nil {
		out.Replies = []Reply{}
	}
	return out
}
