package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harrylevesque/boardroom/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	board_type  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS board_items (
	id          TEXT PRIMARY KEY,
	board_id    TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
	type        TEXT NOT NULL,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	pos_x       REAL NOT NULL,
	pos_y       REAL NOT NULL,
	color       TEXT NOT NULL,
	priority    TEXT NOT NULL,
	status      TEXT NOT NULL,
	assignee    TEXT NOT NULL DEFAULT '',
	due_date    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL,
	comments    TEXT NOT NULL,
	connections TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_board_items_board ON board_items(board_id);
CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	type       TEXT NOT NULL,
	room       TEXT NOT NULL DEFAULT '',
	author     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	likes      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS replies (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	author     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_replies_post ON replies(post_id);
`

const itemColumns = `id, board_id, type, title, content, pos_x, pos_y, color, priority, status,
	assignee, due_date, tags, comments, connections, created_at, updated_at`

// SQLite is a Repository backed by a SQLite database file. Items keep their
// insertion order through rowid.
type SQLite struct {
	db   *sql.DB
	opts options
}

var _ Repository = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection serialises writers and keeps a :memory: database alive.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, opts: buildOptions(opts)}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on success.
func (s *SQLite) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func marshalColumn(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanItem(sc scanner) (models.BoardItem, error) {
	var (
		it                    models.BoardItem
		tags, comments, conns string
		createdAt, updatedAt  string
	)
	err := sc.Scan(&it.ID, &it.BoardID, &it.Type, &it.Title, &it.Content,
		&it.Position.X, &it.Position.Y, &it.Color, &it.Priority, &it.Status,
		&it.Assignee, &it.DueDate, &tags, &comments, &conns, &createdAt, &updatedAt)
	if err != nil {
		return it, err
	}
	if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
		return it, fmt.Errorf("decode tags of %s: %w", it.ID, err)
	}
	if err := json.Unmarshal([]byte(comments), &it.Comments); err != nil {
		return it, fmt.Errorf("decode comments of %s: %w", it.ID, err)
	}
	if err := json.Unmarshal([]byte(conns), &it.Connections); err != nil {
		return it, fmt.Errorf("decode connections of %s: %w", it.ID, err)
	}
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return it, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return it, err
	}
	it.Normalize()
	return it, nil
}

func itemArgs(it models.BoardItem) ([]any, error) {
	tags, err := marshalColumn(it.Tags)
	if err != nil {
		return nil, err
	}
	comments, err := marshalColumn(it.Comments)
	if err != nil {
		return nil, err
	}
	conns, err := marshalColumn(it.Connections)
	if err != nil {
		return nil, err
	}
	return []any{it.ID, it.BoardID, it.Type, it.Title, it.Content,
		it.Position.X, it.Position.Y, it.Color, it.Priority, it.Status,
		it.Assignee, it.DueDate, tags, comments, conns,
		formatTime(it.CreatedAt), formatTime(it.UpdatedAt)}, nil
}

func insertItem(ctx context.Context, tx *sql.Tx, it models.BoardItem) error {
	args, err := itemArgs(it)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO board_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", it.ID, err)
	}
	return nil
}

func writeItem(ctx context.Context, tx *sql.Tx, it models.BoardItem) error {
	args, err := itemArgs(it)
	if err != nil {
		return err
	}
	// id moves to the end for the WHERE clause.
	args = append(args[1:], args[0])
	_, err = tx.ExecContext(ctx, `UPDATE board_items SET board_id = ?, type = ?, title = ?, content = ?,
		pos_x = ?, pos_y = ?, color = ?, priority = ?, status = ?, assignee = ?, due_date = ?,
		tags = ?, comments = ?, connections = ?, created_at = ?, updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update item %s: %w", it.ID, err)
	}
	return nil
}

func loadItems(ctx context.Context, q queryer, boardID string) ([]models.BoardItem, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+itemColumns+` FROM board_items WHERE board_id = ? ORDER BY rowid`, boardID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	items := []models.BoardItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func loadBoard(ctx context.Context, q queryer, id string) (models.Board, error) {
	var (
		b                    models.Board
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `SELECT id, name, description, board_type, created_at, updated_at
		FROM boards WHERE id = ?`, id).Scan(&b.ID, &b.Name, &b.Description, &b.Type, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, fmt.Errorf("board %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Board{}, fmt.Errorf("query board %s: %w", id, err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Board{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Board{}, err
	}
	if b.Items, err = loadItems(ctx, q, id); err != nil {
		return models.Board{}, err
	}
	return b, nil
}

func (s *SQLite) ListBoards(ctx context.Context) ([]models.Board, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM boards ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	boards := make([]models.Board, 0, len(ids))
	for _, id := range ids {
		b, err := loadBoard(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

func (s *SQLite) GetBoard(ctx context.Context, id string) (models.Board, error) {
	return loadBoard(ctx, s.db, id)
}

func (s *SQLite) CreateBoard(ctx context.Context, b models.Board) (models.Board, error) {
	return s.putBoard(ctx, b, false)
}

func (s *SQLite) PutBoard(ctx context.Context, b models.Board) (models.Board, error) {
	return s.putBoard(ctx, b, true)
}

func (s *SQLite) putBoard(ctx context.Context, b models.Board, replace bool) (models.Board, error) {
	p, err := prepareBoard(b, s.opts.now())
	if err != nil {
		return models.Board{}, err
	}
	var out models.Board
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := loadBoard(ctx, tx, p.ID)
		switch {
		case err == nil && !replace:
			return fmt.Errorf("board %s: %w", p.ID, ErrConflict)
		case err == nil:
			p.CreatedAt = existing.CreatedAt
		case !errors.Is(err, ErrNotFound):
			return err
		}
		for _, it := range p.Items {
			var owner string
			err := tx.QueryRowContext(ctx, `SELECT board_id FROM board_items WHERE id = ?`, it.ID).Scan(&owner)
			if err == nil && owner != p.ID {
				return fmt.Errorf("item %s: %w", it.ID, ErrConflict)
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO boards (id, name, description, board_type, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description,
				board_type = excluded.board_type, updated_at = excluded.updated_at`,
			p.ID, p.Name, p.Description, p.Type, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("upsert board %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_items WHERE board_id = ?`, p.ID); err != nil {
			return fmt.Errorf("clear items of %s: %w", p.ID, err)
		}
		for _, it := range p.Items {
			if err := insertItem(ctx, tx, it); err != nil {
				return err
			}
		}
		out, err = loadBoard(ctx, tx, p.ID)
		return err
	})
	return out, err
}

func (s *SQLite) DeleteBoard(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_items WHERE board_id = ?`, id); err != nil {
			return fmt.Errorf("delete items of %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete board %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("board %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func getItem(ctx context.Context, q queryer, id string) (models.BoardItem, error) {
	it, err := scanItem(q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM board_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.BoardItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return it, err
}

func (s *SQLite) CreateItem(ctx context.Context, it models.BoardItem) (models.BoardItem, error) {
	p, err := prepareItem(it, it.BoardID, s.opts.now())
	if err != nil {
		return models.BoardItem{}, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE id = ?`, p.BoardID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("board %s: %w", p.BoardID, ErrNotFound)
		}
		if _, err := getItem(ctx, tx, p.ID); err == nil {
			return fmt.Errorf("item %s: %w", p.ID, ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return insertItem(ctx, tx, p)
	})
	if err != nil {
		return models.BoardItem{}, err
	}
	return p, nil
}

func (s *SQLite) GetItem(ctx context.Context, id string) (models.BoardItem, error) {
	return getItem(ctx, s.db, id)
}

func (s *SQLite) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.BoardItem, error) {
	if err := patch.Validate(); err != nil {
		return models.BoardItem{}, err
	}
	var out models.BoardItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		out = cur.Apply(patch)
		out.UpdatedAt = s.opts.now()
		return writeItem(ctx, tx, out)
	})
	if err != nil {
		return models.BoardItem{}, err
	}
	return out, nil
}

func (s *SQLite) DeleteItem(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM board_items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete item %s: %w", id, err)
		}
		siblings, err := loadItems(ctx, tx, cur.BoardID)
		if err != nil {
			return err
		}
		for _, it := range siblings {
			conns, changed := removeConnection(it.Connections, id)
			if !changed {
				continue
			}
			it.Connections = conns
			if err := writeItem(ctx, tx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

func loadReplies(ctx context.Context, q queryer, postID string) ([]models.Reply, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, content, author, created_at FROM replies
		WHERE post_id = ? ORDER BY rowid`, postID)
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	defer rows.Close()
	replies := []models.Reply{}
	for rows.Next() {
		var (
			r  models.Reply
			at string
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.Author, &at); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(at); err != nil {
			return nil, err
		}
		replies = append(replies, r)
	}
	return replies, rows.Err()
}

func scanPost(sc scanner) (models.Post, error) {
	var (
		p  models.Post
		at string
	)
	if err := sc.Scan(&p.ID, &p.Title, &p.Content, &p.Type, &p.Room, &p.Author, &at, &p.Likes); err != nil {
		return p, err
	}
	var err error
	p.CreatedAt, err = parseTime(at)
	return p, err
}

const postColumns = `id, title, content, type, room, author, created_at, likes`

func loadPost(ctx context.Context, q queryer, id string) (models.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Post{}, err
	}
	if p.Replies, err = loadReplies(ctx, q, id); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

func (s *SQLite) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		posts = append(posts, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Replies, err = loadReplies(ctx, s.db, posts[i].ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *SQLite) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	p = p.Clone()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.opts.now()
	}
	var out models.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadPost(ctx, tx, p.ID); err == nil {
			return fmt.Errorf("post %s: %w", p.ID, ErrConflict)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Content, p.Type, p.Room, p.Author, formatTime(p.CreatedAt), p.Likes)
		if err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
		for _, r := range p.Replies {
			if err := insertReply(ctx, tx, p.ID, r); err != nil {
				return err
			}
		}
		out, err = loadPost(ctx, tx, p.ID)
		return err
	})
	return out, err
}

func insertReply(ctx context.Context, tx *sql.Tx, postID string, r models.Reply) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO replies (id, post_id, content, author, created_at)
		VALUES (?, ?, ?, ?, ?)`, r.ID, postID, r.Content, r.Author, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert reply %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLite) AddReply(ctx context.Context, postID string, r models.Reply) (models.Post, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.opts.now()
	}
	var out models.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadPost(ctx, tx, postID); err != nil {
			return err
		}
		if err := insertReply(ctx, tx, postID, r); err != nil {
			return err
		}
		var err error
		out, err = loadPost(ctx, tx, postID)
		return err
	})
	return out, err
}

func (s *SQLite) LikePost(ctx context.Context, postID string) (models.Post, error) {
	var out models.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = ?`, postID)
		if err != nil {
			return fmt.Errorf("like post %s: %w", postID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("post %s: %w", postID, ErrNotFound)
		}
		out, err = loadPost(ctx, tx, postID)
		return err
	})
	return out, err
}
