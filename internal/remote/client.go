// Package remote is the HTTP client for the board API. It implements
// board.Remote so a workspace can mirror its mutations to a server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/models"
	"github.com/harrylevesque/boardroom/internal/utils"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 15 * time.Second

// Client talks to a boardroom API server.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ board.Remote = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends a JSON request and decodes a 2xx response into out. Other
// statuses are returned as *utils.APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &utils.APIError{Code: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Code = resp.StatusCode
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return utils.New(resp.StatusCode, "health check failed")
	}
	return nil
}

// LoadDemo fetches the demo board with its items.
func (c *Client) LoadDemo(ctx context.Context) (models.Board, error) {
	var out struct {
		Board models.Board       `json:"board"`
		Items []models.BoardItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/boards/load-demo", nil, &out); err != nil {
		return models.Board{}, err
	}
	b := out.Board
	b.Items = out.Items
	if b.Items == nil {
		b.Items = []models.BoardItem{}
	}
	return b, nil
}

func (c *Client) ListBoards(ctx context.Context) ([]models.Board, error) {
	var out struct {
		Boards []models.Board `json:"boards"`
	}
	err := c.do(ctx, http.MethodGet, "/api/boards", nil, &out)
	return out.Boards, err
}

func (c *Client) GetBoard(ctx context.Context, id string) (models.Board, error) {
	var out struct {
		Board models.Board `json:"board"`
	}
	err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(id), nil, &out)
	return out.Board, err
}

// PutBoard uploads a full board, creating it on the server when absent.
func (c *Client) PutBoard(ctx context.Context, b models.Board) error {
	return c.do(ctx, http.MethodPut, "/api/boards/"+url.PathEscape(b.ID), b, nil)
}

// DeleteBoard removes a board. A board the server does not know is treated
// as already deleted.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/boards/"+url.PathEscape(id), nil, nil)
	if utils.HasCode(err, http.StatusNotFound) {
		return nil
	}
	return err
}

func (c *Client) CreateItem(ctx context.Context, item models.BoardItem) (models.BoardItem, error) {
	var out struct {
		Item models.BoardItem `json:"item"`
	}
	err := c.do(ctx, http.MethodPost, "/api/boards/items", item, &out)
	return out.Item, err
}

func (c *Client) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.BoardItem, error) {
	var out struct {
		Item models.BoardItem `json:"item"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/boards/items/"+url.PathEscape(id), patch, &out)
	return out.Item, err
}

// DeleteItem removes an item. A 404 counts as success so deletes stay
// idempotent.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/boards/items/"+url.PathEscape(id), nil, nil)
	if utils.HasCode(err, http.StatusNotFound) {
		return nil
	}
	return err
}

func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	var out struct {
		Posts []models.Post `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/posts", nil, &out)
	return out.Posts, err
}

func (c *Client) CreatePost(ctx context.Context, np models.NewPost) (models.Post, error) {
	var out struct {
		Post models.Post `json:"post"`
	}
	err := c.do(ctx, http.MethodPost, "/api/posts", np, &out)
	return out.Post, err
}
