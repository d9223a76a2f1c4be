package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/db"
	"github.com/harrylevesque/boardroom/internal/models"
)

// Server holds the handler dependencies.
type Server struct {
	repo   db.Repository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

type ServerOption func(*Server)

func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

func WithIDs(newID func() string) ServerOption {
	return func(s *Server) { s.newID = newID }
}

func NewServer(repo db.Repository, opts ...ServerOption) *Server {
	s := &Server{
		repo:   repo,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fail writes err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := ErrorResponse(w, err); status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "OK")
}

func (s *Server) ListBoardsHandler(w http.ResponseWriter, r *http.Request) {
	boards, err := s.repo.ListBoards(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"boards": boards})
}

type CreateBoardRequest struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Type        models.BoardType `json:"board_type,omitempty"`
}

func (s *Server) CreateBoardHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = s.newID()
	}
	now := s.now()
	b, err := s.repo.CreateBoard(r.Context(), models.Board{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Items:       []models.BoardItem{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, map[string]any{"board": b})
}

// LoadDemoHandler returns the demo board header and its items, seeding the
// board first when it is missing.
func (s *Server) LoadDemoHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := db.SeedDemo(r.Context(), s.repo); err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.repo.GetBoard(r.Context(), db.DemoBoardID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := b.Items
	b.Items = []models.BoardItem{}
	JSONResponse(w, http.StatusOK, map[string]any{"board": b, "items": items})
}

func (s *Server) GetBoardHandler(w http.ResponseWriter, r *http.Request) {
	b, err := s.repo.GetBoard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"board": b})
}

// PutBoardHandler stores a full board, creating it when absent.
func (s *Server) PutBoardHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var b models.Board
	if err := decodeJSON(w, r, &b); err != nil {
		s.fail(w, r, err)
		return
	}
	if b.ID == "" {
		b.ID = id
	}
	if b.ID != id {
		s.fail(w, r, fmt.Errorf("%w: board id %q does not match path %q", errBadRequest, b.ID, id))
		return
	}
	saved, err := s.repo.PutBoard(r.Context(), b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"board": saved})
}

func (s *Server) DeleteBoardHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteBoard(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) ExportBoardHandler(w http.ResponseWriter, r *http.Request) {
	b, err := s.repo.GetBoard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := board.EncodeExport(b, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="board-%s.json"`, b.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) ImportBoardHandler(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := board.DecodeExport(data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.repo.PutBoard(r.Context(), b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, map[string]any{"board": saved})
}

// CreateItemHandler adds an item. Missing fields take the defaults: the demo
// board, gold, medium priority, todo status and the type's default title.
// A client-supplied id is kept.
func (s *Server) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	var it models.BoardItem
	if err := decodeJSON(w, r, &it); err != nil {
		s.fail(w, r, err)
		return
	}
	if it.ID == "" {
		it.ID = s.newID()
	}
	if it.BoardID == "" {
		it.BoardID = db.DemoBoardID
	}
	if it.Color == "" {
		it.Color = models.ColorGold
	}
	if it.Title == "" && it.Type.Valid() {
		it.Title, _, _ = models.TypeDefaults(it.Type)
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = s.now()
		it.UpdatedAt = it.CreatedAt
	}
	created, err := s.repo.CreateItem(r.Context(), it)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Debug("item created", zap.String("id", created.ID), zap.String("board", created.BoardID))
	JSONResponse(w, http.StatusCreated, map[string]any{"item": created})
}

func (s *Server) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.repo.UpdateItem(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"item": updated})
}

func (s *Server) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := s.repo.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	var np models.NewPost
	if err := decodeJSON(w, r, &np); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := np.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	if np.Type == "" {
		np.Type = models.PostDiscussion
	}
	p, err := s.repo.CreatePost(r.Context(), models.Post{
		ID:        s.newID(),
		Title:     np.Title,
		Content:   np.Content,
		Type:      np.Type,
		Room:      np.Room,
		Author:    np.Author,
		CreatedAt: s.now(),
		Replies:   []models.Reply{},
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, map[string]any{"post": p})
}

type ReplyRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (s *Server) AddReplyHandler(w http.ResponseWriter, r *http.Request) {
	var req ReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Content == "" || req.Author == "" {
		s.fail(w, r, fmt.Errorf("%w: author and content are required", errBadRequest))
		return
	}
	p, err := s.repo.AddReply(r.Context(), mux.Vars(r)["id"], models.Reply{
		ID:        s.newID(),
		Content:   req.Content,
		Author:    req.Author,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, map[string]any{"post": p})
}

func (s *Server) LikePostHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.LikePost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"post": p})
}
