// Package board holds the planning-board workspace: a single-writer document
// store of boards, board items and discussion posts. Mutations apply locally
// first, persist the snapshot, then replay against a Remote in order on a
// background worker. Remote failures never roll back local state; they are
// logged and surfaced as notifications.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harrylevesque/boardroom/internal/models"
)

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrPostNotFound   = errors.New("post not found")
	ErrNoCurrentBoard = errors.New("no current board")
	ErrClosed         = errors.New("workspace closed")
)

// DefaultSyncTimeout bounds a single remote call.
const DefaultSyncTimeout = 10 * time.Second

// syncQueueSize is the number of remote calls buffered before mutations block.
const syncQueueSize = 64

// Snapshotter loads and saves the persisted workspace document.
type Snapshotter interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// Remote is the board API the workspace mirrors its mutations to.
type Remote interface {
	PutBoard(ctx context.Context, b models.Board) error
	DeleteBoard(ctx context.Context, id string) error
	CreateItem(ctx context.Context, item models.BoardItem) (models.BoardItem, error)
	UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (models.BoardItem, error)
	DeleteItem(ctx context.Context, id string) error
}

type syncJob struct {
	ctx    context.Context
	op     string
	target string
	run    func(ctx context.Context) error
}

// Workspace is the local planning store. All methods are safe for concurrent
// use, but the model is last-write-wins with a single logical writer.
type Workspace struct {
	mu        sync.Mutex
	boards    []models.Board
	currentID string
	posts     []models.Post
	closed    bool

	notesMu       sync.Mutex
	notifications []string

	store       Snapshotter
	remote      Remote
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
	syncTimeout time.Duration

	queue   chan syncJob
	pending sync.WaitGroup
	done    chan struct{}
}

// Option configures a Workspace.
type Option func(*Workspace)

func WithStore(s Snapshotter) Option {
	return func(w *Workspace) { w.store = s }
}

func WithRemote(r Remote) Option {
	return func(w *Workspace) { w.remote = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

func WithIDs(newID func() string) Option {
	return func(w *Workspace) { w.newID = newID }
}

func WithSyncTimeout(d time.Duration) Option {
	return func(w *Workspace) {
		if d > 0 {
			w.syncTimeout = d
		}
	}
}

// Open builds a workspace and loads the snapshot when a store is configured.
// Callers must Close the workspace to flush pending remote calls.
func Open(ctx context.Context, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		syncTimeout: DefaultSyncTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.store != nil {
		snap, err := w.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load workspace: %w", err)
		}
		w.restore(snap)
	}
	if w.remote != nil {
		w.queue = make(chan syncJob, syncQueueSize)
		w.done = make(chan struct{})
		go w.syncLoop()
	}
	return w, nil
}

func (w *Workspace) restore(snap models.Snapshot) {
	w.boards = make([]models.Board, 0, len(snap.Boards))
	for _, b := range snap.Boards {
		w.boards = append(w.boards, b.Clone())
	}
	w.posts = make([]models.Post, 0, len(snap.Posts))
	for _, p := range snap.Posts {
		w.posts = append(w.posts, p.Clone())
	}
	if w.boardIndex(snap.CurrentBoardID) >= 0 {
		w.currentID = snap.CurrentBoardID
	}
	w.logger.Debug("workspace restored",
		zap.Int("boards", len(w.boards)),
		zap.Int("posts", len(w.posts)),
		zap.String("current", w.currentID))
}

// Snapshot returns a deep copy of the persisted state.
func (w *Workspace) Snapshot() models.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Boards:         make([]models.Board, len(w.boards)),
		CurrentBoardID: w.currentID,
		Posts:          make([]models.Post, len(w.posts)),
		SavedAt:        w.now(),
	}
	for i, b := range w.boards {
		snap.Boards[i] = b.Clone()
	}
	for i, p := range w.posts {
		snap.Posts[i] = p.Clone()
	}
	return snap
}

// saveLocked persists the current state. The in-memory change stands when
// the write fails; the error is returned to the caller.
func (w *Workspace) saveLocked(ctx context.Context) error {
	if w.store == nil {
		return nil
	}
	if err := w.store.Save(ctx, w.snapshotLocked()); err != nil {
		w.logger.Error("workspace save failed", zap.Error(err))
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}

// enqueueLocked schedules a remote call. Jobs run in submission order.
func (w *Workspace) enqueueLocked(ctx context.Context, op, target string, run func(ctx context.Context) error) {
	if w.remote == nil || w.closed {
		return
	}
	w.pending.Add(1)
	w.queue <- syncJob{ctx: context.WithoutCancel(ctx), op: op, target: target, run: run}
}

func (w *Workspace) syncLoop() {
	defer close(w.done)
	for job := range w.queue {
		w.runJob(job)
	}
}

func (w *Workspace) runJob(job syncJob) {
	defer w.pending.Done()
	ctx, cancel := context.WithTimeout(job.ctx, w.syncTimeout)
	defer cancel()
	if err := job.run(ctx); err != nil {
		w.logger.Warn("remote sync failed",
			zap.String("op", job.op),
			zap.String("target", job.target),
			zap.Error(err))
		w.Notify(fmt.Sprintf("Failed to sync %s %s: %v", job.op, job.target, err))
		return
	}
	w.logger.Debug("remote sync ok", zap.String("op", job.op), zap.String("target", job.target))
}

// Wait blocks until every queued remote call has finished.
func (w *Workspace) Wait() {
	w.pending.Wait()
}

// Close drains the sync queue, stops the worker and saves a final snapshot.
// It is safe to call more than once.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.pending.Wait()
	if w.queue != nil {
		close(w.queue)
		<-w.done
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveLocked(ctx)
}

// Notify records a user-facing notification.
func (w *Workspace) Notify(msg string) {
	w.notesMu.Lock()
	defer w.notesMu.Unlock()
	w.notifications = append(w.notifications, msg)
}

// Notifications returns the notifications recorded since the last clear.
func (w *Workspace) Notifications() []string {
	w.notesMu.Lock()
	defer w.notesMu.Unlock()
	return slices.Clone(w.notifications)
}

func (w *Workspace) ClearNotifications() {
	w.notesMu.Lock()
	defer w.notesMu.Unlock()
	w.notifications = nil
}

func (w *Workspace) boardIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range w.boards {
		if w.boards[i].ID == id {
			return i
		}
	}
	return -1
}

// currentLocked returns the index of the current board.
func (w *Workspace) currentLocked() (int, error) {
	i := w.boardIndex(w.currentID)
	if i < 0 {
		return -1, ErrNoCurrentBoard
	}
	return i, nil
}

func (w *Workspace) checkOpenLocked() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}
