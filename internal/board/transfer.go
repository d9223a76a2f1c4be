package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harrylevesque/boardroom/internal/models"
)

// ExportVersion is the version of the export envelope.
const ExportVersion = 1

// maxImportSize caps the size of an import document.
const maxImportSize = 8 << 20

var ErrInvalidImport = errors.New("invalid board import")

// Export is the JSON envelope produced by ExportBoard.
type Export struct {
	Version    int          `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Board      models.Board `json:"board"`
}

// EncodeExport serialises a board into an export envelope.
func EncodeExport(b models.Board, at time.Time) ([]byte, error) {
	return json.MarshalIndent(Export{Version: ExportVersion, ExportedAt: at, Board: b.Clone()}, "", "  ")
}

// DecodeExport parses and validates an export envelope. Unknown fields,
// trailing data, a wrong version or an invalid board are all rejected with
// an error wrapping ErrInvalidImport. Items are normalised and re-homed to
// the board's id.
func DecodeExport(data []byte) (models.Board, error) {
	if len(data) > maxImportSize {
		return models.Board{}, fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidImport, maxImportSize)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var exp Export
	if err := dec.Decode(&exp); err != nil {
		return models.Board{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return models.Board{}, fmt.Errorf("%w: trailing data after document", ErrInvalidImport)
	}
	if exp.Version != ExportVersion {
		return models.Board{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidImport, exp.Version)
	}
	b := exp.Board.Clone()
	if err := b.Validate(); err != nil {
		return models.Board{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if b.Type == "" {
		b.Type = models.BoardStrategic
	}
	for i := range b.Items {
		b.Items[i].BoardID = b.ID
		b.Items[i].Normalize()
	}
	return b, nil
}

// ExportBoard serialises the board with the given id; an empty id exports the
// current board.
func (w *Workspace) ExportBoard(id string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == "" {
		id = w.currentID
		if id == "" {
			return nil, ErrNoCurrentBoard
		}
	}
	i := w.boardIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	return EncodeExport(w.boards[i], w.now())
}

// ImportBoard validates data before touching any state, then replaces the
// board with the same id (or appends it) and makes it current.
func (w *Workspace) ImportBoard(ctx context.Context, data []byte) (models.Board, error) {
	b, err := DecodeExport(data)
	if err != nil {
		return models.Board{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return models.Board{}, err
	}
	if i := w.boardIndex(b.ID); i >= 0 {
		w.boards[i] = b
	} else {
		w.boards = append(w.boards, b)
	}
	w.currentID = b.ID
	w.Notify(fmt.Sprintf("Board imported: %s (%d items)", b.Name, len(b.Items)))

	w.enqueuePutLocked(ctx, b)
	return b.Clone(), w.saveLocked(ctx)
}
