package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/db"
	"github.com/harrylevesque/boardroom/internal/models"
	"github.com/harrylevesque/boardroom/internal/utils"
)

// Request body limits.
const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 8 << 20
)

var errBadRequest = errors.New("bad request")

// badRequestErrs are client mistakes reported as 400.
var badRequestErrs = []error{
	errBadRequest,
	board.ErrInvalidImport,
	models.ErrMissingID,
	models.ErrMissingTitle,
	models.ErrMissingName,
	models.ErrBadPosition,
	models.ErrTitleTooLong,
	models.ErrDuplicateID,
	models.ErrDanglingLink,
	models.ErrInvalidType,
	models.ErrInvalidColor,
	models.ErrInvalidPriority,
	models.ErrInvalidStatus,
	models.ErrInvalidBoardType,
	models.ErrInvalidPostType,
}

// JSONResponse writes payload as JSON with the given status.
func JSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	}
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// ErrorResponse writes err as an APIError body and returns the status used.
// Internal errors are not echoed to the client.
func ErrorResponse(w http.ResponseWriter, err error) int {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	JSONResponse(w, status, utils.APIError{Code: status, Message: msg})
	return status
}

// decodeJSON reads exactly one JSON value from the request body into v.
// Unknown fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after body", errBadRequest)
	}
	return nil
}

// readBody reads an import document from the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return data, nil
}
