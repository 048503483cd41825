// Package handler exposes documents, questions and histories over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/internal/service/chat"
	"github.com/w-h-a/pdfrag/internal/service/document"
	"github.com/w-h-a/pdfrag/internal/service/session"
)

const MaxUploadBytes = 64 << 20

var pdfMagic = []byte("%PDF-")

type Handler struct {
	documents *document.Service
	chat      *chat.Service
	sessions  *session.Service
	uploadDir string
	timeout   time.Duration
}

type askRequest struct {
	SessionId string `json:"session_id"`
	Query     string `json:"query"`
}

type askResponse struct {
	Answer    string `json:"answer"`
	SessionId string `json:"session_id"`
}

type documentResponse struct {
	DocumentId string `json:"document_id"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

type historyResponse struct {
	SessionId string          `json:"session_id"`
	History   history.History `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router registers every route on a gorilla/mux router.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/documents", h.Upload).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id}", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}/ask", h.Ask).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/history", h.History).Methods(http.MethodGet)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Upload stores the PDF under the upload directory and starts indexing it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: multipart form: %w", errs.ErrInvalid, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: missing file field: %w", errs.ErrInvalid, err))
		return
	}
	defer file.Close()

	id := uuid.NewString()

	path, err := h.save(id, file)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	id, err = h.documents.Submit(
		ctx,
		path,
		document.WithDocumentId(id),
		document.WithFooterPattern(r.FormValue("footer_pattern")),
	)
	if err != nil {
		os.Remove(path)
		writeError(ctx, w, err)
		return
	}

	slog.InfoContext(ctx, "document submitted", "document_id", id)

	writeJSON(w, http.StatusAccepted, documentResponse{DocumentId: id})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	status, err := h.documents.Status(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rsp := documentResponse{
		DocumentId: id,
		Status:     string(status.State),
	}

	if status.Err != nil {
		rsp.Error = status.Err.Error()
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := mux.Vars(r)["id"]

	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: request body: %w", errs.ErrInvalid, err))
		return
	}

	answer, sessionId, err := h.chat.Ask(ctx, id, req.SessionId, req.Query)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer, SessionId: sessionId})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	hist, err := h.sessions.History(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if hist == nil {
		hist = history.History{}
	}

	writeJSON(w, http.StatusOK, historyResponse{SessionId: id, History: hist})
}

func (h *Handler) save(id string, file io.Reader) (string, error) {
	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(file, head)
	if !bytes.Equal(head[:n], pdfMagic) {
		return "", fmt.Errorf("%w: file is not a PDF", errs.ErrInvalid)
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(h.uploadDir, "."+id+"-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head[:n]), file)); err != nil {
		tmp.Close()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", fmt.Errorf("%w: upload larger than %d bytes", errs.ErrInvalid, MaxUploadBytes)
		}
		return "", err
	}

	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := filepath.Join(h.uploadDir, id+".pdf")

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}

	return path, nil
}

// StatusFor maps the error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, errs.ErrConfig), errors.Is(err, errs.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errs.ErrGeneration):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := StatusFor(err)

	if code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "status", code, "error", err)
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = strings.ToLower(http.StatusText(code))
	}

	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func New(
	documents *document.Service,
	chat *chat.Service,
	sessions *session.Service,
	uploadDir string,
	timeout time.Duration,
) *Handler {
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Handler{
		documents: documents,
		chat:      chat,
		sessions:  sessions,
		uploadDir: uploadDir,
		timeout:   timeout,
	}
}
