// Package server exposes the pdfchat pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bull/pdfchat-server/internal/chat"
	"github.com/bull/pdfchat-server/internal/document"
	"github.com/bull/pdfchat-server/internal/index"
	"github.com/bull/pdfchat-server/internal/pipeline"
	"github.com/bull/pdfchat-server/internal/session"
)

// maxUploadBytes caps uploaded PDF size at 50 MiB.
const maxUploadBytes = 50 << 20

// HealthChecker reports index backend connectivity. The Qdrant backend
// implements it; the in-memory backend needs no check.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server owns one session and serializes all requests against it.
type Server struct {
	pipeline *pipeline.Pipeline
	sess     *session.Session
	health   HealthChecker // nil means always healthy
	logger   *slog.Logger
}

// New creates a Server around the given pipeline and session.
func New(p *pipeline.Pipeline, sess *session.Session, health HealthChecker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: p, sess: sess, health: health, logger: logger}
}

// Routes registers all endpoints on the given mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /health", s.handleHealth)
}

type uploadResponse struct {
	Pages    int `json:"pages"`
	Segments int `json:"segments"`
}

// handleUpload accepts a PDF as a multipart "file" field or as the raw
// request body and replaces the session's document.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.sess.Acquire()
	defer s.sess.Release()

	result, err := s.pipeline.Upload(r.Context(), s.sess, data)
	if err != nil {
		s.logger.Warn("upload failed", "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Pages:    result.Pages,
		Segments: result.Segments,
	})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}

	s.sess.Acquire()
	defer s.sess.Release()

	answer, err := s.pipeline.Ask(r.Context(), s.sess, req.Question)
	if err != nil {
		s.logger.Warn("ask failed", "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type historyResponse struct {
	Turns []session.Turn `json:"turns"`
	Count int            `json:"count"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns := s.sess.History()
	if turns == nil {
		turns = []session.Turn{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Turns: turns, Count: len(turns)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sess.Acquire()
	defer s.sess.Release()

	s.sess.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// healthResponse mirrors the index backend state for deploy health checks.
type healthResponse struct {
	Status    string `json:"status"`
	Index     string `json:"index"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Index:     "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.health.Health(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.Index = "disconnected"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// readUpload extracts PDF bytes from a multipart form or the raw body.
func readUpload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if mt := r.Header.Get("Content-Type"); mt != "" && len(mt) >= 19 && mt[:19] == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart upload requires a \"file\" field")
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("failed to read upload body")
	}
	if len(data) == 0 {
		return nil, errors.New("empty upload")
	}
	return data, nil
}

// statusFor maps pipeline failures to response codes: bad uploads are the
// client's to fix, an empty index is a state conflict, provider failures are
// upstream errors. Nothing here crashes the process.
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrIngest):
		return http.StatusBadRequest
	case errors.Is(err, index.ErrEmptyIndex):
		return http.StatusConflict
	case errors.Is(err, index.ErrEmbedding), errors.Is(err, chat.ErrCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
