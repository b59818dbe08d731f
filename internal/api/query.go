package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richagaur/newschat/internal/chat"
)

// maxRequestBody caps query payloads at 1 MiB.
const maxRequestBody = 1 << 20

// Answerer runs the retrieval-augmented pipeline for one question.
type Answerer interface {
	Answer(ctx context.Context, question string) (chat.Reply, error)
}

// queryRequest is the body of POST /query. ChatHistory carries the
// client's running transcript; the server appends the annotated turn to
// its request-scoped copy and never mutates client state.
type queryRequest struct {
	Message     string      `json:"message"`
	ChatHistory [][2]string `json:"chatHistory"`
}

// queryResponse is the body of a successful POST /query.
type queryResponse struct {
	Response string `json:"response"`
	Cached   bool   `json:"cached"`
}

// query answers one user question.
//
// Missing or empty bodies map to 400; any pipeline failure maps to 500
// with the error description in the body.
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	var req queryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	start := time.Now()
	reply, err := s.answerer.Answer(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nobody is reading the response.
			s.logger.Debug("query canceled", "error", err)
			return
		}
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error: %v", err))
		return
	}
	elapsed := time.Since(start).Milliseconds()

	details := fmt.Sprintf("\n (Time: %dms)", elapsed)
	if reply.Cached {
		details += " (Cached)"
	}
	history := append(req.ChatHistory, [2]string{req.Message, reply.Text + details})
	s.logger.Info("query answered",
		"cached", reply.Cached,
		"elapsed_ms", elapsed,
		"history_len", len(history),
	)

	writeJSON(w, http.StatusOK, queryResponse{Response: reply.Text, Cached: reply.Cached})
}
