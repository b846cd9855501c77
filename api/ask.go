package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/askcampus/askcampus/internal/ask"
	"github.com/askcampus/askcampus/internal/log"
	"github.com/askcampus/askcampus/internal/material"
)

// MaxQuestionLength bounds the accepted question size.
const MaxQuestionLength = 2000

// Asker answers a question over one class's materials.
// *ask.Service satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string, classID int32, topK int) (ask.Answer, error)
}

// AskHandler handles the question answering endpoint.
type AskHandler struct {
	asker  Asker
	logger log.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(asker Asker, logger log.Logger) *AskHandler {
	return &AskHandler{asker: asker, logger: logger}
}

// RegisterRoutes registers the ask route on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.ask)
}

// AskRequest is the request body for asking a question.
type AskRequest struct {
	ClassID  int32  `json:"class_id"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// sourceJSON is the wire form of an answer source.
type sourceJSON struct {
	MaterialID int32   `json:"material_id"`
	Name       string  `json:"name"`
	FileName   string  `json:"file_name,omitempty"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview,omitempty"`
}

// AskResponse is the response body for a question.
type AskResponse struct {
	Answer  string       `json:"answer"`
	Sources []sourceJSON `json:"sources"`
}

func (h *AskHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}
	if len(req.Question) > MaxQuestionLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "question too long (max 2000 characters)")
		return
	}
	if req.ClassID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "class_id is required")
		return
	}

	answer, err := h.asker.Ask(r.Context(), req.Question, req.ClassID, req.TopK)
	if err != nil {
		if errors.Is(err, material.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "class not found")
			return
		}
		h.logger.Error("failed to answer question", "class_id", req.ClassID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to answer question")
		return
	}

	sources := make([]sourceJSON, len(answer.Sources))
	for i, s := range answer.Sources {
		sources[i] = sourceJSON{
			MaterialID: s.MaterialID,
			Name:       s.Name,
			FileName:   s.FileName,
			Score:      s.Score,
			Preview:    s.Preview,
		}
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer.Text, Sources: sources})
}
