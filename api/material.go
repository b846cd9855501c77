package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/askcampus/askcampus/internal/log"
	"github.com/askcampus/askcampus/internal/material"
	"github.com/askcampus/askcampus/internal/storage"
)

// Request validation constants.
const (
	MaxNameLength   = 200
	MaxContentBytes = 4 << 20 // largest accepted document
)

// Catalog covers the class operations the handler needs.
// *storage.Store satisfies it.
type Catalog interface {
	CreateClass(ctx context.Context, name string) (storage.Class, error)
	ListClasses(ctx context.Context) ([]storage.Class, error)
}

// MaterialService covers the material lifecycle the handler needs.
// *material.Service satisfies it.
type MaterialService interface {
	Create(ctx context.Context, classID int32, raw []byte, name, fileName string) (material.Material, error)
	Update(ctx context.Context, id int32, newName string, newContent []byte, fileName string) (material.Material, error)
	Delete(ctx context.Context, id int32, soft bool) error
	ListByClass(ctx context.Context, classID int32) ([]material.Material, error)
}

// MaterialHandler handles class and material HTTP endpoints.
type MaterialHandler struct {
	catalog   Catalog
	materials MaterialService
	logger    log.Logger
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(catalog Catalog, materials MaterialService, logger log.Logger) *MaterialHandler {
	return &MaterialHandler{catalog: catalog, materials: materials, logger: logger}
}

// RegisterRoutes registers class and material routes on the given mux.
func (h *MaterialHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/classes", h.listClasses)
	mux.HandleFunc("POST /api/classes", h.createClass)
	mux.HandleFunc("GET /api/classes/{id}/materials", h.listMaterials)
	mux.HandleFunc("POST /api/classes/{id}/materials", h.ingest)
	mux.HandleFunc("PATCH /api/materials/{id}", h.update)
	mux.HandleFunc("DELETE /api/materials/{id}", h.remove)
}

// classJSON is the wire form of a class.
type classJSON struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// materialJSON is the wire form of a material.
type materialJSON struct {
	ID      int32  `json:"id"`
	ClassID int32  `json:"class_id"`
	Name    string `json:"name"`
}

func toMaterialJSON(m material.Material) materialJSON {
	return materialJSON{ID: m.ID, ClassID: m.ClassID, Name: m.Name}
}

func (h *MaterialHandler) listClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.catalog.ListClasses(r.Context())
	if err != nil {
		h.logger.Error("failed to list classes", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list classes")
		return
	}

	out := make([]classJSON, len(classes))
	for i, c := range classes {
		out[i] = classJSON{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, map[string]any{"classes": out, "total": len(out)})
}

// CreateClassRequest is the request body for creating a class.
type CreateClassRequest struct {
	Name string `json:"name"`
}

func (h *MaterialHandler) createClass(w http.ResponseWriter, r *http.Request) {
	var req CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	if len(req.Name) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "name too long (max 200 characters)")
		return
	}

	c, err := h.catalog.CreateClass(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("failed to create class", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create class")
		return
	}
	writeJSON(w, http.StatusCreated, classJSON{ID: c.ID, Name: c.Name})
}

func (h *MaterialHandler) listMaterials(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r)
	if !ok {
		return
	}

	materials, err := h.materials.ListByClass(r.Context(), classID)
	if err != nil {
		h.logger.Error("failed to list materials", "class_id", classID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list materials")
		return
	}

	out := make([]materialJSON, len(materials))
	for i, m := range materials {
		out[i] = toMaterialJSON(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": out, "total": len(out)})
}

// IngestRequest is the request body for ingesting a document.
type IngestRequest struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

func (h *MaterialHandler) ingest(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxContentBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}
	if len(req.Name) > MaxNameLength || len(req.FileName) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "name too long (max 200 characters)")
		return
	}

	m, err := h.materials.Create(r.Context(), classID, []byte(req.Content), req.Name, req.FileName)
	if err != nil {
		if errors.Is(err, material.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "class not found")
			return
		}
		h.logger.Error("failed to ingest material", "class_id", classID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to ingest material")
		return
	}
	writeJSON(w, http.StatusCreated, toMaterialJSON(m))
}

// UpdateMaterialRequest is the request body for updating a material.
// Content nil means rename-only; content set replaces every chunk.
type UpdateMaterialRequest struct {
	Name     string  `json:"name"`
	FileName string  `json:"file_name"`
	Content  *string `json:"content"`
}

func (h *MaterialHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateMaterialRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxContentBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if len(req.Name) > MaxNameLength || len(req.FileName) > MaxNameLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "name too long (max 200 characters)")
		return
	}

	var content []byte
	if req.Content != nil {
		content = []byte(*req.Content)
	}

	m, err := h.materials.Update(r.Context(), id, req.Name, content, req.FileName)
	if err != nil {
		if errors.Is(err, material.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "material not found")
			return
		}
		h.logger.Error("failed to update material", "material_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update material")
		return
	}
	writeJSON(w, http.StatusOK, toMaterialJSON(m))
}

func (h *MaterialHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	soft := r.URL.Query().Get("hard") != "true"

	if err := h.materials.Delete(r.Context(), id, soft); err != nil {
		if errors.Is(err, material.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "material not found")
			return
		}
		h.logger.Error("failed to delete material", "material_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete material")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment. On failure it writes a 400
// response and returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 32)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid id")
		return 0, false
	}
	return int32(id), true
}
