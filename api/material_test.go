package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askcampus/askcampus/internal/log"
	"github.com/askcampus/askcampus/internal/material"
	"github.com/askcampus/askcampus/internal/storage"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type mockCatalog struct {
	classes []storage.Class
	err     error
}

func (m *mockCatalog) CreateClass(_ context.Context, name string) (storage.Class, error) {
	if m.err != nil {
		return storage.Class{}, m.err
	}
	c := storage.Class{ID: int32(len(m.classes) + 1), Name: name}
	m.classes = append(m.classes, c)
	return c, nil
}

func (m *mockCatalog) ListClasses(_ context.Context) ([]storage.Class, error) {
	return m.classes, m.err
}

type mockMaterials struct {
	created     material.Material
	createErr   error
	updated     material.Material
	updateErr   error
	deleteErr   error
	deletedID   int32
	deletedSoft bool

	lastName     string
	lastFileName string
	lastContent  []byte
}

func (m *mockMaterials) Create(_ context.Context, classID int32, raw []byte, name, fileName string) (material.Material, error) {
	m.lastName, m.lastFileName, m.lastContent = name, fileName, raw
	if m.createErr != nil {
		return material.Material{}, m.createErr
	}
	m.created = material.Material{ID: 7, ClassID: classID, Name: name}
	return m.created, nil
}

func (m *mockMaterials) Update(_ context.Context, id int32, newName string, newContent []byte, fileName string) (material.Material, error) {
	m.lastName, m.lastFileName, m.lastContent = newName, fileName, newContent
	if m.updateErr != nil {
		return material.Material{}, m.updateErr
	}
	m.updated = material.Material{ID: id, ClassID: 1, Name: newName}
	return m.updated, nil
}

func (m *mockMaterials) Delete(_ context.Context, id int32, soft bool) error {
	m.deletedID, m.deletedSoft = id, soft
	return m.deleteErr
}

func (m *mockMaterials) ListByClass(_ context.Context, classID int32) ([]material.Material, error) {
	return []material.Material{{ID: 1, ClassID: classID, Name: "Syllabus"}}, nil
}

// newTestMux wires the handler through a mux so path values resolve.
func newTestMux(catalog Catalog, materials MaterialService) *http.ServeMux {
	mux := http.NewServeMux()
	NewMaterialHandler(catalog, materials, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestCreateClass(t *testing.T) {
	catalog := &mockCatalog{}
	mux := newTestMux(catalog, &mockMaterials{})

	req := httptest.NewRequest(http.MethodPost, "/api/classes",
		strings.NewReader(`{"name":"Operating Systems"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp classJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Operating Systems", resp.Name)
	assert.NotZero(t, resp.ID)
}

func TestCreateClass_MissingName(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockMaterials{})

	req := httptest.NewRequest(http.MethodPost, "/api/classes", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListClasses(t *testing.T) {
	catalog := &mockCatalog{classes: []storage.Class{{ID: 1, Name: "Networks"}}}
	mux := newTestMux(catalog, &mockMaterials{})

	req := httptest.NewRequest(http.MethodGet, "/api/classes", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Classes []classJSON `json:"classes"`
		Total   int         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Networks", resp.Classes[0].Name)
}

func TestIngest(t *testing.T) {
	materials := &mockMaterials{}
	mux := newTestMux(&mockCatalog{}, materials)

	body := `{"name":"Syllabus","file_name":"syllabus.txt","content":"office hours monday"}`
	req := httptest.NewRequest(http.MethodPost, "/api/classes/3/materials", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp materialJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int32(3), resp.ClassID)
	assert.Equal(t, "Syllabus", resp.Name)
	assert.Equal(t, []byte("office hours monday"), materials.lastContent)
	assert.Equal(t, "syllabus.txt", materials.lastFileName)
}

func TestIngest_MissingContent(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockMaterials{})

	req := httptest.NewRequest(http.MethodPost, "/api/classes/3/materials",
		strings.NewReader(`{"name":"Syllabus"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngest_ClassNotFound(t *testing.T) {
	materials := &mockMaterials{createErr: material.ErrNotFound}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodPost, "/api/classes/99/materials",
		strings.NewReader(`{"content":"text"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngest_InvalidID(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockMaterials{})

	req := httptest.NewRequest(http.MethodPost, "/api/classes/abc/materials",
		strings.NewReader(`{"content":"text"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMaterials(t *testing.T) {
	mux := newTestMux(&mockCatalog{}, &mockMaterials{})

	req := httptest.NewRequest(http.MethodGet, "/api/classes/2/materials", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Materials []materialJSON `json:"materials"`
		Total     int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, int32(2), resp.Materials[0].ClassID)
}

func TestUpdate_RenameOnly(t *testing.T) {
	materials := &mockMaterials{}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodPatch, "/api/materials/5",
		strings.NewReader(`{"name":"Syllabus v2"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// Absent content must reach the service as nil, not empty bytes.
	assert.Nil(t, materials.lastContent)
	assert.Equal(t, "Syllabus v2", materials.lastName)
}

func TestUpdate_ReplacesContent(t *testing.T) {
	materials := &mockMaterials{}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodPatch, "/api/materials/5",
		strings.NewReader(`{"content":"new text","file_name":"v2.txt"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("new text"), materials.lastContent)
	assert.Equal(t, "v2.txt", materials.lastFileName)
}

func TestUpdate_NotFound(t *testing.T) {
	materials := &mockMaterials{updateErr: material.ErrNotFound}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodPatch, "/api/materials/404",
		strings.NewReader(`{"name":"x"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemove_SoftByDefault(t *testing.T) {
	materials := &mockMaterials{}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodDelete, "/api/materials/9", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int32(9), materials.deletedID)
	assert.True(t, materials.deletedSoft)
}

func TestRemove_Hard(t *testing.T) {
	materials := &mockMaterials{}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodDelete, "/api/materials/9?hard=true", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, materials.deletedSoft)
}

func TestRemove_NotFound(t *testing.T) {
	materials := &mockMaterials{deleteErr: material.ErrNotFound}
	mux := newTestMux(&mockCatalog{}, materials)

	req := httptest.NewRequest(http.MethodDelete, "/api/materials/9", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
