// Package material implements the course-material ingestion pipeline.
//
// A Material is the relational system of record for one uploaded
// document. Its content is split into chunks which live in the vector
// index; the material id stamped into every chunk's metadata is the
// only link between the two stores. Creation indexes synchronously,
// deletion is routed through the outbox so the index cleanup survives
// a crash between the relational commit and the index call.
package material

import (
	"errors"
	"time"
)

// ErrNotFound indicates a referenced material or class does not exist.
// Surfaced to the caller, never retried.
var ErrNotFound = errors.New("not found")

// Material is one uploaded course document. The ID is assigned by the
// relational store on creation and never changes for the document's
// lifetime.
type Material struct {
	ID        int32
	ClassID   int32
	Name      string
	Deleted   bool
	DeletedAt time.Time
}

// Chunk is a bounded span of a material's text, the unit of
// vector-index storage. Chunks carry no identity of their own; they
// are created and destroyed in batches scoped to one material, located
// through the typed metadata below.
type Chunk struct {
	MaterialID int32
	ClassID    int32
	Name       string
	FileName   string
	Text       string
	Seq        int
}
