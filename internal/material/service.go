package material

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Ingestion defaults. Batches of 32 chunks keep individual index calls
// small; concurrency 1 serializes writes so the index is never hammered
// by a single upload.
const (
	DefaultBatchSize   = 32
	DefaultConcurrency = 1
)

// Store defines the relational-store operations needed by Service.
// Interfaces are defined by the consumer, not the provider (io.Reader,
// sql.Driver), so Service depends on an abstraction it can mock.
type Store interface {
	// ClassExists reports whether the owning class exists.
	ClassExists(ctx context.Context, classID int32) (bool, error)

	// InsertMaterial persists a new material row and returns it with
	// its store-assigned identifier set.
	InsertMaterial(ctx context.Context, classID int32, name string) (Material, error)

	// RenameMaterial updates an active material's display name.
	RenameMaterial(ctx context.Context, id int32, name string) error

	// FindMaterial returns a material by id, ErrNotFound if absent.
	FindMaterial(ctx context.Context, id int32) (Material, error)

	// ListActiveMaterials lists a class's non-deleted materials.
	ListActiveMaterials(ctx context.Context, classID int32) ([]Material, error)

	// DeleteMaterial removes the row (soft: flag+timestamp, hard:
	// physical delete) AND records the deletion outbox event in the
	// same transaction. The vector-index cleanup happens later via the
	// relay; it is never performed here.
	DeleteMaterial(ctx context.Context, id int32, soft bool) error
}

// VectorIndex defines the index operations needed by Service.
type VectorIndex interface {
	// Add embeds and stores one batch of chunks.
	Add(ctx context.Context, chunks []Chunk) error

	// DeleteByMaterial removes every chunk tagged with the material id.
	DeleteByMaterial(ctx context.Context, materialID int32) error
}

// Option configures a Service.
type Option func(*Service)

// WithBatchSize sets how many chunks are submitted per index call.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency bounds how many batches may be in flight at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Service orchestrates material create/update/delete across the
// relational store and the vector index.
//
// Safe for concurrent use; all state is set at construction.
type Service struct {
	store       Store
	index       VectorIndex
	splitter    *Splitter
	logger      *slog.Logger
	batchSize   int
	concurrency int
}

// NewService creates a material Service.
func NewService(store Store, index VectorIndex, splitter *Splitter, logger *slog.Logger, opts ...Option) *Service {
	if splitter == nil {
		splitter = NewSplitter(DefaultWindowWords, DefaultOverlapWords)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		store:       store,
		index:       index,
		splitter:    splitter,
		logger:      logger,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create ingests a new document into a class.
//
// The relational row is the durability boundary: it is persisted first
// to obtain the material's stable identifier, then the content is
// split, embedded and indexed outside any transaction. If indexing
// fails the row remains without vectors and the error is surfaced to
// the caller; no compensation is attempted.
func (s *Service) Create(ctx context.Context, classID int32, raw []byte, name, fileName string) (Material, error) {
	ok, err := s.store.ClassExists(ctx, classID)
	if err != nil {
		return Material{}, fmt.Errorf("checking class %d: %w", classID, err)
	}
	if !ok {
		return Material{}, fmt.Errorf("class %d: %w", classID, ErrNotFound)
	}

	if name == "" {
		name = fileName
	}

	m, err := s.store.InsertMaterial(ctx, classID, name)
	if err != nil {
		return Material{}, fmt.Errorf("inserting material: %w", err)
	}

	chunks := s.buildChunks(m, fileName, string(raw))
	if err := s.indexChunks(ctx, chunks); err != nil {
		// Row is already durable; flagged as an accepted inconsistency
		// until creation is routed through the outbox as well.
		s.logger.Warn("material row persisted without vectors",
			"material_id", m.ID, "class_id", classID, "error", err)
		return Material{}, fmt.Errorf("indexing material %d: %w", m.ID, err)
	}

	s.logger.Debug("material created",
		"material_id", m.ID, "class_id", classID, "chunks", len(chunks))
	return m, nil
}

// Update renames a material and/or replaces its content.
//
// Rename-only touches the relational row. Replacing content performs a
// delete-then-reinsert: a synchronous filter-delete of the material's
// chunks (the caller is waiting, so this does not go through the
// outbox), then a re-run of split+index with the new content.
func (s *Service) Update(ctx context.Context, id int32, newName string, newContent []byte, fileName string) (Material, error) {
	m, err := s.store.FindMaterial(ctx, id)
	if err != nil {
		return Material{}, err
	}

	if newName != "" && newName != m.Name {
		if err := s.store.RenameMaterial(ctx, id, newName); err != nil {
			return Material{}, fmt.Errorf("renaming material %d: %w", id, err)
		}
		m.Name = newName
	}

	if newContent == nil {
		return m, nil
	}

	if err := s.index.DeleteByMaterial(ctx, id); err != nil {
		return Material{}, fmt.Errorf("deleting chunks of material %d: %w", id, err)
	}

	chunks := s.buildChunks(m, fileName, string(newContent))
	if err := s.indexChunks(ctx, chunks); err != nil {
		return Material{}, fmt.Errorf("reindexing material %d: %w", id, err)
	}

	s.logger.Debug("material content replaced",
		"material_id", id, "chunks", len(chunks))
	return m, nil
}

// Delete removes a material (soft or hard). The call succeeds once the
// relational transaction commits; the same transaction records the
// deletion outbox event, and the relay removes the material's chunks
// from the vector index asynchronously. Index failures therefore never
// surface to the caller of Delete.
func (s *Service) Delete(ctx context.Context, id int32, soft bool) error {
	if _, err := s.store.FindMaterial(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteMaterial(ctx, id, soft); err != nil {
		return fmt.Errorf("deleting material %d: %w", id, err)
	}

	s.logger.Debug("material deleted", "material_id", id, "soft", soft)
	return nil
}

// Get returns a material by id.
func (s *Service) Get(ctx context.Context, id int32) (Material, error) {
	return s.store.FindMaterial(ctx, id)
}

// ListByClass lists a class's active materials.
func (s *Service) ListByClass(ctx context.Context, classID int32) ([]Material, error) {
	return s.store.ListActiveMaterials(ctx, classID)
}

// buildChunks splits text and stamps every chunk with the material's
// metadata so the index can locate and remove them later.
func (s *Service) buildChunks(m Material, fileName, text string) []Chunk {
	parts := s.splitter.Split(text)
	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = Chunk{
			MaterialID: m.ID,
			ClassID:    m.ClassID,
			Name:       m.Name,
			FileName:   fileName,
			Text:       part,
			Seq:        i,
		}
	}
	return chunks
}

// indexChunks submits chunks to the index in fixed-size batches through
// a bounded worker pool and waits for every batch. The first failing
// batch cancels the group context, which stops further submissions;
// batches already accepted by the index are not rolled back.
func (s *Service) indexChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for start := 0; start < len(chunks); start += s.batchSize {
		if gctx.Err() != nil {
			break
		}
		batch := chunks[start:min(start+s.batchSize, len(chunks))]
		g.Go(func() error {
			return s.index.Add(gctx, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("adding chunk batch: %w", err)
	}
	// Caller cancellation may have stopped submissions without any
	// batch reporting an error; the ingestion is still incomplete.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ingestion canceled: %w", err)
	}
	return nil
}
