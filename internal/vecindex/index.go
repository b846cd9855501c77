package vecindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/time/rate"

	"github.com/askcampus/askcampus/internal/material"
)

// Querier defines the database operations Index needs. *pgxpool.Pool
// satisfies it; tests supply a fake.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Option configures an Index.
type Option func(*Index)

// WithRateLimit throttles embedding calls to r requests per second
// with the given burst. Unset means no throttling.
func WithRateLimit(r float64, burst int) Option {
	return func(ix *Index) {
		ix.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// Index is the pgvector-backed chunk index.
//
// Safe for concurrent use by multiple goroutines.
type Index struct {
	db       Querier
	embedder ai.Embedder
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates an Index.
func New(db Querier, embedder ai.Embedder, logger *slog.Logger, opts ...Option) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add embeds one batch of chunks in a single embedder call and inserts
// the rows. The batch either lands completely or the error is returned;
// partially inserted batches are possible only on a mid-loop database
// failure, and re-running the ingestion after a filter-delete recovers.
func (ix *Index) Add(ctx context.Context, chunks []material.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := ix.embed(ctx, chunkTexts(chunks))
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	const insert = `
		INSERT INTO material_chunks (id, material_id, class_id, name, file_name, content, seq, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, chunk := range chunks {
		vec := pgvector.NewVector(vectors[i])
		if _, err := ix.db.Exec(ctx, insert,
			uuid.New().String(), chunk.MaterialID, chunk.ClassID,
			chunk.Name, chunk.FileName, chunk.Text, chunk.Seq, &vec,
		); err != nil {
			return fmt.Errorf("inserting chunk %d of material %d: %w", chunk.Seq, chunk.MaterialID, err)
		}
	}

	ix.logger.Debug("chunks indexed",
		"material_id", chunks[0].MaterialID, "count", len(chunks))
	return nil
}

// Search embeds the query and returns the nearest chunks by cosine
// distance, honoring the class filter and similarity threshold.
func (ix *Index) Search(ctx context.Context, query string, opts ...SearchOption) ([]Hit, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vectors, err := ix.embed(queryCtx, []string{query})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := pgvector.NewVector(vectors[0])

	// Cosine similarity s relates to pgvector's <=> distance d as
	// s = 1 - d, so a similarity floor becomes a distance ceiling.
	sql := `
		SELECT material_id, class_id, name, file_name, content, embedding <=> $1 AS distance
		FROM material_chunks`
	args := []any{&queryVec}

	var where []string
	if cfg.hasClass {
		args = append(args, cfg.classID)
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if cfg.threshold > 0 {
		args = append(args, 1-cfg.threshold)
		where = append(where, fmt.Sprintf("embedding <=> $1 <= $%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			sql += "\n\t\tWHERE " + cond
		} else {
			sql += " AND " + cond
		}
	}
	args = append(args, cfg.topK)
	sql += fmt.Sprintf("\n\t\tORDER BY distance LIMIT $%d", len(args))

	rows, err := ix.db.Query(queryCtx, sql, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.MaterialID, &h.ClassID, &h.Name, &h.FileName, &h.Text, &h.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading hits: %w", err)
	}
	return hits, nil
}

// DeleteByMaterial removes every chunk of one material. Deleting a
// material that has no chunks is not an error.
func (ix *Index) DeleteByMaterial(ctx context.Context, materialID int32) error {
	tag, err := ix.db.Exec(ctx, `DELETE FROM material_chunks WHERE material_id = $1`, materialID)
	if err != nil {
		return fmt.Errorf("deleting chunks of material %d: %w", materialID, err)
	}
	ix.logger.Debug("chunks deleted", "material_id", materialID, "rows", tag.RowsAffected())
	return nil
}

// DeleteByClass removes every chunk of one class.
func (ix *Index) DeleteByClass(ctx context.Context, classID int32) error {
	tag, err := ix.db.Exec(ctx, `DELETE FROM material_chunks WHERE class_id = $1`, classID)
	if err != nil {
		return fmt.Errorf("deleting chunks of class %d: %w", classID, err)
	}
	ix.logger.Debug("class chunks deleted", "class_id", classID, "rows", tag.RowsAffected())
	return nil
}

// embed generates vectors for the given texts in one embedder request,
// waiting on the rate limiter first when one is configured.
func (ix *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if ix.limiter != nil {
		if err := ix.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for embed slot: %w", err)
		}
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}

	resp, err := ix.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at position %d", i)
		}
		vectors[i] = e.Embedding
	}
	return vectors, nil
}

func chunkTexts(chunks []material.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
