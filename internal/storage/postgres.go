// Package storage implements the relational store on PostgreSQL.
//
// It backs the material service, the ask service's class checks and the
// outbox relay. Material deletion and its outbox event are written in
// one transaction; that single commit is what makes the index cleanup
// reliable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askcampus/askcampus/internal/material"
	"github.com/askcampus/askcampus/internal/outbox"
)

// Class is one course class owning materials.
type Class struct {
	ID        int32
	Name      string
	CreatedAt time.Time
}

// Store is the pgx-backed relational store.
//
// Safe for concurrent use; pgxpool handles connection management.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store on an existing pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// ============================================================================
// Classes
// ============================================================================

// CreateClass inserts a class and returns it with its id set.
func (s *Store) CreateClass(ctx context.Context, name string) (Class, error) {
	var c Class
	err := s.pool.QueryRow(ctx,
		`INSERT INTO class (name) VALUES ($1) RETURNING id, name, created_at`,
		name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return Class{}, fmt.Errorf("inserting class: %w", err)
	}
	return c, nil
}

// ClassExists reports whether the class exists.
func (s *Store) ClassExists(ctx context.Context, classID int32) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM class WHERE id = $1)`, classID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking class %d: %w", classID, err)
	}
	return exists, nil
}

// FindClassName returns the class's name.
func (s *Store) FindClassName(ctx context.Context, classID int32) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT name FROM class WHERE id = $1`, classID,
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", material.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finding class %d: %w", classID, err)
	}
	return name, nil
}

// ListClasses returns all classes, oldest first.
func (s *Store) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at FROM class ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// ============================================================================
// Materials
// ============================================================================

// InsertMaterial persists a new material row.
func (s *Store) InsertMaterial(ctx context.Context, classID int32, name string) (material.Material, error) {
	var m material.Material
	err := s.pool.QueryRow(ctx,
		`INSERT INTO material (class_id, name) VALUES ($1, $2) RETURNING id, class_id, name`,
		classID, name,
	).Scan(&m.ID, &m.ClassID, &m.Name)
	if err != nil {
		return material.Material{}, fmt.Errorf("inserting material: %w", err)
	}
	return m, nil
}

// RenameMaterial updates an active material's name.
func (s *Store) RenameMaterial(ctx context.Context, id int32, name string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE material SET name = $2 WHERE id = $1 AND NOT is_deleted`, id, name)
	if err != nil {
		return fmt.Errorf("renaming material %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return material.ErrNotFound
	}
	return nil
}

// FindMaterial returns an active material by id.
func (s *Store) FindMaterial(ctx context.Context, id int32) (material.Material, error) {
	var m material.Material
	var deletedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, class_id, name, is_deleted, deleted_at
		 FROM material WHERE id = $1 AND NOT is_deleted`, id,
	).Scan(&m.ID, &m.ClassID, &m.Name, &m.Deleted, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return material.Material{}, material.ErrNotFound
	}
	if err != nil {
		return material.Material{}, fmt.Errorf("finding material %d: %w", id, err)
	}
	if deletedAt != nil {
		m.DeletedAt = *deletedAt
	}
	return m, nil
}

// ListActiveMaterials lists a class's non-deleted materials, oldest
// first.
func (s *Store) ListActiveMaterials(ctx context.Context, classID int32) ([]material.Material, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, class_id, name FROM material
		 WHERE class_id = $1 AND NOT is_deleted ORDER BY id`, classID)
	if err != nil {
		return nil, fmt.Errorf("listing materials of class %d: %w", classID, err)
	}
	defer rows.Close()

	var materials []material.Material
	for rows.Next() {
		var m material.Material
		if err := rows.Scan(&m.ID, &m.ClassID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// DeleteMaterial removes the material and records its deletion outbox
// event in one transaction. Soft delete flags the row; hard delete
// removes it. Either way the commit guarantees the index cleanup will
// eventually run.
func (s *Store) DeleteMaterial(ctx context.Context, id int32, soft bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var tag string
	if soft {
		tag = `UPDATE material SET is_deleted = TRUE, deleted_at = now()
		       WHERE id = $1 AND NOT is_deleted`
	} else {
		tag = `DELETE FROM material WHERE id = $1`
	}
	res, err := tx.Exec(ctx, tag, id)
	if err != nil {
		return fmt.Errorf("deleting material %d: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return material.ErrNotFound
	}

	payload, err := outbox.EncodeDeletePayload(id)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO outbox_event (aggregate, aggregate_id, event_type, payload)
		 VALUES ($1, $2, $3, $4)`,
		outbox.AggregateMaterial, strconv.FormatInt(int64(id), 10), outbox.EventDelete, payload,
	); err != nil {
		return fmt.Errorf("recording outbox event for material %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete of material %d: %w", id, err)
	}

	s.logger.Debug("material delete committed", "material_id", id, "soft", soft)
	return nil
}

// ============================================================================
// Outbox
// ============================================================================

// ListUnpublished returns pending outbox events oldest first.
func (s *Store) ListUnpublished(ctx context.Context, limit int32) ([]outbox.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, aggregate, aggregate_id, event_type, payload, created_at, published_at
		 FROM outbox_event WHERE published_at IS NULL
		 ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var ev outbox.Event
		if err := rows.Scan(&ev.ID, &ev.Aggregate, &ev.AggregateID, &ev.EventType,
			&ev.Payload, &ev.CreatedAt, &ev.PublishedAt); err != nil {
			return nil, fmt.Errorf("scanning outbox event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// MarkPublished stamps the event's published_at. Already-published
// events are left untouched, so replays are harmless.
func (s *Store) MarkPublished(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_event SET published_at = now()
		 WHERE id = $1 AND published_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("marking outbox event %d published: %w", id, err)
	}
	return nil
}
