// Package outbox implements the transactional-outbox bridge between
// the relational store and the vector index.
//
// A deletion commits its outbox event in the same transaction as the
// material row change. The relay then drains pending events and applies
// them to the index, so index cleanup survives a crash between the
// relational commit and the index call. Events are published at least
// once; every consumer-side action must be idempotent.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// Aggregate and event type identifiers carried on the wire. These are
// stored in event rows, so renaming them is a migration.
const (
	AggregateMaterial = "Material"

	EventDelete = "DELETE"
)

// Event is one pending or published outbox row.
type Event struct {
	ID          int64
	Aggregate   string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// Published reports whether the event has been applied to the index.
func (e Event) Published() bool {
	return e.PublishedAt != nil
}

// DeletePayload is the JSON body of a material deletion event.
type DeletePayload struct {
	MaterialID int32 `json:"material_id"`
}

// EncodeDeletePayload serializes a deletion payload for the event row.
func EncodeDeletePayload(materialID int32) ([]byte, error) {
	b, err := json.Marshal(DeletePayload{MaterialID: materialID})
	if err != nil {
		return nil, fmt.Errorf("encoding delete payload: %w", err)
	}
	return b, nil
}

// DecodeDeletePayload parses a deletion payload. A payload without a
// positive material id is malformed.
func DecodeDeletePayload(raw []byte) (DeletePayload, error) {
	var p DeletePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return DeletePayload{}, fmt.Errorf("decoding delete payload: %w", err)
	}
	if p.MaterialID <= 0 {
		return DeletePayload{}, fmt.Errorf("delete payload missing material_id: %s", raw)
	}
	return p, nil
}
