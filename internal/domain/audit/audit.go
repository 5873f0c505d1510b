// Package audit defines the audit trail contract for document changes.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionRecalculate Action = "recalculate"
	ActionGenerate    Action = "generate"
)

// Entry is one audit record. Changes holds a JSON snapshot or diff.
type Entry struct {
	EntityType string
	EntityID   int64
	Action     Action
	Changes    json.RawMessage
	Metadata   json.RawMessage
}

// Recorder stores audit entries. Implementations write inside the
// transaction carried by ctx, if any.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NewEntry marshals changes and metadata into an Entry.
func NewEntry(entityType string, entityID int64, action Action, changes, metadata any) (Entry, error) {
	e := Entry{EntityType: entityType, EntityID: entityID, Action: action}
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			return e, fmt.Errorf("marshal audit changes: %w", err)
		}
		e.Changes = b
	}
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return e, fmt.Errorf("marshal audit metadata: %w", err)
		}
		e.Metadata = b
	}
	return e, nil
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// MemoryRecorder keeps entries in memory. Used by tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	Entries []Entry
}

func (r *MemoryRecorder) Record(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
	return nil
}
