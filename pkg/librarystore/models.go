// Package librarystore persists library node definitions (named,
// reusable plan subtrees that a LibraryCall node instantiates by name at
// plan-add time) so a host application can register and look them up
// without recompiling them into every plan that references them.
package librarystore

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Definition is a custom type for the JSONB-encoded library node body.
// The exec treats it as opaque bytes; only the plan builder that
// instantiates a LibraryCall knows how to interpret it.
type Definition json.RawMessage

// Value implements driver.Valuer for database serialization.
func (d Definition) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "{}", nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner for database deserialization.
func (d *Definition) Scan(value interface{}) error {
	if value == nil {
		*d = Definition("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*d = Definition(append([]byte(nil), v...))
		return nil
	case string:
		*d = Definition(v)
		return nil
	default:
		return errors.New("librarystore: Scan: value is not []byte or string")
	}
}

// LibraryNodeModel is the row shape for a stored library node.
type LibraryNodeModel struct {
	bun.BaseModel `bun:"table:plexil_library_nodes,alias:ln"`

	ID         int64      `bun:"id,pk,autoincrement" json:"id"`
	Name       string     `bun:"name,notnull,unique" json:"name"`
	Definition Definition `bun:"definition,type:jsonb,notnull" json:"definition"`
	Version    int        `bun:"version,notnull,default:1" json:"version"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (m *LibraryNodeModel) BeforeInsert(ctx context.Context, query *bun.InsertQuery) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

func (m *LibraryNodeModel) BeforeUpdate(ctx context.Context, query *bun.UpdateQuery) error {
	m.UpdatedAt = time.Now()
	return nil
}
