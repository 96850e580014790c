package librarystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/taless474/plexil1-sub000/pkg/plexilerr"
)

// ErrNotFound is returned by GetLibraryNode when no row matches the name.
var ErrNotFound = errors.New("librarystore: library node not found")

// Store persists library node definitions keyed by name. The exec does
// not consult it when a plan is added; in this module only the debug
// console's /library routes read and write it. A stored Definition is
// opaque to this package.
type Store struct {
	db bun.IDB
}

// New wraps db (a *bun.DB or an open bun.Tx) as a Store.
func New(db bun.IDB) *Store {
	return &Store{db: db}
}

// AddLibraryNode upserts the definition under name, bumping Version on
// conflict. An empty name or definition is rejected before it reaches
// the database.
func (s *Store) AddLibraryNode(ctx context.Context, name string, definition []byte) error {
	if name == "" {
		return plexilerr.NewPlanError("", "library node name must not be empty")
	}
	if len(definition) == 0 {
		return plexilerr.NewPlanError(name, "library node definition must not be empty")
	}

	row := &LibraryNodeModel{
		Name:       name,
		Definition: Definition(definition),
		Version:    1,
	}

	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (name) DO UPDATE").
		Set("definition = EXCLUDED.definition").
		Set("version = plexil_library_nodes.version + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("librarystore: add %q: %w", name, err)
	}
	return nil
}

// GetLibraryNode fetches the current definition stored under name.
func (s *Store) GetLibraryNode(ctx context.Context, name string) ([]byte, error) {
	row := new(LibraryNodeModel)
	err := s.db.NewSelect().
		Model(row).
		Where("name = ?", name).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("librarystore: get %q: %w", name, err)
	}
	return []byte(row.Definition), nil
}

// DeleteLibraryNode removes the definition stored under name. Deleting a
// name that does not exist is not an error.
func (s *Store) DeleteLibraryNode(ctx context.Context, name string) error {
	_, err := s.db.NewDelete().
		Model((*LibraryNodeModel)(nil)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("librarystore: delete %q: %w", name, err)
	}
	return nil
}

// ListLibraryNodeNames returns every registered library node name.
func (s *Store) ListLibraryNodeNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*LibraryNodeModel)(nil)).
		Column("name").
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("librarystore: list: %w", err)
	}
	return names, nil
}
