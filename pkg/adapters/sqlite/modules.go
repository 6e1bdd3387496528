package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/pathway/pkg/domain"
)

// GetModule returns domain.ErrModuleNotFound when no row matches.
func (s *Store) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, access_type, published, owner_id, nodes, edges, created_at, updated_at
		FROM modules WHERE id = ?`, id)

	var (
		m                    domain.Module
		access               string
		nodes, edges         string
		createdAt, updatedAt int64
	)
	err := row.Scan(&m.ID, &m.Title, &m.Description, &access, &m.Published, &m.OwnerID,
		&nodes, &edges, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(nodes), &m.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes of module %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(edges), &m.Edges); err != nil {
		return nil, fmt.Errorf("failed to decode edges of module %s: %w", id, err)
	}
	m.AccessType = domain.AccessType(access)
	m.CreatedAt = fromUnix(createdAt)
	m.UpdatedAt = fromUnix(updatedAt)
	return &m, nil
}

// UpsertModule replaces the whole document. Last writer wins.
func (s *Store) UpsertModule(ctx context.Context, m *domain.Module) error {
	nodes, err := json.Marshal(nonNil(m.Nodes))
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}
	edges, err := json.Marshal(nonNil(m.Edges))
	if err != nil {
		return fmt.Errorf("failed to encode edges: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO modules (id, title, description, access_type, published, owner_id, nodes, edges, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			access_type = excluded.access_type,
			published = excluded.published,
			owner_id = excluded.owner_id,
			nodes = excluded.nodes,
			edges = excluded.edges,
			updated_at = excluded.updated_at`,
		m.ID, m.Title, m.Description, string(m.AccessType), m.Published, m.OwnerID,
		string(nodes), string(edges), toUnix(m.CreatedAt), toUnix(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert module %s: %w", m.ID, err)
	}
	return nil
}

// ListModules returns every module id in ascending order.
func (s *Store) ListModules(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM modules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
