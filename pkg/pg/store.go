package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/fsmkit/pkg/record"
)

// querier is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store keeps records in the fsm_records table, one jsonb document per record.
type Store struct {
	db querier
}

var _ record.Store = (*Store)(nil)

// NewStore wraps a pool, connection or transaction. Run Migrate first.
func NewStore(db querier) *Store {
	return &Store{db: db}
}

const (
	upsertRecord = `INSERT INTO fsm_records (kind, id, attributes)
VALUES ($1, $2, $3)
ON CONFLICT (kind, id) DO UPDATE SET attributes = EXCLUDED.attributes, updated_at = now()`

	// jsonb || merges top-level keys, leaving the others untouched.
	patchRecord = `UPDATE fsm_records SET attributes = attributes || $3::jsonb, updated_at = now()
WHERE kind = $1 AND id = $2`

	selectRecord = `SELECT attributes FROM fsm_records WHERE kind = $1 AND id = $2`
	deleteRecord = `DELETE FROM fsm_records WHERE kind = $1 AND id = $2`
)

func (s *Store) Save(ctx context.Context, kind, id string, attrs map[string]any) error {
	payload, err := json.Marshal(nonNil(attrs))
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", kind, id, err)
	}
	if _, err := s.db.Exec(ctx, upsertRecord, kind, id, payload); err != nil {
		return fmt.Errorf("save record %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, kind, id string, fields map[string]any) error {
	payload, err := json.Marshal(nonNil(fields))
	if err != nil {
		return fmt.Errorf("encode fields %s/%s: %w", kind, id, err)
	}
	tag, err := s.db.Exec(ctx, patchRecord, kind, id, payload)
	if err != nil {
		return fmt.Errorf("update record %s/%s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (s *Store) Load(ctx context.Context, kind, id string) (map[string]any, error) {
	var payload []byte
	if err := s.db.QueryRow(ctx, selectRecord, kind, id).Scan(&payload); err != nil {
		if IsNotFoundError(err) {
			return nil, record.ErrNotFound
		}
		return nil, fmt.Errorf("load record %s/%s: %w", kind, id, err)
	}
	attrs := make(map[string]any)
	if err := json.Unmarshal(payload, &attrs); err != nil {
		return nil, fmt.Errorf("decode record %s/%s: %w", kind, id, err)
	}
	return attrs, nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	tag, err := s.db.Exec(ctx, deleteRecord, kind, id)
	if err != nil {
		return fmt.Errorf("delete record %s/%s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return record.ErrNotFound
	}
	return nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
