package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/record"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its dialect and filesystem in package globals.
var migrateMu sync.Mutex

var (
	ErrEmptyPath              = errors.New("sqlite path is required")
	ErrFailedToOpen           = errors.New("failed to open sqlite database")
	ErrFailedToApplyMigration = errors.New("failed to apply sqlite migrations")
	ErrInvalidAttributeName   = errors.New("attribute name cannot contain double quotes")
)

// Store keeps records in the fsm_records table as JSON text.
type Store struct {
	db *sql.DB
}

var _ record.Store = (*Store)(nil)

// Open opens the database file, applies the embedded migrations and returns a Store.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	if path != ":memory:" {
		path = filepath.Clean(path)
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)", path, busy.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	db.SetMaxOpenConns(max(cfg.MaxOpenConns, 1))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	if err := migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.DebugContext(ctx, "sqlite store ready", logger.Backend("sqlite"), slog.String("path", path))
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Join(ErrFailedToApplyMigration, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		log.ErrorContext(ctx, "sqlite migration failed", logger.Error(err))
		return errors.Join(ErrFailedToApplyMigration, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Healthcheck returns a closure that pings the database.
func (s *Store) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	}
}

func (s *Store) Save(ctx context.Context, kind, id string, attrs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	payload, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", kind, id, err)
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fsm_records (kind, id, attributes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (kind, id) DO UPDATE SET attributes = excluded.attributes, updated_at = excluded.updated_at`,
		kind, id, string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("save record %s/%s: %w", kind, id, err)
	}
	return nil
}

// UpdateFields sets each field with json_set so that other keys keep their stored values.
func (s *Store) UpdateFields(ctx context.Context, kind, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	expr := "attributes"
	args := make([]any, 0, len(fields)+3)
	if len(fields) > 0 {
		var b strings.Builder
		b.WriteString("json_set(attributes")
		for name, v := range fields {
			if strings.Contains(name, `"`) {
				return fmt.Errorf("update record %s/%s: %w: %q", kind, id, ErrInvalidAttributeName, name)
			}
			encoded, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode field %s of %s/%s: %w", name, kind, id, err)
			}
			fmt.Fprintf(&b, `, '$."%s"', json(?)`, strings.ReplaceAll(name, "'", "''"))
			args = append(args, string(encoded))
		}
		b.WriteString(")")
		expr = b.String()
	}
	args = append(args, time.Now().UTC().UnixMilli(), kind, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE fsm_records SET attributes = "+expr+", updated_at = ? WHERE kind = ? AND id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update record %s/%s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %s/%s: %w", kind, id, err)
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (s *Store) Load(ctx context.Context, kind, id string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT attributes FROM fsm_records WHERE kind = ? AND id = ?`, kind, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, record.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s/%s: %w", kind, id, err)
	}
	attrs := make(map[string]any)
	if err := json.Unmarshal([]byte(payload), &attrs); err != nil {
		return nil, fmt.Errorf("decode record %s/%s: %w", kind, id, err)
	}
	return attrs, nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM fsm_records WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("delete record %s/%s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s/%s: %w", kind, id, err)
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}
