package redis

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/fsmkit/pkg/record"
)

// presenceField marks a saved record so that an empty attribute set still exists.
const presenceField = "\x00saved"

// updateExisting sets hash fields only when the key already exists.
var updateExisting = backend.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

// Store keeps each record in one hash; every attribute is a JSON-encoded field.
type Store struct {
	client backend.UniversalClient
	prefix string
}

var _ record.Store = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKeyPrefix sets the prefix of record keys.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore wraps an existing client.
func NewStore(client backend.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{client: client, prefix: "fsm:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(kind, id string) string {
	return s.prefix + kind + ":" + id
}

func (s *Store) Save(ctx context.Context, kind, id string, attrs map[string]any) error {
	values, err := encodeFields(attrs)
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", kind, id, err)
	}
	values = append(values, presenceField, "1")

	key := s.key(kind, id)
	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save record %s: %w", key, err)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, kind, id string, fields map[string]any) error {
	key := s.key(kind, id)
	if len(fields) == 0 {
		n, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("update record %s: %w", key, err)
		}
		if n == 0 {
			return record.ErrNotFound
		}
		return nil
	}

	values, err := encodeFields(fields)
	if err != nil {
		return fmt.Errorf("encode fields %s: %w", key, err)
	}
	updated, err := updateExisting.Run(ctx, s.client, []string{key}, values...).Int()
	if err != nil {
		return fmt.Errorf("update record %s: %w", key, err)
	}
	if updated == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (s *Store) Load(ctx context.Context, kind, id string) (map[string]any, error) {
	key := s.key(kind, id)
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, record.ErrNotFound
	}

	attrs := make(map[string]any, len(raw))
	for name, encoded := range raw {
		if name == presenceField {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(encoded), &v); err != nil {
			return nil, fmt.Errorf("decode field %s of %s: %w", name, key, err)
		}
		attrs[name] = v
	}
	return attrs, nil
}

func (s *Store) Delete(ctx context.Context, kind, id string) error {
	key := s.key(kind, id)
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func encodeFields(fields map[string]any) ([]any, error) {
	values := make([]any, 0, len(fields)*2)
	for name, v := range fields {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		values = append(values, name, string(encoded))
	}
	return values, nil
}
