package footprints

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIndexer maintains multi-value secondary indexes over record
// attributes using Redis Sets, so equality filters on registered attributes
// resolve in O(1) instead of scanning every record in the backend.
//
// Typical registrations are foreign-key attributes:
//
//	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})
//
// which keeps idx:book:authorId:<value> → {bookId, ...} current as records
// are written. A nil Redis client degrades every operation to a no-op, so
// the index is an accelerator, never a dependency.
type RedisIndexer struct {
	redis      *redis.Client
	specs      map[string][]IndexSpec // model name → registered specs
	ownsClient bool
}

// IndexSpec registers a secondary index on one model attribute
type IndexSpec struct {
	Model     string
	Attribute string
	TTL       time.Duration // optional expiry for index keys (0 = no expiry)
}

// NewRedisIndexer creates a Redis-backed indexer sharing the given client
func NewRedisIndexer(client *redis.Client) *RedisIndexer {
	return &RedisIndexer{
		redis: client,
		specs: make(map[string][]IndexSpec),
	}
}

// NewRedisIndexerWithOwnedClient creates an indexer that closes the Redis
// client when Close is called.
func NewRedisIndexerWithOwnedClient(client *redis.Client) *RedisIndexer {
	return &RedisIndexer{
		redis:      client,
		specs:      make(map[string][]IndexSpec),
		ownsClient: true,
	}
}

// Register adds an index specification. Call before writing records; existing
// records are not back-filled automatically (see Rebuild).
func (r *RedisIndexer) Register(spec IndexSpec) {
	r.specs[spec.Model] = append(r.specs[spec.Model], spec)
}

// Indexed reports whether an attribute of a model has a registered index
func (r *RedisIndexer) Indexed(model, attribute string) bool {
	if r == nil || r.redis == nil {
		return false
	}
	for _, spec := range r.specs[model] {
		if spec.Attribute == attribute {
			return true
		}
	}
	return false
}

// Update adds a record to every registered index for its model
func (r *RedisIndexer) Update(ctx context.Context, model *Model, rec Record) error {
	if r == nil || r.redis == nil {
		return nil // Graceful degradation if Redis unavailable
	}

	id := indexValue(rec[model.PrimaryKey])
	if id == "" {
		return nil
	}

	for _, spec := range r.specs[model.Name] {
		value := indexValue(rec[spec.Attribute])
		if value == "" {
			continue // Record doesn't carry this attribute
		}
		setKey := r.setKey(model.Name, spec.Attribute, value)

		if err := r.redis.SAdd(ctx, setKey, id).Err(); err != nil {
			return fmt.Errorf("failed to add to index %s: %w", setKey, err)
		}
		if spec.TTL > 0 {
			r.redis.Expire(ctx, setKey, spec.TTL)
		}
	}
	return nil
}

// Remove deletes a record from every registered index for its model
func (r *RedisIndexer) Remove(ctx context.Context, model *Model, rec Record) error {
	if r == nil || r.redis == nil {
		return nil
	}

	id := indexValue(rec[model.PrimaryKey])
	if id == "" {
		return nil
	}

	for _, spec := range r.specs[model.Name] {
		value := indexValue(rec[spec.Attribute])
		if value == "" {
			continue
		}
		setKey := r.setKey(model.Name, spec.Attribute, value)
		if err := r.redis.SRem(ctx, setKey, id).Err(); err != nil {
			return fmt.Errorf("failed to remove from index %s: %w", setKey, err)
		}
	}
	return nil
}

// Replace moves a record between index values after an update. With a nil
// old record it behaves like Update (create case).
func (r *RedisIndexer) Replace(ctx context.Context, model *Model, old, updated Record) error {
	if r == nil || r.redis == nil {
		return nil
	}

	if old != nil {
		if err := r.Remove(ctx, model, old); err != nil {
			return err
		}
	}
	return r.Update(ctx, model, updated)
}

// Lookup returns the ids of records whose attribute equals value. The second
// return reports whether the attribute is indexed at all; callers fall back
// to a scan when it is false.
func (r *RedisIndexer) Lookup(ctx context.Context, model, attribute string, value interface{}) ([]string, bool, error) {
	if !r.Indexed(model, attribute) {
		return nil, false, nil
	}

	setKey := r.setKey(model, attribute, indexValue(value))
	ids, err := r.redis.SMembers(ctx, setKey).Result()
	if err == redis.Nil {
		return []string{}, true, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("failed to query index %s: %w", setKey, err)
	}
	return ids, true, nil
}

// Count returns the number of records carrying an index value
func (r *RedisIndexer) Count(ctx context.Context, model, attribute string, value interface{}) (int64, error) {
	if r == nil || r.redis == nil {
		return 0, fmt.Errorf("redis not available")
	}
	return r.redis.SCard(ctx, r.setKey(model, attribute, indexValue(value))).Result()
}

// Rebuild repopulates every registered index of a model from a full record
// set. Useful after registering indexes over existing data.
func (r *RedisIndexer) Rebuild(ctx context.Context, model *Model, recs []Record) error {
	if r == nil || r.redis == nil {
		return fmt.Errorf("redis not available")
	}

	for _, rec := range recs {
		if err := r.Update(ctx, model, rec); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks Redis health
func (r *RedisIndexer) Ping(ctx context.Context) error {
	if r == nil || r.redis == nil {
		return fmt.Errorf("redis not available")
	}
	return r.redis.Ping(ctx).Err()
}

// Close releases the Redis client if this indexer owns it
func (r *RedisIndexer) Close() error {
	if r.ownsClient && r.redis != nil {
		return r.redis.Close()
	}
	return nil
}

// setKey generates the Redis key for a secondary index.
// Format: idx:{model}:{attribute}:{value}
func (r *RedisIndexer) setKey(model, attribute, value string) string {
	return fmt.Sprintf("idx:%s:%s:%s", model, attribute, value)
}

// indexValue normalizes an attribute value into its index representation.
// Numeric values render without a float suffix so int and JSON float64
// forms of the same id land on the same key.
func indexValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if f, ok := toFloat(v); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}
