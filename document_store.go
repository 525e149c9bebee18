package footprints

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentStore implements Store over any Backend, persisting each record as
// a JSON document at "<model>/<id>.json". Structured finds scan the model's
// key prefix unless a RedisIndexer holds an index for one of the filtered
// attributes, in which case only the indexed candidates are loaded. The
// index is a fast path: if Redis is down or the attribute is unindexed, the
// scan still answers the query.
type DocumentStore struct {
	backend  Backend
	registry Registry
	indexer  *RedisIndexer
	logger   Logger
	metrics  Metrics
}

// NewDocumentStore creates a document store over the given backend
func NewDocumentStore(backend Backend, registry Registry) *DocumentStore {
	return &DocumentStore{
		backend:  backend,
		registry: registry,
		logger:   &NoOpLogger{},
		metrics:  &NoOpMetrics{},
	}
}

// WithIndexer attaches a secondary index accelerator
func (s *DocumentStore) WithIndexer(indexer *RedisIndexer) *DocumentStore {
	s.indexer = indexer
	return s
}

// SetLogger updates the logger for this store
func (s *DocumentStore) SetLogger(logger Logger) {
	s.logger = logger
}

// SetMetrics updates the metrics collector for this store
func (s *DocumentStore) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// Backend returns the underlying backend (for advanced use cases)
func (s *DocumentStore) Backend() Backend {
	return s.backend
}

// recordKey builds the storage key for one record
func recordKey(model *Model, id interface{}) string {
	return fmt.Sprintf("%s/%s.json", model.Name, indexValue(id))
}

// modelPrefix is the key prefix under which all of a model's records live
func modelPrefix(model *Model) string {
	return model.Name + "/"
}

func (s *DocumentStore) Create(ctx context.Context, model *Model, values Record) (Record, error) {
	rec := values.Clone()
	if rec == nil {
		rec = Record{}
	}
	if rec[model.PrimaryKey] == nil {
		rec[model.PrimaryKey] = NewID()
	}

	key := recordKey(model, rec[model.PrimaryKey])

	exists, err := s.backend.Exists(ctx, key)
	if err != nil {
		return nil, s.storeErr(err, "exists", key)
	}
	if exists {
		return nil, WithContext(ErrAlreadyExists, map[string]interface{}{
			"model": model.Name,
			"id":    rec[model.PrimaryKey],
		})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"model":  model.Name,
			"reason": err.Error(),
		})
	}

	if err := s.backend.Put(ctx, key, data); err != nil {
		return nil, s.storeErr(err, "put", key)
	}

	if err := s.indexer.Update(ctx, model, rec); err != nil {
		// Index lag is repairable; the write itself succeeded
		s.logger.Warn("index update failed", "model", model.Name, "key", key, "error", err)
		s.metrics.Increment(MetricStoreErrors, "model", model.Name)
	}

	return rec, nil
}

func (s *DocumentStore) CreateEach(ctx context.Context, model *Model, values []Record) ([]Record, error) {
	recs := make([]Record, 0, len(values))
	for _, v := range values {
		rec, err := s.Create(ctx, model, v)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *DocumentStore) Find(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error) {
	recs, err := s.load(ctx, model, q.Criteria)
	if err != nil {
		return nil, err
	}

	if len(q.Populates()) > 0 {
		if err := populateRecords(ctx, s, s.registry, model, recs, q.Populates()); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (s *DocumentStore) Update(ctx context.Context, model *Model, q *StoreQuery, values Record) ([]Record, error) {
	matched, err := s.load(ctx, model, q.Criteria)
	if err != nil {
		return nil, err
	}

	updated := make([]Record, 0, len(matched))
	for _, rec := range matched {
		old := rec.Clone()
		for attr, v := range values {
			if attr == model.PrimaryKey {
				continue // Primary key is immutable; it names the storage key
			}
			rec[attr] = v
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return nil, WithContext(ErrInvalidData, map[string]interface{}{
				"model":  model.Name,
				"reason": err.Error(),
			})
		}

		key := recordKey(model, rec[model.PrimaryKey])
		if err := s.backend.Put(ctx, key, data); err != nil {
			return nil, s.storeErr(err, "put", key)
		}

		if err := s.indexer.Replace(ctx, model, old, rec); err != nil {
			s.logger.Warn("index replace failed", "model", model.Name, "key", key, "error", err)
			s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		}
		updated = append(updated, rec)
	}
	return updated, nil
}

func (s *DocumentStore) Destroy(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error) {
	matched, err := s.load(ctx, model, q.Criteria)
	if err != nil {
		return nil, err
	}

	destroyed := make([]Record, 0, len(matched))
	for _, rec := range matched {
		key := recordKey(model, rec[model.PrimaryKey])
		if err := s.backend.Delete(ctx, key); err != nil && !IsNotFound(err) {
			return nil, s.storeErr(err, "delete", key)
		}

		if err := s.indexer.Remove(ctx, model, rec); err != nil {
			s.logger.Warn("index remove failed", "model", model.Name, "key", key, "error", err)
			s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		}
		destroyed = append(destroyed, rec)
	}
	return destroyed, nil
}

// load resolves criteria into matching records. Scalar criteria are a single
// key lookup; structured criteria load candidates (indexed or scanned) and
// evaluate the filter in memory.
func (s *DocumentStore) load(ctx context.Context, model *Model, c Criteria) ([]Record, error) {
	if c.IsScalar() {
		rec, err := s.getRecord(ctx, recordKey(model, c.ID))
		if err != nil {
			if IsNotFound(err) {
				return nil, nil // Absent record is an empty result, not an error
			}
			return nil, err
		}
		return []Record{rec}, nil
	}

	candidates, err := s.candidates(ctx, model, c)
	if err != nil {
		return nil, err
	}
	return evaluateCriteria(candidates, c), nil
}

// candidates loads the records to evaluate structured criteria against,
// using a secondary index when one covers a filtered attribute.
func (s *DocumentStore) candidates(ctx context.Context, model *Model, c Criteria) ([]Record, error) {
	for attr, value := range c.Where {
		ids, indexed, err := s.indexer.Lookup(ctx, model.Name, attr, value)
		if err != nil {
			// Degrade to a scan rather than failing the query
			s.logger.Warn("index lookup failed, falling back to scan",
				"model", model.Name, "attribute", attr, "error", err)
			break
		}
		if !indexed {
			continue
		}

		s.metrics.Increment(MetricIndexHits, "model", model.Name)
		recs := make([]Record, 0, len(ids))
		for _, id := range ids {
			rec, err := s.getRecord(ctx, recordKey(model, id))
			if err != nil {
				if IsNotFound(err) {
					continue // Stale index entry; the record is gone
				}
				return nil, err
			}
			recs = append(recs, rec)
		}
		return recs, nil
	}

	if len(c.Where) > 0 {
		s.metrics.Increment(MetricIndexMisses, "model", model.Name)
	}
	return s.scan(ctx, model)
}

// scan loads every record of a model from the backend
func (s *DocumentStore) scan(ctx context.Context, model *Model) ([]Record, error) {
	start := time.Now()
	keys, err := s.backend.List(ctx, modelPrefix(model))
	if err != nil {
		return nil, s.storeErr(err, "list", modelPrefix(model))
	}

	recs := make([]Record, 0, len(keys))
	for _, key := range keys {
		rec, err := s.getRecord(ctx, key)
		if err != nil {
			if IsNotFound(err) {
				continue // Deleted between list and get
			}
			return nil, err
		}
		recs = append(recs, rec)
	}

	s.metrics.Timing(MetricStoreLatency, time.Since(start), "model", model.Name)
	return recs, nil
}

func (s *DocumentStore) getRecord(ctx context.Context, key string) (Record, error) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, s.storeErr(err, "get", key)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"key":    key,
			"reason": err.Error(),
		})
	}
	return rec, nil
}

func (s *DocumentStore) storeErr(err error, op, key string) error {
	s.metrics.Increment(MetricStoreErrors, "op", op)
	return WithContext(err, map[string]interface{}{
		"op":  op,
		"key": key,
	})
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *DocumentStore) Close() error {
	if s.indexer != nil {
		if err := s.indexer.Close(); err != nil {
			return err
		}
	}
	return s.backend.Close()
}
