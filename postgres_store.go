package footprints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL, persisting every record as
// a JSONB document in a single table keyed by (model, id). Equality filters
// run server-side via JSONB containment; sort and pagination push down to
// SQL as well, so large models don't round-trip through the client.
type PostgresStore struct {
	pool     *pgxpool.Pool
	registry Registry
	logger   Logger
	metrics  Metrics
}

const postgresTable = "footprints_records"

// NewPostgresStore creates a Postgres-backed store over an existing pool
func NewPostgresStore(pool *pgxpool.Pool, registry Registry) *PostgresStore {
	return &PostgresStore{
		pool:     pool,
		registry: registry,
		logger:   &NoOpLogger{},
		metrics:  &NoOpMetrics{},
	}
}

// ConnectPostgresStore dials Postgres and creates the store
func ConnectPostgresStore(ctx context.Context, dsn string, registry Registry) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresStore(pool, registry), nil
}

// SetLogger updates the logger for this store
func (s *PostgresStore) SetLogger(logger Logger) {
	s.logger = logger
}

// SetMetrics updates the metrics collector for this store
func (s *PostgresStore) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// EnsureSchema creates the record table if it doesn't exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			model TEXT NOT NULL,
			id    TEXT NOT NULL,
			doc   JSONB NOT NULL,
			PRIMARY KEY (model, id)
		)`, postgresTable))
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_doc_idx ON %s USING GIN (doc jsonb_path_ops)`,
		postgresTable, postgresTable))
	if err != nil {
		return fmt.Errorf("failed to ensure doc index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, model *Model, values Record) (Record, error) {
	rec := values.Clone()
	if rec == nil {
		rec = Record{}
	}
	if rec[model.PrimaryKey] == nil {
		rec[model.PrimaryKey] = NewID()
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"model":  model.Name,
			"reason": err.Error(),
		})
	}

	start := time.Now()
	_, err = s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (model, id, doc) VALUES ($1, $2, $3)`, postgresTable),
		model.Name, indexValue(rec[model.PrimaryKey]), doc)
	s.metrics.Timing(MetricStoreLatency, time.Since(start), "model", model.Name)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, WithContext(ErrAlreadyExists, map[string]interface{}{
				"model": model.Name,
				"id":    rec[model.PrimaryKey],
			})
		}
		s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) CreateEach(ctx context.Context, model *Model, values []Record) ([]Record, error) {
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

func (s *PostgresStore) Find(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error) {
	recs, err := s.selectRecords(ctx, model, q.Criteria)
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

func (s *PostgresStore) Update(ctx context.Context, model *Model, q *StoreQuery, values Record) ([]Record, error) {
	patch := values.Clone()
	if patch == nil {
		patch = Record{}
	}
	delete(patch, model.PrimaryKey) // Primary key is immutable; it keys the row

	patchDoc, err := json.Marshal(patch)
	if err != nil {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"model":  model.Name,
			"reason": err.Error(),
		})
	}

	ids, err := s.selectIDs(ctx, model, q.Criteria)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = doc || $3::jsonb WHERE model = $1 AND id = ANY($2) RETURNING doc`, postgresTable),
		model.Name, ids, patchDoc)
	if err != nil {
		s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		return nil, fmt.Errorf("update failed: %w", err)
	}
	return scanDocs(rows)
}

func (s *PostgresStore) Destroy(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error) {
	ids, err := s.selectIDs(ctx, model, q.Criteria)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE model = $1 AND id = ANY($2) RETURNING doc`, postgresTable),
		model.Name, ids)
	if err != nil {
		s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		return nil, fmt.Errorf("destroy failed: %w", err)
	}
	return scanDocs(rows)
}

// selectRecords resolves criteria into matching documents
func (s *PostgresStore) selectRecords(ctx context.Context, model *Model, c Criteria) ([]Record, error) {
	if c.IsScalar() {
		var doc []byte
		err := s.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT doc FROM %s WHERE model = $1 AND id = $2`, postgresTable),
			model.Name, indexValue(c.ID)).Scan(&doc)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil // Absent record is an empty result, not an error
			}
			return nil, fmt.Errorf("select failed: %w", err)
		}

		var rec Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, WithContext(ErrInvalidData, map[string]interface{}{
				"model":  model.Name,
				"reason": err.Error(),
			})
		}
		return []Record{rec}, nil
	}

	query, args, err := s.buildSelect("doc", model, c)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	s.metrics.Timing(MetricStoreLatency, time.Since(start), "model", model.Name)
	if err != nil {
		s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		return nil, fmt.Errorf("select failed: %w", err)
	}
	return scanDocs(rows)
}

// selectIDs resolves criteria into matching row ids, honoring sort and
// pagination so updates and destroys touch exactly the rows a find would.
func (s *PostgresStore) selectIDs(ctx context.Context, model *Model, c Criteria) ([]string, error) {
	if c.IsScalar() {
		return []string{indexValue(c.ID)}, nil
	}

	query, args, err := s.buildSelect("id", model, c)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.metrics.Increment(MetricStoreErrors, "model", model.Name)
		return nil, fmt.Errorf("select failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var sortAttrPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// buildSelect assembles a structured-criteria query over one column
func (s *PostgresStore) buildSelect(column string, model *Model, c Criteria) (string, []interface{}, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM %s WHERE model = $1`, column, postgresTable)
	args := []interface{}{model.Name}

	if len(c.Where) > 0 {
		filter, err := json.Marshal(c.Where)
		if err != nil {
			return "", nil, WithContext(ErrInvalidData, map[string]interface{}{
				"model":  model.Name,
				"reason": err.Error(),
			})
		}
		args = append(args, filter)
		fmt.Fprintf(&sb, ` AND doc @> $%d::jsonb`, len(args))
	}

	if c.Sort != "" {
		fields := strings.Fields(c.Sort)
		attr := fields[0]
		if !sortAttrPattern.MatchString(attr) {
			return "", nil, WithContext(ErrInvalidData, map[string]interface{}{
				"model":  model.Name,
				"sort":   c.Sort,
				"reason": "invalid sort attribute",
			})
		}
		dir := "ASC"
		if len(fields) > 1 && strings.EqualFold(fields[1], "desc") {
			dir = "DESC"
		}
		// jsonb ordering, not text: numbers sort by magnitude (9 before 10)
		fmt.Fprintf(&sb, ` ORDER BY doc->'%s' %s`, attr, dir)
	} else {
		sb.WriteString(` ORDER BY id`)
	}

	if c.Limit > 0 {
		args = append(args, c.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if c.Skip > 0 {
		args = append(args, c.Skip)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	return sb.String(), args, nil
}

func scanDocs(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, WithContext(ErrInvalidData, map[string]interface{}{
				"reason": err.Error(),
			})
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
