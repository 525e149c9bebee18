package footprints

import (
	"context"
	"time"
)

// Adapter exposes uniform CRUD over any registered model, independent of the
// model's shape. It translates (model, criteria, values, options) calls into
// primitive store operations, applying configured defaults and normalizing
// the result shape from the criteria: scalar criteria yield single-record
// results, structured criteria yield result sets.
//
// The registry and store are injected at construction and never reached
// through ambient state.
type Adapter struct {
	registry Registry
	store    Store
	defaults Defaults
	logger   Logger
	metrics  Metrics
}

// NewAdapter creates an adapter with no-op logger and metrics
func NewAdapter(registry Registry, store Store) *Adapter {
	return &Adapter{
		registry: registry,
		store:    store,
		logger:   &NoOpLogger{},
		metrics:  &NoOpMetrics{},
	}
}

// NewAdapterWithObservability creates an adapter with logging and metrics
func NewAdapterWithObservability(registry Registry, store Store, logger Logger, metrics Metrics) *Adapter {
	return &Adapter{
		registry: registry,
		store:    store,
		logger:   logger,
		metrics:  metrics,
	}
}

// WithDefaults sets the configured operation defaults for this adapter
func (a *Adapter) WithDefaults(d Defaults) *Adapter {
	a.defaults = d
	return a
}

// SetLogger updates the logger for this adapter
func (a *Adapter) SetLogger(logger Logger) {
	a.logger = logger
}

// SetMetrics updates the metrics collector for this adapter
func (a *Adapter) SetMetrics(metrics Metrics) {
	a.metrics = metrics
}

// Store returns the underlying store (for advanced use cases)
func (a *Adapter) Store() Store {
	return a.store
}

// Create inserts one record. Store failures (constraint violations,
// connectivity) propagate unchanged.
func (a *Adapter) Create(ctx context.Context, modelName string, values Record) (Record, error) {
	model, err := a.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := a.store.Create(ctx, model, values)
	a.metrics.Timing(MetricCreateDuration, time.Since(start), "model", modelName)

	if err != nil {
		a.metrics.Increment(MetricCreateError, "model", modelName)
		return nil, err
	}

	a.metrics.Increment(MetricCreateSuccess, "model", modelName)
	a.logger.Debug("record created", "model", modelName, "id", rec[model.PrimaryKey])
	return rec, nil
}

// CreateEach inserts a batch of records. This is transparent pass-through to
// the store's batch create; the adapter does not branch on the batch.
func (a *Adapter) CreateEach(ctx context.Context, modelName string, values []Record) ([]Record, error) {
	model, err := a.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recs, err := a.store.CreateEach(ctx, model, values)
	a.metrics.Timing(MetricCreateDuration, time.Since(start), "model", modelName)

	if err != nil {
		a.metrics.Increment(MetricCreateError, "model", modelName)
		return nil, err
	}

	a.metrics.Increment(MetricCreateSuccess, "model", modelName)
	return recs, nil
}

// Find returns the records matching the criteria. Scalar criteria or
// opts.FindOne yield a single-record result (nil record if absent).
// Structured criteria without an explicit limit are capped by the configured
// default limit, as backpressure against unbounded result sets.
func (a *Adapter) Find(ctx context.Context, modelName string, c Criteria, opts Options) (*Result, error) {
	model, err := a.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	single := c.IsScalar() || opts.FindOne
	opts = opts.withDefaults(a.defaults)

	crit := c
	if single {
		if !crit.IsScalar() && crit.Limit == 0 {
			crit = crit.Clone()
			crit.Limit = 1
		}
	} else {
		crit = a.withDefaultLimit(crit)
	}

	q := NewStoreQuery(crit)
	for _, p := range opts.Populate {
		q.Populate(p.Attribute, p.Criteria)
	}

	start := time.Now()
	recs, err := a.store.Find(ctx, model, q)
	a.metrics.Timing(MetricFindDuration, time.Since(start), "model", modelName)

	if err != nil {
		a.metrics.Increment(MetricFindError, "model", modelName)
		return nil, err
	}

	a.metrics.Increment(MetricFindSuccess, "model", modelName)
	a.metrics.Histogram(MetricFindResults, float64(len(recs)), "model", modelName)
	a.logger.Debug("find executed",
		"model", modelName,
		"results", len(recs),
		"single", single,
	)

	if single {
		if len(recs) == 0 {
			return SingleResult(nil), nil
		}
		return SingleResult(recs[0]), nil
	}
	return ListResult(recs), nil
}

// Update applies values to every record matching the criteria. Structured
// criteria are capped by the configured default limit the same way as Find;
// scalar criteria update exactly one record and unwrap the result. A scalar
// update that matches nothing yields a nil record, not an error.
func (a *Adapter) Update(ctx context.Context, modelName string, c Criteria, values Record, opts Options) (*Result, error) {
	model, err := a.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	single := c.IsScalar() || opts.FindOne
	crit := c
	if !single {
		crit = a.withDefaultLimit(crit)
	}

	start := time.Now()
	recs, err := a.store.Update(ctx, model, NewStoreQuery(crit), values)
	a.metrics.Timing(MetricUpdateDuration, time.Since(start), "model", modelName)

	if err != nil {
		a.metrics.Increment(MetricUpdateError, "model", modelName)
		return nil, err
	}

	a.metrics.Increment(MetricUpdateSuccess, "model", modelName)
	a.logger.Debug("update executed", "model", modelName, "updated", len(recs))

	if single {
		if len(recs) == 0 {
			return SingleResult(nil), nil
		}
		return SingleResult(recs[0]), nil
	}
	return ListResult(recs), nil
}

// Destroy removes every record matching the criteria, with the same
// list/scalar duality as Update.
func (a *Adapter) Destroy(ctx context.Context, modelName string, c Criteria, opts Options) (*Result, error) {
	model, err := a.registry.Lookup(modelName)
	if err != nil {
		return nil, err
	}

	single := c.IsScalar() || opts.FindOne
	crit := c
	if !single {
		crit = a.withDefaultLimit(crit)
	}

	start := time.Now()
	recs, err := a.store.Destroy(ctx, model, NewStoreQuery(crit))
	a.metrics.Timing(MetricDestroyDuration, time.Since(start), "model", modelName)

	if err != nil {
		a.metrics.Increment(MetricDestroyError, "model", modelName)
		return nil, err
	}

	a.metrics.Increment(MetricDestroySuccess, "model", modelName)
	a.logger.Debug("destroy executed", "model", modelName, "destroyed", len(recs))

	if single {
		if len(recs) == 0 {
			return SingleResult(nil), nil
		}
		return SingleResult(recs[0]), nil
	}
	return ListResult(recs), nil
}

// withDefaultLimit applies the configured pagination ceiling to structured
// criteria that carry no explicit limit.
func (a *Adapter) withDefaultLimit(c Criteria) Criteria {
	if c.Limit != 0 || a.defaults.Limit <= 0 {
		return c
	}
	out := c.Clone()
	out.Limit = a.defaults.Limit
	return out
}
