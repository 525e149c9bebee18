package footprints

import "context"

// StoreQuery is the query object handed to a Store: criteria plus any
// eager-load directives chained on before execution.
type StoreQuery struct {
	Criteria  Criteria
	populates []PopulateDirective
}

// NewStoreQuery creates a query for the given criteria
func NewStoreQuery(c Criteria) *StoreQuery {
	return &StoreQuery{Criteria: c}
}

// Populate chains an eager-load directive onto the query
func (q *StoreQuery) Populate(attribute string, c Criteria) *StoreQuery {
	q.populates = append(q.populates, PopulateDirective{Attribute: attribute, Criteria: c})
	return q
}

// Populates returns the chained directives in the order given
func (q *StoreQuery) Populates() []PopulateDirective {
	return q.populates
}

// Store is the underlying record store. Implementations translate queries
// into their native operations; failures are surfaced to callers unchanged.
//
// Find must honor the criteria shape: scalar criteria look up at most one
// record by primary key (an absent record is an empty result, not an error);
// structured criteria return the matching set, honoring Where, Sort, Skip
// and Limit. Populate directives on the query are resolved as part of the
// same find.
type Store interface {
	// Create inserts one record, returning it with any store-assigned
	// attributes (e.g. generated primary key) filled in.
	Create(ctx context.Context, model *Model, values Record) (Record, error)

	// CreateEach inserts a batch of records, returning them in order.
	CreateEach(ctx context.Context, model *Model, values []Record) ([]Record, error)

	// Find returns the records matching the query.
	Find(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error)

	// Update applies values to every record matching the query and returns
	// the updated records.
	Update(ctx context.Context, model *Model, q *StoreQuery, values Record) ([]Record, error)

	// Destroy removes every record matching the query and returns the
	// destroyed records.
	Destroy(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error)

	// Ping checks store health
	Ping(ctx context.Context) error

	// Close releases resources held by the store
	Close() error
}
