package footprints

// Criteria describes which records an operation targets. It takes one of two
// shapes, and operations treat them distinctly: a scalar identifier (ID set)
// targets exactly one record and unwraps list results to a single value; a
// structured filter (Where, plus optional pagination/sort) targets a result
// set.
type Criteria struct {
	// ID is the scalar primary-key form. When non-nil it takes precedence
	// over Where.
	ID interface{}

	// Where filters by attribute equality.
	Where map[string]interface{}

	// Limit caps the result set size. Zero means unset; the configured
	// default limit is applied by the Adapter for structured criteria.
	Limit int

	// Skip offsets into the result set.
	Skip int

	// Sort names an attribute to order by, optionally suffixed with
	// " desc" (e.g. "createdAt desc").
	Sort string
}

// ByID builds scalar criteria targeting a single record by primary key.
func ByID(id interface{}) Criteria {
	return Criteria{ID: id}
}

// Where builds structured criteria from an attribute filter.
func Where(filter map[string]interface{}) Criteria {
	return Criteria{Where: filter}
}

// IsScalar reports whether the criteria is a scalar identifier
func (c Criteria) IsScalar() bool {
	return c.ID != nil
}

// IsEmpty reports whether the criteria matches everything
func (c Criteria) IsEmpty() bool {
	return c.ID == nil && len(c.Where) == 0
}

// Clone returns a copy with its own Where map, safe to mutate.
func (c Criteria) Clone() Criteria {
	out := c
	if c.Where != nil {
		out.Where = make(map[string]interface{}, len(c.Where))
		for k, v := range c.Where {
			out.Where[k] = v
		}
	}
	return out
}

// WithFilter returns a copy with an additional equality filter merged in.
// The new filter wins over an existing filter on the same attribute.
func (c Criteria) WithFilter(attribute string, value interface{}) Criteria {
	out := c.Clone()
	if out.Where == nil {
		out.Where = make(map[string]interface{}, 1)
	}
	out.Where[attribute] = value
	return out
}

// structured normalizes scalar criteria into the equivalent structured
// filter keyed by the model's primary key. Structured criteria pass through
// unchanged.
func (c Criteria) structured(primaryKey string) Criteria {
	if !c.IsScalar() {
		return c
	}
	return Where(map[string]interface{}{primaryKey: c.ID})
}
