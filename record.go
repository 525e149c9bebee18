package footprints

// Record is a single stored record: an attribute-value mapping.
// Completely domain-agnostic - works with any JSON-serializable values.
type Record map[string]interface{}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// asRecord converts a stored value to a Record if its shape allows.
// Populated attributes come back as Record or map[string]interface{}
// depending on which store produced them.
func asRecord(v interface{}) (Record, bool) {
	switch rec := v.(type) {
	case Record:
		return rec, true
	case map[string]interface{}:
		return Record(rec), true
	default:
		return nil, false
	}
}

// Result holds the outcome of an operation whose shape depends on the
// criteria: scalar criteria yield a single record (possibly nil),
// structured criteria yield a result set.
type Result struct {
	records []Record
	single  bool
}

// SingleResult wraps a single record (nil means no match)
func SingleResult(rec Record) *Result {
	if rec == nil {
		return &Result{single: true}
	}
	return &Result{records: []Record{rec}, single: true}
}

// ListResult wraps a result set
func ListResult(recs []Record) *Result {
	return &Result{records: recs}
}

// IsSingle reports whether the result carries single-record semantics
func (r *Result) IsSingle() bool {
	return r.single
}

// Record returns the single record, or the first of a set.
// Returns nil when nothing matched.
func (r *Result) Record() Record {
	if len(r.records) == 0 {
		return nil
	}
	return r.records[0]
}

// Records returns the full result set
func (r *Result) Records() []Record {
	return r.records
}

// Len returns the number of matched records
func (r *Result) Len() int {
	return len(r.records)
}
