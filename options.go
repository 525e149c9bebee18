package footprints

// PopulateDirective requests eager loading of a relationship attribute,
// optionally filtered by child-side criteria.
type PopulateDirective struct {
	Attribute string
	Criteria  Criteria
}

// Options is the per-call configuration bag for facade operations.
type Options struct {
	// FindOne forces single-result semantics even for structured criteria.
	FindOne bool

	// Populate lists eager-load directives, applied in order.
	Populate []PopulateDirective
}

// HasPopulate reports whether the options already populate an attribute
func (o Options) HasPopulate(attribute string) bool {
	for _, p := range o.Populate {
		if p.Attribute == attribute {
			return true
		}
	}
	return false
}

// withDefaults merges configured defaults into caller options. Caller values
// win; configured populate directives are appended only for attributes the
// caller did not populate (deep-default merge).
func (o Options) withDefaults(d Defaults) Options {
	if len(d.Populate) == 0 {
		return o
	}
	out := o
	out.Populate = append([]PopulateDirective(nil), o.Populate...)
	for _, p := range d.Populate {
		if !o.HasPopulate(p.Attribute) {
			out.Populate = append(out.Populate, p)
		}
	}
	return out
}
