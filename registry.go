package footprints

// Attribute describes a single attribute on a model. Plain fields carry only
// Type. Relationship attributes carry exactly one of Model (singular
// reference to one record) or Collection (plural reference to many records,
// with Via naming the inverse foreign-key attribute on the target model).
type Attribute struct {
	Type       string // plain field type, informational only
	Model      string // target model of a singular reference
	Collection string // target model of a plural reference
	Via        string // inverse foreign key on the Collection target
}

// RelationshipKind classifies a relationship attribute
type RelationshipKind int

const (
	// SingularRef points to exactly one related record; the parent record
	// holds the link itself.
	SingularRef RelationshipKind = iota

	// PluralRef points to a collection of records that reference the parent
	// through a foreign-key attribute (Via) on their own model.
	PluralRef
)

func (k RelationshipKind) String() string {
	if k == PluralRef {
		return "plural"
	}
	return "singular"
}

// Relationship is the resolved, explicit form of a relationship attribute.
// It is computed once per operation and branched on, instead of probing
// attribute fields repeatedly.
type Relationship struct {
	Kind        RelationshipKind
	TargetModel string
	Via         string // set only for PluralRef
}

// Relationship classifies the attribute, reporting false for plain fields.
func (a Attribute) Relationship() (Relationship, bool) {
	if a.Collection != "" {
		return Relationship{Kind: PluralRef, TargetModel: a.Collection, Via: a.Via}, true
	}
	if a.Model != "" {
		return Relationship{Kind: SingularRef, TargetModel: a.Model}, true
	}
	return Relationship{}, false
}

// Model describes one model: its name, primary-key attribute, and attributes.
type Model struct {
	Name       string
	PrimaryKey string
	Attributes map[string]Attribute
}

// Registry resolves model names to their descriptors. Implementations are
// injected into the Adapter; descriptors are read at call time and never
// cached by the callers.
type Registry interface {
	// Lookup returns the model descriptor, or ErrUnknownModel if absent.
	Lookup(name string) (*Model, error)
}

// StaticRegistry is an in-memory Registry populated at startup.
type StaticRegistry struct {
	models map[string]*Model
}

// NewStaticRegistry creates a new empty StaticRegistry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		models: make(map[string]*Model),
	}
}

// Register adds a model to the registry, validating its descriptor.
// This should be called during startup for each model.
func (r *StaticRegistry) Register(m *Model) error {
	if m == nil || m.Name == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"reason": "model name is required",
		})
	}
	if m.PrimaryKey == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"model":  m.Name,
			"reason": "primary key is required",
		})
	}
	for name, attr := range m.Attributes {
		if attr.Model != "" && attr.Collection != "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"model":     m.Name,
				"attribute": name,
				"reason":    "attribute cannot be both a singular and a plural reference",
			})
		}
		if attr.Collection != "" && attr.Via == "" {
			return WithContext(ErrInvalidConfig, map[string]interface{}{
				"model":     m.Name,
				"attribute": name,
				"reason":    "plural reference requires via",
			})
		}
	}
	r.models[m.Name] = m
	return nil
}

// MustRegister is Register that panics on invalid descriptors.
// Intended for static model definitions at startup.
func (r *StaticRegistry) MustRegister(m *Model) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Lookup returns the model descriptor, or ErrUnknownModel if absent.
func (r *StaticRegistry) Lookup(name string) (*Model, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, WithContext(ErrUnknownModel, map[string]interface{}{
			"model": name,
		})
	}
	return m, nil
}

// Models returns the names of all registered models.
func (r *StaticRegistry) Models() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}
