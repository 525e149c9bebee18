package footprints

import "context"

// Association traversal. Each operation takes (parentModel, parentID,
// attribute, ...), classifies the named relationship from the parent's
// schema, and rewrites the call into primitive CRUD against the correct side
// of the relationship. Classification and lookup failures are raised before
// any store call, so a bad attribute name never causes partial side effects.
//
// Plural relationships live in the child's own records (query the child
// filtered by foreign key); singular relationships are reached only by
// traversing through the parent record. That asymmetry drives every branch
// below.

// resolveAssociation looks up the parent model and classifies the named
// attribute as a relationship.
func (a *Adapter) resolveAssociation(parentModel, attribute string) (*Model, Relationship, error) {
	model, err := a.registry.Lookup(parentModel)
	if err != nil {
		return nil, Relationship{}, err
	}

	attr, ok := model.Attributes[attribute]
	if !ok {
		return nil, Relationship{}, WithContext(ErrUnknownAttribute, map[string]interface{}{
			"model":     parentModel,
			"attribute": attribute,
		})
	}

	rel, ok := attr.Relationship()
	if !ok {
		return nil, Relationship{}, WithContext(ErrInvalidAssociation, map[string]interface{}{
			"model":     parentModel,
			"attribute": attribute,
			"reason":    "attribute is not a relationship",
		})
	}
	return model, rel, nil
}

// CreateAssociation creates a child record under a parent, injecting the
// inverse foreign key (via attribute = parentID) into values. The injected
// value wins over any caller-supplied value for the same attribute. Only
// plural relationships carry a via attribute, so this is a caller error on a
// singular relationship.
func (a *Adapter) CreateAssociation(ctx context.Context, parentModel string, parentID interface{}, attribute string, values Record) (Record, error) {
	_, rel, err := a.resolveAssociation(parentModel, attribute)
	if err != nil {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, err
	}

	if rel.Kind != PluralRef {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, WithContext(ErrInvalidAssociation, map[string]interface{}{
			"model":     parentModel,
			"attribute": attribute,
			"reason":    "foreign-key injection requires a plural relationship",
		})
	}

	child := values.Clone()
	if child == nil {
		child = Record{}
	}
	child[rel.Via] = parentID

	rec, err := a.Create(ctx, rel.TargetModel, child)
	if err != nil {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, err
	}

	a.metrics.Increment(MetricAssociationOps, "model", parentModel)
	a.logger.Debug("association record created",
		"parent", parentModel,
		"attribute", attribute,
		"child", rel.TargetModel,
	)
	return rec, nil
}

// FindAssociation traverses a relationship from one parent record.
//
// Plural: queries the child model directly, merging the foreign-key filter
// (via attribute = parentID) into the caller's criteria. Scalar child
// criteria are normalized onto the child's primary key and forced to
// single-result semantics.
//
// Singular: fetches the parent with the attribute populated under the given
// criteria and returns the populated value (nil record if the link is unset
// or the parent is absent). Caller populate directives name the child's own
// relationships and are resolved with a follow-up lookup on the child.
func (a *Adapter) FindAssociation(ctx context.Context, parentModel string, parentID interface{}, attribute string, c Criteria, opts Options) (*Result, error) {
	_, rel, err := a.resolveAssociation(parentModel, attribute)
	if err != nil {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, err
	}

	switch rel.Kind {
	case PluralRef:
		childModel, err := a.registry.Lookup(rel.TargetModel)
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		if c.IsScalar() {
			c = c.structured(childModel.PrimaryKey)
			opts.FindOne = true
		}
		c = c.WithFilter(rel.Via, parentID)

		res, err := a.Find(ctx, rel.TargetModel, c, opts)
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		a.metrics.Increment(MetricAssociationOps, "model", parentModel)
		return res, nil

	default:
		res, err := a.Find(ctx, parentModel, ByID(parentID), Options{
			Populate: []PopulateDirective{{Attribute: attribute, Criteria: c}},
		})
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		a.metrics.Increment(MetricAssociationOps, "model", parentModel)

		parent := res.Record()
		if parent == nil {
			return SingleResult(nil), nil
		}
		child, _ := asRecord(parent[attribute])
		if child == nil || len(opts.Populate) == 0 {
			return SingleResult(child), nil
		}

		childModel, err := a.registry.Lookup(rel.TargetModel)
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		return a.Find(ctx, rel.TargetModel, ByID(child[childModel.PrimaryKey]), Options{
			Populate: opts.Populate,
		})
	}
}

// UpdateAssociation updates through a relationship.
//
// Plural: values must be a Record; the update runs on the child model with
// the foreign-key filter merged in, normalizing scalar criteria the same way
// as FindAssociation.
//
// Singular: the parent's attribute itself is set to values (replacing the
// linked reference), then the child record is re-fetched by the id now
// stored on the parent and returned. The two steps are not atomic; a
// concurrent write to the parent between them can yield a stale child.
func (a *Adapter) UpdateAssociation(ctx context.Context, parentModel string, parentID interface{}, attribute string, c Criteria, values interface{}, opts Options) (*Result, error) {
	model, rel, err := a.resolveAssociation(parentModel, attribute)
	if err != nil {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, err
	}

	switch rel.Kind {
	case PluralRef:
		childValues, ok := asRecord(values)
		if !ok {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, WithContext(ErrInvalidData, map[string]interface{}{
				"model":     parentModel,
				"attribute": attribute,
				"reason":    "plural association update requires record values",
			})
		}
		childModel, err := a.registry.Lookup(rel.TargetModel)
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		if c.IsScalar() {
			c = c.structured(childModel.PrimaryKey)
			opts.FindOne = true
		}
		c = c.WithFilter(rel.Via, parentID)

		res, err := a.Update(ctx, rel.TargetModel, c, childValues, opts)
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		a.metrics.Increment(MetricAssociationOps, "model", parentModel)
		return res, nil

	default:
		res, err := a.Update(ctx, parentModel, ByID(parentID), Record{attribute: values}, Options{})
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}

		parent := res.Record()
		if parent == nil {
			a.metrics.Increment(MetricAssociationOps, "model", parentModel)
			return SingleResult(nil), nil
		}

		childID := parent[attribute]
		if childID == nil {
			a.metrics.Increment(MetricAssociationOps, "model", parentModel)
			return SingleResult(nil), nil
		}

		child, err := a.Find(ctx, rel.TargetModel, ByID(childID), Options{})
		if err != nil {
			a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
			return nil, err
		}
		a.metrics.Increment(MetricAssociationOps, "model", parentModel)
		a.logger.Debug("singular association relinked",
			"parent", parentModel,
			"parentId", parentID,
			"attribute", attribute,
			"primaryKey", model.PrimaryKey,
		)
		return child, nil
	}
}

// DestroyAssociation resolves the child model from the parent's attribute
// and destroys the child by id alone. It deliberately does not verify that
// the child actually belongs to the given parent; the relationship is used
// only to resolve the child's type. Callers needing ownership checks must
// filter through FindAssociation first.
func (a *Adapter) DestroyAssociation(ctx context.Context, parentModel string, parentID interface{}, attribute string, childID interface{}) (Record, error) {
	_, rel, err := a.resolveAssociation(parentModel, attribute)
	if err != nil {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, err
	}

	res, err := a.Destroy(ctx, rel.TargetModel, ByID(childID), Options{})
	if err != nil {
		a.metrics.Increment(MetricAssociationErrors, "model", parentModel)
		return nil, err
	}

	a.metrics.Increment(MetricAssociationOps, "model", parentModel)
	a.logger.Debug("association record destroyed",
		"parent", parentModel,
		"attribute", attribute,
		"child", rel.TargetModel,
		"childId", childID,
	)
	return res.Record(), nil
}
