package footprints

import "context"

// populateRecords resolves eager-load directives in place: each record's
// relationship attribute is replaced with the related record (singular) or
// the related record set (plural). Shared by every Store implementation so
// populate semantics don't drift between backends.
func populateRecords(ctx context.Context, st Store, reg Registry, model *Model, recs []Record, dirs []PopulateDirective) error {
	for _, dir := range dirs {
		attr, ok := model.Attributes[dir.Attribute]
		if !ok {
			return WithContext(ErrUnknownAttribute, map[string]interface{}{
				"model":     model.Name,
				"attribute": dir.Attribute,
			})
		}
		rel, ok := attr.Relationship()
		if !ok {
			return WithContext(ErrInvalidAssociation, map[string]interface{}{
				"model":     model.Name,
				"attribute": dir.Attribute,
				"reason":    "attribute is not a relationship",
			})
		}

		childModel, err := reg.Lookup(rel.TargetModel)
		if err != nil {
			return err
		}

		for _, rec := range recs {
			if err := populateOne(ctx, st, childModel, rel, rec, rec[model.PrimaryKey], dir); err != nil {
				return err
			}
		}
	}
	return nil
}

func populateOne(ctx context.Context, st Store, childModel *Model, rel Relationship, rec Record, parentID interface{}, dir PopulateDirective) error {
	switch rel.Kind {
	case PluralRef:
		// Children live in their own records, filtered by the inverse
		// foreign key pointing back at this record.
		c := dir.Criteria.structured(childModel.PrimaryKey)
		c = c.WithFilter(rel.Via, parentID)

		children, err := st.Find(ctx, childModel, NewStoreQuery(c))
		if err != nil {
			return err
		}
		if children == nil {
			children = []Record{}
		}
		rec[dir.Attribute] = children
		return nil

	default:
		// The link value on this record is the child's primary key.
		fk := rec[dir.Attribute]
		if fk == nil {
			return nil
		}

		children, err := st.Find(ctx, childModel, NewStoreQuery(ByID(fk)))
		if err != nil {
			return err
		}
		if len(children) == 0 {
			rec[dir.Attribute] = nil
			return nil
		}

		child := children[0]
		// Directive criteria filter the populated value; a non-matching
		// child populates as absent rather than failing the find.
		if !matchesWhere(child, dir.Criteria.Where) {
			rec[dir.Attribute] = nil
			return nil
		}
		rec[dir.Attribute] = child
		return nil
	}
}
