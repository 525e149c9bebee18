// Package footprints is a generic data-access adapter: uniform CRUD and
// association traversal over any registered model, independent of the
// model's shape and of where its records live.
//
// # Overview
//
// Two layers compose the package:
//
//   - Adapter: translates (model, criteria, values, options) calls into
//     primitive store operations, applying configured defaults and
//     normalizing the result shape (single record vs. result set) from
//     the criteria.
//   - Association traversal on the same Adapter: classifies a relationship
//     attribute from the parent's schema (singular reference vs. plural
//     collection with an inverse foreign key) and rewrites the operation
//     into CRUD against the correct side of the relationship.
//
// Records are schemaless maps; models declare only what the adapter needs
// (a primary key and relationship attributes). Storage is pluggable behind
// the Store interface, with two implementations included: DocumentStore
// (JSON documents on any object Backend: filesystem, S3, GCS, optionally
// accelerated by Redis secondary indexes) and PostgresStore (JSONB rows).
//
// # Quick Start
//
//	registry := footprints.NewStaticRegistry()
//	registry.MustRegister(&footprints.Model{
//	    Name:       "author",
//	    PrimaryKey: "id",
//	    Attributes: map[string]footprints.Attribute{
//	        "books":   {Collection: "book", Via: "authorId"},
//	        "profile": {Model: "profile"},
//	    },
//	})
//	registry.MustRegister(&footprints.Model{Name: "book", PrimaryKey: "id"})
//	registry.MustRegister(&footprints.Model{Name: "profile", PrimaryKey: "id"})
//
//	backend := footprints.NewFilesystemBackend("./data")
//	store := footprints.NewDocumentStore(backend, registry)
//	adapter := footprints.NewAdapter(registry, store)
//
//	ctx := context.Background()
//	author, _ := adapter.Create(ctx, "author", footprints.Record{"name": "Iris"})
//
//	// Create a book under the author; the inverse foreign key is injected.
//	book, _ := adapter.CreateAssociation(ctx, "author", author["id"], "books",
//	    footprints.Record{"title": "Footprints"})
//
//	// Traverse back: all of the author's books.
//	books, _ := adapter.FindAssociation(ctx, "author", author["id"], "books",
//	    footprints.Criteria{}, footprints.Options{})
//	_ = book
//	_ = books
//
// # Result Shapes
//
// Criteria take one of two shapes and every operation honors the
// distinction: a scalar identifier (ByID) targets exactly one record and
// unwraps results to a single, possibly nil, record; a structured filter
// (Where) targets a result set. Options{FindOne: true} forces single-record
// semantics for structured criteria.
//
// # Configuration
//
// Process-wide defaults (pagination ceiling, default populate directives)
// load from the "footprints.models.options" key path of a koanf tree, a
// plain map, or FOOTPRINTS_* environment variables, and merge under
// caller-supplied options.
//
// # Consistency
//
// Singular-association find and update are two dependent store calls
// (through the parent, then to the child) with no atomicity guarantee; a
// concurrent write to the parent between the calls can yield a stale child.
// DestroyAssociation resolves only the child's type and deletes by id
// without verifying the child belongs to the given parent.
package footprints
