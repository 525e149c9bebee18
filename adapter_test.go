package footprints

import (
	"context"
	"errors"
	"testing"
)

// fakeStore records the last query each operation received and returns
// canned results, so facade behavior can be asserted without a backend.
type fakeStore struct {
	lastQuery  *StoreQuery
	lastValues Record
	findResult []Record
	err        error
}

func (f *fakeStore) Create(ctx context.Context, model *Model, values Record) (Record, error) {
	f.lastValues = values
	if f.err != nil {
		return nil, f.err
	}
	return values, nil
}

func (f *fakeStore) CreateEach(ctx context.Context, model *Model, values []Record) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return values, nil
}

func (f *fakeStore) Find(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error) {
	f.lastQuery = q
	return f.findResult, f.err
}

func (f *fakeStore) Update(ctx context.Context, model *Model, q *StoreQuery, values Record) ([]Record, error) {
	f.lastQuery = q
	f.lastValues = values
	return f.findResult, f.err
}

func (f *fakeStore) Destroy(ctx context.Context, model *Model, q *StoreQuery) ([]Record, error) {
	f.lastQuery = q
	return f.findResult, f.err
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

// testRegistry builds the author/book/profile/image schema used across tests
func testRegistry(t *testing.T) *StaticRegistry {
	t.Helper()
	reg := NewStaticRegistry()
	reg.MustRegister(&Model{
		Name:       "author",
		PrimaryKey: "id",
		Attributes: map[string]Attribute{
			"name":    {Type: "string"},
			"books":   {Collection: "book", Via: "authorId"},
			"profile": {Model: "profile"},
		},
	})
	reg.MustRegister(&Model{
		Name:       "book",
		PrimaryKey: "id",
		Attributes: map[string]Attribute{
			"title":    {Type: "string"},
			"authorId": {Type: "string"},
		},
	})
	reg.MustRegister(&Model{
		Name:       "profile",
		PrimaryKey: "id",
		Attributes: map[string]Attribute{
			"bio":    {Type: "string"},
			"avatar": {Model: "image"},
		},
	})
	reg.MustRegister(&Model{
		Name:       "image",
		PrimaryKey: "id",
		Attributes: map[string]Attribute{
			"url": {Type: "string"},
		},
	})
	return reg
}

func TestFindAppliesDefaultLimit(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name         string
		defaultLimit int
		criteria     Criteria
		wantLimit    int
	}{
		{"default applied", 30, Where(map[string]interface{}{"name": "x"}), 30},
		{"caller limit wins", 30, Criteria{Where: map[string]interface{}{"name": "x"}, Limit: 5}, 5},
		{"no default configured", 0, Where(map[string]interface{}{"name": "x"}), 0},
		{"empty criteria still capped", 30, Criteria{}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			adapter := NewAdapter(testRegistry(t), store).WithDefaults(Defaults{Limit: tt.defaultLimit})

			if _, err := adapter.Find(ctx, "author", tt.criteria, Options{}); err != nil {
				t.Fatalf("Find() error: %v", err)
			}
			if got := store.lastQuery.Criteria.Limit; got != tt.wantLimit {
				t.Errorf("store received limit %d, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestFindScalarCriteria(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{findResult: []Record{{"id": "a1", "name": "Iris"}}}
	adapter := NewAdapter(testRegistry(t), store).WithDefaults(Defaults{Limit: 30})

	res, err := adapter.Find(ctx, "author", ByID("a1"), Options{})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}

	if !res.IsSingle() {
		t.Error("scalar criteria should yield a single-record result")
	}
	if res.Record()["name"] != "Iris" {
		t.Errorf("record name = %v, want Iris", res.Record()["name"])
	}
	if !store.lastQuery.Criteria.IsScalar() {
		t.Error("store should receive the scalar criteria unchanged")
	}
	if store.lastQuery.Criteria.Limit != 0 {
		t.Errorf("default limit should not apply to scalar criteria, got %d", store.lastQuery.Criteria.Limit)
	}
}

func TestFindScalarAbsentIsNil(t *testing.T) {
	store := &fakeStore{}
	adapter := NewAdapter(testRegistry(t), store)

	res, err := adapter.Find(context.Background(), "author", ByID("missing"), Options{})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if !res.IsSingle() {
		t.Error("expected single-record result")
	}
	if res.Record() != nil {
		t.Errorf("absent record should be nil, got %v", res.Record())
	}
}

func TestFindOneForcesSingle(t *testing.T) {
	store := &fakeStore{findResult: []Record{
		{"id": "a1", "name": "Iris"},
		{"id": "a2", "name": "Iris"},
	}}
	adapter := NewAdapter(testRegistry(t), store).WithDefaults(Defaults{Limit: 30})

	res, err := adapter.Find(context.Background(), "author",
		Where(map[string]interface{}{"name": "Iris"}), Options{FindOne: true})
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}

	if !res.IsSingle() {
		t.Error("findOne should force single-record semantics")
	}
	if res.Record()["id"] != "a1" {
		t.Errorf("expected first match, got %v", res.Record()["id"])
	}
	if store.lastQuery.Criteria.Limit != 1 {
		t.Errorf("findOne should issue a single-record lookup, limit = %d", store.lastQuery.Criteria.Limit)
	}
}

func TestFindMergesDefaultPopulate(t *testing.T) {
	store := &fakeStore{}
	adapter := NewAdapter(testRegistry(t), store).WithDefaults(Defaults{
		Populate: []PopulateDirective{{Attribute: "profile"}},
	})

	t.Run("appended when caller omits", func(t *testing.T) {
		_, err := adapter.Find(context.Background(), "author", Criteria{}, Options{
			Populate: []PopulateDirective{{Attribute: "books"}},
		})
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}

		pops := store.lastQuery.Populates()
		if len(pops) != 2 {
			t.Fatalf("expected 2 populate directives, got %d", len(pops))
		}
		if pops[0].Attribute != "books" || pops[1].Attribute != "profile" {
			t.Errorf("populate order = [%s, %s], want [books, profile]", pops[0].Attribute, pops[1].Attribute)
		}
	})

	t.Run("caller directive wins for same attribute", func(t *testing.T) {
		callerCrit := Where(map[string]interface{}{"bio": "long"})
		_, err := adapter.Find(context.Background(), "author", Criteria{}, Options{
			Populate: []PopulateDirective{{Attribute: "profile", Criteria: callerCrit}},
		})
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}

		pops := store.lastQuery.Populates()
		if len(pops) != 1 {
			t.Fatalf("expected 1 populate directive, got %d", len(pops))
		}
		if pops[0].Criteria.Where["bio"] != "long" {
			t.Error("caller's populate criteria should be preserved")
		}
	})
}

func TestUpdateResultShapes(t *testing.T) {
	ctx := context.Background()

	t.Run("scalar unwraps", func(t *testing.T) {
		store := &fakeStore{findResult: []Record{{"id": "a1", "name": "New"}}}
		adapter := NewAdapter(testRegistry(t), store)

		res, err := adapter.Update(ctx, "author", ByID("a1"), Record{"name": "New"}, Options{})
		if err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if !res.IsSingle() || res.Record()["name"] != "New" {
			t.Errorf("expected single updated record, got %v", res.Records())
		}
	})

	t.Run("scalar zero matches yields nil", func(t *testing.T) {
		store := &fakeStore{}
		adapter := NewAdapter(testRegistry(t), store)

		res, err := adapter.Update(ctx, "author", ByID("missing"), Record{"name": "New"}, Options{})
		if err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if !res.IsSingle() || res.Record() != nil {
			t.Errorf("scalar update with no match should be nil record, got %v", res.Record())
		}
	})

	t.Run("structured returns list", func(t *testing.T) {
		store := &fakeStore{findResult: []Record{{"id": "a1"}, {"id": "a2"}}}
		adapter := NewAdapter(testRegistry(t), store).WithDefaults(Defaults{Limit: 10})

		res, err := adapter.Update(ctx, "author", Where(map[string]interface{}{"name": "x"}), Record{"name": "y"}, Options{})
		if err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if res.IsSingle() {
			t.Error("structured update should return a list result")
		}
		if res.Len() != 2 {
			t.Errorf("updated %d records, want 2", res.Len())
		}
		if store.lastQuery.Criteria.Limit != 10 {
			t.Errorf("default limit should apply to structured update, got %d", store.lastQuery.Criteria.Limit)
		}
	})
}

func TestDestroyResultShapes(t *testing.T) {
	ctx := context.Background()

	t.Run("scalar unwraps", func(t *testing.T) {
		store := &fakeStore{findResult: []Record{{"id": "a1"}}}
		adapter := NewAdapter(testRegistry(t), store)

		res, err := adapter.Destroy(ctx, "author", ByID("a1"), Options{})
		if err != nil {
			t.Fatalf("Destroy() error: %v", err)
		}
		if !res.IsSingle() || res.Record()["id"] != "a1" {
			t.Errorf("expected single destroyed record, got %v", res.Records())
		}
	})

	t.Run("structured returns list", func(t *testing.T) {
		store := &fakeStore{findResult: []Record{{"id": "a1"}, {"id": "a2"}}}
		adapter := NewAdapter(testRegistry(t), store)

		res, err := adapter.Destroy(ctx, "author", Where(map[string]interface{}{"name": "x"}), Options{})
		if err != nil {
			t.Fatalf("Destroy() error: %v", err)
		}
		if res.IsSingle() || res.Len() != 2 {
			t.Errorf("expected list of 2 destroyed records, got single=%v len=%d", res.IsSingle(), res.Len())
		}
	})
}

func TestUnknownModelRaisedBeforeStore(t *testing.T) {
	store := &fakeStore{err: errors.New("store should not be called")}
	adapter := NewAdapter(testRegistry(t), store)

	_, err := adapter.Find(context.Background(), "nope", Criteria{}, Options{})
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if store.lastQuery != nil {
		t.Error("store must not be called for an unknown model")
	}
}

func TestStoreFailurePropagatesUnchanged(t *testing.T) {
	storeErr := errors.New("constraint violation")
	store := &fakeStore{err: storeErr}
	adapter := NewAdapter(testRegistry(t), store)

	_, err := adapter.Create(context.Background(), "author", Record{"name": "x"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("store error should propagate unchanged, got %v", err)
	}
}
