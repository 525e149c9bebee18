package footprints

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestIndexer(t *testing.T) *RedisIndexer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisIndexer(client)
}

func TestRedisIndexerLookup(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t)
	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})

	reg := testRegistry(t)
	bookModel, _ := reg.Lookup("book")

	for _, rec := range []Record{
		{"id": "b1", "authorId": 7},
		{"id": "b2", "authorId": 7},
		{"id": "b3", "authorId": 8},
	} {
		if err := idx.Update(ctx, bookModel, rec); err != nil {
			t.Fatalf("Update() error: %v", err)
		}
	}

	ids, indexed, err := idx.Lookup(ctx, "book", "authorId", 7)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if !indexed {
		t.Fatal("authorId should be indexed")
	}
	if len(ids) != 2 {
		t.Errorf("got %d ids, want 2", len(ids))
	}

	count, err := idx.Count(ctx, "book", "authorId", 7)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestRedisIndexerUnregisteredAttribute(t *testing.T) {
	idx := newTestIndexer(t)
	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})

	_, indexed, err := idx.Lookup(context.Background(), "book", "title", "X")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if indexed {
		t.Error("title is not registered and must not report as indexed")
	}
}

func TestRedisIndexerNumericValuesNormalize(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t)
	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})

	reg := testRegistry(t)
	bookModel, _ := reg.Lookup("book")

	// JSON round-trips turn 7 into float64(7); both must land on one key.
	if err := idx.Update(ctx, bookModel, Record{"id": "b1", "authorId": float64(7)}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	ids, _, err := idx.Lookup(ctx, "book", "authorId", 7)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "b1" {
		t.Errorf("ids = %v, want [b1]", ids)
	}
}

func TestRedisIndexerReplace(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndexer(t)
	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})

	reg := testRegistry(t)
	bookModel, _ := reg.Lookup("book")

	old := Record{"id": "b1", "authorId": 7}
	if err := idx.Update(ctx, bookModel, old); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	updated := Record{"id": "b1", "authorId": 8}
	if err := idx.Replace(ctx, bookModel, old, updated); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	oldIDs, _, _ := idx.Lookup(ctx, "book", "authorId", 7)
	if len(oldIDs) != 0 {
		t.Errorf("old index value still holds %v", oldIDs)
	}
	newIDs, _, _ := idx.Lookup(ctx, "book", "authorId", 8)
	if len(newIDs) != 1 {
		t.Errorf("new index value holds %v, want [b1]", newIDs)
	}
}

func TestRedisIndexerGracefulDegradation(t *testing.T) {
	ctx := context.Background()
	idx := NewRedisIndexer(nil)
	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})

	reg := testRegistry(t)
	bookModel, _ := reg.Lookup("book")

	if err := idx.Update(ctx, bookModel, Record{"id": "b1", "authorId": 7}); err != nil {
		t.Errorf("Update() with nil client should be a no-op, got %v", err)
	}
	if idx.Indexed("book", "authorId") {
		t.Error("nil client must report nothing as indexed")
	}
}

func TestDocumentStoreUsesIndex(t *testing.T) {
	ctx := context.Background()
	reg := testRegistry(t)
	bookModel, _ := reg.Lookup("book")

	idx := newTestIndexer(t)
	idx.Register(IndexSpec{Model: "book", Attribute: "authorId"})

	metrics := NewInMemoryMetrics()
	store := NewDocumentStore(NewFilesystemBackend(t.TempDir()), reg).WithIndexer(idx)
	store.SetMetrics(metrics)

	if _, err := store.CreateEach(ctx, bookModel, []Record{
		{"id": 1, "title": "A", "authorId": 7},
		{"id": 2, "title": "B", "authorId": 7},
		{"id": 3, "title": "C", "authorId": 8},
	}); err != nil {
		t.Fatalf("CreateEach() error: %v", err)
	}

	recs, err := store.Find(ctx, bookModel, NewStoreQuery(Where(map[string]interface{}{"authorId": 7})))
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}
	if metrics.Counters[MetricIndexHits] == 0 {
		t.Error("indexed find should count an index hit")
	}

	// After a destroy, the index must not resurrect the record.
	if _, err := store.Destroy(ctx, bookModel, NewStoreQuery(ByID(1))); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	recs, err = store.Find(ctx, bookModel, NewStoreQuery(Where(map[string]interface{}{"authorId": 7})))
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("after destroy got %d records, want 1", len(recs))
	}

	// Unindexed attribute falls back to a scan and still answers.
	recs, err = store.Find(ctx, bookModel, NewStoreQuery(Where(map[string]interface{}{"title": "C"})))
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(recs) != 1 || !equalValues(recs[0]["id"], 3) {
		t.Errorf("scan fallback got %v, want book 3", recs)
	}
	if metrics.Counters[MetricIndexMisses] == 0 {
		t.Error("unindexed filter should count an index miss")
	}
}
