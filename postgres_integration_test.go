package footprints

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestIntegration_PostgresStore validates the JSONB store against a real
// PostgreSQL instance.
//
// Run with: go test -run TestIntegration_PostgresStore -v
//
// Two test modes:
// 1. Manual Postgres: set TEST_POSTGRES_DSN to an existing instance
// 2. Testcontainers: auto-starts Postgres via Docker (zero setup)
func TestIntegration_PostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	ctx := context.Background()

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		t.Run("ManualPostgres", func(t *testing.T) {
			testPostgresStore(t, ctx, dsn)
		})
		return
	}

	t.Run("Testcontainers", func(t *testing.T) {
		// Catch panic if Docker daemon is not running
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Docker daemon not available, skipping testcontainers test: %v", r)
			}
		}()

		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("footprints"),
			postgres.WithUsername("footprints"),
			postgres.WithPassword("footprints"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("Failed to start Postgres container (Docker not available?): %v", err)
			return
		}
		defer func() {
			if err := testcontainers.TerminateContainer(container); err != nil {
				t.Logf("Failed to terminate Postgres container: %v", err)
			}
		}()

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("Failed to get connection string: %v", err)
		}

		testPostgresStore(t, ctx, dsn)
	})
}

func testPostgresStore(t *testing.T, ctx context.Context, dsn string) {
	reg := testRegistry(t)
	store, err := ConnectPostgresStore(ctx, dsn, reg)
	if err != nil {
		t.Fatalf("ConnectPostgresStore() error: %v", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema() error: %v", err)
	}

	bookModel, _ := reg.Lookup("book")
	authorModel, _ := reg.Lookup("author")
	profileModel, _ := reg.Lookup("profile")

	t.Run("create and scalar find", func(t *testing.T) {
		rec, err := store.Create(ctx, bookModel, Record{"id": 1, "title": "A", "authorId": 7})
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if !equalValues(rec["id"], 1) {
			t.Errorf("id = %v, want 1", rec["id"])
		}

		recs, err := store.Find(ctx, bookModel, NewStoreQuery(ByID(1)))
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
		if len(recs) != 1 || recs[0]["title"] != "A" {
			t.Errorf("got %v, want book 1", recs)
		}

		recs, err = store.Find(ctx, bookModel, NewStoreQuery(ByID(999)))
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("absent id should be empty, got %v", recs)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		_, err := store.Create(ctx, bookModel, Record{"id": 1, "title": "Again"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("structured find with sort and limit", func(t *testing.T) {
		_, err := store.CreateEach(ctx, bookModel, []Record{
			{"id": 2, "title": "C", "authorId": 7},
			{"id": 3, "title": "B", "authorId": 7},
			{"id": 4, "title": "D", "authorId": 8},
		})
		if err != nil {
			t.Fatalf("CreateEach() error: %v", err)
		}

		c := Criteria{
			Where: map[string]interface{}{"authorId": 7},
			Sort:  "title",
			Limit: 2,
		}
		recs, err := store.Find(ctx, bookModel, NewStoreQuery(c))
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
		if len(recs) != 2 || recs[0]["title"] != "A" || recs[1]["title"] != "B" {
			t.Errorf("got %v, want [A B]", recs)
		}
	})

	t.Run("update honors criteria and keeps primary key", func(t *testing.T) {
		updated, err := store.Update(ctx, bookModel,
			NewStoreQuery(Where(map[string]interface{}{"authorId": 8})),
			Record{"status": "archived", "id": 999})
		if err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if len(updated) != 1 {
			t.Fatalf("updated %d rows, want 1", len(updated))
		}
		if updated[0]["status"] != "archived" || !equalValues(updated[0]["id"], 4) {
			t.Errorf("updated = %v", updated[0])
		}
	})

	t.Run("populate", func(t *testing.T) {
		if _, err := store.Create(ctx, profileModel, Record{"id": "p1", "bio": "hi"}); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		if _, err := store.Create(ctx, authorModel, Record{"id": 7, "name": "Iris", "profile": "p1"}); err != nil {
			t.Fatalf("Create() error: %v", err)
		}

		q := NewStoreQuery(ByID(7)).Populate("books", Criteria{Sort: "title"}).Populate("profile", Criteria{})
		recs, err := store.Find(ctx, authorModel, q)
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
		if len(recs) != 1 {
			t.Fatalf("got %d authors, want 1", len(recs))
		}
		books, ok := recs[0]["books"].([]Record)
		if !ok || len(books) != 3 {
			t.Errorf("populated books = %v, want 3", recs[0]["books"])
		}
		profile, ok := recs[0]["profile"].(Record)
		if !ok || profile["bio"] != "hi" {
			t.Errorf("populated profile = %v", recs[0]["profile"])
		}
	})

	t.Run("numeric sort orders by magnitude", func(t *testing.T) {
		_, err := store.CreateEach(ctx, profileModel, []Record{
			{"id": "p2", "rank": 9},
			{"id": "p3", "rank": 10},
			{"id": "p4", "rank": 2},
		})
		if err != nil {
			t.Fatalf("CreateEach() error: %v", err)
		}

		recs, err := store.Find(ctx, profileModel, NewStoreQuery(Criteria{Sort: "rank", Limit: 3}))
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("got %d profiles, want 3", len(recs))
		}
		// Text ordering would put "10" before "9"
		if !equalValues(recs[0]["rank"], 2) || !equalValues(recs[1]["rank"], 9) || !equalValues(recs[2]["rank"], 10) {
			t.Errorf("ranks = %v, %v, %v, want 2, 9, 10", recs[0]["rank"], recs[1]["rank"], recs[2]["rank"])
		}
	})

	t.Run("destroy", func(t *testing.T) {
		destroyed, err := store.Destroy(ctx, bookModel,
			NewStoreQuery(Where(map[string]interface{}{"authorId": 7})))
		if err != nil {
			t.Fatalf("Destroy() error: %v", err)
		}
		if len(destroyed) != 3 {
			t.Errorf("destroyed %d rows, want 3", len(destroyed))
		}

		left, err := store.Find(ctx, bookModel, NewStoreQuery(Criteria{}))
		if err != nil {
			t.Fatalf("Find() error: %v", err)
		}
		if len(left) != 1 {
			t.Errorf("remaining = %v, want only book 4", left)
		}
	})
}
