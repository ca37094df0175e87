package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAssignsIDAndRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created, err := store.Create(ctx, Record{Subject: "Physics", Grade: "10", Board: "CBSE"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected creation time")
	}
	loaded, err := store.Fetch(ctx, created.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if loaded.Subject != "Physics" || loaded.Grade != "10" || loaded.Board != "CBSE" {
		t.Fatalf("unexpected record: %+v", loaded)
	}
}

func TestCreateRejectsIncompleteRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cases := []Record{
		{Grade: "10", Board: "CBSE"},
		{Subject: "Physics", Board: "CBSE"},
		{Subject: "Physics", Grade: "10"},
	}
	for i, rec := range cases {
		if _, err := store.Create(ctx, rec); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, rec)
		}
	}
}

func TestFetchUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Fetch(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first, err := store.Create(ctx, Record{Subject: "Maths", Grade: "9", Board: "ICSE"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := store.Create(ctx, Record{Subject: "Physics", Grade: "10", Board: "CBSE"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	ids := map[string]bool{records[0].ID: true, records[1].ID: true}
	if !ids[first.ID] || !ids[second.ID] {
		t.Fatalf("missing records in list: %+v", records)
	}
}
