package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/store"
)

func newTestStore(t *testing.T, pageSize int) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "store_test.db"), pageSize)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestScanEmpty(t *testing.T) {
	s := newTestStore(t, 10)

	items, err := s.Scan(context.Background(), store.Words())
	if err != nil {
		t.Fatal(err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", items)
	}
}

func TestScanPaginates(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	var items []models.TextItem
	for i := range 10 {
		items = append(items, models.TextItem{
			ID: fmt.Sprintf("w%02d", i), Type: models.ItemTypeWord, Content: fmt.Sprintf("word%d", i),
		})
	}
	items = append(items, models.TextItem{ID: "s1", Type: models.ItemTypeSentence, Content: "a b", Length: 2})
	if err := s.Import(ctx, items); err != nil {
		t.Fatal(err)
	}

	got, err := s.Scan(ctx, store.Words())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 words, got %d", len(got))
	}
	for i, it := range got {
		if it.Content != fmt.Sprintf("word%d", i) {
			t.Errorf("item %d out of order: %s", i, it.Content)
		}
		if it.Length != 0 {
			t.Errorf("word %d should have no length, got %d", i, it.Length)
		}
	}
}

func TestScanExactPageBoundary(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	for i := range 4 {
		if err := s.Put(ctx, models.TextItem{ID: fmt.Sprint(i), Type: models.ItemTypeWord, Content: "w"}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Scan(ctx, store.Words())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Errorf("expected 4 words, got %d", len(got))
	}
}

func TestScanSentenceLength(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	_ = s.Import(ctx, []models.TextItem{
		{ID: "a", Type: models.ItemTypeSentence, Content: "one", Length: 1},
		{ID: "b", Type: models.ItemTypeSentence, Content: "two words", Length: 2},
		{ID: "c", Type: models.ItemTypeSentence, Content: "also two", Length: 2},
		{ID: "d", Type: models.ItemTypeWord, Content: "two"},
	})

	got, err := s.Scan(ctx, store.Sentences(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(got))
	}
	for _, it := range got {
		if it.Length != 2 || it.Type != models.ItemTypeSentence {
			t.Errorf("unexpected item: %+v", it)
		}
	}
}

func TestScanClosedDB(t *testing.T) {
	s := newTestStore(t, 10)
	_ = s.Close()

	_, err := s.Scan(context.Background(), store.Words())
	if err == nil {
		t.Fatal("expected error on closed db")
	}
	if !errors.Is(err, store.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}
