package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/typerush/textsvc/pkg/agent"
	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/store"
)

// fakeStore serves canned rows and counts scans per filter.
type fakeStore struct {
	mu      sync.Mutex
	items   []models.TextItem
	err     error
	block   bool
	delay   time.Duration
	scans   map[store.Filter]int
	filters []store.Filter
}

func (f *fakeStore) Scan(ctx context.Context, flt store.Filter) ([]models.TextItem, error) {
	f.mu.Lock()
	if f.scans == nil {
		f.scans = make(map[store.Filter]int)
	}
	f.scans[flt]++
	f.filters = append(f.filters, flt)
	items, err, block, delay := f.items, f.err, f.block, f.delay
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", store.ErrBackendUnavailable, ctx.Err())
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}

	var out []models.TextItem
	for _, it := range items {
		if it.Type != flt.Type {
			continue
		}
		if flt.Length > 0 && it.Length != flt.Length {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filters)
}

type fakeAgent struct {
	res   models.BedrockResult
	err   error
	calls int
}

func (a *fakeAgent) Invoke(ctx context.Context) (models.BedrockResult, error) {
	a.calls++
	return a.res, a.err
}

func wordItems(words ...string) []models.TextItem {
	out := make([]models.TextItem, len(words))
	for i, w := range words {
		out[i] = models.TextItem{ID: fmt.Sprint("w", i), Type: models.ItemTypeWord, Content: w}
	}
	return out
}

func TestGetRandomWordsDistinct(t *testing.T) {
	pool := []string{"apple", "banana", "cherry", "date", "elder", "fig", "grape"}
	st := &fakeStore{items: wordItems(pool...)}
	svc := New(st, nil, Options{})
	ctx := context.Background()

	inPool := make(map[string]bool)
	for _, w := range pool {
		inPool[w] = true
	}

	for _, count := range []int{1, 3, 7, 20} {
		words, err := svc.GetRandomWords(ctx, count)
		if err != nil {
			t.Fatal(err)
		}
		want := min(count, len(pool))
		if len(words) != want {
			t.Errorf("count %d: expected %d words, got %d", count, want, len(words))
		}
		seen := make(map[string]bool)
		for _, w := range words {
			if !inPool[w] {
				t.Errorf("word %q not in pool", w)
			}
			if seen[w] {
				t.Errorf("word %q returned twice", w)
			}
			seen[w] = true
		}
	}

	if st.total() != 1 {
		t.Errorf("expected 1 scan within TTL, got %d", st.total())
	}
}

func TestGetRandomWordsClampsCount(t *testing.T) {
	st := &fakeStore{items: wordItems("a", "b", "c")}
	svc := New(st, nil, Options{})

	for _, count := range []int{0, -5} {
		words, err := svc.GetRandomWords(context.Background(), count)
		if err != nil {
			t.Fatal(err)
		}
		if len(words) != 1 {
			t.Errorf("count %d: expected 1 word, got %d", count, len(words))
		}
	}
}

func TestGetRandomWordsEmptyPool(t *testing.T) {
	st := &fakeStore{}
	svc := New(st, nil, Options{})
	ctx := context.Background()

	for range 3 {
		_, err := svc.GetRandomWords(ctx, 5)
		if !errors.Is(err, ErrEmptyPool) {
			t.Fatalf("expected ErrEmptyPool, got %v", err)
		}
	}
	if st.total() != 1 {
		t.Errorf("expected empty pool to be cached, got %d scans", st.total())
	}
	if svc.CacheStats().Entries != 1 {
		t.Errorf("expected the empty result to be stored, got %+v", svc.CacheStats())
	}
}

func TestGetRandomWordsRefreshAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	st := &fakeStore{items: wordItems("old")}
	svc := New(st, nil, Options{CacheTTL: 300 * time.Second, Clock: clock})
	ctx := context.Background()

	if _, err := svc.GetRandomWords(ctx, 1); err != nil {
		t.Fatal(err)
	}

	st.mu.Lock()
	st.items = wordItems("new")
	st.mu.Unlock()

	mu.Lock()
	now = now.Add(299 * time.Second)
	mu.Unlock()
	words, _ := svc.GetRandomWords(ctx, 1)
	if words[0] != "old" || st.total() != 1 {
		t.Errorf("expected cached data within TTL, got %v after %d scans", words, st.total())
	}

	mu.Lock()
	now = now.Add(time.Second)
	mu.Unlock()
	words, _ = svc.GetRandomWords(ctx, 1)
	if words[0] != "new" || st.total() != 2 {
		t.Errorf("expected refresh after TTL, got %v after %d scans", words, st.total())
	}
}

func TestGetRandomWordsBackendError(t *testing.T) {
	st := &fakeStore{err: fmt.Errorf("%w: throttled", store.ErrBackendUnavailable)}
	svc := New(st, nil, Options{})

	_, err := svc.GetRandomWords(context.Background(), 3)
	if !errors.Is(err, store.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if errors.Is(err, ErrEmptyPool) {
		t.Error("a failed refresh must not look like an empty pool")
	}

	st.mu.Lock()
	st.err = nil
	st.items = wordItems("back")
	st.mu.Unlock()

	words, err := svc.GetRandomWords(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 1 || words[0] != "back" {
		t.Errorf("unexpected words: %v", words)
	}
}

func TestStoreTimeout(t *testing.T) {
	st := &fakeStore{block: true}
	svc := New(st, nil, Options{StoreTimeout: 20 * time.Millisecond})

	_, err := svc.GetRandomWords(context.Background(), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if svc.CacheStats().Entries != 0 {
		t.Error("timeout must leave the cache unchanged")
	}
}

func TestGetStructuredSentenceClamps(t *testing.T) {
	st := &fakeStore{items: []models.TextItem{
		{ID: "s1", Type: models.ItemTypeSentence, Content: "go", Length: 1},
		{ID: "s3", Type: models.ItemTypeSentence, Content: "the  quick\tfox", Length: 3},
	}}
	svc := New(st, nil, Options{})
	ctx := context.Background()

	words, err := svc.GetStructuredSentence(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(words) != 1 || words[0] != "go" {
		t.Errorf("length 0: expected [go], got %v", words)
	}

	words, err = svc.GetStructuredSentence(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(words, "|") != "the|quick|fox" {
		t.Errorf("length 10: expected [the quick fox], got %v", words)
	}

	if st.scans[store.Sentences(1)] != 1 || st.scans[store.Sentences(3)] != 1 {
		t.Errorf("expected one scan per clamped bucket, got %v", st.scans)
	}
}

func TestGetStructuredSentenceEmptyBucket(t *testing.T) {
	st := &fakeStore{items: []models.TextItem{
		{ID: "s1", Type: models.ItemTypeSentence, Content: "go", Length: 1},
	}}
	svc := New(st, nil, Options{})

	_, err := svc.GetStructuredSentence(context.Background(), 2)
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
}

func TestGenerateTextInvalidType(t *testing.T) {
	st := &fakeStore{items: wordItems("a")}
	ag := &fakeAgent{}
	svc := New(st, ag, Options{})

	_, err := svc.GenerateText(context.Background(), models.GenerationRequest{Type: 99, Count: 5})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), InvalidTypeMessage) {
		t.Errorf("expected message %q, got %q", InvalidTypeMessage, err.Error())
	}
	if st.total() != 0 || ag.calls != 0 {
		t.Error("invalid type must not touch the store or agent")
	}
	stats := svc.CacheStats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("invalid type must not touch the cache, got %+v", stats)
	}
}

func TestGenerateTextWords(t *testing.T) {
	svc := New(&fakeStore{items: wordItems("one", "two", "three")}, nil, Options{})

	resp, err := svc.GenerateText(context.Background(), models.GenerationRequest{Type: 1, Count: 3})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != 1 || resp.Count != 3 {
		t.Errorf("unexpected echo: %+v", resp)
	}
	if got := len(strings.Split(resp.Text, " ")); got != 3 {
		t.Errorf("expected 3 space-separated words, got %q", resp.Text)
	}
	if resp.ElapsedMs < 0 {
		t.Errorf("negative elapsed: %v", resp.ElapsedMs)
	}
}

func TestGenerateTextSentence(t *testing.T) {
	svc := New(&fakeStore{items: []models.TextItem{
		{ID: "s", Type: models.ItemTypeSentence, Content: "  hello   world ", Length: 2},
	}}, nil, Options{})

	resp, err := svc.GenerateText(context.Background(), models.GenerationRequest{Type: 2, Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "hello world" {
		t.Errorf("expected normalized sentence, got %q", resp.Text)
	}
}

func TestGenerateTextParagraphs(t *testing.T) {
	ag := &fakeAgent{res: models.BedrockResult{SessionID: "s", Para1: "A", Para2: "", Para3: "C"}}
	st := &fakeStore{}
	svc := New(st, ag, Options{})

	resp, err := svc.GenerateText(context.Background(), models.GenerationRequest{Type: 3, Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "A\n\nC" {
		t.Errorf("unexpected text: %q", resp.Text)
	}

	ag.res = models.BedrockResult{}
	resp, err = svc.GenerateText(context.Background(), models.GenerationRequest{Type: 3, Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text != "" {
		t.Errorf("expected empty text, got %q", resp.Text)
	}
	if ag.calls != 2 || st.total() != 0 {
		t.Errorf("paragraphs must bypass the cache: agent calls %d, scans %d", ag.calls, st.total())
	}
}

func TestGenerateTextAgentErrors(t *testing.T) {
	svc := New(&fakeStore{}, nil, Options{})
	_, err := svc.GenerateText(context.Background(), models.GenerationRequest{Type: 3})
	if !errors.Is(err, agent.ErrAgentUnavailable) {
		t.Errorf("expected ErrAgentUnavailable, got %v", err)
	}

	svc = New(&fakeStore{}, &fakeAgent{err: fmt.Errorf("%w: boom", agent.ErrAgentInvocation)}, Options{})
	_, err = svc.GenerateText(context.Background(), models.GenerationRequest{Type: 3})
	if !errors.Is(err, agent.ErrAgentInvocation) {
		t.Errorf("expected ErrAgentInvocation, got %v", err)
	}
}

func TestConcurrentRequestsShareOneScan(t *testing.T) {
	st := &fakeStore{items: wordItems("a", "b", "c", "d"), delay: 30 * time.Millisecond}
	svc := New(st, nil, Options{})

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GenerateText(context.Background(), models.GenerationRequest{Type: 1, Count: 2})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if st.total() != 1 {
		t.Errorf("expected exactly 1 scan, got %d", st.total())
	}
}

func TestPurgeCache(t *testing.T) {
	st := &fakeStore{items: wordItems("a")}
	svc := New(st, nil, Options{})
	ctx := context.Background()

	_, _ = svc.GetRandomWords(ctx, 1)
	if n := svc.PurgeCache(false); n != 1 {
		t.Errorf("expected 1 purged entry, got %d", n)
	}
	_, _ = svc.GetRandomWords(ctx, 1)
	if st.total() != 2 {
		t.Errorf("expected refetch after purge, got %d scans", st.total())
	}
}

func TestSampleIndexes(t *testing.T) {
	for range 100 {
		idx := sampleIndexes(10, 4)
		if len(idx) != 4 {
			t.Fatalf("expected 4 indexes, got %d", len(idx))
		}
		seen := make(map[int]bool)
		for _, i := range idx {
			if i < 0 || i >= 10 || seen[i] {
				t.Fatalf("bad sample: %v", idx)
			}
			seen[i] = true
		}
	}
}

func TestRoundMillis(t *testing.T) {
	if got := roundMillis(1234567 * time.Nanosecond); got != 1.23 {
		t.Errorf("expected 1.23, got %v", got)
	}
	if got := roundMillis(1236000 * time.Nanosecond); got != 1.24 {
		t.Errorf("expected 1.24, got %v", got)
	}
}
