// Package textgen serves typing-practice text from the cached word and
// sentence pools and from the generative agent.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/typerush/textsvc/pkg/agent"
	"github.com/typerush/textsvc/pkg/cache"
	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/store"
)

var (
	// ErrEmptyPool is returned when a scan succeeded but matched nothing.
	ErrEmptyPool = errors.New("empty pool")
	// ErrInvalidRequest is returned for a request the service cannot serve.
	ErrInvalidRequest = errors.New("invalid request")
)

// InvalidTypeMessage names the accepted content types.
const InvalidTypeMessage = "invalid type, must be 1, 2, or 3"

// Sentence lengths with a dedicated bucket.
const (
	MinSentenceLength = 1
	MaxSentenceLength = 3
)

// Options tunes a Service. Zero values pick defaults.
type Options struct {
	CacheTTL time.Duration
	// StoreTimeout bounds one full paginated scan.
	StoreTimeout time.Duration
	// AgentTimeout bounds one agent invocation including the stream read.
	AgentTimeout time.Duration
	Logger       *log.Logger
	// Clock is the cache time source.
	Clock func() time.Time
}

// Service orchestrates cache lookups, sampling and result shaping.
type Service struct {
	store        store.Store
	agent        agent.Agent
	words        *cache.Cache[models.WordRecord]
	sentences    *cache.Cache[models.SentenceRecord]
	storeTimeout time.Duration
	agentTimeout time.Duration
	logger       *log.Logger
}

// New creates a Service. A nil agent behaves as an unconfigured one.
func New(st store.Store, ag agent.Agent, opts Options) *Service {
	if ag == nil {
		ag = agent.Unavailable{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var cacheOpts []cache.Option
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
	}
	return &Service{
		store:        st,
		agent:        ag,
		words:        cache.New[models.WordRecord](opts.CacheTTL, cacheOpts...),
		sentences:    cache.New[models.SentenceRecord](opts.CacheTTL, cacheOpts...),
		storeTimeout: opts.StoreTimeout,
		agentTimeout: opts.AgentTimeout,
		logger:       logger,
	}
}

// GenerateText dispatches on the request type and times the content call.
func (s *Service) GenerateText(ctx context.Context, req models.GenerationRequest) (models.GenerationResponse, error) {
	t := models.ContentType(req.Type)
	if !t.Valid() {
		return models.GenerationResponse{}, fmt.Errorf("%w: %s", ErrInvalidRequest, InvalidTypeMessage)
	}

	start := time.Now()
	text, err := s.generate(ctx, t, req.Count)
	elapsed := time.Since(start)
	if err != nil {
		return models.GenerationResponse{}, err
	}

	return models.GenerationResponse{
		Type:      req.Type,
		Count:     req.Count,
		Text:      text,
		ElapsedMs: roundMillis(elapsed),
	}, nil
}

func (s *Service) generate(ctx context.Context, t models.ContentType, count int) (string, error) {
	switch t {
	case models.TypeWords:
		words, err := s.GetRandomWords(ctx, count)
		if err != nil {
			return "", err
		}
		return strings.Join(words, " "), nil
	case models.TypeSentence:
		words, err := s.GetStructuredSentence(ctx, count)
		if err != nil {
			return "", err
		}
		return strings.Join(words, " "), nil
	default:
		res, err := s.GetBedrockParagraphs(ctx, count)
		if err != nil {
			return "", err
		}
		return strings.Join(res.Paragraphs(), "\n\n"), nil
	}
}

// GetRandomWords samples min(count, pool size) distinct words uniformly
// without replacement. count is clamped to at least 1.
func (s *Service) GetRandomWords(ctx context.Context, count int) ([]string, error) {
	count = max(count, 1)

	pool, err := s.words.GetOrRefresh(ctx, cache.WordsKey, s.fetchWords)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: no words found in store", ErrEmptyPool)
	}

	picked := sampleIndexes(len(pool), min(count, len(pool)))
	out := make([]string, len(picked))
	for i, j := range picked {
		out[i] = pool[j].Content
	}
	return out, nil
}

// GetStructuredSentence picks one sentence of the given length, clamped to
// [MinSentenceLength, MaxSentenceLength], and returns its words.
func (s *Service) GetStructuredSentence(ctx context.Context, length int) ([]string, error) {
	length = min(max(length, MinSentenceLength), MaxSentenceLength)

	bucket, err := s.sentences.GetOrRefresh(ctx, cache.SentenceKey(length), s.fetchSentences(length))
	if err != nil {
		return nil, err
	}
	if len(bucket) == 0 {
		return nil, fmt.Errorf("%w: no sentence found for length %d", ErrEmptyPool, length)
	}

	picked := bucket[rand.IntN(len(bucket))]
	return strings.Fields(picked.Content), nil
}

// GetBedrockParagraphs asks the agent for fresh paragraphs. count is
// accepted for symmetry with the other types and currently unused.
func (s *Service) GetBedrockParagraphs(ctx context.Context, _ int) (models.BedrockResult, error) {
	ctx, cancel := withTimeout(ctx, s.agentTimeout)
	defer cancel()
	return s.agent.Invoke(ctx)
}

// CacheStats sums the word and sentence cache metrics.
func (s *Service) CacheStats() models.CacheStats {
	return s.words.Stats().Add(s.sentences.Stats())
}

// PurgeCache drops cached pools and returns how many entries were removed.
func (s *Service) PurgeCache(expiredOnly bool) int {
	return s.words.Purge(expiredOnly) + s.sentences.Purge(expiredOnly)
}

func (s *Service) fetchWords(ctx context.Context) ([]models.WordRecord, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	items, err := s.store.Scan(ctx, store.Words())
	if err != nil {
		s.logger.Warn("word pool refresh failed", "err", err)
		return nil, err
	}

	words := make([]models.WordRecord, len(items))
	for i, it := range items {
		words[i] = models.WordRecord{Content: it.Content}
	}
	s.logger.Debug("word pool refreshed", "count", len(words), "took", time.Since(start))
	return words, nil
}

func (s *Service) fetchSentences(length int) cache.FetchFunc[models.SentenceRecord] {
	return func(ctx context.Context) ([]models.SentenceRecord, error) {
		ctx, cancel := withTimeout(ctx, s.storeTimeout)
		defer cancel()

		start := time.Now()
		items, err := s.store.Scan(ctx, store.Sentences(length))
		if err != nil {
			s.logger.Warn("sentence pool refresh failed", "length", length, "err", err)
			return nil, err
		}

		sentences := make([]models.SentenceRecord, len(items))
		for i, it := range items {
			sentences[i] = models.SentenceRecord{Content: it.Content, Length: it.Length}
		}
		s.logger.Debug("sentence pool refreshed", "length", length, "count", len(sentences), "took", time.Since(start))
		return sentences, nil
	}
}

// sampleIndexes returns k distinct indexes from [0, n) in random order
// using a partial Fisher-Yates shuffle.
func sampleIndexes(n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rand.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
