package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"claim-analyze-pipeline/llm"
	"claim-analyze-pipeline/models"
)

// ErrFailed marks a translation that could not be completed. Translation is
// all-or-nothing per invocation: a single leaf failure aborts the whole
// operation and no partial result is exposed.
var ErrFailed = errors.New("translation failed")

const (
	defaultConcurrency = 4
	cacheSize          = 2048
)

// Translator produces translated copies of analysis results by walking the
// value tree and translating every string leaf through the model client.
type Translator struct {
	client      llm.Client
	concurrency int
	cache       *lru.Cache[string, string]
}

// New creates a Translator. concurrency bounds the number of in-flight leaf
// translations; values < 1 fall back to the default.
func New(client llm.Client, concurrency int) (*Translator, error) {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Translator{
		client:      client,
		concurrency: concurrency,
		cache:       cache,
	}, nil
}

// Translate returns a new tree with the same shape in which every string
// leaf has been translated to the target language. Map keys are never
// translated; numbers, booleans and nulls pass through unchanged. The first
// leaf failure cancels outstanding requests and fails the whole call.
func (t *Translator) Translate(ctx context.Context, v Value, targetLanguage string) (Value, error) {
	leaves := leafStrings(v)
	if len(leaves) == 0 {
		return substitute(v, nil), nil
	}

	table := make(map[string]string, len(leaves))
	var mu sync.Mutex

	// Resolve every cache hit before any goroutine starts; once workers are
	// running, table is only written under mu.
	pending := leaves[:0]
	for _, leaf := range leaves {
		if leaf == "" {
			continue
		}
		if cached, ok := t.cache.Get(cacheKey(targetLanguage, leaf)); ok {
			table[leaf] = cached
			continue
		}
		pending = append(pending, leaf)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, leaf := range pending {
		leaf := leaf
		g.Go(func() error {
			translated, err := t.client.Translate(gctx, leaf, targetLanguage)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFailed, err)
			}
			t.cache.Add(cacheKey(targetLanguage, leaf), translated)
			mu.Lock()
			table[leaf] = translated
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return substitute(v, table), nil
}

// TranslateResult translates an analysis result into the target language.
// The original is never mutated; the returned result is an independent copy
// whose construction invariants are re-normalized (a translated level or
// enum falls back to the score-derived value).
func (t *Translator) TranslateResult(ctx context.Context, result *models.AnalysisResult, targetLanguage string) (*models.AnalysisResult, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil result", ErrFailed)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	tree, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	translated, err := t.Translate(ctx, tree, targetLanguage)
	if err != nil {
		return nil, err
	}

	out, err := Encode(translated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	var variant models.AnalysisResult
	if err := json.Unmarshal(out, &variant); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	variant.Normalize()
	return &variant, nil
}

func cacheKey(lang, text string) string {
	return lang + "\x00" + text
}
