package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/pkg/log"
)

const (
	DefaultBatchSize     = 50
	DefaultMaxBatchChars = 5000
	DefaultConcurrency   = 1
)

// BatchOptions bounds the requests a Batcher sends to its backend.
type BatchOptions struct {
	// BatchSize is the maximum number of texts per request.
	BatchSize int
	// MaxChars is the maximum number of characters per request. A single
	// longer text is still sent, alone.
	MaxChars int
	// Concurrency is the number of requests in flight.
	Concurrency int
	// Progress, when set, receives the number of texts finished since the
	// previous call. It may be called from several goroutines.
	Progress func(done int)
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxBatchChars
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Batcher splits texts into bounded requests to next and puts the answers
// back together in input order. A request answered with the wrong number of
// translations is retried in halves until single texts remain.
type Batcher struct {
	next Translator
	opts BatchOptions

	progressMu sync.Mutex
}

// NewBatcher wraps next with batching.
func NewBatcher(next Translator, opts BatchOptions) *Batcher {
	return &Batcher{
		next: next,
		opts: opts.withDefaults(),
	}
}

func (b *Batcher) Name() string {
	return Name(b.next)
}

func (b *Batcher) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	out := make([]string, len(texts))
	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		// blank texts have nothing to translate
		if strings.TrimSpace(text) == "" {
			out[i] = text
			continue
		}
		pending = append(pending, i)
	}
	if skipped := len(texts) - len(pending); skipped > 0 {
		b.report(skipped)
	}

	batches := b.split(texts, pending)
	log.Debug("Translating %d texts in %d batches via %s", len(pending), len(batches), b.Name())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for _, batch := range batches {
		g.Go(func() error {
			input := make([]string, len(batch))
			for j, idx := range batch {
				input[j] = texts[idx]
			}

			translated, err := b.translateRange(gctx, input, source, target)
			if err != nil {
				return fmt.Errorf("batch translation failed for texts %d-%d: %w", batch[0]+1, batch[len(batch)-1]+1, err)
			}
			for j, idx := range batch {
				out[idx] = translated[j]
			}
			b.report(len(batch))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// split groups the pending indexes into batches bounded by count and size.
func (b *Batcher) split(texts []string, pending []int) [][]int {
	var (
		batches [][]int
		current []int
		chars   int
	)
	for _, idx := range pending {
		size := utf8.RuneCountInString(texts[idx])
		if len(current) > 0 && (len(current) >= b.opts.BatchSize || chars+size > b.opts.MaxChars) {
			batches = append(batches, current)
			current, chars = nil, 0
		}
		current = append(current, idx)
		chars += size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func (b *Batcher) translateRange(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	translated, err := b.next.Translate(ctx, texts, source, target)
	if err == nil && len(translated) == len(texts) {
		return translated, nil
	}
	if err != nil && !errors.Is(err, ErrCountMismatch) {
		return nil, unavailable(b.Name(), source, target, err)
	}
	if err == nil {
		err = fmt.Errorf("%w: got %d translations for %d texts", ErrCountMismatch, len(translated), len(texts))
	}
	if len(texts) == 1 {
		return nil, unavailable(b.Name(), source, target, err)
	}

	mid := len(texts) / 2
	log.Warn("%v, retrying as batches of %d and %d", err, mid, len(texts)-mid)

	left, err := b.translateRange(ctx, texts[:mid], source, target)
	if err != nil {
		return nil, err
	}
	right, err := b.translateRange(ctx, texts[mid:], source, target)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (b *Batcher) report(done int) {
	if b.opts.Progress == nil {
		return
	}
	b.progressMu.Lock()
	defer b.progressMu.Unlock()
	b.opts.Progress(done)
}
