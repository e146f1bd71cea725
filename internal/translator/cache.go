package translator

import (
	"context"
	"fmt"

	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/pkg/log"
)

// Memory stores finished translations keyed by backend, language pair and
// source text.
type Memory interface {
	LookupTranslations(ctx context.Context, backend, source, target string, texts []string) (map[string]string, error)
	SaveTranslations(ctx context.Context, backend, source, target string, translations map[string]string) error
}

// Cached serves repeated texts from a translation memory and sends only the
// misses to the wrapped translator.
type Cached struct {
	next   Translator
	memory Memory
}

// NewCached wraps next with memory.
func NewCached(next Translator, memory Memory) *Cached {
	return &Cached{
		next:   next,
		memory: memory,
	}
}

func (c *Cached) Name() string {
	return Name(c.next)
}

func (c *Cached) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	backend, src, tgt := c.Name(), source.String(), target.String()

	hits, err := c.memory.LookupTranslations(ctx, backend, src, tgt, texts)
	if err != nil {
		log.Warn("Translation memory lookup failed, translating everything: %v", err)
		hits = nil
	}

	var misses []string
	queued := make(map[string]bool)
	for _, text := range texts {
		if _, ok := hits[text]; ok || queued[text] {
			continue
		}
		queued[text] = true
		misses = append(misses, text)
	}

	fresh := make(map[string]string, len(misses))
	if len(misses) > 0 {
		translated, err := c.next.Translate(ctx, misses, source, target)
		if err != nil {
			return nil, err
		}
		if len(translated) != len(misses) {
			return nil, fmt.Errorf("%w: got %d translations for %d texts", ErrCountMismatch, len(translated), len(misses))
		}
		for i, text := range misses {
			fresh[text] = translated[i]
		}
		if err := c.memory.SaveTranslations(ctx, backend, src, tgt, fresh); err != nil {
			log.Warn("Failed to save %d translations to memory: %v", len(fresh), err)
		}
	}
	log.Debug("Translation memory: %d hits, %d misses", len(texts)-len(misses), len(misses))

	out := make([]string, len(texts))
	for i, text := range texts {
		if translated, ok := fresh[text]; ok {
			out[i] = translated
			continue
		}
		out[i] = hits[text]
	}
	return out, nil
}
