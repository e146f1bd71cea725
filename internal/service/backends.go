package service

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/internal/config"
	"github.com/MimeLyc/llsub/internal/llm"
	"github.com/MimeLyc/llsub/internal/termmap"
	"github.com/MimeLyc/llsub/internal/translator"
	"github.com/MimeLyc/llsub/pkg/log"
)

// TranslatorSource hands out the translator used for one input file.
// progress receives the number of texts finished since the previous call.
type TranslatorSource interface {
	For(inputPath string, source, target language.Tag, progress func(done int)) (translator.Translator, error)
}

// Static serves the same translator for every file, batched with default
// options.
func Static(t translator.Translator) TranslatorSource {
	return staticSource{t: t}
}

type staticSource struct {
	t translator.Translator
}

func (s staticSource) For(_ string, _, _ language.Tag, progress func(done int)) (translator.Translator, error) {
	return translator.NewBatcher(s.t, translator.BatchOptions{Progress: progress}), nil
}

// Backends builds translators from the configuration: the selected backend,
// wrapped by the translation memory when one is given, wrapped by batching.
type Backends struct {
	cfg    *config.Config
	memory translator.Memory

	google    *translator.Google
	llmClient *llm.Client
}

// NewBackends creates the client of the configured backend. memory may be nil.
func NewBackends(ctx context.Context, cfg *config.Config, memory translator.Memory) (*Backends, error) {
	b := &Backends{cfg: cfg, memory: memory}

	switch cfg.Translate.Backend {
	case config.BackendGoogle:
		google, err := translator.NewGoogle(ctx, cfg.Google.APIKey)
		if err != nil {
			return nil, WrapError(err, ErrConfig, "failed to create google backend")
		}
		b.google = google
	case config.BackendLLM:
		client, err := llm.NewClient(cfg.LLM.ClientConfig())
		if err != nil {
			return nil, WrapError(err, ErrConfig, "failed to create llm backend")
		}
		b.llmClient = client
	default:
		return nil, NewError(ErrConfig, fmt.Sprintf("unknown backend %q", cfg.Translate.Backend))
	}
	return b, nil
}

func (b *Backends) For(inputPath string, source, target language.Tag, progress func(done int)) (translator.Translator, error) {
	var backend translator.Translator
	switch {
	case b.google != nil:
		backend = b.google
	case b.llmClient != nil:
		terms, err := termmap.Resolve(b.cfg.Translate.TermMapPath, filepath.Dir(inputPath), langCode(source), langCode(target))
		if err != nil {
			return nil, WrapError(err, ErrConfig, "failed to load term map")
		}
		if len(terms) > 0 {
			log.Info("Using glossary with %d terms", len(terms))
		}
		backend = translator.NewLLM(b.llmClient, terms)
	default:
		return nil, NewError(ErrConfig, "no translation backend configured")
	}

	if b.memory != nil {
		backend = translator.NewCached(backend, b.memory)
	}

	return translator.NewBatcher(backend, translator.BatchOptions{
		BatchSize:   b.cfg.Translate.BatchSize,
		MaxChars:    b.cfg.Translate.MaxBatchChars,
		Concurrency: b.cfg.Translate.Concurrency,
		Progress:    progress,
	}), nil
}

// Close releases backend clients.
func (b *Backends) Close() error {
	if b.google != nil {
		return b.google.Close()
	}
	return nil
}
