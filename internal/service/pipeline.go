package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/internal/subtitle"
	"github.com/MimeLyc/llsub/internal/translator"
	"github.com/MimeLyc/llsub/pkg/log"
)

// Options controls one pipeline run.
type Options struct {
	Target language.Tag
	// TranslateOnly stops after the translated subtitle is available.
	TranslateOnly bool
	// Force overwrites an existing merged subtitle.
	Force bool
	// DryRun does everything except writing files.
	DryRun     bool
	MergeStyle subtitle.MergeStyle
	// OnProgress receives finished and total text counts while translating.
	OnProgress func(done, total int)
}

// Result describes what a run produced.
type Result struct {
	InputPath      string
	TranslatedPath string
	MergedPath     string

	Source language.Tag
	Target language.Tag

	Original   subtitle.Sequence
	Translated subtitle.Sequence
	Merged     subtitle.Sequence

	// Reused is set when the translated subtitle was loaded from disk.
	Reused   bool
	Mismatch *subtitle.SequenceLengthMismatch
	Written  []string
}

// Pipeline turns one subtitle file into a translated and a merged subtitle.
type Pipeline struct {
	reader      subtitle.Reader
	writer      subtitle.Writer
	translators TranslatorSource
}

type PipelineOption func(*Pipeline)

func WithReader(r subtitle.Reader) PipelineOption {
	return func(p *Pipeline) { p.reader = r }
}

func WithWriter(w subtitle.Writer) PipelineOption {
	return func(p *Pipeline) { p.writer = w }
}

func NewPipeline(translators TranslatorSource, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		reader:      subtitle.NewReader(),
		writer:      subtitle.NewWriter(),
		translators: translators,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads input, translates it (or reuses an existing translation) and,
// unless TranslateOnly is set, writes the dual-language subtitle.
func (p *Pipeline) Run(ctx context.Context, input string, opts Options) (*Result, error) {
	if strings.TrimSpace(input) == "" {
		return nil, NewError(ErrValidation, "input subtitle path is empty")
	}
	if opts.Target == language.Und {
		return nil, NewError(ErrValidation, "target language is required")
	}

	original, err := p.read(input)
	if err != nil {
		return nil, err
	}

	source := original.Language
	if source == language.Und {
		return nil, NewError(ErrValidation, "cannot determine the source language; name the file like movie.sv.srt").
			WithContext("path", input)
	}
	if sameLanguage(source, opts.Target) {
		return nil, NewError(ErrValidation, fmt.Sprintf("target language %q is the same as the source language %q, no work to perform", langCode(opts.Target), langCode(source))).
			WithContext("path", input)
	}

	translatedPath, mergedPath := OutputPaths(input, source, opts.Target)
	result := &Result{
		InputPath:      input,
		TranslatedPath: translatedPath,
		Source:         source,
		Target:         opts.Target,
		Original:       original.Cues,
	}

	translated, err := p.translated(ctx, original, translatedPath, opts, result)
	if err != nil {
		return nil, err
	}
	result.Translated = translated

	if opts.TranslateOnly {
		return result, nil
	}

	result.MergedPath = mergedPath
	if _, err := os.Stat(mergedPath); err == nil {
		if !opts.Force {
			return nil, NewError(ErrValidation, "dual language subtitles already exist, no work to perform").
				WithContext("path", mergedPath)
		}
		log.Info("Forcing overwrite of existing dual language subtitles %s", mergedPath)
	}

	if mismatch := subtitle.CheckLengths(original.Cues, translated); mismatch != nil {
		log.Warn("%v, merging the first %d", mismatch, mismatch.Merged())
		result.Mismatch = mismatch
	}
	result.Merged = subtitle.MergeWithStyle(original.Cues, translated, opts.MergeStyle)

	if err := p.write(mergedPath, result.Merged, opts.DryRun, result); err != nil {
		return nil, err
	}
	log.Info("Generated dual language subtitles: %s", mergedPath)
	return result, nil
}

func (p *Pipeline) read(path string) (*subtitle.File, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, WrapError(err, ErrFileNotFound, "subtitle file does not exist").WithContext("path", path)
		}
		return nil, WrapError(err, ErrFileRead, "failed to access subtitle file").WithContext("path", path)
	}

	f, err := p.reader.Read(path)
	if err != nil {
		if errors.Is(err, subtitle.ErrMalformedCue) || errors.Is(err, subtitle.ErrInvalidTimestamp) {
			return nil, WrapError(err, ErrParse, "failed to parse subtitle file").WithContext("path", path)
		}
		return nil, WrapError(err, ErrFileRead, "failed to read subtitle file").WithContext("path", path)
	}
	return f, nil
}

func (p *Pipeline) translated(ctx context.Context, original *subtitle.File, path string, opts Options, result *Result) (subtitle.Sequence, error) {
	if _, err := os.Stat(path); err == nil {
		log.Info("Translated subtitles already exist, loading %s", path)
		existing, err := p.read(path)
		if err != nil {
			return nil, err
		}
		result.Reused = true
		return existing.Cues, nil
	}

	log.Info("Generating translated subtitles %s -> %s", langCode(original.Language), langCode(opts.Target))

	total := len(original.Cues)
	done := 0
	progress := func(n int) {
		done += n
		if opts.OnProgress != nil {
			opts.OnProgress(done, total)
		}
	}

	t, err := p.translators.For(original.Path, original.Language, opts.Target, progress)
	if err != nil {
		return nil, err
	}

	texts := original.Cues.Texts()
	out, err := t.Translate(ctx, texts, original.Language, opts.Target)
	if err != nil {
		return nil, translationError(err)
	}
	if len(out) != len(texts) {
		return nil, NewError(ErrTranslation, fmt.Sprintf("translator returned %d texts for %d cues", len(out), len(texts)))
	}

	translated := buildTranslated(original.Cues, out)
	if err := p.write(path, translated, opts.DryRun, result); err != nil {
		return nil, err
	}
	return translated, nil
}

// buildTranslated pairs translated texts with the original timings. A cue
// whose translation is blank keeps its original lines so the block stays
// valid SRT.
func buildTranslated(original subtitle.Sequence, texts []string) subtitle.Sequence {
	translated := make(subtitle.Sequence, len(original))
	for i, cue := range original {
		var lines []string
		for _, line := range strings.Split(texts[i], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			log.Warn("Cue %d came back untranslated, keeping the original text", i+1)
			lines = append([]string(nil), cue.Lines...)
		}
		translated[i] = subtitle.Cue{
			Index: i + 1,
			Start: cue.Start,
			End:   cue.End,
			Lines: lines,
		}
	}
	return translated
}

func translationError(err error) *Error {
	var unavailable *translator.TranslationUnavailableError
	if errors.As(err, &unavailable) {
		return WrapError(err, ErrTranslation, "translation unavailable").
			WithContext("backend", unavailable.Backend)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return WrapError(err, ErrNetwork, "translation interrupted")
	}
	return WrapError(err, ErrTranslation, "translation failed")
}

func (p *Pipeline) write(path string, cues subtitle.Sequence, dryRun bool, result *Result) error {
	if dryRun {
		log.Info("Dry run, not writing %s (%d cues)", path, len(cues))
		return nil
	}
	if err := p.writer.Write(path, &subtitle.File{Path: path, Cues: cues, Format: "SRT"}); err != nil {
		return WrapError(err, ErrFileWrite, "failed to write subtitle file").WithContext("path", path)
	}
	result.Written = append(result.Written, path)
	return nil
}
