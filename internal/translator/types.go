package translator

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Translator translates texts from source to target. The result has one
// entry per input text, in input order. Each text is the lines of one cue
// joined with "\n".
type Translator interface {
	Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error)
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, texts []string, source, target language.Tag) ([]string, error)

func (f Func) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	return f(ctx, texts, source, target)
}

// ErrCountMismatch is returned (wrapped) when a backend answers with a
// different number of translations than it was given texts.
var ErrCountMismatch = errors.New("translation count mismatch")

// TranslationUnavailableError reports that a backend could not deliver a
// translation: network, quota, unsupported language or a count it could not
// repair.
type TranslationUnavailableError struct {
	Backend string
	From    language.Tag
	To      language.Tag
	Cause   error
}

func (e *TranslationUnavailableError) Error() string {
	return fmt.Sprintf("translation %s -> %s unavailable (%s): %v", e.From, e.To, e.Backend, e.Cause)
}

func (e *TranslationUnavailableError) Unwrap() error {
	return e.Cause
}

// unavailable wraps cause unless it already is a TranslationUnavailableError.
func unavailable(backend string, from, to language.Tag, cause error) error {
	var existing *TranslationUnavailableError
	if errors.As(cause, &existing) {
		return cause
	}
	return &TranslationUnavailableError{
		Backend: backend,
		From:    from,
		To:      to,
		Cause:   cause,
	}
}

type named interface {
	Name() string
}

// Name returns the backend name of t, or "custom" for translators that do
// not report one.
func Name(t Translator) string {
	if n, ok := t.(named); ok {
		return n.Name()
	}
	return "custom"
}
