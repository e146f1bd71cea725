package translator

import (
	"context"
	"fmt"
	"html"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// Google translates through the Cloud Translation v2 API.
type Google struct {
	client *translate.Client
}

// NewGoogle creates a Google backend authenticated with apiKey. Extra client
// options (endpoint, HTTP client) are applied after the key.
func NewGoogle(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Google, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google translate API key is required")
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := translate.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google translate client: %w", err)
	}
	return &Google{client: client}, nil
}

func (g *Google) Name() string {
	return "google"
}

func (g *Google) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	opts := &translate.Options{Format: translate.Text}
	if source != language.Und {
		opts.Source = source
	}

	translations, err := g.client.Translate(ctx, texts, target, opts)
	if err != nil {
		return nil, unavailable(g.Name(), source, target, err)
	}

	out := make([]string, len(translations))
	for i, tr := range translations {
		// text format still escapes a few entities in some responses
		out[i] = html.UnescapeString(tr.Text)
	}
	if len(out) != len(texts) {
		return out, fmt.Errorf("%w: google returned %d translations for %d texts", ErrCountMismatch, len(out), len(texts))
	}
	return out, nil
}

// Close releases the underlying client.
func (g *Google) Close() error {
	return g.client.Close()
}
