package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/MimeLyc/llsub/internal/llm"
	"github.com/MimeLyc/llsub/internal/termmap"
	"github.com/MimeLyc/llsub/pkg/log"
)

// inlineBreakerPlaceholder stands in for "\n" inside a cue so the model
// cannot confuse cue lines with cue boundaries.
const inlineBreakerPlaceholder = "%%inline_breaker%%"

// ChatClient is the part of llm.Client the LLM backend needs.
type ChatClient interface {
	SimpleChat(ctx context.Context, prompt string, opts *llm.ChatCompletionOptions) (string, error)
}

// LLM translates through an OpenAI-compatible chat completions endpoint.
type LLM struct {
	client ChatClient
	terms  termmap.TermMap
}

// NewLLM creates an LLM backend. terms may be nil.
func NewLLM(client ChatClient, terms termmap.TermMap) *LLM {
	return &LLM{
		client: client,
		terms:  terms,
	}
}

func (t *LLM) Name() string {
	return "llm"
}

func (t *LLM) Translate(ctx context.Context, texts []string, source, target language.Tag) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	formatted := make([]string, len(texts))
	for i, text := range texts {
		formatted[i] = strings.ReplaceAll(text, "\n", inlineBreakerPlaceholder)
	}

	userMessage, err := buildTranslationUserMessage(formatted)
	if err != nil {
		return nil, fmt.Errorf("failed to build translation request: %w", err)
	}
	matched := termmap.Match(t.terms, texts).Matched
	systemPrompt := buildContextPrompt(languageName(source), languageName(target), matched)

	opts := llm.NewChatCompletionOptions().
		WithSystemPrompt(systemPrompt).
		WithJSONResponse()
	content, err := t.client.SimpleChat(ctx, userMessage, opts)
	if err != nil {
		return nil, unavailable(t.Name(), source, target, err)
	}

	translated, err := parseTranslationOutput(content, len(texts))
	if err != nil {
		return nil, err
	}

	fixInlineBreakers(formatted, translated)
	for i := range translated {
		translated[i] = strings.ReplaceAll(translated[i], inlineBreakerPlaceholder, "\n")
	}

	if err := validateTermMappings(texts, translated, matched); err != nil {
		log.Warn("Glossary not fully applied: %v", err)
	}
	return translated, nil
}

func languageName(tag language.Tag) string {
	if tag == language.Und {
		return "the detected source language"
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

// buildContextPrompt builds the system prompt for one translation request.
func buildContextPrompt(sourceLanguage, targetLanguage string, terms termmap.TermMap) string {
	var prompt strings.Builder

	prompt.WriteString("You are a professional subtitle translator. Translate subtitles from " + sourceLanguage + " to " + targetLanguage + ". The result is shown under the original line to help a language learner, so stay close to the original meaning.\n\n")

	if len(terms) > 0 {
		prompt.WriteString("=== TERM MAPPINGS ===\n")
		sources := make([]string, 0, len(terms))
		for source := range terms {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			prompt.WriteString(fmt.Sprintf("- %s => %s\n", source, terms[source]))
		}
		prompt.WriteString("When a source term appears, you MUST use the mapped target term exactly.\n")
		prompt.WriteString("Priority: TERM MAPPINGS > official localized names > transliteration.\n\n")
	}

	prompt.WriteString("=== HARD RULES ===\n")
	prompt.WriteString("1. Translate every input line independently and keep its index.\n")
	prompt.WriteString("2. Do NOT merge, split, reorder, or drop lines.\n")
	prompt.WriteString("3. You MUST preserve the count of " + inlineBreakerPlaceholder + " markers in each line.\n")
	prompt.WriteString("4. Do NOT output literal newline characters in JSON text.\n")
	prompt.WriteString("5. If an input line is empty, output text for that index MUST be an empty string.\n")
	prompt.WriteString("6. Keep subtitle length appropriate for screen reading.\n")

	prompt.WriteString("\n=== OUTPUT FORMAT ===\n")
	prompt.WriteString(`Return ONLY a JSON object: {"lines":[{"index":1,"text":"..."}]}` + "\n")
	prompt.WriteString("Include exactly one entry per input index. Do not include explanations or notes.\n")

	return prompt.String()
}

type indexedLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type indexedPayload struct {
	Lines []indexedLine `json:"lines"`
}

// buildTranslationUserMessage encodes texts as 1-based indexed lines.
func buildTranslationUserMessage(texts []string) (string, error) {
	payload := indexedPayload{Lines: make([]indexedLine, len(texts))}
	for i, text := range texts {
		payload.Lines[i] = indexedLine{Index: i + 1, Text: text}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseTranslationOutput decodes the model answer. It accepts
// {"lines":[...]}, a bare indexed array, or a plain string array.
func parseTranslationOutput(content string, expected int) ([]string, error) {
	content = stripCodeFence(strings.TrimSpace(content))
	if content == "" {
		return nil, fmt.Errorf("empty translation output")
	}

	var lines []indexedLine
	switch {
	case strings.HasPrefix(content, "{"):
		var payload indexedPayload
		if err := json.Unmarshal([]byte(content), &payload); err != nil {
			return nil, fmt.Errorf("translation output is not valid json: %w", err)
		}
		lines = payload.Lines
	case strings.HasPrefix(content, "["):
		if err := json.Unmarshal([]byte(content), &lines); err != nil {
			var plain []string
			if plainErr := json.Unmarshal([]byte(content), &plain); plainErr != nil {
				return nil, fmt.Errorf("translation output is not valid json: %w", err)
			}
			if len(plain) != expected {
				return nil, fmt.Errorf("%w: got %d lines, want %d", ErrCountMismatch, len(plain), expected)
			}
			return plain, nil
		}
	default:
		return nil, fmt.Errorf("translation output is not json: %.40q", content)
	}

	if len(lines) != expected {
		return nil, fmt.Errorf("%w: got %d lines, want %d", ErrCountMismatch, len(lines), expected)
	}

	out := make([]string, expected)
	seen := make([]bool, expected)
	for _, line := range lines {
		if line.Index < 1 || line.Index > expected {
			return nil, fmt.Errorf("%w: index %d out of range 1-%d", ErrCountMismatch, line.Index, expected)
		}
		if seen[line.Index-1] {
			return nil, fmt.Errorf("duplicate index %d in translation output", line.Index)
		}
		seen[line.Index-1] = true
		out[line.Index-1] = line.Text
	}
	return out, nil
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// fixInlineBreakers drops placeholders the model added beyond the count in
// the source line. Missing placeholders are left alone: the translated cue
// just has fewer lines.
func fixInlineBreakers(source, translated []string) {
	for i := range translated {
		if i >= len(source) {
			return
		}
		want := strings.Count(source[i], inlineBreakerPlaceholder)
		parts := strings.Split(translated[i], inlineBreakerPlaceholder)
		if len(parts)-1 <= want {
			continue
		}
		kept := strings.Join(parts[:want+1], inlineBreakerPlaceholder)
		rest := make([]string, 0, len(parts)-want-1)
		for _, part := range parts[want+1:] {
			if part = strings.TrimSpace(part); part != "" {
				rest = append(rest, part)
			}
		}
		if len(rest) > 0 {
			kept = strings.TrimSpace(kept) + " " + strings.Join(rest, " ")
		}
		translated[i] = strings.TrimSpace(kept)
	}
}

// validateTermMappings reports mapped terms that appear in a source text
// while their target term is missing from its translation.
func validateTermMappings(source, translated []string, terms map[string]string) error {
	var missing []string
	for i := range source {
		if i >= len(translated) {
			break
		}
		for term := range termmap.Match(terms, source[i:i+1]).Matched {
			if !strings.Contains(translated[i], terms[term]) {
				missing = append(missing, fmt.Sprintf("line %d: %s => %s", i+1, term, terms[term]))
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("mapped terms missing from translation: %s", strings.Join(missing, "; "))
}
