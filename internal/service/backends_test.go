package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/internal/config"
	"github.com/MimeLyc/llsub/internal/persistence"
	"github.com/MimeLyc/llsub/internal/termmap"
)

// fakeChatServer answers chat completions by echoing every indexed line with
// an "EN:" prefix and records the system prompts it saw.
func fakeChatServer(t *testing.T, calls *atomic.Int32, prompts chan<- string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var payload struct {
			Lines []struct {
				Index int    `json:"index"`
				Text  string `json:"text"`
			} `json:"lines"`
		}
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				select {
				case prompts <- m.Content:
				default:
				}
			case "user":
				require.NoError(t, json.Unmarshal([]byte(m.Content), &payload))
			}
		}
		for i := range payload.Lines {
			payload.Lines[i].Text = "EN:" + payload.Lines[i].Text
		}
		content, _ := json.Marshal(payload)

		resp := map[string]any{
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": string(content)},
				"finish_reason": "stop",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func llmConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Translate.Backend = config.BackendLLM
	cfg.Translate.BatchSize = 1
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.APIURL = url
	return &cfg
}

func TestBackends_LLMWithMemoryAndGlossary(t *testing.T) {
	var calls atomic.Int32
	prompts := make(chan string, 10)
	server := fakeChatServer(t, &calls, prompts)

	dir := t.TempDir()
	require.NoError(t, termmap.Save(filepath.Join(dir, "term_map.sv-en.json"), termmap.TermMap{"Tack": "Thanks"}))
	input := writeFile(t, dir, "film.sv.srt", swedishSRT)

	store, err := persistence.NewSQLiteStore(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := llmConfig(server.URL)
	backends, err := NewBackends(context.Background(), cfg, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backends.Close() })

	p := NewPipeline(backends)
	res, err := p.Run(context.Background(), input, Options{Target: language.English, TranslateOnly: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"EN:Hej"}, res.Translated[0].Lines)
	assert.EqualValues(t, 2, calls.Load(), "batch size 1 means one request per cue")

	var sawGlossary bool
	for len(prompts) > 0 {
		if strings.Contains(<-prompts, "- Tack => Thanks") {
			sawGlossary = true
		}
	}
	assert.True(t, sawGlossary)

	// a second file with the same text is served from the translation memory
	require.NoError(t, os.Remove(res.TranslatedPath))
	_, err = p.Run(context.Background(), input, Options{Target: language.English, TranslateOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	n, err := store.CountTranslations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewBackends_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Translate.Backend = "deepl"
	_, err := NewBackends(context.Background(), &cfg, nil)
	assert.True(t, IsErrorType(err, ErrConfig))

	cfg = config.Default()
	cfg.Translate.Backend = config.BackendLLM
	_, err = NewBackends(context.Background(), &cfg, nil)
	assert.True(t, IsErrorType(err, ErrConfig), "missing LLM key")

	cfg = config.Default()
	_, err = NewBackends(context.Background(), &cfg, nil)
	assert.True(t, IsErrorType(err, ErrConfig), "missing google key")
}
