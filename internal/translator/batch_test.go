package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// upper is a deterministic backend that records the size of every request.
type upper struct {
	mu    sync.Mutex
	sizes []int
}

func (u *upper) Translate(_ context.Context, texts []string, _, _ language.Tag) ([]string, error) {
	u.mu.Lock()
	u.sizes = append(u.sizes, len(texts))
	u.mu.Unlock()

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = strings.ToUpper(text)
	}
	return out, nil
}

func numbered(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("line %d", i+1)
	}
	return texts
}

func TestBatcher_SplitsByCount(t *testing.T) {
	t.Parallel()

	backend := &upper{}
	b := NewBatcher(backend, BatchOptions{BatchSize: 4})

	got, err := b.Translate(context.Background(), numbered(10), language.Swedish, language.English)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 4, 2}, backend.sizes)
	require.Len(t, got, 10)
	assert.Equal(t, "LINE 1", got[0])
	assert.Equal(t, "LINE 10", got[9])
}

func TestBatcher_SplitsByChars(t *testing.T) {
	t.Parallel()

	backend := &upper{}
	b := NewBatcher(backend, BatchOptions{BatchSize: 100, MaxChars: 10})
	texts := []string{"aaaa", "bbbb", "cccc", strings.Repeat("d", 25), "e"}

	got, err := b.Translate(context.Background(), texts, language.Swedish, language.English)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1, 1, 1}, backend.sizes, "an oversized text travels alone")
	assert.Equal(t, strings.Repeat("D", 25), got[3])
}

func TestBatcher_ConcurrentKeepsOrder(t *testing.T) {
	t.Parallel()

	var done atomic.Int64
	b := NewBatcher(&upper{}, BatchOptions{
		BatchSize:   3,
		Concurrency: 4,
		Progress:    func(n int) { done.Add(int64(n)) },
	})
	texts := numbered(50)

	got, err := b.Translate(context.Background(), texts, language.Swedish, language.English)
	require.NoError(t, err)

	for i := range texts {
		assert.Equal(t, strings.ToUpper(texts[i]), got[i])
	}
	assert.EqualValues(t, 50, done.Load())
}

func TestBatcher_BlankTextsBypassBackend(t *testing.T) {
	t.Parallel()

	backend := &upper{}
	var done int
	b := NewBatcher(backend, BatchOptions{Progress: func(n int) { done += n }})

	got, err := b.Translate(context.Background(), []string{"", "hej", "  "}, language.Swedish, language.English)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "HEJ", "  "}, got)
	assert.Equal(t, []int{1}, backend.sizes)
	assert.Equal(t, 3, done)
}

func TestBatcher_HalvesOnCountMismatch(t *testing.T) {
	t.Parallel()

	var sizes []int
	// drops the last translation whenever it gets more than two texts
	backend := Func(func(_ context.Context, texts []string, _, _ language.Tag) ([]string, error) {
		sizes = append(sizes, len(texts))
		out := make([]string, len(texts))
		for i, text := range texts {
			out[i] = "T:" + text
		}
		if len(texts) > 2 {
			return out[:len(out)-1], nil
		}
		return out, nil
	})
	b := NewBatcher(backend, BatchOptions{BatchSize: 8})

	got, err := b.Translate(context.Background(), numbered(8), language.Swedish, language.English)
	require.NoError(t, err)

	assert.Equal(t, []int{8, 4, 2, 2, 4, 2, 2}, sizes)
	require.Len(t, got, 8)
	for i, text := range numbered(8) {
		assert.Equal(t, "T:"+text, got[i])
	}
}

func TestBatcher_HalvesOnCountMismatchError(t *testing.T) {
	t.Parallel()

	backend := Func(func(_ context.Context, texts []string, _, _ language.Tag) ([]string, error) {
		if len(texts) > 1 {
			return nil, fmt.Errorf("%w: model merged lines", ErrCountMismatch)
		}
		return []string{"ok"}, nil
	})
	b := NewBatcher(backend, BatchOptions{})

	got, err := b.Translate(context.Background(), numbered(3), language.Swedish, language.English)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "ok", "ok"}, got)
}

func TestBatcher_SingleTextMismatchIsUnavailable(t *testing.T) {
	t.Parallel()

	backend := Func(func(_ context.Context, texts []string, _, _ language.Tag) ([]string, error) {
		return []string{}, nil
	})
	b := NewBatcher(backend, BatchOptions{})

	_, err := b.Translate(context.Background(), []string{"hej"}, language.Swedish, language.English)
	require.Error(t, err)

	var unavailableErr *TranslationUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
	assert.Equal(t, language.Swedish, unavailableErr.From)
	assert.Equal(t, language.English, unavailableErr.To)
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestBatcher_BackendErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	quota := errors.New("quota exceeded")
	calls := 0
	backend := Func(func(_ context.Context, texts []string, _, _ language.Tag) ([]string, error) {
		calls++
		return nil, quota
	})
	b := NewBatcher(backend, BatchOptions{BatchSize: 2})

	_, err := b.Translate(context.Background(), numbered(2), language.Swedish, language.English)
	require.Error(t, err)
	assert.ErrorIs(t, err, quota)
	assert.Equal(t, 1, calls, "only count mismatches are split and retried")

	var unavailableErr *TranslationUnavailableError
	require.ErrorAs(t, err, &unavailableErr)
	assert.Equal(t, "custom", unavailableErr.Backend)
}

func TestBatcher_Empty(t *testing.T) {
	t.Parallel()

	backend := &upper{}
	got, err := NewBatcher(backend, BatchOptions{}).Translate(context.Background(), nil, language.Swedish, language.English)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, backend.sizes)
}
