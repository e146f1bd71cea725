package subtitle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestReadSRTBytes(t *testing.T) {
	data := []byte("1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n")

	file, err := ReadSRTBytes(data, "embedded://sample.en.srt")
	require.NoError(t, err)
	require.Len(t, file.Cues, 2)
	assert.Equal(t, []string{"Hello"}, file.Cues[0].Lines)
	assert.Equal(t, []string{"World"}, file.Cues[1].Lines)
	assert.Equal(t, "SRT", file.Format)
	assert.Equal(t, "embedded://sample.en.srt", file.Path)
	assert.Equal(t, language.English, file.Language)
}

func TestReadSRTBytes_WrapsParseError(t *testing.T) {
	_, err := ReadSRTBytes([]byte("1\nno timing\n"), "broken.sv.srt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedCue)
	assert.Contains(t, err.Error(), "broken.sv.srt")
}

func TestDefaultReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ep1.sv.srt")
	require.NoError(t, os.WriteFile(path, []byte(sampleSRT), 0o644))

	file, err := NewReader().Read(path)
	require.NoError(t, err)
	assert.Len(t, file.Cues, 2)
	assert.Equal(t, language.Swedish, file.Language)

	_, err = NewReader().Read(filepath.Join(dir, "ep1.ass"))
	assert.ErrorContains(t, err, "only SRT")

	_, err = NewReader().Read(filepath.Join(dir, "missing.sv.srt"))
	assert.ErrorContains(t, err, "does not exist")
}

func TestDetectLanguage(t *testing.T) {
	cues := Sequence{
		{Lines: []string{"Hello, world! How are you doing today?"}},
		{Lines: []string{"こんにちは、世界!"}},
		{Lines: []string{"こんにちは、世界!"}},
		{Lines: []string{"Привет, мир!"}},
	}
	assert.Equal(t, language.Japanese, DetectLanguage(cues))
	assert.Equal(t, language.Und, DetectLanguage(nil))
}

func TestDefaultWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.en.srt")
	cues, err := Parse(sampleSRT)
	require.NoError(t, err)

	require.NoError(t, NewWriter().Write(path, &File{Cues: cues}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Serialize(cues), string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")

	assert.Error(t, NewWriter().Write(path, nil))
	assert.Error(t, NewWriter().Write(filepath.Join(dir, "missing", "x.srt"), &File{Cues: cues}))
}
