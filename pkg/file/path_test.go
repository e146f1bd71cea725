package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/media/show/ep1.sv.srt", "sv", true},
		{"ep1.en.SRT", "en", true},
		{"ep1.srt", "", false},
		{"ep1.sv-en.srt", "", false},
		{"ep1.swe.srt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageCode(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithLanguage(t *testing.T) {
	assert.Equal(t, filepath.Join("/media", "ep1.en.srt"), WithLanguage("/media/ep1.sv.srt", "en"))
	assert.Equal(t, filepath.Join("/media", "ep1.sv-en.srt"), WithLanguage("/media/ep1.sv.srt", "sv-en"))
	assert.Equal(t, filepath.Join("/media", "ep1.en.srt"), WithLanguage("/media/ep1.srt", "en"))
}

func TestIsDualLanguage(t *testing.T) {
	assert.True(t, IsDualLanguage("ep1.sv-en.srt"))
	assert.False(t, IsDualLanguage("ep1.sv.srt"))
}

func TestFindRecentAfter(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.sv.srt")
	newFile := filepath.Join(dir, "sub", "new.sv.srt")
	other := filepath.Join(dir, "new.txt")

	require.NoError(t, os.MkdirAll(filepath.Dir(newFile), 0o755))
	for _, p := range []string{oldFile, newFile, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	found, err := FindRecentAfter(dir, time.Now().Add(-time.Hour), func(p string) bool {
		return strings.HasSuffix(p, ".srt")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{newFile}, found)
}
