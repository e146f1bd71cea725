package subtitle

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/pkg/file"
)

// DefaultReader reads SRT files from disk
type DefaultReader struct{}

// NewReader creates a new subtitle file reader
func NewReader() Reader {
	return &DefaultReader{}
}

// Read reads and parses the SRT file at path. The language comes from the
// file name (movie.sv.srt) and falls back to detection over the cue text.
func (r *DefaultReader) Read(path string) (*File, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("subtitle file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	return ReadSRTBytes(data, path)
}

// ReadSRTBytes parses SRT data that was loaded from path.
func ReadSRTBytes(data []byte, path string) (*File, error) {
	cues, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &File{
		Path:     path,
		Cues:     cues,
		Language: languageOf(path, cues),
		Format:   "SRT",
	}, nil
}

func languageOf(path string, cues Sequence) language.Tag {
	if code, ok := file.LanguageCode(path); ok {
		if tag, err := language.Parse(code); err == nil {
			return tag
		}
	}
	return DetectLanguage(cues)
}
