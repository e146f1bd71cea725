package subtitle

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read(path string) (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, subtitle *File) error
}

// Cue is a single timed subtitle entry
type Cue struct {
	Index int           // 1-based ordinal, renumbered on output
	Start time.Duration // start time, millisecond resolution
	End   time.Duration // end time, never before Start
	Lines []string      // text lines in display order
}

// Text returns the cue lines joined with newlines.
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Sequence is an ordered list of cues in display order.
type Sequence []Cue

// Texts returns the text of every cue, one entry per cue.
func (s Sequence) Texts() []string {
	ret := make([]string, len(s))
	for i, cue := range s {
		ret[i] = cue.Text()
	}
	return ret
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	ret := make(Sequence, len(s))
	for i, cue := range s {
		ret[i] = cue
		ret[i].Lines = append([]string(nil), cue.Lines...)
	}
	return ret
}

// File is a parsed subtitle file
type File struct {
	Path     string
	Cues     Sequence
	Language language.Tag
	Format   string // always SRT
}
