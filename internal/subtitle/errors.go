package subtitle

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCue matches every *MalformedCueError via errors.Is.
	ErrMalformedCue = errors.New("malformed cue")
	// ErrInvalidTimestamp matches every *InvalidTimestampError via errors.Is.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// MalformedCueError reports a block whose index, timing or text lines cannot be read.
type MalformedCueError struct {
	Line   int // 1-based line number in the source text
	Index  int // cue index when it was parsed, 0 otherwise
	Reason string
}

func (e *MalformedCueError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("malformed cue %d at line %d: %s", e.Index, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed cue at line %d: %s", e.Line, e.Reason)
}

func (e *MalformedCueError) Is(target error) bool {
	return target == ErrMalformedCue
}

// InvalidTimestampError reports a timestamp that is present but out of range or not numeric.
type InvalidTimestampError struct {
	Line   int
	Index  int
	Value  string
	Reason string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q in cue %d at line %d: %s", e.Value, e.Index, e.Line, e.Reason)
}

func (e *InvalidTimestampError) Is(target error) bool {
	return target == ErrInvalidTimestamp
}

// SequenceLengthMismatch describes original and translated sequences of different length.
// It is a warning: Merge truncates to the shorter sequence.
type SequenceLengthMismatch struct {
	Original   int
	Translated int
}

func (m *SequenceLengthMismatch) Error() string {
	return fmt.Sprintf("cue count mismatch: original has %d cues, translated has %d; merging the first %d",
		m.Original, m.Translated, m.Merged())
}

// Merged is the number of cues a merge of the two sequences yields.
func (m *SequenceLengthMismatch) Merged() int {
	return min(m.Original, m.Translated)
}

// Dropped is the number of cues left out of the merge.
func (m *SequenceLengthMismatch) Dropped() int {
	return max(m.Original, m.Translated) - m.Merged()
}
