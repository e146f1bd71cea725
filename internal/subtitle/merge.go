package subtitle

import (
	"fmt"
	"strings"
)

// MergeStyle selects how translated lines are laid out in a merged cue.
type MergeStyle string

const (
	// StyleStacked puts every original line first, then every translated line.
	StyleStacked MergeStyle = "stacked"
	// StyleInterleaved pairs each original line with its translation when both
	// cues have the same number of lines, and falls back to StyleStacked otherwise.
	StyleInterleaved MergeStyle = "interleaved"
)

// ParseMergeStyle maps a config value to a MergeStyle. Empty means stacked.
func ParseMergeStyle(s string) (MergeStyle, error) {
	switch MergeStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleStacked:
		return StyleStacked, nil
	case StyleInterleaved:
		return StyleInterleaved, nil
	default:
		return "", fmt.Errorf("unknown merge style %q", s)
	}
}

// Merge combines original and translated cues by position. Timing comes from
// the original cue; the translated lines follow the original lines, each one
// wrapped in parentheses. Cues beyond the shorter sequence are dropped.
func Merge(original, translated Sequence) Sequence {
	return mergeWith(original, translated, stackLines)
}

// MergeInterleaved is Merge with StyleInterleaved line layout.
func MergeInterleaved(original, translated Sequence) Sequence {
	return mergeWith(original, translated, func(orig, trans []string) []string {
		if len(orig) != len(trans) {
			return stackLines(orig, trans)
		}
		lines := make([]string, 0, len(orig)*2)
		for i := range orig {
			lines = append(lines, orig[i], parenthesize(trans[i]))
		}
		return lines
	})
}

// MergeWithStyle dispatches to Merge or MergeInterleaved.
func MergeWithStyle(original, translated Sequence, style MergeStyle) Sequence {
	if style == StyleInterleaved {
		return MergeInterleaved(original, translated)
	}
	return Merge(original, translated)
}

// CheckLengths returns nil when both sequences have the same number of cues.
func CheckLengths(original, translated Sequence) *SequenceLengthMismatch {
	if len(original) == len(translated) {
		return nil
	}
	return &SequenceLengthMismatch{
		Original:   len(original),
		Translated: len(translated),
	}
}

func mergeWith(original, translated Sequence, layout func(orig, trans []string) []string) Sequence {
	n := min(len(original), len(translated))
	merged := make(Sequence, 0, n)
	for i := 0; i < n; i++ {
		merged = append(merged, Cue{
			Index: i + 1,
			Start: original[i].Start,
			End:   original[i].End,
			Lines: layout(original[i].Lines, translated[i].Lines),
		})
	}
	return merged
}

func stackLines(orig, trans []string) []string {
	lines := make([]string, 0, len(orig)+len(trans))
	lines = append(lines, orig...)
	for _, line := range trans {
		lines = append(lines, parenthesize(line))
	}
	return lines
}

func parenthesize(line string) string {
	return "(" + line + ")"
}
