package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	timingSeparator = "-->"
	utf8BOM         = "\ufeff"

	// maxHours keeps a timestamp within time.Duration.
	maxHours = int((time.Duration(math.MaxInt64) - time.Hour) / time.Hour)
)

// Parse reads SRT text into a Sequence.
//
// Blocks are separated by one or more blank lines. The first line of a block is
// the cue index, the second the timing line, the rest are text lines. The first
// malformed block aborts the parse and no cues are returned.
func Parse(text string) (Sequence, error) {
	text = strings.TrimPrefix(text, utf8BOM)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var (
		cues       Sequence
		block      []string
		blockStart int
	)

	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		cue, err := parseBlock(block, blockStart)
		block = block[:0]
		if err != nil {
			return err
		}
		cues = append(cues, cue)
		return nil
	}

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			blockStart = i + 1
		}
		block = append(block, line)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return cues, nil
}

// ParseBytes is Parse over raw file contents.
func ParseBytes(data []byte) (Sequence, error) {
	return Parse(string(data))
}

// parseBlock parses one cue block; firstLine is the 1-based source line of block[0].
func parseBlock(block []string, firstLine int) (Cue, error) {
	indexText := strings.TrimSpace(block[0])
	index, err := strconv.Atoi(indexText)
	if err != nil || index <= 0 {
		return Cue{}, &MalformedCueError{
			Line:   firstLine,
			Reason: fmt.Sprintf("index line %q is not a positive integer", indexText),
		}
	}

	if len(block) < 2 {
		return Cue{}, &MalformedCueError{
			Line:   firstLine,
			Index:  index,
			Reason: "missing timing line",
		}
	}

	timingLine := strings.TrimSpace(block[1])
	startText, endText, found := strings.Cut(timingLine, timingSeparator)
	if !found {
		return Cue{}, &MalformedCueError{
			Line:   firstLine + 1,
			Index:  index,
			Reason: fmt.Sprintf("timing line %q has no %q separator", timingLine, timingSeparator),
		}
	}

	// some encoders append position hints (X1:.. Y1:..) after the end time
	endFields := strings.Fields(endText)
	if len(endFields) == 0 {
		return Cue{}, &InvalidTimestampError{
			Line:   firstLine + 1,
			Index:  index,
			Value:  timingLine,
			Reason: "missing end time",
		}
	}

	start, err := parseTimestamp(strings.TrimSpace(startText))
	if err != nil {
		return Cue{}, &InvalidTimestampError{
			Line:   firstLine + 1,
			Index:  index,
			Value:  strings.TrimSpace(startText),
			Reason: err.Error(),
		}
	}
	end, err := parseTimestamp(endFields[0])
	if err != nil {
		return Cue{}, &InvalidTimestampError{
			Line:   firstLine + 1,
			Index:  index,
			Value:  endFields[0],
			Reason: err.Error(),
		}
	}
	if end < start {
		return Cue{}, &InvalidTimestampError{
			Line:   firstLine + 1,
			Index:  index,
			Value:  timingLine,
			Reason: "end time is before start time",
		}
	}

	if len(block) < 3 {
		return Cue{}, &MalformedCueError{
			Line:   firstLine + 1,
			Index:  index,
			Reason: "cue has no text lines",
		}
	}

	lines := make([]string, 0, len(block)-2)
	for _, line := range block[2:] {
		lines = append(lines, strings.TrimRight(line, " \t"))
	}

	return Cue{
		Index: index,
		Start: start,
		End:   end,
		Lines: lines,
	}, nil
}

// parseTimestamp parses HH:MM:SS,mmm. A '.' millisecond separator is tolerated.
func parseTimestamp(s string) (time.Duration, error) {
	clock, millis, found := strings.Cut(s, ",")
	if !found {
		clock, millis, found = strings.Cut(s, ".")
	}
	if !found {
		return 0, fmt.Errorf("expected HH:MM:SS,mmm")
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS,mmm")
	}

	h, err := parseDigits(parts[0], "hours")
	if err != nil {
		return 0, err
	}
	m, err := parseDigits(parts[1], "minutes")
	if err != nil {
		return 0, err
	}
	sec, err := parseDigits(parts[2], "seconds")
	if err != nil {
		return 0, err
	}
	if len(millis) != 3 {
		return 0, fmt.Errorf("milliseconds %q must have three digits", millis)
	}
	ms, err := parseDigits(millis, "milliseconds")
	if err != nil {
		return 0, err
	}

	switch {
	case h > maxHours:
		return 0, fmt.Errorf("hours %d out of range", h)
	case m > 59:
		return 0, fmt.Errorf("minutes %d out of range", m)
	case sec > 59:
		return 0, fmt.Errorf("seconds %d out of range", sec)
	case ms > 999:
		return 0, fmt.Errorf("milliseconds %d out of range", ms)
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// parseDigits accepts only ASCII digits, so signs and spaces are rejected.
func parseDigits(s, component string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s component is empty", component)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%s component %q is not numeric", component, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s component %q: %w", component, s, err)
	}
	return n, nil
}

// Serialize renders cues as SRT text, renumbering them 1..N in order.
// Blank lines would end the block early, so they are dropped, and a cue left
// without text is skipped.
func Serialize(seq Sequence) string {
	var sb strings.Builder
	n := 0
	for _, cue := range seq {
		lines := textLines(cue.Lines)
		if len(lines) == 0 {
			continue
		}
		n++
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte('\n')
		sb.WriteString(FormatTimestamp(cue.Start))
		sb.WriteString(" " + timingSeparator + " ")
		sb.WriteString(FormatTimestamp(cue.End))
		sb.WriteByte('\n')
		for _, line := range lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func textLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// FormatTimestamp formats d as HH:MM:SS,mmm. Negative durations render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d,%03d", int(h), int(m), int(s), int(ms))
}
