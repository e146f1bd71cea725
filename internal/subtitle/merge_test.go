package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swedishEnglishPair() (Sequence, Sequence) {
	original := Sequence{
		{Index: 1, Start: ts(0, 0, 1, 0), End: ts(0, 0, 2, 0), Lines: []string{"Hej"}},
		{Index: 2, Start: ts(0, 0, 3, 0), End: ts(0, 0, 4, 0), Lines: []string{"Var är du?"}},
	}
	translated := Sequence{
		{Index: 1, Start: ts(0, 0, 9, 0), End: ts(0, 0, 10, 0), Lines: []string{"Hi"}},
		{Index: 2, Start: ts(0, 1, 0, 0), End: ts(0, 1, 1, 0), Lines: []string{"Where are you?"}},
	}
	return original, translated
}

func TestMerge_Scenario(t *testing.T) {
	original, translated := swedishEnglishPair()

	merged := Merge(original, translated)

	require.Len(t, merged, 2)
	assert.Equal(t, Cue{Index: 1, Start: ts(0, 0, 1, 0), End: ts(0, 0, 2, 0), Lines: []string{"Hej", "(Hi)"}}, merged[0])
	assert.Equal(t, Cue{Index: 2, Start: ts(0, 0, 3, 0), End: ts(0, 0, 4, 0), Lines: []string{"Var är du?", "(Where are you?)"}}, merged[1])
	assert.Equal(t,
		"1\n00:00:01,000 --> 00:00:02,000\nHej\n(Hi)\n\n2\n00:00:03,000 --> 00:00:04,000\nVar är du?\n(Where are you?)\n\n",
		Serialize(merged))
}

func TestMerge_TruncatesToShorter(t *testing.T) {
	original, translated := swedishEnglishPair()
	original = append(original, Cue{Index: 3, Start: ts(0, 0, 5, 0), End: ts(0, 0, 6, 0), Lines: []string{"Hejdå"}})

	var merged Sequence
	assert.NotPanics(t, func() { merged = Merge(original, translated) })
	require.Len(t, merged, 2)
	assert.Equal(t, []string{"Var är du?", "(Where are you?)"}, merged[1].Lines)

	assert.NotPanics(t, func() { merged = Merge(translated[:1], original) })
	assert.Len(t, merged, 1)

	assert.Empty(t, Merge(nil, translated))
	assert.Empty(t, Merge(original, nil))
}

func TestMerge_Properties(t *testing.T) {
	original := Sequence{
		{Index: 4, Start: ts(0, 0, 1, 0), End: ts(0, 0, 2, 0), Lines: []string{"a1", "a2"}},
		{Index: 9, Start: ts(0, 0, 2, 500), End: ts(0, 0, 3, 0), Lines: []string{"b1"}},
		{Index: 12, Start: ts(0, 0, 4, 0), End: ts(0, 0, 4, 1), Lines: []string{"c1"}},
	}
	translated := Sequence{
		{Start: ts(9, 0, 0, 0), End: ts(9, 0, 0, 1), Lines: []string{"x1"}},
		{Start: ts(9, 0, 0, 0), End: ts(9, 0, 0, 1), Lines: []string{"y1", "y2", "y3"}},
	}

	merged := Merge(original, translated)
	require.Len(t, merged, min(len(original), len(translated)))

	for i, cue := range merged {
		assert.Equal(t, i+1, cue.Index)
		assert.Equal(t, original[i].Start, cue.Start)
		assert.Equal(t, original[i].End, cue.End)

		n := len(original[i].Lines)
		assert.Equal(t, original[i].Lines, cue.Lines[:n])
		require.Len(t, cue.Lines, n+len(translated[i].Lines))
		for j, line := range translated[i].Lines {
			assert.Equal(t, "("+line+")", cue.Lines[n+j])
		}
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	original, translated := swedishEnglishPair()
	origCopy, transCopy := original.Clone(), translated.Clone()

	merged := Merge(original, translated)
	merged[0].Lines[0] = "changed"

	assert.Equal(t, origCopy, original)
	assert.Equal(t, transCopy, translated)
}

func TestMergeInterleaved(t *testing.T) {
	original := Sequence{
		{Start: ts(0, 0, 1, 0), End: ts(0, 0, 2, 0), Lines: []string{"Hej", "Hur mår du?"}},
		{Start: ts(0, 0, 3, 0), End: ts(0, 0, 4, 0), Lines: []string{"Bra"}},
	}
	translated := Sequence{
		{Lines: []string{"Hi", "How are you?"}},
		{Lines: []string{"Good", "thanks"}},
	}

	merged := MergeInterleaved(original, translated)
	require.Len(t, merged, 2)
	assert.Equal(t, []string{"Hej", "(Hi)", "Hur mår du?", "(How are you?)"}, merged[0].Lines)
	// line counts differ, so the stacked layout is used
	assert.Equal(t, []string{"Bra", "(Good)", "(thanks)"}, merged[1].Lines)
	assert.Equal(t, original[1].Start, merged[1].Start)
}

func TestMergeWithStyle(t *testing.T) {
	original, translated := swedishEnglishPair()
	assert.Equal(t, Merge(original, translated), MergeWithStyle(original, translated, StyleStacked))
	assert.Equal(t, MergeInterleaved(original, translated), MergeWithStyle(original, translated, StyleInterleaved))
}

func TestParseMergeStyle(t *testing.T) {
	style, err := ParseMergeStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleStacked, style)

	style, err = ParseMergeStyle(" Interleaved ")
	require.NoError(t, err)
	assert.Equal(t, StyleInterleaved, style)

	_, err = ParseMergeStyle("sideways")
	assert.Error(t, err)
}

func TestCheckLengths(t *testing.T) {
	original, translated := swedishEnglishPair()
	assert.Nil(t, CheckLengths(original, translated))

	mismatch := CheckLengths(append(original, original[0]), translated)
	require.NotNil(t, mismatch)
	assert.Equal(t, 3, mismatch.Original)
	assert.Equal(t, 2, mismatch.Translated)
	assert.Equal(t, 2, mismatch.Merged())
	assert.Equal(t, 1, mismatch.Dropped())
	assert.Contains(t, mismatch.Error(), "original has 3 cues, translated has 2")
}
