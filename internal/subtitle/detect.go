package subtitle

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the dominant language of the cues by majority vote
// over per-cue detection. It returns language.Und when nothing is recognized.
func DetectLanguage(cues Sequence) language.Tag {
	if len(cues) == 0 {
		return language.Und
	}

	votes := make(map[string]int)
	for _, cue := range cues {
		code := whatlanggo.DetectLang(cue.Text()).Iso6391()
		if code == "" {
			continue
		}
		votes[code]++
	}

	var (
		topLang  string
		topCount int
	)
	for lang, count := range votes {
		// ties resolve by code so the result is deterministic
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	tag, err := language.Parse(topLang)
	if err != nil {
		return language.Und
	}
	return tag
}
