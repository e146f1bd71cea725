package service

import (
	"golang.org/x/text/language"

	"github.com/MimeLyc/llsub/pkg/file"
)

// OutputPaths returns the translated-only and merged subtitle paths for input:
// movie.sv.srt -> movie.en.srt, movie.sv-en.srt.
func OutputPaths(input string, source, target language.Tag) (translated, merged string) {
	src, tgt := langCode(source), langCode(target)
	return file.WithLanguage(input, tgt), file.WithLanguage(input, src+"-"+tgt)
}

// langCode is the base language subtag used in file names.
func langCode(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// sameLanguage compares base languages, so "sv" and "sv-SE" are equal.
func sameLanguage(a, b language.Tag) bool {
	return langCode(a) == langCode(b)
}
