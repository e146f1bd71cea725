package file

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	languageSuffix     = regexp.MustCompile(`\.([a-z]{2})\.(?i:srt)$`)
	dualLanguageSuffix = regexp.MustCompile(`\.([a-z]{2})-([a-z]{2})\.(?i:srt)$`)
)

// LanguageCode extracts the two-letter language code of a subtitle path,
// e.g. "movie.sv.srt" -> "sv".
func LanguageCode(path string) (string, bool) {
	m := languageSuffix.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsDualLanguage reports whether path names a merged subtitle, e.g. "movie.sv-en.srt".
func IsDualLanguage(path string) bool {
	return dualLanguageSuffix.MatchString(filepath.Base(path))
}

// WithLanguage returns path with its language segment replaced by code.
// A path without a language segment gets one inserted before the extension.
//
//	WithLanguage("movie.sv.srt", "en")    -> "movie.en.srt"
//	WithLanguage("movie.sv.srt", "sv-en") -> "movie.sv-en.srt"
//	WithLanguage("movie.srt", "en")       -> "movie.en.srt"
func WithLanguage(path, code string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if loc := languageSuffix.FindStringSubmatchIndex(base); loc != nil {
		return filepath.Join(dir, base[:loc[2]]+code+base[loc[3]:])
	}

	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"."+code+ext)
}
