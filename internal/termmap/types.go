package termmap

// TermMap maps source language terms (names, places, jargon) to the
// translation that must be used for them.
type TermMap map[string]string

// MatchResult holds terms that matched against input texts.
type MatchResult struct {
	Matched TermMap
}
