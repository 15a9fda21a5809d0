package services

import (
	"slices"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

// versionTags are release annotations that hurt lyric search accuracy.
const versionTags = `Remaster(?:ed)?|Live|Mono|Stereo|Radio\sEdit|Single\sVersion`

var (
	titleSuffixPattern = `(?:` +
		`\s*-\s*[^-()\[\]]*?\b(?:` + versionTags + `)\b.*` +
		`|\s*\((?:[^)]*(?:` + versionTags + `)[^)]*)\)` +
		`|\s*\[(?:[^\]]*(?:` + versionTags + `)[^\]]*)\]` +
		`)`

	// [Chorus], [Verse 2: Artist], ...
	sectionHeaderPattern = `(?m)^\s*\[[^\]\n]*\]\s*$`

	blankRunPattern = `\n{3,}`
)

// TitleCleaner normalizes track titles and lyric text before and after a lyrics lookup.
type TitleCleaner struct {
	suffixExpr *regexp2.Regexp
	headerExpr *regexp2.Regexp
	blankExpr  *regexp2.Regexp
}

// NewTitleCleaner compiles the cleanup expressions.
func NewTitleCleaner() *TitleCleaner {
	return &TitleCleaner{
		suffixExpr: regexp2.MustCompile(titleSuffixPattern, regexp2.IgnoreCase),
		headerExpr: regexp2.MustCompile(sectionHeaderPattern, 0),
		blankExpr:  regexp2.MustCompile(blankRunPattern, 0),
	}
}

// CleanTitle strips version suffixes such as " - 2011 Remastered" or "(Live at Wembley)".
func (tc *TitleCleaner) CleanTitle(title string) string {
	cleaned, err := tc.suffixExpr.Replace(title, "", -1, -1)
	if err != nil {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(cleaned)
}

// CleanLyrics removes section headers and collapses runs of blank lines.
func (tc *TitleCleaner) CleanLyrics(lyrics string) string {
	text := strings.ReplaceAll(lyrics, "\r\n", "\n")
	if out, err := tc.headerExpr.Replace(text, "", -1, -1); err == nil {
		text = out
	}
	if out, err := tc.blankExpr.Replace(text, "\n\n", -1, -1); err == nil {
		text = out
	}
	return strings.TrimSpace(text)
}

// creditSeparators split a credit line into individual performers.
var creditSeparators = strings.NewReplacer(
	" & ", ",",
	" featuring ", ",",
	" feat. ", ",",
	" feat ", ",",
	" ft. ", ",",
	" with ", ",",
)

// ArtistMatches reports whether candidate names the same performer as any of artists.
//
// Names are compared case-insensitively over letters and digits only. Both sides are split into their
// credited performers ("A & B", "A feat. B", "A, B") and a match needs one whole performer in common.
func ArtistMatches(candidate string, artists ...string) bool {
	whole := foldName(candidate)
	if whole == "" {
		return false
	}
	names := creditNames(candidate)
	for _, a := range artists {
		if foldName(a) == whole {
			return true
		}
		for _, p := range creditNames(a) {
			if slices.Contains(names, p) {
				return true
			}
		}
	}
	return false
}

func creditNames(credit string) []string {
	names := []string{}
	for _, part := range strings.Split(creditSeparators.Replace(strings.ToLower(credit)), ",") {
		if n := foldName(part); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func foldName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
