// Package songtitle canonicalizes free-text "Artist - Name" song titles into
// a comparable form: noise (emoji, links, stray whitespace) is stripped, the
// artist list is consolidated into a single "(feat. ...)" suffix and every
// word is re-capitalized. Normalization is idempotent.
package songtitle

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"
)

// MaxTitleBytes is the hard cap on a canonical title's byte length.
const MaxTitleBytes = 1024

var (
	regexDashes     = regexp.MustCompile(`[–—]+`)
	regexLinks      = regexp.MustCompile(`(?i)(([a-z]+://)?[-\p{L}\p{N}]+\.\p{L}{2,}|[a-z]+://(\[:*\w+:[\w:]+\]|\d+\.[\d.]+))\S*`)
	regexSpaces     = regexp.MustCompile(`[\s` + "ᅠㅤ" + `]+`)
	regexOpenSpace  = regexp.MustCompile(`([(\[])\s+`)
	regexCloseSpace = regexp.MustCompile(`\s+([)\]])`)
	regexFeatWord   = regexp.MustCompile(`(?i)(feat|ft|featuring)(\.?\s+)`)
	regexFeatNoDot  = regexp.MustCompile(`(feat)(\s+)`)
	regexEmptyBrace = regexp.MustCompile(`\[\]|\(\)`)
	regexShape      = regexp.MustCompile(`.\s+-\s+.`)
	regexCommaGlue  = regexp.MustCompile(`,(\S)`)

	regexFindingNoise = regexp.MustCompile(`[!?.,:;"'()\[\]/\\_]+`)
)

// Normalize canonicalizes a raw song title. It returns "" when the input
// cannot be interpreted as an "Artist - Name" title.
func Normalize(raw string) string {
	title := stripEmoji(raw)
	title = regexDashes.ReplaceAllString(title, "-")
	title = regexLinks.ReplaceAllString(title, "")
	title = regexSpaces.ReplaceAllString(title, " ")
	title = regexOpenSpace.ReplaceAllString(title, "${1}")
	title = regexCloseSpace.ReplaceAllString(title, "${1}")
	title = strings.ToLower(title)

	if !strings.Contains(title, " - ") {
		return ""
	}

	artistSide, nameSide := Split(title)
	coArtists := splitArtists(artistSide)
	mainArtist := coArtists[0]
	coArtists = coArtists[1:]

	if mainArtist == "" {
		return ""
	}

	clause, _ := findFeatClause(title)
	feats := ""
	if clause != nil {
		feats = strings.TrimSpace(replaceFirst(regexCommaGlue, clause.Text, ", ${1}"))
	}

	title = mainArtist + " - " + nameSide
	title = removeFeatClause(title)

	for i, a := range coArtists {
		coArtists[i] = strings.TrimSpace(a)
	}
	if len(coArtists) > 0 {
		if feats != "" {
			feats = feats + ", " + strings.Join(coArtists, ", ")
		} else {
			feats = "ft. " + strings.Join(coArtists, ", ")
		}
	}
	if feats != "" {
		title += " (" + feats + ")"
	}

	title = replaceFirst(regexFeatWord, title, "feat${2}")
	title = replaceFirst(regexFeatNoDot, title, "${1}.${2}")
	title = regexEmptyBrace.ReplaceAllString(title, "")
	title = regexSpaces.ReplaceAllString(title, " ")
	title = capitalizeWords(title)
	return strings.TrimSpace(title)
}

// IsValid reports whether the title is a storable song title. The title is
// normalized first unless normalized is true, meaning the caller guarantees
// canonical input.
func IsValid(title string, normalized bool) bool {
	if !normalized {
		title = Normalize(title)
	}
	if title == "" || len(title) > MaxTitleBytes {
		return false
	}
	return regexShape.MatchString(title)
}

// Split cuts a title on the first " - " separator, keeping the remainder of
// the name side intact.
func Split(title string) (artistSide, nameSide string) {
	parts := strings.SplitN(title, " - ", 2)
	artistSide = parts[0]
	if len(parts) > 1 {
		nameSide = parts[1]
	}
	return artistSide, nameSide
}

// Name returns the song name: the text after the dash with any featuring
// clause stripped. Input is normalized first unless normalized is true.
func Name(title string, normalized bool) string {
	if !normalized {
		title = Normalize(title)
	}
	if !IsValid(title, true) {
		return ""
	}
	_, nameSide := Split(title)
	return strings.TrimSpace(removeFeatClause(nameSide))
}

// Artists returns the full artist list: the main artist, comma-split
// co-artists and featuring credits, each trimmed.
func Artists(title string, normalized bool) []string {
	if !normalized {
		title = Normalize(title)
	}
	if !IsValid(title, true) {
		return nil
	}

	artistSide, _ := Split(title)
	parts := strings.Split(artistSide, ",")

	if clause, _ := findFeatClause(title); clause != nil {
		feats := stripFeatWord(clause.Text)
		parts = append(parts, strings.Split(feats, ",")...)
	}

	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			artists = append(artists, p)
		}
	}
	return artists
}

// Comparison derives the stored comparison form of a title.
func Comparison(raw string) string {
	return strings.ToLower(Normalize(raw))
}

// FindingString reduces free-form search input to the lowercase form that
// substring matching runs against: links removed, punctuation folded to
// spaces, whitespace collapsed. Comparison titles pass through it too before
// a contains check, so both sides of the match share the same alphabet.
func FindingString(raw string) string {
	s := strings.ToLower(raw)
	s = regexLinks.ReplaceAllString(s, "")
	s = regexFindingNoise.ReplaceAllString(s, " ")
	s = regexSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Encode renders a title as a URL-safe path segment.
func Encode(title string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(title))
}

// Decode reverses Encode.
func Decode(code string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func splitArtists(side string) []string {
	parts := strings.Split(side, ",")
	for i := 1; i < len(parts); i++ {
		parts[i] = strings.TrimLeft(parts[i], " ")
	}
	return parts
}

func capitalizeWords(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	replaced := re.ReplaceAllString(s[loc[0]:loc[1]], repl)
	return s[:loc[0]] + replaced + s[loc[1]:]
}

func stripFeatWord(clause string) string {
	return replaceFirst(regexp.MustCompile(`(?i)(feat|ft|featuring)\.?`), clause, "")
}

func stripEmoji(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isEmoji(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FFFF: // pictographs, flags, supplemental symbols
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2B00 && r <= 0x2BFF: // stars, arrows
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r == 0x200D: // zero-width joiner
		return true
	}
	return false
}
