// package match implements the chart-to-catalog resolution engine.
//
// A chart row is a free-text (title, artist) pair; the engine normalizes it,
// plans a staged sequence of search queries, scores the pooled candidates and
// picks the best acceptable match (or reports the row as missing). Two
// resolved charts can be interleaved into a single deduplicated blend.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketRe    = regexp.MustCompile(`\s*[\(\[][^)\]]*[\)\]]`)
	artistSepRe  = regexp.MustCompile(`(?i)\s*(?:,|&|\+|×| x | with | and | vs\. | feat\. | featuring | ft\. )\s*`)
	sideSplitRe  = regexp.MustCompile(`/|\s\|\s`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	liveTokens  = map[string]struct{}{"live": {}, "unplugged": {}}
	remixTokens = map[string]struct{}{"remix": {}, "cover": {}, "karaoke": {}}

	quoteFixer = strings.NewReplacer(
		"’", "'", "‘", "'",
		"“", `"`, "”", `"`,
		"–", "-", "—", "-",
	)
)

// NormalizedEntry is the canonical form of one chart row.
//
// Title is the folded full title (parentheticals kept); Variants lists the
// alternate renderings to try and score against, starting with Title itself,
// then the parenthetical-stripped form, then each side of an A/B single.
// Artists is primary-first. Live/Remix record whether the chart row itself
// announces a live or remix/cover rendition.
type NormalizedEntry struct {
	Title    string
	Artists  []string
	Variants []string
	Live     bool
	Remix    bool
}

// Primary returns the primary artist (first credit in the artist string).
func (e NormalizedEntry) Primary() string {
	if len(e.Artists) == 0 {
		return ""
	}
	return e.Artists[0]
}

// Normalize canonicalizes a raw chart title/artist pair. Pure; it degrades
// to lowercased raw input rather than erroring on junk.
func Normalize(title, artist string) NormalizedEntry {
	canon := Fold(title)
	if canon == "" {
		canon = collapse(strings.ToLower(title))
	}

	variants := []string{canon}
	appendVariant := func(v string) {
		v = collapse(v)
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	stripped := collapse(bracketRe.ReplaceAllString(canon, " "))
	appendVariant(stripped)

	// "Song A / Song B" double-A-side singles chart as one row but are two
	// catalog tracks; each side becomes its own variant.
	base := stripped
	if base == "" {
		base = canon
	}
	if strings.ContainsAny(base, "/|") {
		for _, side := range sideSplitRe.Split(base, -1) {
			if side = collapse(side); len(side) > 1 {
				appendVariant(side)
			}
		}
	}

	artists := splitArtists(artist)
	if len(artists) == 0 {
		artists = []string{collapse(strings.ToLower(artist))}
	}

	live, remix := FlagTokens(title)
	return NormalizedEntry{
		Title:    canon,
		Artists:  artists,
		Variants: variants,
		Live:     live,
		Remix:    remix,
	}
}

// Fold lowercases, folds diacritics (NFKD, marks removed), unifies curly
// quotes and long dashes and collapses whitespace.
func Fold(s string) string {
	s = quoteFixer.Replace(s)
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsMark(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return collapse(b.String())
}

// splitArtists breaks a combined artist credit into individual names,
// primary first. Separators follow chart conventions: "featuring", "feat.",
// "ft.", "&", ",", " x ", "with", "and", "vs.", "+", "×".
func splitArtists(artist string) []string {
	folded := Fold(artist)
	if folded == "" {
		return nil
	}

	parts := artistSepRe.Split(folded, -1)
	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = collapse(p); p != "" {
			artists = append(artists, p)
		}
	}
	return artists
}

// FlagTokens reports whether a title's tokens announce a live or
// remix/cover rendition.
func FlagTokens(title string) (live, remix bool) {
	folded := Fold(title)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		return ' '
	}, folded)

	for _, tok := range strings.Fields(folded) {
		if _, ok := liveTokens[tok]; ok {
			live = true
		}
		if _, ok := remixTokens[tok]; ok {
			remix = true
		}
	}
	return live, remix
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
