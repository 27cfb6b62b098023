package normalize

import "strings"

// umlautFolder maps umlauts and eszett to their ASCII digraphs. The fold
// is lossy on purpose: "ae" in a key may come from "ä" or a literal "ae",
// and nothing downstream may assume the mapping reverses.
var umlautFolder = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// German normalizes names the way German registry data is usually keyed:
// umlauts fold to digraphs before decomposition, the suffix table knows
// German legal forms, and person names lose academic titles.
type German struct {
	core
}

// NewGerman returns the German-locale normalizer.
func NewGerman() *German {
	return &German{core: core{
		fold:     umlautFolder.Replace,
		suffixes: compileRules(append(append([]string{}, legalSuffixes...), germanLegalSuffixes...)),
		noise:    toSet(germanNoiseWords),
		titles:   compileRules(germanTitles),
	}}
}

// Normalize implements Normalizer.
func (g *German) Normalize(raw string) string { return g.key(raw, false) }

// NormalizePerson implements Normalizer. Leading academic and
// professional titles are stripped before keying.
func (g *German) NormalizePerson(raw string) string { return g.key(raw, true) }

// CanonicalCourt maps a register-court spelling to its canonical name.
// Lookup order: alias on the folded spelling, then an "Amtsgericht ..."
// passthrough for courts not in the alias table, then the input
// unchanged (whitespace-collapsed) when nothing canonicalizes. Court
// spellings go through Fold, never key: "AG" here means Amtsgericht,
// not a legal form to strip.
func (g *German) CanonicalCourt(raw string) string {
	trimmed := strings.Join(strings.Fields(raw), " ")
	if trimmed == "" {
		return ""
	}
	if canonical, ok := courtAliases[Fold(trimmed)]; ok {
		return canonical
	}
	// Unlisted register courts keep their spelling, with the
	// Amtsgericht prefix re-cased when it arrives lowercased.
	if first, rest, found := strings.Cut(trimmed, " "); found && Fold(first) == "amtsgericht" {
		return "Amtsgericht " + rest
	}
	return trimmed
}
