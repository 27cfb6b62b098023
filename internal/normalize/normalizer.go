package normalize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer produces stable comparison keys from raw names. Pure and
// deterministic: the same input always yields the same key, and keys are
// fixpoints (normalizing a key returns it unchanged). Components take a
// Normalizer, not a concrete table set, so locales can be swapped per run.
type Normalizer interface {
	// Normalize keys an organization or generic name.
	Normalize(raw string) string

	// NormalizePerson keys a person name. Locale variants may strip
	// academic/professional titles here that Normalize leaves alone.
	NormalizePerson(raw string) string
}

// suffixRule is one compiled legal-suffix entry.
type suffixRule struct {
	tokens []string
}

// core holds the compiled tables shared by all locale variants.
type core struct {
	fold     func(string) string // Locale pre-fold applied before decomposition, may be nil
	suffixes []suffixRule        // Sorted longest first
	noise    map[string]bool
	titles   []suffixRule // Person title prefixes, sorted longest first
}

// Basic is the locale-neutral normalizer. Diacritics collapse to their
// base letter (Müller -> muller); use German when digraph folding is
// wanted instead.
type Basic struct {
	core
}

// NewBasic returns the locale-neutral normalizer.
func NewBasic() *Basic {
	return &Basic{core: core{
		suffixes: compileRules(legalSuffixes),
		noise:    toSet(noiseWords),
	}}
}

// Normalize implements Normalizer.
func (b *Basic) Normalize(raw string) string { return b.key(raw, false) }

// NormalizePerson implements Normalizer. The neutral locale has no title
// table, so this matches Normalize.
func (b *Basic) NormalizePerson(raw string) string { return b.key(raw, true) }

// stripMarks decomposes to NFD, drops combining marks, and recomposes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold is the table-free key: lowercase, umlauts to digraphs, combining
// marks stripped, punctuation dropped (hyphens survive), whitespace
// collapsed. For short fields (legal forms, cities, streets) where the
// suffix and noise tables must not apply.
func Fold(s string) string {
	s = umlautFolder.Replace(strings.ToLower(s))
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.Join(tokenize(s), " ")
}

// key runs the full pipeline. The stages after tokenization run to a
// fixpoint, which is what makes keys idempotent: a second pass finds no
// punctuation, no noise tokens, and no trailing suffix left to strip.
func (c *core) key(raw string, person bool) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// Locale fold runs before decomposition so digraph mappings see the
	// original rune (ä -> ae, not a).
	if c.fold != nil {
		s = c.fold(s)
	}
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	// Ampersands become the conjunction before any table stripping, so
	// "Müller & Co" and "Müller and Co" share a key.
	s = strings.ReplaceAll(s, "&", " and ")

	tokens := tokenize(s)
	if person {
		tokens = stripTitles(tokens, c.titles)
	}
	tokens = dropNoise(tokens, c.noise)
	tokens = stripSuffixes(tokens, c.suffixes)

	return strings.Join(tokens, " ")
}

// tokenize removes punctuation (hyphens survive, they discriminate
// double-barreled names) and splits on whitespace. Hyphens at token
// edges are punctuation, not joiners: "Dipl.-Kfm." must yield the
// tokens "dipl kfm", not a stray "-kfm".
func tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// dropNoise removes article/noise tokens anywhere in the name.
func dropNoise(tokens []string, noise map[string]bool) []string {
	if len(noise) == 0 {
		return tokens
	}
	out := tokens[:0]
	for _, t := range tokens {
		if !noise[t] {
			out = append(out, t)
		}
	}
	return out
}

// stripSuffixes removes trailing legal-form sequences, longest match
// first, repeating until no rule applies.
func stripSuffixes(tokens []string, rules []suffixRule) []string {
	for {
		matched := false
		for _, r := range rules {
			n := len(r.tokens)
			if n == 0 || n > len(tokens) {
				continue
			}
			if tokensEqual(tokens[len(tokens)-n:], r.tokens) {
				tokens = tokens[:len(tokens)-n]
				matched = true
				break
			}
		}
		if !matched || len(tokens) == 0 {
			return tokens
		}
	}
}

// stripTitles removes leading title sequences, longest match first,
// repeating until no rule applies.
func stripTitles(tokens []string, rules []suffixRule) []string {
	for {
		matched := false
		for _, r := range rules {
			n := len(r.tokens)
			if n == 0 || n > len(tokens) {
				continue
			}
			if tokensEqual(tokens[:n], r.tokens) {
				tokens = tokens[n:]
				matched = true
				break
			}
		}
		if !matched || len(tokens) == 0 {
			return tokens
		}
	}
}

func tokensEqual(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// compileRules splits table entries into token sequences and orders them
// longest first so multi-word forms beat their components.
func compileRules(entries []string) []suffixRule {
	rules := make([]suffixRule, 0, len(entries))
	for _, e := range entries {
		toks := strings.Fields(e)
		if len(toks) > 0 {
			rules = append(rules, suffixRule{tokens: toks})
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].tokens) > len(rules[j].tokens)
	})
	return rules
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
