package match

import (
	"strings"

	"github.com/mtautner/dossier/internal/normalize"
)

// Composite match methods, strongest first.
const (
	MethodRegisterID   = "register-id"
	MethodNameFormCity = "name-form-city"
	MethodOfficer      = "officer-overlap"
	MethodAddress      = "address"
)

// CompositeRecord is one structured company record, matched pairwise
// against another outside the bulk clustering pipeline.
type CompositeRecord struct {
	Name       string   `json:"name"`
	LegalForm  string   `json:"legal_form,omitempty"`
	RegisterID string   `json:"register_id,omitempty"` // e.g. "HRB 12345"
	Court      string   `json:"court,omitempty"`       // register court for the ID
	City       string   `json:"city,omitempty"`
	Street     string   `json:"street,omitempty"`
	Officers   []string `json:"officers,omitempty"`
}

// CompositeResult is the outcome of one pairwise comparison.
type CompositeResult struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Method  string  `json:"method,omitempty"`
}

// CourtCanonicalizer resolves register-court spellings to one canonical
// form. The German normalizer provides this; other locales may not.
type CourtCanonicalizer interface {
	CanonicalCourt(raw string) string
}

// CompositeMatcher scores one record pair through fixed tiers: a shared
// register ID is decisive, the name/legal-form/city triple is next, and
// officer or address overlap is the weakest accepted signal. Tiers are
// tried strongest first and the first hit wins.
type CompositeMatcher struct {
	norm   normalize.Normalizer
	courts CourtCanonicalizer
}

// NewCompositeMatcher builds a matcher on the given normalizer. When the
// normalizer also canonicalizes courts, register IDs are scoped to their
// court; register numbers repeat across courts.
func NewCompositeMatcher(n normalize.Normalizer) *CompositeMatcher {
	m := &CompositeMatcher{norm: n}
	if c, ok := n.(CourtCanonicalizer); ok {
		m.courts = c
	}
	return m
}

// Match compares a and b. Unmatched pairs come back with a zero score.
func (m *CompositeMatcher) Match(a, b CompositeRecord) CompositeResult {
	if m.registerIDMatch(a, b) {
		return CompositeResult{Matched: true, Score: 1.0, Method: MethodRegisterID}
	}
	if m.nameFormCityMatch(a, b) {
		return CompositeResult{Matched: true, Score: 0.95, Method: MethodNameFormCity}
	}
	if m.officerMatch(a, b) {
		return CompositeResult{Matched: true, Score: 0.75, Method: MethodOfficer}
	}
	if m.addressMatch(a, b) {
		return CompositeResult{Matched: true, Score: 0.75, Method: MethodAddress}
	}
	return CompositeResult{}
}

func (m *CompositeMatcher) registerIDMatch(a, b CompositeRecord) bool {
	ida, idb := registerKey(a.RegisterID), registerKey(b.RegisterID)
	if ida == "" || idb == "" || ida != idb {
		return false
	}
	// Same number at two known, different courts is two different
	// companies, not a match.
	if a.Court != "" && b.Court != "" && m.court(a.Court) != m.court(b.Court) {
		return false
	}
	return true
}

func (m *CompositeMatcher) nameFormCityMatch(a, b CompositeRecord) bool {
	na, nb := m.norm.Normalize(a.Name), m.norm.Normalize(b.Name)
	if na == "" || na != nb {
		return false
	}
	fa, fb := squash(a.LegalForm), squash(b.LegalForm)
	ca, cb := squash(a.City), squash(b.City)
	return fa != "" && fa == fb && ca != "" && ca == cb
}

func (m *CompositeMatcher) officerMatch(a, b CompositeRecord) bool {
	na, nb := m.norm.Normalize(a.Name), m.norm.Normalize(b.Name)
	if Similarity(na, nb, 0.70) < 0.70 {
		return false
	}
	seen := make(map[string]bool, len(a.Officers))
	for _, o := range a.Officers {
		if key := m.norm.NormalizePerson(o); key != "" {
			seen[key] = true
		}
	}
	for _, o := range b.Officers {
		if key := m.norm.NormalizePerson(o); key != "" && seen[key] {
			return true
		}
	}
	return false
}

func (m *CompositeMatcher) addressMatch(a, b CompositeRecord) bool {
	sa, sb := squash(a.Street), squash(b.Street)
	ca, cb := squash(a.City), squash(b.City)
	return sa != "" && sa == sb && ca != "" && ca == cb
}

// squash folds and then drops spaces, so dotted spellings collide with
// plain ones: "G.m.b.H." and "GmbH" both squash to "gmbh".
func squash(s string) string {
	return strings.ReplaceAll(normalize.Fold(s), " ", "")
}

func (m *CompositeMatcher) court(raw string) string {
	if m.courts != nil {
		return m.courts.CanonicalCourt(raw)
	}
	return normalize.Fold(raw)
}

// registerKey strips a register ID down to its letters and digits,
// uppercased: "HRB 12345", "hrb-12345" and "HRB12345" all collide.
func registerKey(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
