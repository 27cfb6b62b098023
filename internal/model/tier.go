package model

import "fmt"

// Tier is the closed confidence vocabulary used for every finding.
// Tiers are always derived by the scorer, never hand-set as ground truth.
type Tier string

const (
	TierConfirmed  Tier = "confirmed"  // Corroborated by hard signals or strong multi-source agreement
	TierProbable   Tier = "probable"   // Multi-source or hard-signal support below the confirmed bar
	TierPossible   Tier = "possible"   // Some internal support, single source
	TierUnresolved Tier = "unresolved" // No usable support, or disqualified by conflicting identifiers
)

// Tiers lists every valid tier in descending order of confidence.
var Tiers = []Tier{TierConfirmed, TierProbable, TierPossible, TierUnresolved}

// ParseTier converts a raw string into a Tier.
// Unknown values are rejected, never coerced to a nearest valid tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierConfirmed, TierProbable, TierPossible, TierUnresolved:
		return Tier(s), nil
	}
	return "", fmt.Errorf("invalid confidence tier: %q", s)
}

// Valid reports whether t is one of the four defined tiers.
func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}

func (t Tier) String() string {
	return string(t)
}
