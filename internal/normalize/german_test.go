package normalize

import "testing"

func TestGerman_Normalize_UmlautFolding(t *testing.T) {
	n := NewGerman()

	cases := []struct {
		raw  string
		want string
	}{
		{"Müller GmbH", "mueller"},
		{"Bäckerei Özdemir", "baeckerei oezdemir"},
		{"Straßenbau AG", "strassenbau"},
		{"Süßwaren Köhler e.K.", "suesswaren koehler"},
	}
	for _, c := range cases {
		if got := n.Normalize(c.raw); got != c.want {
			t.Errorf("Normalize(%q): expected %q, got %q", c.raw, c.want, got)
		}
	}
}

func TestGerman_Normalize_FoldIsLossy(t *testing.T) {
	n := NewGerman()

	// A literal digraph and a folded umlaut collide on purpose; nothing
	// may assume the fold reverses
	if n.Normalize("Mueller") != n.Normalize("Müller") {
		t.Errorf("Expected Mueller and Müller to share a key")
	}
}

func TestGerman_Normalize_GermanLegalForms(t *testing.T) {
	n := NewGerman()

	cases := []struct {
		raw  string
		want string
	}{
		{"Fußballverein Altona e.V.", "fussballverein altona"},
		{"Startup UG (haftungsbeschränkt)", "startup"},
		{"Hanse Handel GmbH & Co. KG", "hanse handel"},
		{"Hanse Handel GmbH und Co. KG", "hanse handel"},
		{"Die Brücke GmbH", "bruecke"},
		{"Wohnbau eG", "wohnbau"},
	}
	for _, c := range cases {
		if got := n.Normalize(c.raw); got != c.want {
			t.Errorf("Normalize(%q): expected %q, got %q", c.raw, c.want, got)
		}
	}
}

func TestGerman_NormalizePerson_StripsTitles(t *testing.T) {
	n := NewGerman()

	cases := []struct {
		raw  string
		want string
	}{
		{"Prof. Dr. med. Hans Müller", "hans mueller"},
		{"Dr. h.c. Angela Schmidt", "angela schmidt"},
		{"Dr.-Ing. Klaus Werner", "klaus werner"},
		{"Dipl.-Kfm. Jürgen Vogel", "juergen vogel"},
		{"Hans Müller", "hans mueller"},
		// Initials are not titles
		{"H. C. Andersen", "h c andersen"},
	}
	for _, c := range cases {
		if got := n.NormalizePerson(c.raw); got != c.want {
			t.Errorf("NormalizePerson(%q): expected %q, got %q", c.raw, c.want, got)
		}
	}
}

func TestGerman_Normalize_KeepsTitlesOnOrganizations(t *testing.T) {
	n := NewGerman()

	// Titles only strip on the person path; company names keep them
	if got := n.Normalize("Dr. Oetker"); got != "dr oetker" {
		t.Errorf("Expected dr oetker, got %q", got)
	}
}

func TestGerman_NormalizePerson_Idempotent(t *testing.T) {
	n := NewGerman()

	inputs := []string{
		"Prof. Dr. med. Hans Müller",
		"Dr. Dr. h.c. Ulrich Beck",
		"Müller-Lüdenscheidt",
		"Dr.",
		"",
	}
	for _, raw := range inputs {
		once := n.NormalizePerson(raw)
		twice := n.NormalizePerson(once)
		if once != twice {
			t.Errorf("NormalizePerson(%q): not idempotent, %q re-normalized to %q", raw, once, twice)
		}
	}
}

func TestGerman_CanonicalCourt(t *testing.T) {
	n := NewGerman()

	cases := []struct {
		raw  string
		want string
	}{
		{"Amtsgericht München", "Amtsgericht München"},
		{"AG München", "Amtsgericht München"},
		{"ag muenchen", "Amtsgericht München"},
		{"Muenchen", "Amtsgericht München"},
		{"Berlin-Charlottenburg", "Amtsgericht Charlottenburg"},
		{"Frankfurt am Main", "Amtsgericht Frankfurt am Main"},
		// Unknown Amtsgericht names pass through
		{"Amtsgericht Posemuckel", "Amtsgericht Posemuckel"},
		// Non-register courts come back unchanged
		{"Landgericht Berlin", "Landgericht Berlin"},
		{"  Amtsgericht   Hamburg ", "Amtsgericht Hamburg"},
		{"", ""},
	}
	for _, c := range cases {
		if got := n.CanonicalCourt(c.raw); got != c.want {
			t.Errorf("CanonicalCourt(%q): expected %q, got %q", c.raw, c.want, got)
		}
	}
}
