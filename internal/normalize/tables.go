package normalize

// Legal-entity suffixes stripped from the end of company names. Multi-word
// forms are listed as space-separated token sequences and always win over
// their single-token components (longest match first).
var legalSuffixes = []string{
	"gmbh and co kg",
	"ag and co kg",
	"gmbh co kg",
	"and co kg",
	"and company",
	"and co",
	"co kg",
	"incorporated",
	"corporation",
	"limited",
	"company",
	"holdings",
	"holding",
	"inc",
	"corp",
	"llc",
	"llp",
	"plc",
	"ltd",
	"lp",
	"co",
	"gmbh",
	"mbh",
	"ag",
	"kg",
	"sa",
	"nv",
	"bv",
	"ab",
	"oy",
	"se",
}

// Additional suffixes recognized by the German table. Punctuation is gone
// by the time these apply, so "e.V." arrives as the token pair "e v".
var germanLegalSuffixes = []string{
	"ug haftungsbeschraenkt",
	"gmbh und co kg",
	"ag und co kg",
	"und co kg",
	"und co",
	"kgaa",
	"ohg",
	"gbr",
	"ug",
	"eg",
	"ek",
	"ev",
	"e v",
	"e k",
	"e g",
}

// Noise words removed anywhere in a name. Conjunctions stay: "and"/"und"
// discriminate ("Müller und Söhne" vs "Müller").
var noiseWords = []string{"the", "a", "an", "of"}

// German noise adds the nominative articles. Other case forms (des, dem,
// den) are left alone; they collide with real name parts too often.
var germanNoiseWords = []string{"the", "a", "an", "of", "der", "die", "das"}

// Academic and professional titles stripped from the front of German
// person names. Token sequences, longest first; bare "h c" is deliberately
// absent so initials like "H. C. Andersen" survive.
// Hyphenated and dotted spellings tokenize differently ("Dipl-Ing" stays
// one token, "Dipl.-Ing." splits), so both forms are listed.
var germanTitles = []string{
	"prof dr dr h c",
	"prof dr med",
	"prof dr dr",
	"prof dr ing",
	"dr rer nat",
	"dr rer pol",
	"dr dr h c",
	"prof dr",
	"dr h c",
	"dr med",
	"dr jur",
	"dr iur",
	"dr phil",
	"dr ing",
	"dr-ing",
	"dipl ing",
	"dipl kfm",
	"dipl kffr",
	"dipl-ing",
	"dipl-kfm",
	"dipl-kffr",
	"dr dr",
	"prof",
	"dr",
	"mag",
	"ing",
}

// courtAliases maps folded court spellings to their canonical register
// court name. Keys are produced by foldCourtKey: lowercase, umlauts to
// digraphs, punctuation dropped, whitespace collapsed.
var courtAliases = map[string]string{
	"muenchen":                    "Amtsgericht München",
	"ag muenchen":                 "Amtsgericht München",
	"amtsgericht muenchen":        "Amtsgericht München",
	"berlin":                      "Amtsgericht Charlottenburg",
	"berlin-charlottenburg":       "Amtsgericht Charlottenburg",
	"charlottenburg":              "Amtsgericht Charlottenburg",
	"ag charlottenburg":           "Amtsgericht Charlottenburg",
	"amtsgericht charlottenburg":  "Amtsgericht Charlottenburg",
	"frankfurt":                   "Amtsgericht Frankfurt am Main",
	"frankfurt am main":           "Amtsgericht Frankfurt am Main",
	"ag frankfurt am main":        "Amtsgericht Frankfurt am Main",
	"amtsgericht frankfurt":       "Amtsgericht Frankfurt am Main",
	"hamburg":                     "Amtsgericht Hamburg",
	"ag hamburg":                  "Amtsgericht Hamburg",
	"amtsgericht hamburg":         "Amtsgericht Hamburg",
	"koeln":                       "Amtsgericht Köln",
	"ag koeln":                    "Amtsgericht Köln",
	"amtsgericht koeln":           "Amtsgericht Köln",
	"duesseldorf":                 "Amtsgericht Düsseldorf",
	"ag duesseldorf":              "Amtsgericht Düsseldorf",
	"amtsgericht duesseldorf":     "Amtsgericht Düsseldorf",
	"stuttgart":                   "Amtsgericht Stuttgart",
	"ag stuttgart":                "Amtsgericht Stuttgart",
	"amtsgericht stuttgart":       "Amtsgericht Stuttgart",
	"hannover":                    "Amtsgericht Hannover",
	"ag hannover":                 "Amtsgericht Hannover",
	"amtsgericht hannover":        "Amtsgericht Hannover",
	"leipzig":                     "Amtsgericht Leipzig",
	"ag leipzig":                  "Amtsgericht Leipzig",
	"amtsgericht leipzig":         "Amtsgericht Leipzig",
	"nuernberg":                   "Amtsgericht Nürnberg",
	"ag nuernberg":                "Amtsgericht Nürnberg",
	"amtsgericht nuernberg":       "Amtsgericht Nürnberg",
}
