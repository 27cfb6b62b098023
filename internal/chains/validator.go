package chains

import (
	"errors"
	"fmt"

	"github.com/mtautner/dossier/internal/model"
)

// ErrChainsFailed reports that at least one chain failed validation.
// Callers turn it into a non-zero exit.
var ErrChainsFailed = errors.New("chain validation failed")

// Validator checks analyst-authored chains against the structural
// contract. Failures mean the chain cannot be trusted as evidence;
// warnings flag weaknesses that do not void it.
type Validator struct {
	strict bool
}

// NewValidator creates a validator. Strict mode additionally requires
// link_strength, per-hop record references, key_assumptions, and
// falsification_conditions.
func NewValidator(strict bool) *Validator {
	return &Validator{strict: strict}
}

// ValidateAll validates every chain in every file, in file order.
func (v *Validator) ValidateAll(files []*File) []model.ChainResult {
	var results []model.ChainResult
	for _, f := range files {
		results = append(results, v.ValidateFile(f)...)
	}
	return results
}

// ValidateFile validates each chain in one file.
func (v *Validator) ValidateFile(f *File) []model.ChainResult {
	results := make([]model.ChainResult, 0, len(f.Chains))
	for i, raw := range f.Chains {
		results = append(results, v.validate(f.Path, f.ChainID(i), raw))
	}
	return results
}

// validate applies every fail and warn condition to one raw chain.
// Checks run on the raw map so an absent field and a zero value are
// never confused.
func (v *Validator) validate(file, id string, raw map[string]any) model.ChainResult {
	res := model.ChainResult{ChainID: id, File: file}
	fail := func(format string, args ...any) {
		res.Failures = append(res.Failures, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	if c, ok := raw["claim"]; !ok {
		fail("missing required field: claim")
	} else if s, isStr := c.(string); !isStr || s == "" {
		fail("claim is not a non-empty string")
	}

	if c, ok := raw["confidence"]; !ok {
		fail("missing required field: confidence")
	} else if s, isStr := c.(string); !isStr {
		fail("confidence is not a string")
	} else if _, err := model.ParseTier(s); err != nil {
		fail("confidence tier %q outside {confirmed, probable, possible, unresolved}", s)
	}

	hopsRaw, ok := raw["hops"]
	arr, isArr := hopsRaw.([]any)
	switch {
	case !ok:
		fail("missing required field: hops")
	case !isArr:
		fail("hops is not an array")
	case len(arr) == 0:
		fail("chain has zero hops")
	default:
		v.validateHops(arr, fail, warn)
	}

	if v.strict {
		if _, ok := raw["link_strength"]; !ok {
			fail("missing required field: link_strength")
		}
	}

	if s := corroboration(raw); s != "" {
		if !model.CorroborationStatuses[s] {
			warn("unknown corroboration status %q", s)
		} else if s == model.StatusCorroborated {
			if n := independentSources(raw); n < 2 {
				warn("corroborated but only %d independent source(s)", n)
			}
		}
	}

	if v.strict {
		if _, ok := raw["key_assumptions"]; !ok {
			warn("missing key_assumptions")
		}
		if _, ok := raw["falsification_conditions"]; !ok {
			warn("missing falsification_conditions")
		}
	}

	return res
}

var hopRequired = []string{"from_entity", "from_dataset", "to_entity", "to_dataset", "match_type"}

func (v *Validator) validateHops(arr []any, fail, warn func(string, ...any)) {
	for i, el := range arr {
		n := i + 1
		h, ok := el.(map[string]any)
		if !ok {
			fail("hop %d: not an object", n)
			continue
		}

		for _, field := range hopRequired {
			if str(h[field]) == "" {
				fail("hop %d: missing %s", n, field)
			}
		}
		if mt := str(h["match_type"]); mt != "" && !model.ValidMatchType(mt) {
			fail("hop %d: unknown match_type %q", n, mt)
		}
		if score, present := h["match_score"]; present {
			if f := num(score); f == nil {
				fail("hop %d: match_score is not numeric", n)
			} else if *f < 0 || *f > 1 {
				fail("hop %d: match_score %v outside [0,1]", n, *f)
			}
		}
		if v.strict {
			if str(h["from_record"]) == "" {
				fail("hop %d: missing from_record", n)
			}
			if str(h["to_record"]) == "" {
				fail("hop %d: missing to_record", n)
			}
		}

		// Each hop should pick up where the previous one ended.
		if i > 0 {
			prev, ok := arr[i-1].(map[string]any)
			if !ok {
				continue
			}
			from, to := str(h["from_entity"]), str(prev["to_entity"])
			if from != "" && to != "" && from != to {
				warn("hop %d: from_entity %q does not continue hop %d's to_entity %q", n, from, i, to)
			}
		}
	}
}

// Summarize tallies chain results into pass/warn/fail counts.
func Summarize(results []model.ChainResult) (passed, warned, failed int) {
	for i := range results {
		switch {
		case results[i].Failed():
			failed++
		case len(results[i].Warnings) > 0:
			warned++
		default:
			passed++
		}
	}
	return passed, warned, failed
}
