package dataset

import "strings"

// nameColumns are the headers recognized as holding entity names, in
// priority order. Comparison is case-insensitive on the trimmed header.
var nameColumns = []string{
	"name",
	"entity_name",
	"entity",
	"company_name",
	"company",
	"organisation",
	"organization",
	"org_name",
	"full_name",
	"firma",
	"firmenname",
	"unternehmen",
	"sdn_name",
	"holder",
	"owner",
	"party",
}

// DetectNameColumn picks the header holding entity names: first an
// exact case-insensitive match in priority order, then the first header
// containing "name". The returned string is the original header, usable
// as a Fields key.
func DetectNameColumn(headers []string) (string, bool) {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, want := range nameColumns {
		for i, l := range lowered {
			if l == want {
				return headers[i], true
			}
		}
	}
	for i, l := range lowered {
		if strings.Contains(l, "name") {
			return headers[i], true
		}
	}
	return "", false
}

// PickNameColumn honors an explicit override list before falling back
// to detection. Overrides match case-insensitively against headers.
func PickNameColumn(headers, overrides []string) (string, bool) {
	for _, o := range overrides {
		want := strings.ToLower(strings.TrimSpace(o))
		for _, h := range headers {
			if strings.ToLower(strings.TrimSpace(h)) == want {
				return h, true
			}
		}
	}
	if len(overrides) > 0 {
		return "", false
	}
	return DetectNameColumn(headers)
}
