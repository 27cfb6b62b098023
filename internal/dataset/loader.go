package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Record is one row or object from a dataset file, flattened to string
// fields. Location is provenance only and never takes part in matching.
type Record struct {
	Location string
	Fields   map[string]string
}

// Dataset is one loaded file. Warnings collect everything that went
// wrong without stopping the load; noisy real-world exports must still
// produce partial results.
type Dataset struct {
	Name     string // file stem, used as the dataset identifier
	Source   string // file base name
	Path     string
	Encoding string
	Headers  []string
	Records  []Record
	Warnings []string

	byLocation map[string]int
}

// RecordAt re-locates a record by its provenance token.
func (d *Dataset) RecordAt(location string) (Record, bool) {
	if d.byLocation == nil {
		d.byLocation = make(map[string]int, len(d.Records))
		for i, r := range d.Records {
			d.byLocation[r.Location] = i
		}
	}
	i, ok := d.byLocation[location]
	if !ok {
		return Record{}, false
	}
	return d.Records[i], true
}

// Load reads one CSV or JSON dataset file. Encoding is resolved by
// trying UTF-8 with BOM, plain UTF-8, then Latin-1.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	base := filepath.Base(path)
	ds := &Dataset{
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
		Source: base,
		Path:   path,
	}

	var text string
	text, ds.Encoding = decode(raw)

	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv":
		err = ds.parseCSV(text)
	case ".json":
		err = ds.parseJSON(text)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", base)
	}
	if err != nil {
		return nil, err
	}

	if len(ds.Records) == 0 {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf("%s: no records parsed", base))
	}
	return ds, nil
}

// LoadDir loads every *.csv and *.json under dir in name order. Files
// that fail to load are skipped with a warning; only an unreadable
// directory is an error.
func LoadDir(dir string) ([]*Dataset, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dataset directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var datasets []*Dataset
	var warnings []string
	for _, name := range names {
		ds, err := Load(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", name, err))
			continue
		}
		datasets = append(datasets, ds)
	}
	return datasets, warnings, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decode(raw []byte) (string, string) {
	if bytes.HasPrefix(raw, utf8BOM) {
		return string(bytes.TrimPrefix(raw, utf8BOM)), "utf-8-bom"
	}
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Latin-1 maps every byte; treat as opaque UTF-8 if it ever fails
		return string(raw), "utf-8"
	}
	return string(out), "latin-1"
}

// delimiters in sniffing precedence order.
var delimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter counts candidate delimiters outside quotes on the first
// non-empty line and picks the most frequent, ties to precedence order.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range delimiters {
			if r == d {
				counts[d]++
			}
		}
	}
	best := ','
	bestCount := 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func (d *Dataset) parseCSV(text string) error {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	row := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			d.Warnings = append(d.Warnings, fmt.Sprintf("%s row %d: %v", d.Source, row, err))
			continue
		}
		if row == 1 {
			d.Headers = headerNames(fields)
			continue
		}

		if len(fields) != len(d.Headers) {
			d.Warnings = append(d.Warnings, fmt.Sprintf(
				"%s row %d: %d fields, header has %d", d.Source, row, len(fields), len(d.Headers)))
		}
		rec := Record{
			Location: "row:" + strconv.Itoa(row),
			Fields:   make(map[string]string, len(d.Headers)),
		}
		for i, h := range d.Headers {
			if i < len(fields) {
				rec.Fields[h] = strings.TrimSpace(fields[i])
			} else {
				rec.Fields[h] = "" // ragged row, padded
			}
		}
		d.Records = append(d.Records, rec)
	}

	if len(d.Headers) == 0 {
		d.Warnings = append(d.Warnings, fmt.Sprintf("%s: empty file, no header row", d.Source))
	}
	return nil
}

// headerNames trims headers, names blank columns col_N, and suffixes
// duplicates so no data is silently overwritten.
func headerNames(fields []string) []string {
	seen := make(map[string]int, len(fields))
	out := make([]string, len(fields))
	for i, f := range fields {
		h := strings.TrimSpace(f)
		if h == "" {
			h = "col_" + strconv.Itoa(i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h]++
			h = h + "_" + strconv.Itoa(n+1)
		}
		seen[h]++
		out[i] = h
	}
	return out
}

// wrapperKeys are checked in order when a JSON dataset is an object
// instead of a bare array.
var wrapperKeys = []string{"data", "records", "results", "rows", "items", "entries"}

func (d *Dataset) parseJSON(text string) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse %s: %w", d.Source, err)
	}

	var elements []any
	base := "$"
	switch v := doc.(type) {
	case []any:
		elements = v
	case map[string]any:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]any); ok {
				elements = arr
				base = "$." + key
				break
			}
		}
		if elements == nil {
			return fmt.Errorf("parse %s: no record array under %s", d.Source, strings.Join(wrapperKeys, "|"))
		}
	default:
		return fmt.Errorf("parse %s: expected array or object, got %T", d.Source, doc)
	}

	keys := make(map[string]bool)
	for i, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			d.Warnings = append(d.Warnings, fmt.Sprintf(
				"%s %s[%d]: not an object, skipped", d.Source, base, i))
			continue
		}
		rec := Record{
			Location: fmt.Sprintf("%s[%d]", base, i),
			Fields:   make(map[string]string, len(obj)),
		}
		for k, v := range obj {
			rec.Fields[k] = stringify(v)
			keys[k] = true
		}
		d.Records = append(d.Records, rec)
	}

	d.Headers = make([]string, 0, len(keys))
	for k := range keys {
		d.Headers = append(d.Headers, k)
	}
	sort.Strings(d.Headers)
	return nil
}

// stringify flattens a JSON value to the string form used for field
// comparison. Nested structures stay as compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
