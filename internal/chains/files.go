package chains

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Accepted file shapes.
const (
	shapeArray   = "array"   // bare array of chain objects
	shapeWrapped = "wrapped" // object with the chains under a known key
	shapeSingle  = "single"  // one chain object at the top level
)

// wrapperKeys are checked in order when a findings file is a JSON
// object rather than a bare array.
var wrapperKeys = []string{"chains", "evidence_chains", "findings", "cross_references"}

// File is one findings file. Chains stay raw maps so validation can
// tell absent from zero and rewriting preserves fields this tool does
// not understand.
type File struct {
	Path   string
	Shape  string
	Key    string           // wrapper key when Shape is shapeWrapped
	Chains []map[string]any // chain objects in file order

	top map[string]any // full top-level object for wrapped files
}

// LoadFile parses one findings file into chain objects. Numbers decode
// as json.Number so integer scores survive a rewrite unchanged.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	f := &File{Path: path}
	switch v := doc.(type) {
	case []any:
		f.Shape = shapeArray
		f.Chains = chainObjects(v)
	case map[string]any:
		for _, key := range wrapperKeys {
			if arr, ok := v[key].([]any); ok {
				f.Shape = shapeWrapped
				f.Key = key
				f.top = v
				f.Chains = chainObjects(arr)
				return f, nil
			}
		}
		f.Shape = shapeSingle
		f.Chains = []map[string]any{v}
	default:
		return nil, fmt.Errorf("parse %s: top-level value is neither array nor object", path)
	}
	return f, nil
}

// chainObjects keeps array elements as maps. A non-object element
// becomes an empty chain, which the validator then fails with its
// missing required fields rather than dropping it silently.
func chainObjects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		} else {
			out = append(out, map[string]any{})
		}
	}
	return out
}

// LoadDir loads every .json file directly under dir, sorted by name.
// Files that do not parse are reported back as warnings, one per
// skipped file; a missing directory yields no files and no error.
func LoadDir(dir string) ([]*File, []string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read findings dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var files []*File
	var warnings []string
	for _, name := range names {
		f, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		files = append(files, f)
	}
	return files, warnings, nil
}

// ChainID names one chain for reporting: its id field when set,
// otherwise file#position.
func (f *File) ChainID(i int) string {
	if i >= 0 && i < len(f.Chains) {
		if id, ok := f.Chains[i]["id"].(string); ok && id != "" {
			return id
		}
	}
	return fmt.Sprintf("%s#%d", filepath.Base(f.Path), i+1)
}

// Save writes the file back in its original shape. Map keys marshal
// sorted, so key order is normalized but every field survives.
func (f *File) Save() error {
	var doc any
	switch f.Shape {
	case shapeArray:
		doc = f.Chains
	case shapeWrapped:
		arr := make([]any, len(f.Chains))
		for i, c := range f.Chains {
			arr[i] = c
		}
		f.top[f.Key] = arr
		doc = f.top
	case shapeSingle:
		doc = f.Chains[0]
	default:
		return fmt.Errorf("save %s: unknown shape %q", f.Path, f.Shape)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", f.Path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	return nil
}
