// Package configmerge reconciles JSON configuration shipped with a template
// against a file the user may already have. Merging is pure: reading happens
// here, writing is left to the caller.
package configmerge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/maps"
)

// Merge deep-merges incoming into existing and returns a new document.
// Nested objects present on both sides are merged recursively; any other
// conflict is won by incoming. Neither argument is modified.
func Merge(existing, incoming map[string]any) map[string]any {
	out := maps.Copy(existing)
	if out == nil {
		out = map[string]any{}
	}
	maps.Merge(maps.Copy(incoming), out)
	return out
}

// MergeFile merges incoming into the JSON object stored at path.
// A missing, unreadable, or malformed file is treated as absent and incoming
// is returned unchanged.
func MergeFile(path string, incoming map[string]any) map[string]any {
	existing, err := ReadFile(path)
	if err != nil {
		return incoming
	}
	return Merge(existing, incoming)
}

// ReadFile decodes the JSON object stored at path.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes data as a JSON object. Arrays, scalars and invalid JSON are errors.
// Numbers are kept as json.Number so WriteFile reproduces them exactly.
func Parse(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JSON object: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parsing JSON object: document is null")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing JSON object: unexpected data after top-level value")
	}
	return doc, nil
}

// WriteFile persists doc at path as indented JSON with a trailing newline,
// creating parent directories as needed.
func WriteFile(path string, doc map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
