package lang

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTables reads a YAML table definition from path and builds [Tables]
// from it.
//
// Example:
//
//	abbreviations:
//	  np: na przykład
//	symbols:
//	  "%": procent
//	punctuation: ".,-!?:()"
//	roman: {I: 1, V: 5, X: 10}
//	ones: [zero, jeden, …]
func LoadTables(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lang: open tables %q: %w", path, err)
	}
	defer f.Close()

	t, err := LoadTablesFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("lang: parse tables %q: %w", path, err)
	}
	return t, nil
}

// LoadTablesFromReader decodes a YAML table definition from r. Unknown keys
// are rejected so that typos surface at startup.
func LoadTablesFromReader(r io.Reader) (*Tables, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("lang: decode tables yaml: %w", err)
	}
	return New(def)
}
