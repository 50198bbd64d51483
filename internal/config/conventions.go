package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"cqlmap/internal/compiler"
)

// conventionsFile is the YAML layout of a conventions file. Keys that are
// absent keep the built-in value.
type conventionsFile struct {
	InsertPrefixes    *[]string `yaml:"insertPrefixes"`
	UpdatePrefixes    *[]string `yaml:"updatePrefixes"`
	DeletePrefixes    *[]string `yaml:"deletePrefixes"`
	IfExistsSuffix    *string   `yaml:"ifExistsSuffix"`
	IfNotExistsSuffix *string   `yaml:"ifNotExistsSuffix"`
	CaseSensitive     *bool     `yaml:"caseSensitive"`
}

// LoadConventions reads mutation naming conventions from a YAML file.
// An empty path or a missing file yields compiler.DefaultConventions().
// Unknown keys are rejected.
func LoadConventions(path string) (compiler.Conventions, error) {
	conv := compiler.DefaultConventions()
	if path == "" {
		return conv, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return conv, nil
		}
		return compiler.Conventions{}, fmt.Errorf("read %s: %w", path, err)
	}

	var file conventionsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return compiler.Conventions{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if file.InsertPrefixes != nil {
		conv.InsertPrefixes = *file.InsertPrefixes
	}
	if file.UpdatePrefixes != nil {
		conv.UpdatePrefixes = *file.UpdatePrefixes
	}
	if file.DeletePrefixes != nil {
		conv.DeletePrefixes = *file.DeletePrefixes
	}
	if file.IfExistsSuffix != nil {
		conv.IfExistsSuffix = *file.IfExistsSuffix
	}
	if file.IfNotExistsSuffix != nil {
		conv.IfNotExistsSuffix = *file.IfNotExistsSuffix
	}
	if file.CaseSensitive != nil {
		conv.CaseSensitive = *file.CaseSensitive
	}
	return conv, nil
}
