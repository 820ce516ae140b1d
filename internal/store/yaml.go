package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/betascope/internal/contracts"
)

const yamlVersion = 1

// YAMLStore keeps holdings in a versioned YAML document
type YAMLStore struct {
	path string
}

type yamlDocument struct {
	Version  int                       `yaml:"version"`
	Holdings []contracts.HoldingRecord `yaml:"holdings"`
}

// NewYAMLStore creates a store backed by path
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Path returns the backing file
func (s *YAMLStore) Path() string {
	return s.path
}

// Load reads all holdings in file order
// KnownFields(true): 알 수 없는 필드는 즉시 실패
func (s *YAMLStore) Load(ctx context.Context) ([]contracts.HoldingRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSavedPortfolio
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc yamlDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if doc.Version != yamlVersion {
		return nil, fmt.Errorf("%s: unsupported version %d (want %d)", s.path, doc.Version, yamlVersion)
	}
	if doc.Holdings == nil {
		doc.Holdings = []contracts.HoldingRecord{}
	}
	return doc.Holdings, nil
}

// Save replaces the file with records
func (s *YAMLStore) Save(ctx context.Context, records []contracts.HoldingRecord) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Version: yamlVersion, Holdings: records}); err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}
	return WriteFileAtomic(s.path, buf.Bytes())
}
