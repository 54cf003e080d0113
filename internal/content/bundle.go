package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/mod/semver"
)

// BundleMajor is the bundle format major version this build understands.
const BundleMajor = "v1"

// ErrIncompatibleBundle is returned for bundles with a missing, invalid, or
// unsupported version.
var ErrIncompatibleBundle = errors.New("content: incompatible bundle version")

//go:embed seed/bundle.json
var seedFS embed.FS

// Bundle is the serialized form of the whole content graph.
type Bundle struct {
	Version   string         `json:"version"`
	Lessons   []Lesson       `json:"lessons"`
	Grammar   []GrammarPoint `json:"grammar"`
	Vocab     []Vocab        `json:"vocab"`
	Packs     []VocabPack    `json:"packs"`
	Sentences []Sentence     `json:"sentences"`
}

// CheckVersion verifies the bundle version is valid semver with a
// supported major version. A missing "v" prefix is tolerated.
func (b *Bundle) CheckVersion() error {
	v := b.Version
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q", ErrIncompatibleBundle, b.Version)
	}
	if semver.Major(v) != BundleMajor {
		return fmt.Errorf("%w: %s (want %s.x)", ErrIncompatibleBundle, b.Version, BundleMajor)
	}
	return nil
}

// DecodeBundle reads and validates a bundle.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := b.CheckVersion(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadBundleFile reads a bundle from disk.
func LoadBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()
	return DecodeBundle(f)
}

// SeedBundle returns the bundle embedded in the binary.
func SeedBundle() (*Bundle, error) {
	f, err := seedFS.Open("seed/bundle.json")
	if err != nil {
		return nil, fmt.Errorf("open seed bundle: %w", err)
	}
	defer f.Close()
	return DecodeBundle(f)
}

// WriteFile writes the bundle as indented JSON.
func (b *Bundle) WriteFile(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}

// Load returns a Catalog from path, or from the seed bundle when path is
// empty.
func Load(path string) (*Catalog, error) {
	var (
		b   *Bundle
		err error
	)
	if path == "" {
		b, err = SeedBundle()
	} else {
		b, err = LoadBundleFile(path)
	}
	if err != nil {
		return nil, err
	}
	return NewCatalog(b), nil
}
