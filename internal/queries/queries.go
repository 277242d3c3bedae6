// Package queries holds the SQL templates the API runs.
//
// Templates are declared in a JSON document mapping resource to variant to a
// SQL string. Each string carries exactly one "{}" placeholder, replaced by
// the column list at execution time, and zero or more "?" parameters. The
// document is read once at startup and the resulting Store is never
// modified, so it can be shared by all requests without locking.
package queries

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Placeholder is substituted with the column list when a template is built.
const Placeholder = "{}"

// ErrTemplateNotFound is returned when a (resource, variant) pair is not in the store.
var ErrTemplateNotFound = errors.New("query template not found")

//go:embed queries.json
var defaultTemplates []byte

// Resource names
const (
	ResourceUsers  = "users"
	ResourceSkills = "skills"
)

// Variant names
const (
	VariantBase      = "base"
	VariantType      = "type"
	VariantSkill     = "skill"
	VariantTypeSkill = "type-skill"
	VariantID        = "id"
	VariantName      = "name"
	VariantForUser   = "for-user"
)

// Key identifies a template
type Key struct {
	Resource string
	Variant  string
}

func (k Key) String() string {
	return k.Resource + "/" + k.Variant
}

// Required lists every template the API needs together with the number of
// positional parameters it must declare.
var Required = map[Key]int{
	{ResourceUsers, VariantBase}:      0,
	{ResourceUsers, VariantType}:      1,
	{ResourceUsers, VariantSkill}:     1,
	{ResourceUsers, VariantTypeSkill}: 2,
	{ResourceUsers, VariantID}:        1,
	{ResourceSkills, VariantBase}:     0,
	{ResourceSkills, VariantForUser}:  1,
	{ResourceSkills, VariantID}:       1,
	{ResourceSkills, VariantName}:     1,
}

// Store is an immutable set of templates
type Store struct {
	templates map[string]map[string]string
}

// Default returns the store built from the embedded template document
func Default() (*Store, error) {
	return Load(bytes.NewReader(defaultTemplates))
}

// LoadFile reads a template document from path
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query templates %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a template document
func Load(r io.Reader) (*Store, error) {
	var templates map[string]map[string]string
	if err := json.NewDecoder(r).Decode(&templates); err != nil {
		return nil, fmt.Errorf("failed to decode query templates: %w", err)
	}
	if templates == nil {
		templates = map[string]map[string]string{}
	}
	return &Store{templates: templates}, nil
}

// Resolve returns the raw template for resource and variant
func (s *Store) Resolve(resource, variant string) (string, error) {
	variants, ok := s.templates[resource]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, resource, variant)
	}
	tmpl, ok := variants[variant]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, resource, variant)
	}
	return tmpl, nil
}

// Build resolves a template and substitutes the column list for the placeholder
func (s *Store) Build(resource, variant, columns string) (string, error) {
	tmpl, err := s.Resolve(resource, variant)
	if err != nil {
		return "", err
	}
	return strings.Replace(tmpl, Placeholder, columns, 1), nil
}

// Keys returns every template key in a stable order
func (s *Store) Keys() []Key {
	var keys []Key
	for resource, variants := range s.templates {
		for variant := range variants {
			keys = append(keys, Key{Resource: resource, Variant: variant})
		}
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// Validate checks that every required template exists, has exactly one
// placeholder and declares the expected number of parameters. Unknown extra
// templates are allowed.
func (s *Store) Validate() error {
	var errs []error

	required := make([]Key, 0, len(Required))
	for key := range Required {
		required = append(required, key)
	}
	slices.SortFunc(required, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})

	for _, key := range required {
		tmpl, err := s.Resolve(key.Resource, key.Variant)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n := strings.Count(tmpl, Placeholder); n != 1 {
			errs = append(errs, fmt.Errorf("template %s: expected 1 column placeholder, found %d", key, n))
		}
		if want, got := Required[key], strings.Count(tmpl, "?"); want != got {
			errs = append(errs, fmt.Errorf("template %s: expected %d parameters, found %d", key, want, got))
		}
	}

	return errors.Join(errs...)
}
