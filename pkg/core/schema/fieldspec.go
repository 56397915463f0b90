// Package schema defines the semantic field catalog for a ledger domain and
// maps raw spreadsheet headers onto it. Catalogs are configuration data: each
// domain (accounts payable, payroll, journal entries) ships its own YAML
// catalog, and the detection logic stays domain-agnostic.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ValueKind declares how a field's raw cells should be coerced downstream.
type ValueKind string

const (
	KindText       ValueKind = "text"
	KindNumber     ValueKind = "number"
	KindDate       ValueKind = "date"
	KindIdentifier ValueKind = "identifier"
)

// FieldSpec describes one semantic field and the rules that recognize it in a
// header row. Rule kinds are ordered by priority: exact names beat synonyms,
// synonyms beat patterns.
type FieldSpec struct {
	ID       string    `json:"id" yaml:"id"`
	Label    string    `json:"label" yaml:"label"`
	Required bool      `json:"required" yaml:"required"`
	Kind     ValueKind `json:"kind" yaml:"kind"`
	Names    []string  `json:"names" yaml:"names"`
	Synonyms []string  `json:"synonyms,omitempty" yaml:"synonyms"`
	Patterns []string  `json:"patterns,omitempty" yaml:"patterns"`
}

// Catalog is the full field table for one ledger domain. Field order matters:
// the detector claims headers in catalog order, so earlier fields win contested
// headers.
type Catalog struct {
	Domain string      `json:"domain" yaml:"domain"`
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

// Field returns the spec for the given field ID.
func (c *Catalog) Field(id string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// RequiredFields returns the IDs of all required fields in catalog order.
func (c *Catalog) RequiredFields() []string {
	var ids []string
	for _, f := range c.Fields {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// Validate checks the catalog for structural problems before any detection
// runs. A malformed catalog is a ConfigurationError, never a per-row issue.
func (c *Catalog) Validate() error {
	if c.Domain == "" {
		return &ConfigurationError{Reason: "catalog has no domain name"}
	}
	if len(c.Fields) == 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("catalog %q has no fields", c.Domain)}
	}

	seen := make(map[string]bool)
	for _, f := range c.Fields {
		if f.ID == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("catalog %q contains a field with no id", c.Domain)}
		}
		if seen[f.ID] {
			return &ConfigurationError{Reason: fmt.Sprintf("catalog %q declares field %q twice", c.Domain, f.ID)}
		}
		seen[f.ID] = true

		switch f.Kind {
		case KindText, KindNumber, KindDate, KindIdentifier:
		default:
			return &ConfigurationError{Reason: fmt.Sprintf("field %q has unknown kind %q", f.ID, f.Kind)}
		}

		if len(f.Names)+len(f.Synonyms)+len(f.Patterns) == 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("field %q has no matching rules", f.ID)}
		}
		for _, p := range f.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return &ConfigurationError{Reason: fmt.Sprintf("field %q has invalid pattern %q: %v", f.ID, p, err)}
			}
		}
	}
	return nil
}

var headerSeparators = regexp.MustCompile(`[\s_\-./]+`)

// NormalizeHeader folds a raw header into the canonical form used for rule
// matching: lower case, separators collapsed to single spaces.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = headerSeparators.ReplaceAllString(h, " ")
	return strings.TrimSpace(h)
}
