package schema

import (
	"fmt"
	"regexp"
)

// MinConfidence is the floor below which a candidate header is never accepted
// for a field. Calibrated against real AP/payroll exports; do not lower it to
// make a stubborn spreadsheet map.
const MinConfidence = 0.5

// Rule confidence by kind. Exact header names are trusted fully, synonyms
// almost fully, free patterns only enough to clear the floor with room.
const (
	confExact   = 1.0
	confSynonym = 0.9
	confPattern = 0.7
)

// Rule priority breaks confidence ties: exact > synonym > pattern.
const (
	prioExact   = 3
	prioSynonym = 2
	prioPattern = 1
)

// FieldMatch records how one semantic field was bound to a source column.
type FieldMatch struct {
	Field      string  `json:"field"`
	Header     string  `json:"header"`
	Column     int     `json:"column"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback"` // matched by pattern, not by name
}

// ColumnMapping binds semantic field IDs to source columns for one batch.
// A source column satisfies at most one field. The mapping is created once by
// DetectColumns and read-only afterward.
type ColumnMapping struct {
	Domain  string                `json:"domain"`
	Matches map[string]FieldMatch `json:"matches"`
}

// Column returns the source column index for a field, if it was detected.
func (m *ColumnMapping) Column(field string) (int, bool) {
	match, ok := m.Matches[field]
	if !ok {
		return 0, false
	}
	return match.Column, true
}

// Has reports whether the field was detected at all. Downstream checks must
// treat a missing optional field as "not available", never as zero or empty.
func (m *ColumnMapping) Has(field string) bool {
	_, ok := m.Matches[field]
	return ok
}

// DetectionWarning flags a non-fatal oddity found while mapping headers, such
// as an ambiguous or low-confidence match.
type DetectionWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type candidate struct {
	column     int
	confidence float64
	priority   int
}

// DetectColumns maps a raw header row onto the catalog's semantic fields.
//
// Fields claim headers in catalog order; a header claimed by an earlier field
// is unavailable to later ones. For each field the highest-scoring unclaimed
// header wins, ties broken by rule priority then by original column position.
// Unmapped required fields make the whole run fail with a
// MissingRequiredFieldError listing every one of them.
func DetectColumns(headers []string, cat *Catalog) (*ColumnMapping, []DetectionWarning, error) {
	if err := cat.Validate(); err != nil {
		return nil, nil, err
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	mapping := &ColumnMapping{
		Domain:  cat.Domain,
		Matches: make(map[string]FieldMatch),
	}
	var warnings []DetectionWarning
	claimed := make(map[int]bool)

	for _, field := range cat.Fields {
		best, runnerUp := bestCandidate(field, normalized, claimed)
		if best == nil {
			continue
		}

		if runnerUp != nil && runnerUp.confidence == best.confidence && runnerUp.priority == best.priority {
			warnings = append(warnings, DetectionWarning{
				Field: field.ID,
				Message: fmt.Sprintf("ambiguous match: headers %q and %q both score %.2f; using earlier column",
					headers[best.column], headers[runnerUp.column], best.confidence),
			})
		}
		if best.confidence < confPattern {
			warnings = append(warnings, DetectionWarning{
				Field:   field.ID,
				Message: fmt.Sprintf("low-confidence match: header %q accepted at %.2f", headers[best.column], best.confidence),
			})
		}

		mapping.Matches[field.ID] = FieldMatch{
			Field:      field.ID,
			Header:     headers[best.column],
			Column:     best.column,
			Confidence: best.confidence,
			Fallback:   best.priority == prioPattern,
		}
		claimed[best.column] = true
	}

	var missing []string
	for _, id := range cat.RequiredFields() {
		if !mapping.Has(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, warnings, &MissingRequiredFieldError{Domain: cat.Domain, Fields: missing}
	}

	return mapping, warnings, nil
}

// bestCandidate scores every unclaimed header against the field's rules and
// returns the winner plus the next-best distinct column (for ambiguity
// reporting). Headers are scanned in column order so earlier columns win ties.
func bestCandidate(field FieldSpec, normalized []string, claimed map[int]bool) (*candidate, *candidate) {
	var best, second *candidate

	for col, header := range normalized {
		if claimed[col] || header == "" {
			continue
		}
		conf, prio := scoreHeader(field, header)
		if conf < MinConfidence {
			continue
		}
		c := &candidate{column: col, confidence: conf, priority: prio}
		if best == nil || c.confidence > best.confidence ||
			(c.confidence == best.confidence && c.priority > best.priority) {
			second = best
			best = c
		} else if second == nil || c.confidence > second.confidence {
			second = c
		}
	}
	return best, second
}

// scoreHeader evaluates a single normalized header against the field's rule
// list and returns the best rule's confidence and priority.
func scoreHeader(field FieldSpec, header string) (float64, int) {
	for _, name := range field.Names {
		if NormalizeHeader(name) == header {
			return confExact, prioExact
		}
	}
	for _, syn := range field.Synonyms {
		if NormalizeHeader(syn) == header {
			return confSynonym, prioSynonym
		}
	}
	for _, pattern := range field.Patterns {
		// Validate() already rejected bad patterns.
		re := regexp.MustCompile(pattern)
		if re.MatchString(header) {
			return confPattern, prioPattern
		}
	}
	return 0, 0
}
