package reqif

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// StandardFields are the fields every profile knows about, in display order.
var StandardFields = []string{"id", "title", "description", "type", "priority", "status"}

// IsStandardField reports whether name is one of StandardFields.
func IsStandardField(name string) bool {
	for _, f := range StandardFields {
		if f == name {
			return true
		}
	}
	return false
}

// fieldAliases lists, per standard field, the keywords tried in order
// against attribute names when no attribute carries the field's own name.
var fieldAliases = map[string][]string{
	"title":       {"title", "name", "heading", "caption", "summary"},
	"description": {"description", "detail", "content", "specification", "rationale", "text"},
	"priority":    {"priority", "importance", "criticality", "level"},
	"status":      {"status", "state", "phase", "condition"},
	"type":        {"type", "category", "kind", "class"},
}

// Requirement is one parsed SPEC-OBJECT.
type Requirement struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Attributes map[string]Value `json:"attributes"`
	LongName   string           `json:"long_name,omitempty"`
	LastChange string           `json:"last_change,omitempty"`
	TypeName   string           `json:"type_name,omitempty"`
}

// AttributeNames returns the attribute keys in sorted order.
func (r *Requirement) AttributeNames() []string {
	names := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Field resolves a standard field or attribute name to a value. Lookup order:
// the id, an exact attribute key, a case-insensitive key, then for standard
// fields the alias keywords, the SPEC-OBJECT-TYPE name for "type" and the
// body text for "description". "text" and "content" also resolve to the body.
func (r *Requirement) Field(name string) (Value, bool) {
	if r == nil {
		return Missing(), false
	}
	lname := strings.ToLower(strings.TrimSpace(name))
	if lname == "id" {
		return TextValue(r.ID), true
	}
	if v, ok := r.Attributes[name]; ok {
		return v, true
	}
	keys := r.AttributeNames()
	for _, k := range keys {
		if strings.ToLower(k) == lname {
			return r.Attributes[k], true
		}
	}

	if aliases, ok := fieldAliases[lname]; ok {
		for _, kw := range aliases {
			for _, k := range keys {
				if IsXMLAttributeKey(k) {
					continue
				}
				if endsWord(strings.ToLower(k), kw) {
					return r.Attributes[k], true
				}
			}
		}
	}

	switch lname {
	case "title":
		if r.LongName != "" {
			return TextValue(r.LongName), true
		}
	case "type":
		if r.TypeName != "" {
			return TextValue(r.TypeName), true
		}
	case "description", "text", "content":
		if r.Text != "" {
			return TextValue(r.Text), true
		}
	}
	return Missing(), false
}

// endsWord reports whether kw occurs in name where the next character is
// not a letter, so "ReqStatus" matches "status" but "Statement" does not
// match "state".
func endsWord(name, kw string) bool {
	for off := 0; ; {
		i := strings.Index(name[off:], kw)
		if i < 0 {
			return false
		}
		end := off + i + len(kw)
		if end == len(name) {
			return true
		}
		if r, _ := utf8.DecodeRuneInString(name[end:]); !unicode.IsLetter(r) {
			return true
		}
		off += i + 1
	}
}

// IsXMLAttributeKey reports keys copied from plain XML attributes of the
// SPEC-OBJECT element (LONG-NAME, LAST-CHANGE, DESC). They are skipped by the
// alias scan so that LONG-NAME does not shadow a real "Name" definition.
func IsXMLAttributeKey(k string) bool {
	if k == "" {
		return false
	}
	for _, c := range k {
		if (c < 'A' || c > 'Z') && c != '-' {
			return false
		}
	}
	return true
}

// Stats counts what the parser saw.
type Stats struct {
	TotalElements   int `json:"total_elements"`
	SpecObjectCount int `json:"spec_object_count"`
	AttributeCount  int `json:"attribute_count"`
}

// ParsedDocument is the read-only result of one parse.
type ParsedDocument struct {
	Source       string                  `json:"source,omitempty"`
	Requirements map[string]*Requirement `json:"requirements"`
	Metadata     map[string]string       `json:"metadata"`
	Warnings     []string                `json:"warnings"`
	Errors       []string                `json:"errors"`
	Stats        Stats                   `json:"stats"`
}

func newDocument(source string) *ParsedDocument {
	return &ParsedDocument{
		Source:       source,
		Requirements: make(map[string]*Requirement),
		Metadata:     make(map[string]string),
		Warnings:     []string{},
		Errors:       []string{},
	}
}

// NewDocument builds a document from already constructed requirements.
// Duplicate ids keep the first occurrence.
func NewDocument(source string, reqs ...*Requirement) *ParsedDocument {
	doc := newDocument(source)
	for _, r := range reqs {
		if _, dup := doc.Requirements[r.ID]; dup {
			continue
		}
		doc.Requirements[r.ID] = r
		doc.Stats.SpecObjectCount++
		doc.Stats.AttributeCount += len(r.Attributes)
	}
	return doc
}

// IDs returns the requirement ids in sorted order.
func (d *ParsedDocument) IDs() []string {
	ids := make([]string, 0, len(d.Requirements))
	for id := range d.Requirements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns the requirements sorted by id.
func (d *ParsedDocument) List() []*Requirement {
	out := make([]*Requirement, 0, len(d.Requirements))
	for _, id := range d.IDs() {
		out = append(out, d.Requirements[id])
	}
	return out
}

func (d *ParsedDocument) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

func (d *ParsedDocument) errorf(format string, args ...any) {
	d.Errors = append(d.Errors, fmt.Sprintf(format, args...))
}
