// Package profile models comparison profiles: which requirement attributes
// take part in a comparison, how much each one weighs, and the global
// normalization rules applied before values are compared.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// FieldType classifies where an attribute comes from.
type FieldType string

const (
	FieldStandard  FieldType = "standard"
	FieldAttribute FieldType = "attribute"
	FieldCustom    FieldType = "custom"
)

// DataType is the inferred or declared type of an attribute's values.
type DataType string

const (
	DataText    DataType = "text"
	DataNumber  DataType = "number"
	DataDate    DataType = "date"
	DataBoolean DataType = "boolean"
	DataEnum    DataType = "enum"
)

const (
	DefaultThreshold = 0.9
	DefaultVersion   = "1.0"
)

var (
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrStandardField    = errors.New("standard fields cannot be removed")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// ValidationError carries the issues found by Validate. It matches
// ErrInvalidProfile under errors.Is.
type ValidationError struct {
	Profile string
	Issues  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile %q is invalid: %s", e.Profile, strings.Join(e.Issues, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidProfile }

var now = time.Now

func timestamp() string { return now().UTC().Format(time.RFC3339) }

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// AttributeConfig is the per-attribute comparison setting.
type AttributeConfig struct {
	Name        string    `json:"name" yaml:"name"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Enabled     bool      `json:"enabled" yaml:"enabled"`
	Weight      float64   `json:"weight" yaml:"weight"`
	FieldType   FieldType `json:"field_type" yaml:"field_type"`
	DataType    DataType  `json:"data_type" yaml:"data_type"`
	Coverage    float64   `json:"coverage" yaml:"coverage"`
}

// SetWeight stores w clamped to [0,1].
func (a *AttributeConfig) SetWeight(w float64) { a.Weight = clamp01(w) }

// DisplayNameFor turns an attribute key into a title-cased label.
func DisplayNameFor(name string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var standardDisplayNames = map[string]string{
	"id":          "Requirement ID",
	"title":       "Title",
	"description": "Description",
	"type":        "Type",
	"priority":    "Priority",
	"status":      "Status",
}

// Profile is a named, serializable comparison configuration. A Profile must
// not be mutated while a comparison reads it; clone it per worker instead.
type Profile struct {
	Name                string                      `json:"name" yaml:"name"`
	Description         string                      `json:"description" yaml:"description"`
	CreatedDate         string                      `json:"created_date" yaml:"created_date"`
	ModifiedDate        string                      `json:"modified_date" yaml:"modified_date"`
	Version             string                      `json:"version" yaml:"version"`
	Attributes          map[string]*AttributeConfig `json:"attributes" yaml:"attributes"`
	SimilarityThreshold float64                     `json:"similarity_threshold" yaml:"similarity_threshold"`
	IgnoreCase          bool                        `json:"ignore_case" yaml:"ignore_case"`
	IgnoreWhitespace    bool                        `json:"ignore_whitespace" yaml:"ignore_whitespace"`
	TreatEmptyAsNull    bool                        `json:"treat_empty_as_null" yaml:"treat_empty_as_null"`
	UseFuzzyMatching    bool                        `json:"use_fuzzy_matching" yaml:"use_fuzzy_matching"`
	IsDefault           bool                        `json:"is_default" yaml:"is_default"`
	IsSystemProfile     bool                        `json:"is_system_profile" yaml:"is_system_profile"`
	Tags                []string                    `json:"tags" yaml:"tags"`
}

// New returns a profile with default rules and every standard field enabled
// at full weight.
func New(name string) *Profile {
	ts := timestamp()
	p := &Profile{
		Name:         name,
		CreatedDate:  ts,
		ModifiedDate: ts,
		Version:      DefaultVersion,
		Attributes:   make(map[string]*AttributeConfig),
		Tags:         []string{},
	}
	p.resetRules()
	for _, f := range reqif.StandardFields {
		p.Attributes[f] = &AttributeConfig{
			Name:        f,
			DisplayName: standardDisplayNames[f],
			Enabled:     true,
			Weight:      1.0,
			FieldType:   FieldStandard,
			DataType:    DataText,
			Coverage:    1.0,
		}
	}
	return p
}

func (p *Profile) resetRules() {
	p.SimilarityThreshold = DefaultThreshold
	p.IgnoreCase = true
	p.IgnoreWhitespace = true
	p.TreatEmptyAsNull = true
	p.UseFuzzyMatching = false
}

func (p *Profile) touch() { p.ModifiedDate = timestamp() }

// AddAttribute adds cfg, or replaces the attribute of the same name. The
// stored weight is clamped and a standard field keeps its standard type.
func (p *Profile) AddAttribute(cfg AttributeConfig) error {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return errors.New("attribute name is empty")
	}
	cfg.Name = name
	if cfg.DisplayName == "" {
		cfg.DisplayName = DisplayNameFor(name)
	}
	if cfg.FieldType == "" {
		cfg.FieldType = FieldAttribute
	}
	if cfg.DataType == "" {
		cfg.DataType = DataText
	}
	if existing, ok := p.Attributes[name]; ok && existing.FieldType == FieldStandard {
		cfg.FieldType = FieldStandard
	}
	cfg.Weight = clamp01(cfg.Weight)
	cfg.Coverage = clamp01(cfg.Coverage)
	if p.Attributes == nil {
		p.Attributes = make(map[string]*AttributeConfig)
	}
	p.Attributes[name] = &cfg
	p.touch()
	return nil
}

// RemoveAttribute deletes a non-standard attribute.
func (p *Profile) RemoveAttribute(name string) error {
	cfg, ok := p.Attributes[name]
	if !ok {
		return errors.Wrapf(ErrUnknownAttribute, "remove %q", name)
	}
	if cfg.FieldType == FieldStandard || reqif.IsStandardField(name) {
		return errors.Wrapf(ErrStandardField, "remove %q", name)
	}
	delete(p.Attributes, name)
	p.touch()
	return nil
}

// SetAttributeEnabled toggles an attribute.
func (p *Profile) SetAttributeEnabled(name string, enabled bool) error {
	cfg, ok := p.Attributes[name]
	if !ok {
		return errors.Wrapf(ErrUnknownAttribute, "enable %q", name)
	}
	cfg.Enabled = enabled
	p.touch()
	return nil
}

// SetAttributeWeight stores a weight clamped to [0,1].
func (p *Profile) SetAttributeWeight(name string, weight float64) error {
	cfg, ok := p.Attributes[name]
	if !ok {
		return errors.Wrapf(ErrUnknownAttribute, "weight %q", name)
	}
	cfg.SetWeight(weight)
	p.touch()
	return nil
}

// SetSimilarityThreshold stores a threshold clamped to [0,1].
func (p *Profile) SetSimilarityThreshold(t float64) {
	p.SimilarityThreshold = clamp01(t)
	p.touch()
}

// NormalizeWeights scales enabled weights so they sum to 1. A zero total is
// left untouched.
func (p *Profile) NormalizeWeights() {
	total := p.TotalWeight()
	if total <= 0 {
		return
	}
	for _, cfg := range p.Attributes {
		if cfg.Enabled {
			cfg.SetWeight(cfg.Weight / total)
		}
	}
	p.touch()
}

// ResetToDefaults sets every weight back to 1, re-enables standard fields and
// restores the default rules. Custom attributes are kept.
func (p *Profile) ResetToDefaults() {
	for _, cfg := range p.Attributes {
		cfg.Weight = 1.0
		if cfg.FieldType == FieldStandard {
			cfg.Enabled = true
		}
	}
	p.resetRules()
	p.touch()
}

// Clone deep-copies the profile under a new name. An empty name yields
// "<name> (Copy)". The clone is never a system or default profile.
func (p *Profile) Clone(newName string) *Profile {
	if newName == "" {
		newName = p.Name + " (Copy)"
	}
	c := p.copy()
	c.Name = newName
	c.IsSystemProfile = false
	c.IsDefault = false
	ts := timestamp()
	c.CreatedDate, c.ModifiedDate = ts, ts
	return c
}

// copy is an exact deep copy.
func (p *Profile) copy() *Profile {
	c := *p
	c.Attributes = make(map[string]*AttributeConfig, len(p.Attributes))
	for k, cfg := range p.Attributes {
		cc := *cfg
		c.Attributes[k] = &cc
	}
	c.Tags = append([]string{}, p.Tags...)
	return &c
}

// Validate lists what keeps the profile from being used. It never mutates.
func (p *Profile) Validate() []string {
	var issues []string
	enabled := 0
	for _, cfg := range p.Attributes {
		if cfg != nil && cfg.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		issues = append(issues, "no attributes are enabled for comparison")
	}
	if p.TotalWeight() <= 0 {
		issues = append(issues, "total weight of enabled attributes is zero")
	}
	if math.IsNaN(p.SimilarityThreshold) || p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		issues = append(issues, "similarity threshold must be between 0.0 and 1.0")
	}
	seen := make(map[string]string, len(p.Attributes))
	for _, key := range p.sortedKeys() {
		cfg := p.Attributes[key]
		if cfg == nil {
			issues = append(issues, fmt.Sprintf("attribute %q has no configuration", key))
			continue
		}
		if cfg.Name != key {
			issues = append(issues, fmt.Sprintf("attribute key %q does not match its name %q", key, cfg.Name))
		}
		if prev, dup := seen[cfg.Name]; dup {
			issues = append(issues, fmt.Sprintf("duplicate attribute name %q under keys %q and %q", cfg.Name, prev, key))
		}
		seen[cfg.Name] = key
	}
	return issues
}

// Check returns a *ValidationError when Validate reports issues.
func (p *Profile) Check() error {
	if p == nil {
		return &ValidationError{Issues: []string{"no profile"}}
	}
	if issues := p.Validate(); len(issues) > 0 {
		return &ValidationError{Profile: p.Name, Issues: issues}
	}
	return nil
}

func (p *Profile) sortedKeys() []string {
	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnabledAttributes returns the enabled attributes, weight 0 included,
// standard fields first in their canonical order, then the rest by name.
func (p *Profile) EnabledAttributes() []*AttributeConfig {
	var out []*AttributeConfig
	for _, f := range reqif.StandardFields {
		if cfg, ok := p.Attributes[f]; ok && cfg.Enabled {
			out = append(out, cfg)
		}
	}
	for _, k := range p.sortedKeys() {
		if reqif.IsStandardField(k) {
			continue
		}
		if cfg := p.Attributes[k]; cfg != nil && cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out
}

// TotalWeight sums the weights of enabled attributes.
func (p *Profile) TotalWeight() float64 {
	total := 0.0
	for _, cfg := range p.Attributes {
		if cfg != nil && cfg.Enabled {
			total += cfg.Weight
		}
	}
	return total
}

// Summary is a compact description used by listings.
type Summary struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	TotalAttributes     int      `json:"total_attributes"`
	EnabledAttributes   int      `json:"enabled_attributes"`
	TotalWeight         float64  `json:"total_weight"`
	SimilarityThreshold float64  `json:"similarity_threshold"`
	IsSystemProfile     bool     `json:"is_system_profile"`
	Tags                []string `json:"tags"`
}

func (p *Profile) Summary() Summary {
	return Summary{
		Name:                p.Name,
		Description:         p.Description,
		TotalAttributes:     len(p.Attributes),
		EnabledAttributes:   len(p.EnabledAttributes()),
		TotalWeight:         p.TotalWeight(),
		SimilarityThreshold: p.SimilarityThreshold,
		IsSystemProfile:     p.IsSystemProfile,
		Tags:                append([]string{}, p.Tags...),
	}
}
