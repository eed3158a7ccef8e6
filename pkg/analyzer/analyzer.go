// Package analyzer inspects requirement collections to discover which
// attributes exist, how well populated they are, what kind of values they
// hold, and how much weight a comparison should give them.
package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

const (
	sampleLimit  = 100
	previewLimit = 5
)

// AttributeStats describes one field across the analyzed requirements.
type AttributeStats struct {
	Name             string            `json:"name"`
	DisplayName      string            `json:"display_name"`
	FieldType        profile.FieldType `json:"field_type"`
	DataType         profile.DataType  `json:"data_type"`
	Coverage         float64           `json:"coverage"`
	UniqueValueCount int               `json:"unique_value_count"`
	TotalCount       int               `json:"total_count"`
	SampleValues     []string          `json:"sample_values"`
	AvgLength        float64           `json:"avg_length"`
	MaxLength        int               `json:"max_length"`
	IsNullable       bool              `json:"is_nullable"`
	SuggestedWeight  float64           `json:"suggested_weight"`
}

var standardDisplayNames = map[string]string{
	"id":          "Requirement ID",
	"title":       "Title",
	"description": "Description",
	"type":        "Type",
	"priority":    "Priority",
	"status":      "Status",
}

// Analyze merges the given collections and returns statistics per field.
// Standard fields are resolved through reqif.Requirement.Field; every key of
// the attribute bag is reported under its own name as well.
func Analyze(collections ...[]*reqif.Requirement) map[string]*AttributeStats {
	var reqs []*reqif.Requirement
	for _, c := range collections {
		reqs = append(reqs, c...)
	}
	if len(reqs) == 0 {
		return map[string]*AttributeStats{}
	}
	logf("", "analyzing %d requirements", len(reqs))

	values := collect(reqs)
	out := make(map[string]*AttributeStats, len(values))
	for name, vals := range values {
		out[name] = analyzeField(name, vals, len(reqs))
	}
	logf("", "found %d attributes", len(out))
	return out
}

// AnalyzeDocuments is Analyze over the requirements of parsed documents, in
// document order.
func AnalyzeDocuments(docs ...*reqif.ParsedDocument) map[string]*AttributeStats {
	var collections [][]*reqif.Requirement
	for _, d := range docs {
		if d != nil {
			collections = append(collections, d.List())
		}
	}
	return Analyze(collections...)
}

// collect gathers one trimmed value per requirement per field; absent
// values are recorded as "".
func collect(reqs []*reqif.Requirement) map[string][]string {
	keys := make(map[string]bool)
	for _, r := range reqs {
		for k := range r.Attributes {
			if !reqif.IsStandardField(k) {
				keys[k] = true
			}
		}
	}
	values := make(map[string][]string, len(keys)+len(reqif.StandardFields))
	for _, r := range reqs {
		for _, f := range reqif.StandardFields {
			v, _ := r.Field(f)
			values[f] = append(values[f], strings.TrimSpace(v.String()))
		}
		for k := range keys {
			values[k] = append(values[k], strings.TrimSpace(r.Attributes[k].String()))
		}
	}
	return values
}

func classify(name string) (profile.FieldType, string) {
	if display, ok := standardDisplayNames[name]; ok {
		return profile.FieldStandard, display
	}
	if reqif.IsXMLAttributeKey(name) {
		return profile.FieldCustom, "Raw: " + profile.DisplayNameFor(strings.ToLower(name))
	}
	return profile.FieldAttribute, profile.DisplayNameFor(name)
}

func analyzeField(name string, values []string, total int) *AttributeStats {
	fieldType, display := classify(name)

	var nonEmpty []string
	for _, v := range values {
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}

	st := &AttributeStats{
		Name:        name,
		DisplayName: display,
		FieldType:   fieldType,
		DataType:    inferDataType(nonEmpty),
		TotalCount:  total,
		IsNullable:  len(nonEmpty) < len(values),
	}
	if total > 0 {
		st.Coverage = float64(len(nonEmpty)) / float64(total)
	}

	seen := make(map[string]bool)
	sum := 0
	for _, v := range nonEmpty {
		n := utf8.RuneCountInString(v)
		sum += n
		if n > st.MaxLength {
			st.MaxLength = n
		}
		if !seen[v] {
			seen[v] = true
			if len(st.SampleValues) < previewLimit {
				st.SampleValues = append(st.SampleValues, v)
			}
		}
	}
	st.UniqueValueCount = len(seen)
	if len(nonEmpty) > 0 {
		st.AvgLength = float64(sum) / float64(len(nonEmpty))
	}
	st.SuggestedWeight = suggestWeight(st)
	return st
}

var (
	numberPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	datePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
		regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
	}
	booleanTokens = map[string]bool{
		"true": true, "false": true, "yes": true, "no": true,
		"1": true, "0": true, "on": true, "off": true,
	}
)

// typeRule is one row of the inference table; rows are tried in order and
// the first match wins.
type typeRule struct {
	dataType profile.DataType
	match    func(sample []string) bool
}

var typeRules = []typeRule{
	{profile.DataBoolean, share(0.8, func(v string) bool { return booleanTokens[strings.ToLower(v)] })},
	{profile.DataNumber, share(0.8, numberPattern.MatchString)},
	{profile.DataDate, share(0.6, containsDate)},
	{profile.DataEnum, lowCardinality},
}

func share(min float64, pred func(string) bool) func([]string) bool {
	return func(sample []string) bool {
		hits := 0
		for _, v := range sample {
			if pred(v) {
				hits++
			}
		}
		return float64(hits)/float64(len(sample)) >= min
	}
}

func containsDate(v string) bool {
	for _, p := range datePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

func lowCardinality(sample []string) bool {
	unique := make(map[string]bool)
	for _, v := range sample {
		unique[v] = true
	}
	return len(unique) <= 10 && len(sample) > 3*len(unique)
}

func inferDataType(nonEmpty []string) profile.DataType {
	if len(nonEmpty) == 0 {
		return profile.DataText
	}
	sample := nonEmpty
	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit]
	}
	for _, rule := range typeRules {
		if rule.match(sample) {
			return rule.dataType
		}
	}
	return profile.DataText
}

var standardBonus = map[string]float64{
	"id":          0.3,
	"title":       0.3,
	"description": 0.4,
	"type":        0.2,
	"priority":    0.2,
	"status":      0.2,
}

var importantKeywords = []string{
	"safety", "critical", "security", "risk", "priority",
	"verification", "validation", "compliance", "regulatory",
}

func suggestWeight(st *AttributeStats) float64 {
	w := 0.5 + st.Coverage*0.3
	if st.FieldType == profile.FieldStandard {
		w += standardBonus[st.Name]
	}
	if containsAny(st.Name, importantKeywords) {
		w += 0.2
	}
	switch {
	case st.DataType == profile.DataEnum && st.UniqueValueCount <= 5:
		w += 0.1
	case st.DataType == profile.DataBoolean:
		w += 0.1
	}
	if st.Coverage < 0.1 {
		w *= 0.5
	}
	if float64(st.UniqueValueCount) > float64(st.TotalCount)*0.8 {
		w *= 0.3
	}
	return clamp01(w)
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sortedNames returns the stat names in a stable order.
func sortedNames(stats map[string]*AttributeStats) []string {
	names := make([]string, 0, len(stats))
	for n := range stats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
