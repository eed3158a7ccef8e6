package analyzer

import (
	"fmt"
	"sort"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
)

// DefaultMaxRecommended is the recommendation size used when none is given.
const DefaultMaxRecommended = 8

func rank(stats map[string]*AttributeStats) []*AttributeStats {
	ranked := make([]*AttributeStats, 0, len(stats))
	for _, n := range sortedNames(stats) {
		ranked = append(ranked, stats[n])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].SuggestedWeight*ranked[i].Coverage > ranked[j].SuggestedWeight*ranked[j].Coverage
	})
	return ranked
}

// RecommendedAttributes ranks fields by weight times coverage. Well covered
// standard fields take up to half the slots, then any field covering more
// than 30% of the requirements fills the rest.
func RecommendedAttributes(stats map[string]*AttributeStats, max int) []string {
	if max <= 0 {
		max = DefaultMaxRecommended
	}
	ranked := rank(stats)
	var out []string
	picked := make(map[string]bool)
	for _, st := range ranked {
		if len(out) >= max/2 {
			break
		}
		if st.FieldType == profile.FieldStandard && st.Coverage > 0.5 {
			out = append(out, st.Name)
			picked[st.Name] = true
		}
	}
	for _, st := range ranked {
		if len(out) >= max {
			break
		}
		if !picked[st.Name] && st.Coverage > 0.3 {
			out = append(out, st.Name)
			picked[st.Name] = true
		}
	}
	return out
}

// Suggestion is a candidate profile derived from an analysis.
type Suggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Attributes  []string `json:"attributes"`
	UseCase     string   `json:"use_case"`
}

var (
	safetyKeywords     = []string{"safety", "critical", "risk", "hazard"}
	complianceKeywords = []string{"compliance", "regulatory", "standard", "verification", "validation", "trace"}
)

// SuggestProfiles proposes focused attribute selections. A selection only
// appears when the analysis contains fields it applies to.
func SuggestProfiles(stats map[string]*AttributeStats) []Suggestion {
	names := sortedNames(stats)
	pick := func(keep func(*AttributeStats) bool) []string {
		var out []string
		for _, n := range names {
			if keep(stats[n]) {
				out = append(out, n)
			}
		}
		return out
	}
	wellCoveredStandard := func(st *AttributeStats) bool {
		return st.FieldType == profile.FieldStandard && st.Coverage > 0.5
	}

	var out []Suggestion
	essential := pick(func(st *AttributeStats) bool {
		return st.FieldType == profile.FieldStandard && st.Coverage > 0.8
	})
	if len(essential) > 0 {
		out = append(out, Suggestion{
			Name:        "Essential Fields Only",
			Description: "Compare only essential requirement fields",
			Attributes:  essential,
			UseCase:     "Quick comparison focusing on core requirement data",
		})
	}

	covered := pick(func(st *AttributeStats) bool { return st.Coverage > 0.7 })
	if len(covered) > len(essential) {
		out = append(out, Suggestion{
			Name:        "High Coverage Fields",
			Description: "Compare fields that are present in most requirements",
			Attributes:  covered,
			UseCase:     "Comprehensive comparison of well-populated fields",
		})
	}

	if safety := pick(func(st *AttributeStats) bool { return containsAny(st.Name, safetyKeywords) }); len(safety) > 0 {
		safetyFocus := pick(func(st *AttributeStats) bool {
			return wellCoveredStandard(st) || containsAny(st.Name, safetyKeywords)
		})
		out = append(out, Suggestion{
			Name:        "Safety & Critical Analysis",
			Description: "Focus on safety-critical and risk-related attributes",
			Attributes:  safetyFocus,
			UseCase:     "Safety-critical system requirement analysis",
		})
	}

	if compliance := pick(func(st *AttributeStats) bool { return containsAny(st.Name, complianceKeywords) }); len(compliance) > 0 {
		complianceFocus := pick(func(st *AttributeStats) bool {
			return wellCoveredStandard(st) || containsAny(st.Name, complianceKeywords)
		})
		out = append(out, Suggestion{
			Name:        "Compliance & Traceability",
			Description: "Focus on compliance and traceability attributes",
			Attributes:  complianceFocus,
			UseCase:     "Regulatory compliance and audit preparation",
		})
	}
	return out
}

// ProfileFromAnalysis builds a profile holding exactly the analyzed fields,
// weighted by their suggested weight and enabled when coverage exceeds 30%.
func ProfileFromAnalysis(name string, stats map[string]*AttributeStats) *profile.Profile {
	if name == "" {
		name = "Auto-Generated Profile"
	}
	p := profile.New(name)
	p.Description = fmt.Sprintf("Auto-generated profile based on analysis of %d attributes", len(stats))
	for _, n := range sortedNames(stats) {
		st := stats[n]
		_ = p.AddAttribute(profile.AttributeConfig{
			Name:        st.Name,
			DisplayName: st.DisplayName,
			Enabled:     st.Coverage > 0.3,
			Weight:      st.SuggestedWeight,
			FieldType:   st.FieldType,
			DataType:    st.DataType,
			Coverage:    st.Coverage,
		})
	}
	return p
}

// ProfileFromSuggestion enables exactly the suggested attributes, weighted
// from the analysis.
func ProfileFromSuggestion(s Suggestion, stats map[string]*AttributeStats) *profile.Profile {
	p := ProfileFromAnalysis(s.Name, stats)
	p.Description = s.Description
	want := make(map[string]bool, len(s.Attributes))
	for _, a := range s.Attributes {
		want[a] = true
	}
	for name := range p.Attributes {
		_ = p.SetAttributeEnabled(name, want[name])
	}
	return p
}

// Summary condenses an analysis into counts.
type Summary struct {
	TotalAttributes   int                       `json:"total_attributes"`
	ByFieldType       map[profile.FieldType]int `json:"by_type"`
	ByDataType        map[profile.DataType]int  `json:"by_data_type"`
	AverageCoverage   float64                   `json:"average_coverage"`
	HighQuality       int                       `json:"high_quality_attributes"`
	RecommendedCount  int                       `json:"recommended_count"`
	SparsestAttribute string                    `json:"sparsest_attribute,omitempty"`
	DensestAttribute  string                    `json:"densest_attribute,omitempty"`
}

// Summarize returns the zero Summary for an empty analysis.
func Summarize(stats map[string]*AttributeStats) Summary {
	s := Summary{
		ByFieldType: map[profile.FieldType]int{},
		ByDataType:  map[profile.DataType]int{},
	}
	if len(stats) == 0 {
		return s
	}
	s.TotalAttributes = len(stats)
	total := 0.0
	var sparsest, densest *AttributeStats
	for _, n := range sortedNames(stats) {
		st := stats[n]
		s.ByFieldType[st.FieldType]++
		s.ByDataType[st.DataType]++
		total += st.Coverage
		if st.Coverage > 0.5 && st.SuggestedWeight > 0.6 {
			s.HighQuality++
		}
		if sparsest == nil || st.Coverage < sparsest.Coverage {
			sparsest = st
		}
		if densest == nil || st.Coverage > densest.Coverage {
			densest = st
		}
	}
	s.AverageCoverage = total / float64(len(stats))
	s.RecommendedCount = len(RecommendedAttributes(stats, DefaultMaxRecommended))
	s.SparsestAttribute = sparsest.Name
	s.DensestAttribute = densest.Name
	return s
}
