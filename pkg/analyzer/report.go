package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
)

// Report renders an analysis as plain text, grouped by field type and
// ending with the recommended attributes.
func Report(stats map[string]*AttributeStats) string {
	var b strings.Builder
	b.WriteString("Attribute Analysis Report\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Total Attributes Found: %d\n\n", len(stats))

	groups := make(map[profile.FieldType][]*AttributeStats)
	for _, n := range sortedNames(stats) {
		st := stats[n]
		groups[st.FieldType] = append(groups[st.FieldType], st)
	}
	for _, ft := range []profile.FieldType{profile.FieldStandard, profile.FieldAttribute, profile.FieldCustom} {
		group := groups[ft]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Coverage > group[j].Coverage })
		fmt.Fprintf(&b, "%s Fields (%d):\n%s\n", profile.DisplayNameFor(string(ft)), len(group), strings.Repeat("-", 30))
		for _, st := range group {
			fmt.Fprintf(&b, "  %s\n", st.DisplayName)
			fmt.Fprintf(&b, "    Coverage: %.1f%%\n", st.Coverage*100)
			fmt.Fprintf(&b, "    Data Type: %s\n", st.DataType)
			fmt.Fprintf(&b, "    Unique Values: %d\n", st.UniqueValueCount)
			fmt.Fprintf(&b, "    Suggested Weight: %.2f\n", st.SuggestedWeight)
			if len(st.SampleValues) > 0 {
				sample := st.SampleValues
				more := ""
				if len(sample) > 3 {
					sample, more = sample[:3], "..."
				}
				fmt.Fprintf(&b, "    Sample Values: %s%s\n", strings.Join(sample, ", "), more)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Recommended Attributes for Comparison:\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, n := range RecommendedAttributes(stats, DefaultMaxRecommended) {
		st := stats[n]
		fmt.Fprintf(&b, "  • %s (Coverage: %.1f%%)\n", st.DisplayName, st.Coverage*100)
	}
	return b.String()
}
