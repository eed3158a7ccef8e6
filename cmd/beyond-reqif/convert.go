package cmd

import (
	"fmt"
	"sort"

	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/analyzer"
	"github.com/jdai-explore/beyond-reqif/pkg/compare"
	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

func titleOf(r *reqif.Requirement) string {
	if v, ok := r.Field("title"); ok {
		return v.String()
	}
	return ""
}

func toCompareReport(res *compare.Result, withDiffs bool, maxDetails int) ui.CompareReport {
	s := res.Summary
	report := ui.CompareReport{
		OldSource:  res.OldSource,
		NewSource:  res.NewSource,
		Profile:    res.Profile,
		Strategy:   string(res.Strategy),
		Added:      s.AddedCount,
		Modified:   s.ModifiedCount,
		Deleted:    s.DeletedCount,
		Unchanged:  s.UnchangedCount,
		TotalOld:   s.TotalOld,
		TotalNew:   s.TotalNew,
		Warnings:   res.Warnings,
		MaxDetails: maxDetails,
	}
	for _, k := range res.ModifiedKeys() {
		m := res.Modified[k]
		row := ui.ChangeRow{
			Key:        k,
			Kind:       ui.ChangeModified,
			Title:      titleOf(m.New),
			Similarity: m.Similarity,
			Replaced:   m.Replaced,
		}
		for _, d := range m.FieldDiffs {
			row.Fields = append(row.Fields, ui.FieldChange{
				Name:         d.Attribute,
				Old:          d.OldValue.String(),
				New:          d.NewValue.String(),
				Similarity:   d.Similarity,
				Significance: string(d.Significance),
			})
		}
		if withDiffs {
			if diff, err := compare.UnifiedDiff(m); err == nil {
				row.Diff = diff
			}
		}
		report.Changes = append(report.Changes, row)
	}
	for _, k := range res.AddedKeys() {
		report.Changes = append(report.Changes, ui.ChangeRow{Key: k, Kind: ui.ChangeAdded, Title: titleOf(res.Added[k])})
	}
	for _, k := range res.DeletedKeys() {
		report.Changes = append(report.Changes, ui.ChangeRow{Key: k, Kind: ui.ChangeDeleted, Title: titleOf(res.Deleted[k])})
	}
	return report
}

func toBatchReport(br *compare.BatchResult) ui.BatchReport {
	s := br.Summary
	report := ui.BatchReport{
		OldDir:    br.OldDir,
		NewDir:    br.NewDir,
		Added:     s.AddedCount,
		Modified:  s.ModifiedCount,
		Deleted:   s.DeletedCount,
		Unchanged: s.UnchangedCount,
		Failed:    br.Failed,
	}
	for _, f := range br.Files {
		row := ui.BatchFileRow{Name: f.Name, Status: string(f.Status), Error: f.Error}
		if f.Result != nil {
			fs := f.Result.Summary
			row.Added, row.Modified, row.Deleted, row.Unchanged = fs.AddedCount, fs.ModifiedCount, fs.DeletedCount, fs.UnchangedCount
		}
		report.Files = append(report.Files, row)
	}
	return report
}

func toAnalysisReport(sources []string, requirements int, stats map[string]*analyzer.AttributeStats, issues []analyzer.Issue, maxRecommended int) ui.AnalysisReport {
	report := ui.AnalysisReport{
		Sources:      sources,
		Requirements: requirements,
		Recommended:  analyzer.RecommendedAttributes(stats, maxRecommended),
	}
	names := make([]string, 0, len(stats))
	for n := range stats {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := stats[names[i]], stats[names[j]]
		if a.Coverage != b.Coverage {
			return a.Coverage > b.Coverage
		}
		return a.Name < b.Name
	})
	for _, n := range names {
		st := stats[n]
		report.Attributes = append(report.Attributes, ui.AttributeRow{
			Name:            st.Name,
			FieldType:       string(st.FieldType),
			DataType:        string(st.DataType),
			Coverage:        st.Coverage,
			Unique:          st.UniqueValueCount,
			SuggestedWeight: st.SuggestedWeight,
			Samples:         st.SampleValues,
		})
	}
	for _, s := range analyzer.SuggestProfiles(stats) {
		report.Suggestions = append(report.Suggestions, ui.ProfileSuggestion{Name: s.Name, Description: s.Description, Attributes: s.Attributes})
	}
	for _, is := range issues {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", is.ReqID, is.Message))
	}
	return report
}

func systemKey(p *profile.Profile) string {
	if !p.IsSystemProfile || len(p.Tags) < 2 {
		return ""
	}
	return p.Tags[1]
}

func toProfileRow(p *profile.Profile) ui.ProfileRow {
	s := p.Summary()
	return ui.ProfileRow{
		Key:         systemKey(p),
		Name:        p.Name,
		Description: p.Description,
		Enabled:     s.EnabledAttributes,
		Total:       s.TotalAttributes,
		System:      p.IsSystemProfile,
		Default:     p.IsDefault,
	}
}

// orderedAttributes lists standard fields first, then the rest by name.
func orderedAttributes(p *profile.Profile) []*profile.AttributeConfig {
	out := make([]*profile.AttributeConfig, 0, len(p.Attributes))
	for _, f := range reqif.StandardFields {
		if a, ok := p.Attributes[f]; ok {
			out = append(out, a)
		}
	}
	var rest []string
	for k := range p.Attributes {
		if !reqif.IsStandardField(k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, p.Attributes[k])
	}
	return out
}

func toFormAttributes(p *profile.Profile) []ui.ProfileFormAttribute {
	var out []ui.ProfileFormAttribute
	for _, a := range orderedAttributes(p) {
		out = append(out, ui.ProfileFormAttribute{
			Name:        a.Name,
			DisplayName: a.DisplayName,
			FieldType:   string(a.FieldType),
			Enabled:     a.Enabled,
			Weight:      a.Weight,
		})
	}
	return out
}

func toProfileDetails(p *profile.Profile) ui.ProfileDetails {
	return ui.ProfileDetails{
		ProfileRow:       toProfileRow(p),
		Threshold:        p.SimilarityThreshold,
		IgnoreCase:       p.IgnoreCase,
		IgnoreWhitespace: p.IgnoreWhitespace,
		TreatEmptyAsNull: p.TreatEmptyAsNull,
		UseFuzzyMatching: p.UseFuzzyMatching,
		Tags:             p.Tags,
		Modified:         p.ModifiedDate,
		Attributes:       toFormAttributes(p),
	}
}

func toProfileForm(p *profile.Profile, lockName bool) *ui.ProfileForm {
	return &ui.ProfileForm{
		Name:             p.Name,
		Description:      p.Description,
		Threshold:        p.SimilarityThreshold,
		IgnoreCase:       p.IgnoreCase,
		IgnoreWhitespace: p.IgnoreWhitespace,
		TreatEmptyAsNull: p.TreatEmptyAsNull,
		UseFuzzyMatching: p.UseFuzzyMatching,
		Attributes:       toFormAttributes(p),
		NameLocked:       lockName,
	}
}

// applyProfileForm copies the edited values back onto p.
func applyProfileForm(p *profile.Profile, f *ui.ProfileForm) error {
	p.Name = f.Name
	p.Description = f.Description
	p.SetSimilarityThreshold(f.Threshold)
	p.IgnoreCase = f.IgnoreCase
	p.IgnoreWhitespace = f.IgnoreWhitespace
	p.TreatEmptyAsNull = f.TreatEmptyAsNull
	p.UseFuzzyMatching = f.UseFuzzyMatching
	for _, a := range f.Attributes {
		if err := p.SetAttributeEnabled(a.Name, a.Enabled); err != nil {
			return err
		}
		if a.Enabled {
			if err := p.SetAttributeWeight(a.Name, a.Weight); err != nil {
				return err
			}
		}
	}
	return nil
}
