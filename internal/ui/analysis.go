package ui

import (
	"fmt"
	"io"
	"strings"
)

// AttributeRow mirrors analyzer.AttributeStats.
type AttributeRow struct {
	Name            string
	FieldType       string
	DataType        string
	Coverage        float64
	Unique          int
	SuggestedWeight float64
	Samples         []string
}

// ProfileSuggestion mirrors analyzer.Suggestion.
type ProfileSuggestion struct {
	Name        string
	Description string
	Attributes  []string
}

// AnalysisReport mirrors the analyzer output for one or more documents.
type AnalysisReport struct {
	Sources      []string
	Requirements int
	Attributes   []AttributeRow
	Recommended  []string
	Suggestions  []ProfileSuggestion
	Issues       []string
}

// AnalysisUI renders attribute analysis results.
type AnalysisUI struct {
	writer io.Writer
	quiet  bool
}

// NewAnalysisUI creates a new UI handler for the analyze command.
func NewAnalysisUI(w io.Writer, quiet bool) *AnalysisUI {
	return &AnalysisUI{writer: w, quiet: quiet}
}

// PrintReport renders the attribute table, recommendations and quality issues.
func (a *AnalysisUI) PrintReport(report AnalysisReport) {
	if a.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(Title.Render("Attribute Analysis"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Sources", strings.Join(report.Sources, ", ")))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Requirements", fmt.Sprintf("%d", report.Requirements)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Attributes", fmt.Sprintf("%d", len(report.Attributes))))
	fmt.Fprintln(a.writer, HighlightBox.Render(sb.String()))

	if len(report.Attributes) > 0 {
		fmt.Fprintln(a.writer, a.renderAttributes(report.Attributes))
	}
	if len(report.Recommended) > 0 {
		fmt.Fprintln(a.writer, SectionHeader.Render("Recommended for comparison"))
		fmt.Fprintln(a.writer, "  "+strings.Join(report.Recommended, ", "))
	}
	if len(report.Suggestions) > 0 {
		fmt.Fprintln(a.writer, SectionHeader.Render("Suggested profiles"))
		for _, s := range report.Suggestions {
			fmt.Fprintf(a.writer, "  %s %s %s\n", GetBullet(), Highlight.Render(s.Name), Dim.Render(s.Description))
			fmt.Fprintf(a.writer, "    %s\n", Dim.Render(strings.Join(s.Attributes, ", ")))
		}
	}
	if len(report.Issues) > 0 {
		fmt.Fprintln(a.writer, renderList(Warning, GetWarnMark(), "Quality issues", report.Issues, true))
	}
}

func (a *AnalysisUI) renderAttributes(rows []AttributeRow) string {
	nameWidth := len("Attribute")
	for _, r := range rows {
		if n := len([]rune(r.Name)); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > 32 {
		nameWidth = 32
	}

	var sb strings.Builder
	sb.WriteString(SectionHeader.Render(fmt.Sprintf("%-*s  %-9s  %-7s  %-22s  %6s  %6s",
		nameWidth, "Attribute", "Field", "Data", "Coverage", "Unique", "Weight")))
	for _, r := range rows {
		sb.WriteString("\n")
		name := truncate(r.Name, nameWidth)
		sb.WriteString(fmt.Sprintf("%-*s  %-9s  %-7s  %s %s  %6d  %6.2f",
			nameWidth, name, r.FieldType, r.DataType,
			RenderProgressBar(r.Coverage, 14), padLeft(RenderPercentage(r.Coverage), fmt.Sprintf("%.1f%%", r.Coverage*100), 6),
			r.Unique, r.SuggestedWeight))
	}
	return sb.String()
}

// padLeft pads a styled string using the width of its plain form.
func padLeft(styled, plain string, width int) string {
	if n := len(plain); n < width {
		return strings.Repeat(" ", width-n) + styled
	}
	return styled
}

// PrintSimpleReport prints one line per attribute.
func (a *AnalysisUI) PrintSimpleReport(report AnalysisReport) {
	fmt.Fprintf(a.writer, "Requirements: %d, Attributes: %d\n", report.Requirements, len(report.Attributes))
	for _, r := range report.Attributes {
		fmt.Fprintf(a.writer, "%s: %.1f%% coverage, %d unique, weight %.2f\n", r.Name, r.Coverage*100, r.Unique, r.SuggestedWeight)
	}
}
