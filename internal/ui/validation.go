package ui

import (
	"fmt"
	"io"
	"strings"
)

// ValidationReport mirrors reqif.ValidationReport to avoid circular imports.
type ValidationReport struct {
	Path     string
	Valid    bool
	Errors   []string
	Warnings []string
}

// DocumentReport summarizes one parsed document for the parse command.
type DocumentReport struct {
	Source       string
	Requirements int
	Attributes   int
	Elements     int
	Metadata     map[string]string
	Warnings     []string
	Errors       []string
}

// ValidationUI renders validate and parse results.
type ValidationUI struct {
	writer io.Writer
	quiet  bool
}

// NewValidationUI creates a new UI handler for the validate and parse commands.
func NewValidationUI(w io.Writer, quiet bool) *ValidationUI {
	return &ValidationUI{writer: w, quiet: quiet}
}

// PrintReport renders a validation report.
func (v *ValidationUI) PrintReport(report ValidationReport) {
	if v.quiet {
		return
	}

	var output strings.Builder
	if report.Valid {
		output.WriteString(Success.Bold(true).Render("✓ Valid ReqIF file"))
	} else {
		output.WriteString(Error.Bold(true).Render("✗ Invalid ReqIF file"))
	}
	output.WriteString("\n\n")
	output.WriteString(FormatKeyValue("File", Highlight.Render(report.Path)))

	if len(report.Errors) > 0 {
		output.WriteString("\n\n")
		output.WriteString(renderList(Error, GetCrossMark(), "Errors", report.Errors, false))
	}
	if len(report.Warnings) > 0 {
		output.WriteString("\n\n")
		output.WriteString(renderList(Warning, GetWarnMark(), "Warnings", report.Warnings, true))
	}

	if report.Valid {
		fmt.Fprintln(v.writer, SuccessBox.Render(output.String()))
	} else {
		fmt.Fprintln(v.writer, ErrorBox.Render(output.String()))
	}
}

// PrintDocument renders the outcome of parsing one document.
func (v *ValidationUI) PrintDocument(doc DocumentReport) {
	if v.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Parsed document"))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Source", Highlight.Render(doc.Source)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Requirements", fmt.Sprintf("%d", doc.Requirements)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Attribute values", fmt.Sprintf("%d", doc.Attributes)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("XML elements", fmt.Sprintf("%d", doc.Elements)))

	for _, k := range sortedStrings(doc.Metadata) {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue(k, doc.Metadata[k]))
	}
	if len(doc.Errors) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(renderList(Error, GetCrossMark(), "Errors", doc.Errors, false))
	}
	if len(doc.Warnings) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(renderList(Warning, GetWarnMark(), "Warnings", doc.Warnings, true))
	}

	if len(doc.Errors) > 0 {
		fmt.Fprintln(v.writer, WarningBox.Render(sb.String()))
		return
	}
	fmt.Fprintln(v.writer, Box.Render(sb.String()))
}

// PrintSimpleReport prints a minimal text report.
func (v *ValidationUI) PrintSimpleReport(report ValidationReport) {
	if report.Valid {
		fmt.Fprintf(v.writer, "%s %s is valid\n", GetCheckMark(), report.Path)
	} else {
		fmt.Fprintf(v.writer, "%s %s is invalid\n", GetCrossMark(), report.Path)
	}
	fmt.Fprintf(v.writer, "Errors: %d, Warnings: %d\n", len(report.Errors), len(report.Warnings))
}

func renderList(header styleWrapper, mark, title string, items []string, dim bool) string {
	var sb strings.Builder
	sb.WriteString(header.Render(fmt.Sprintf("▼ %s (%d)", title, len(items))))
	for _, item := range items {
		if dim {
			item = Dim.Render(item)
		}
		sb.WriteString("\n  " + mark + " " + item)
	}
	return sb.String()
}
