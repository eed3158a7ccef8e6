package ui

import (
	"fmt"
	"io"
	"strings"
)

// BatchFileRow mirrors compare.FileResult.
type BatchFileRow struct {
	Name      string
	Status    string
	Added     int
	Modified  int
	Deleted   int
	Unchanged int
	Error     string
}

// BatchReport mirrors compare.BatchResult.
type BatchReport struct {
	OldDir    string
	NewDir    string
	Files     []BatchFileRow
	Added     int
	Modified  int
	Deleted   int
	Unchanged int
	Failed    int
}

// BatchUI renders folder comparisons.
type BatchUI struct {
	writer io.Writer
	quiet  bool
}

// NewBatchUI creates a new UI handler for the batch command.
func NewBatchUI(w io.Writer, quiet bool) *BatchUI {
	return &BatchUI{writer: w, quiet: quiet}
}

// PrintReport renders the per-file table and the totals.
func (b *BatchUI) PrintReport(report BatchReport) {
	if b.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(Title.Render("Folder Comparison"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Old", report.OldDir))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("New", report.NewDir))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Files", fmt.Sprintf("%d", len(report.Files))))
	if report.Failed > 0 {
		sb.WriteString("  ")
		sb.WriteString(Error.Render(fmt.Sprintf("%d failed", report.Failed)))
	}
	sb.WriteString("\n\n")
	sb.WriteString(renderCounts(report.Added, report.Modified, report.Deleted, report.Unchanged))

	if report.Failed > 0 {
		fmt.Fprintln(b.writer, WarningBox.Render(sb.String()))
	} else {
		fmt.Fprintln(b.writer, HighlightBox.Render(sb.String()))
	}

	for _, f := range report.Files {
		fmt.Fprintln(b.writer, renderBatchFile(f))
	}
}

func renderBatchFile(f BatchFileRow) string {
	if f.Error != "" {
		return fmt.Sprintf("%s %s %s", GetCrossMark(), f.Name, Error.Render(f.Error))
	}
	icon := GetCheckMark()
	if f.Added+f.Modified+f.Deleted > 0 {
		icon = Modified.Render("~")
	}
	status := ""
	if f.Status != "" && f.Status != "compared" {
		status = " " + Dim.Render("("+f.Status+")")
	}
	return fmt.Sprintf("%s %s%s  %s", icon, f.Name, status, renderCounts(f.Added, f.Modified, f.Deleted, f.Unchanged))
}
