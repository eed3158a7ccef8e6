package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Change kinds shown in reports and the browser.
const (
	ChangeAdded     = "added"
	ChangeDeleted   = "deleted"
	ChangeModified  = "modified"
	ChangeUnchanged = "unchanged"
)

// FieldChange mirrors compare.FieldDiff with display values.
type FieldChange struct {
	Name         string
	Old          string
	New          string
	Similarity   float64
	Significance string
}

// ChangeRow is one entry of a comparison.
type ChangeRow struct {
	Key        string
	Kind       string
	Title      string
	Similarity float64
	Replaced   bool
	Fields     []FieldChange
	// Diff holds a unified diff of the pair, shown by the browser.
	Diff string
}

// CompareReport mirrors compare.Result to avoid circular imports.
type CompareReport struct {
	OldSource  string
	NewSource  string
	Profile    string
	Strategy   string
	Added      int
	Modified   int
	Deleted    int
	Unchanged  int
	TotalOld   int
	TotalNew   int
	Changes    []ChangeRow
	Warnings   []string
	MaxDetails int
}

// CompareUI renders comparison results.
type CompareUI struct {
	writer io.Writer
	quiet  bool
}

// NewCompareUI creates a new UI handler for the compare command.
func NewCompareUI(w io.Writer, quiet bool) *CompareUI {
	return &CompareUI{writer: w, quiet: quiet}
}

// PrintReport renders the summary box followed by the changes.
func (c *CompareUI) PrintReport(report CompareReport) {
	if c.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(Title.Render("Requirement Comparison"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Old", report.OldSource))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("New", report.NewSource))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Profile", Highlight.Render(report.Profile)))
	sb.WriteString("  ")
	sb.WriteString(FormatKeyValue("Strategy", report.Strategy))
	sb.WriteString("\n\n")
	sb.WriteString(renderCounts(report.Added, report.Modified, report.Deleted, report.Unchanged))

	total := report.TotalNew
	if report.TotalOld > total {
		total = report.TotalOld
	}
	if total > 0 {
		stable := float64(report.Unchanged) / float64(total)
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Unchanged", RenderProgressBar(stable, 30)+" "+RenderPercentage(stable)))
	}

	if report.Added+report.Modified+report.Deleted == 0 {
		fmt.Fprintln(c.writer, SuccessBox.Render(sb.String()))
	} else {
		fmt.Fprintln(c.writer, HighlightBox.Render(sb.String()))
	}

	if details := c.renderChanges(report); details != "" {
		fmt.Fprintln(c.writer, details)
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintln(c.writer, renderList(Warning, GetWarnMark(), "Warnings", report.Warnings, true))
	}
}

func renderCounts(added, modified, deleted, unchanged int) string {
	return strings.Join([]string{
		Added.Render(fmt.Sprintf("+%d added", added)),
		Modified.Render(fmt.Sprintf("~%d modified", modified)),
		Deleted.Render(fmt.Sprintf("-%d deleted", deleted)),
		Unchanged.Render(fmt.Sprintf("=%d unchanged", unchanged)),
	}, "  ")
}

func (c *CompareUI) renderChanges(report CompareReport) string {
	rows := make([]ChangeRow, 0, len(report.Changes))
	for _, r := range report.Changes {
		if r.Kind != ChangeUnchanged {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return ""
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return kindOrder(rows[i].Kind) < kindOrder(rows[j].Kind)
		}
		return rows[i].Key < rows[j].Key
	})

	limit := report.MaxDetails
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Changes"))
	for _, r := range rows[:limit] {
		sb.WriteString("\n")
		sb.WriteString(RenderChangeLine(r))
		for _, f := range r.Fields {
			sb.WriteString("\n    ")
			sb.WriteString(renderFieldChange(f))
		}
	}
	if limit < len(rows) {
		sb.WriteString("\n")
		sb.WriteString(Dim.Render(fmt.Sprintf("… %d more change(s); use --format or --output for the full list", len(rows)-limit)))
	}
	return sb.String()
}

func kindOrder(kind string) int {
	switch kind {
	case ChangeModified:
		return 0
	case ChangeAdded:
		return 1
	case ChangeDeleted:
		return 2
	default:
		return 3
	}
}

// RenderChangeLine renders one change with its bucket marker.
func RenderChangeLine(r ChangeRow) string {
	var line string
	switch r.Kind {
	case ChangeAdded:
		line = Added.Render("+ " + r.Key)
	case ChangeDeleted:
		line = Deleted.Render("- " + r.Key)
	case ChangeModified:
		line = Modified.Render("~ "+r.Key) + " " + RenderPercentage(r.Similarity)
		if r.Replaced {
			line += " " + Warning.Render("[replaced]")
		}
	default:
		line = Unchanged.Render("= " + r.Key)
	}
	if r.Title != "" {
		line += " " + Dim.Render(truncate(r.Title, 60))
	}
	return line
}

func renderFieldChange(f FieldChange) string {
	sig := Dim.Render(f.Significance)
	if f.Significance == "major" {
		sig = Error.Render(f.Significance)
	}
	return fmt.Sprintf("%s [%s] %s → %s", Bold.Render(f.Name), sig,
		Deleted.Render(quoteOrMissing(f.Old)), Added.Render(quoteOrMissing(f.New)))
}

func quoteOrMissing(s string) string {
	if s == "" {
		return "∅"
	}
	return fmt.Sprintf("%q", truncate(s, 50))
}

// PrintSimpleReport prints a plain summary.
func (c *CompareUI) PrintSimpleReport(report CompareReport) {
	fmt.Fprintf(c.writer, "Added: %d, Modified: %d, Deleted: %d, Unchanged: %d\n",
		report.Added, report.Modified, report.Deleted, report.Unchanged)
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func sortedStrings(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
