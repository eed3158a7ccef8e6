package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/jdai-explore/beyond-reqif/pkg/compare"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// Report formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ResolveFormat normalizes a report format. "" and "auto" pick the format
// from the output path extension: .json, .md/.markdown, anything else text.
func ResolveFormat(format, outputPath string) (string, error) {
	actual := strings.ToLower(strings.TrimSpace(format))
	switch actual {
	case "", "auto":
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".json":
			return FormatJSON, nil
		case ".md", ".markdown":
			return FormatMarkdown, nil
		default:
			return FormatText, nil
		}
	case "md":
		return FormatMarkdown, nil
	case "txt":
		return FormatText, nil
	case FormatText, FormatJSON, FormatMarkdown:
		return actual, nil
	default:
		return "", fmt.Errorf("unsupported report format: %q", format)
	}
}

// ReadResult reads a comparison result previously written as JSON.
func ReadResult(path string) (*compare.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := new(compare.Result)
	if err := json.NewDecoder(f).Decode(res); err != nil {
		return nil, errors.Wrapf(err, "decode result %s", path)
	}
	return res, nil
}

// WriteResult writes a comparison result to outputPath in the given format.
// A JSON or markdown format must match the path extension.
func WriteResult(res *compare.Result, outputPath, format string) error {
	actual, err := ResolveFormat(format, outputPath)
	if err != nil {
		return err
	}
	if err := checkExtension(outputPath, actual); err != nil {
		return err
	}
	return writeFile(outputPath, func(w io.Writer) error { return RenderResult(w, res, actual) })
}

// WriteBatch writes a folder comparison to outputPath.
func WriteBatch(br *compare.BatchResult, outputPath, format string) error {
	actual, err := ResolveFormat(format, outputPath)
	if err != nil {
		return err
	}
	if err := checkExtension(outputPath, actual); err != nil {
		return err
	}
	return writeFile(outputPath, func(w io.Writer) error { return RenderBatch(w, br, actual) })
}

func checkExtension(outputPath, format string) error {
	ext := strings.ToLower(filepath.Ext(outputPath))
	switch format {
	case FormatJSON:
		if ext != ".json" {
			return fmt.Errorf("output path extension %q does not match format %q", ext, format)
		}
	case FormatMarkdown:
		if ext != ".md" && ext != ".markdown" {
			return fmt.Errorf("output path extension %q does not match format %q", ext, format)
		}
	}
	return nil
}

func writeFile(outputPath string, render func(io.Writer) error) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderResult writes res to w in format.
func RenderResult(w io.Writer, res *compare.Result, format string) error {
	switch format {
	case FormatJSON:
		return compare.WriteJSON(w, res)
	case FormatMarkdown:
		return writeMarkdown(w, res)
	default:
		return writeText(w, res)
	}
}

// RenderBatch writes br to w in format.
func RenderBatch(w io.Writer, br *compare.BatchResult, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(br), "encode batch result")
	case FormatMarkdown:
		return writeBatchMarkdown(w, br)
	default:
		return writeBatchText(w, br)
	}
}

func writeText(w io.Writer, res *compare.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison %s\n", res.RunID)
	fmt.Fprintf(&b, "Old: %s\nNew: %s\n", res.OldSource, res.NewSource)
	fmt.Fprintf(&b, "Profile: %s  Strategy: %s\n\n", res.Profile, res.Strategy)
	writeSummaryText(&b, res.Summary)

	section := func(title string, keys []string, line func(string) string) {
		if len(keys) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", title, len(keys))
		for _, k := range keys {
			b.WriteString("  " + line(k) + "\n")
		}
	}
	section("Added", res.AddedKeys(), func(k string) string { return "+ " + k + titleSuffix(res.Added[k]) })
	section("Deleted", res.DeletedKeys(), func(k string) string { return "- " + k + titleSuffix(res.Deleted[k]) })
	section("Modified", res.ModifiedKeys(), func(k string) string {
		m := res.Modified[k]
		var lines []string
		head := fmt.Sprintf("~ %s (similarity %.0f%%)", k, m.Similarity*100)
		if m.Replaced {
			head += " [replaced]"
		}
		lines = append(lines, head)
		for _, d := range m.FieldDiffs {
			lines = append(lines, fmt.Sprintf("    %s [%s]: %q -> %q", d.Attribute, d.Significance, d.OldValue.String(), d.NewValue.String()))
		}
		return strings.Join(lines, "\n")
	})
	if len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "\nWarnings:\n")
		for _, wmsg := range res.Warnings {
			b.WriteString("  ! " + wmsg + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummaryText(b *strings.Builder, s compare.Summary) {
	fmt.Fprintf(b, "Summary: %d added, %d modified, %d deleted, %d unchanged (old %d, new %d)\n",
		s.AddedCount, s.ModifiedCount, s.DeletedCount, s.UnchangedCount, s.TotalOld, s.TotalNew)
}

func titleSuffix(r *reqif.Requirement) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Field("title"); ok && v.String() != "" {
		return "  " + v.String()
	}
	return ""
}

func writeMarkdown(w io.Writer, res *compare.Result) error {
	var b strings.Builder
	b.WriteString("# Requirement comparison\n\n")
	fmt.Fprintf(&b, "- **Old:** `%s`\n- **New:** `%s`\n- **Profile:** %s\n- **Strategy:** %s\n- **Run:** %s\n\n",
		res.OldSource, res.NewSource, res.Profile, res.Strategy, res.RunID)

	b.WriteString("| Added | Modified | Deleted | Unchanged |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n", res.Summary.AddedCount, res.Summary.ModifiedCount,
		res.Summary.DeletedCount, res.Summary.UnchangedCount)

	if keys := res.ModifiedKeys(); len(keys) > 0 {
		b.WriteString("\n## Modified\n")
		for _, k := range keys {
			m := res.Modified[k]
			fmt.Fprintf(&b, "\n### %s\n\nSimilarity: %.0f%%", k, m.Similarity*100)
			if m.Replaced {
				b.WriteString(" (replaced)")
			}
			b.WriteString("\n\n")
			if len(m.FieldDiffs) == 0 {
				continue
			}
			b.WriteString("| Attribute | Old | New | Significance |\n|---|---|---|---|\n")
			for _, d := range m.FieldDiffs {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", d.Attribute, cell(d.OldValue), cell(d.NewValue), d.Significance)
			}
		}
	}
	list := func(title string, keys []string, reqs map[string]*reqif.Requirement) {
		if len(keys) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, k := range keys {
			fmt.Fprintf(&b, "- `%s`%s\n", k, titleSuffix(reqs[k]))
		}
	}
	list("Added", res.AddedKeys(), res.Added)
	list("Deleted", res.DeletedKeys(), res.Deleted)

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, wmsg := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", wmsg)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// cell renders a value for a markdown table cell. Rich text keeps its
// emphasis; line breaks and pipes are flattened.
func cell(v reqif.Value) string {
	s := v.String()
	if v.Kind() == reqif.KindHTML {
		if md, err := reqif.Markdown(v.Raw()); err == nil {
			s = md
		}
	}
	if v.Kind() == reqif.KindMissing {
		return "_missing_"
	}
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeBatchText(w io.Writer, br *compare.BatchResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Folder comparison %s\nOld: %s\nNew: %s\n\n", br.RunID, br.OldDir, br.NewDir)
	writeSummaryText(&b, br.Summary)
	b.WriteString("\n")
	for _, f := range br.Files {
		if f.Err != nil || f.Error != "" {
			fmt.Fprintf(&b, "  ! %-40s %s: %s\n", f.Name, f.Status, errorText(f))
			continue
		}
		s := f.Result.Summary
		fmt.Fprintf(&b, "  %-42s %-9s +%d ~%d -%d =%d\n", f.Name, f.Status, s.AddedCount, s.ModifiedCount, s.DeletedCount, s.UnchangedCount)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeBatchMarkdown(w io.Writer, br *compare.BatchResult) error {
	var b strings.Builder
	b.WriteString("# Folder comparison\n\n")
	fmt.Fprintf(&b, "- **Old:** `%s`\n- **New:** `%s`\n- **Failed files:** %d\n\n", br.OldDir, br.NewDir, br.Failed)
	b.WriteString("| File | Status | Added | Modified | Deleted | Unchanged |\n|---|---|---:|---:|---:|---:|\n")
	for _, f := range br.Files {
		if f.Result == nil {
			fmt.Fprintf(&b, "| %s | error: %s | | | | |\n", f.Name, strings.ReplaceAll(errorText(f), "|", `\|`))
			continue
		}
		s := f.Result.Summary
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d |\n", f.Name, f.Status, s.AddedCount, s.ModifiedCount, s.DeletedCount, s.UnchangedCount)
	}
	s := br.Summary
	fmt.Fprintf(&b, "| **Total** | | %d | %d | %d | %d |\n", s.AddedCount, s.ModifiedCount, s.DeletedCount, s.UnchangedCount)
	_, err := io.WriteString(w, b.String())
	return err
}

func errorText(f compare.FileResult) string {
	if f.Error != "" {
		return f.Error
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return ""
}
