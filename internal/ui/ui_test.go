package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func plain(t *testing.T) {
	t.Helper()
	prev := noColor
	Init(true)
	t.Cleanup(func() { Init(prev) })
}

func TestColorAppliesANSICodes(t *testing.T) {
	Init(false)
	got := Color("hello", FgGreen)
	want := FgGreen + "hello" + Reset
	if got != want {
		t.Fatalf("Color() = %q, want %q", got, want)
	}
}

func TestColorDisabled(t *testing.T) {
	plain(t)
	if got := Color("hello", FgRed); got != "hello" {
		t.Fatalf("Color() with colors off = %q", got)
	}
	if !ColorDisabled() {
		t.Fatalf("ColorDisabled() = false after Init(true)")
	}
}

func sampleCompareReport() CompareReport {
	return CompareReport{
		OldSource: "old.reqif",
		NewSource: "new.reqif",
		Profile:   "Basic Comparison",
		Strategy:  "id-only",
		Added:     1, Modified: 1, Deleted: 1, Unchanged: 1,
		TotalOld: 3, TotalNew: 3,
		Changes: []ChangeRow{
			{Key: "REQ-4", Kind: ChangeAdded, Title: "New pump"},
			{Key: "REQ-2", Kind: ChangeDeleted},
			{Key: "REQ-9", Kind: ChangeUnchanged},
			{Key: "REQ-1", Kind: ChangeModified, Similarity: 0.5, Fields: []FieldChange{
				{Name: "title", Old: "Start", New: "Start now", Significance: "minor"},
				{Name: "priority", Old: "", New: "High", Significance: "major"},
			}},
		},
		Warnings: []string{"duplicate identifier REQ-7"},
	}
}

func TestCompareUI_PrintReport(t *testing.T) {
	plain(t)
	tests := []struct {
		name   string
		report CompareReport
		quiet  bool
		want   []string
		absent []string
	}{
		{
			name:   "changes are listed",
			report: sampleCompareReport(),
			want: []string{"Requirement Comparison", "Basic Comparison", "+1 added", "~1 modified", "-1 deleted", "=1 unchanged",
				"~ REQ-1", "50.0%", `title [minor] "Start" → "Start now"`, `priority [major] ∅ → "High"`,
				"+ REQ-4 New pump", "- REQ-2", "duplicate identifier REQ-7"},
			absent: []string{"= REQ-9"},
		},
		{
			name: "details are capped",
			report: func() CompareReport {
				r := sampleCompareReport()
				r.MaxDetails = 1
				return r
			}(),
			want:   []string{"~ REQ-1", "… 2 more change(s)"},
			absent: []string{"+ REQ-4"},
		},
		{
			name:   "quiet mode produces no output",
			report: sampleCompareReport(),
			quiet:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewCompareUI(&buf, tt.quiet).PrintReport(tt.report)
			output := buf.String()
			if tt.quiet {
				if output != "" {
					t.Errorf("Expected no output in quiet mode, got: %q", output)
				}
				return
			}
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string %q.\nGot:\n%s", want, output)
				}
			}
			for _, absent := range tt.absent {
				if strings.Contains(output, absent) {
					t.Errorf("Output unexpectedly contains %q.\nGot:\n%s", absent, output)
				}
			}
		})
	}
}

func TestCompareUI_PrintSimpleReport(t *testing.T) {
	var buf bytes.Buffer
	NewCompareUI(&buf, false).PrintSimpleReport(sampleCompareReport())
	if got := buf.String(); got != "Added: 1, Modified: 1, Deleted: 1, Unchanged: 1\n" {
		t.Fatalf("PrintSimpleReport() = %q", got)
	}
}

func TestValidationUI(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	v := NewValidationUI(&buf, false)
	v.PrintReport(ValidationReport{Path: "a.reqif", Valid: false, Errors: []string{"missing REQ-IF root"}, Warnings: []string{"no SPEC-OBJECTS"}})
	v.PrintDocument(DocumentReport{Source: "a.reqif", Requirements: 3, Metadata: map[string]string{"title": "Pump"}, Errors: []string{"bad value"}})
	out := buf.String()
	for _, want := range []string{"✗ Invalid ReqIF file", "Errors (1)", "missing REQ-IF root", "Warnings (1)", "Requirements: 3", "title: Pump", "bad value"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing expected string %q.\nGot:\n%s", want, out)
		}
	}

	buf.Reset()
	v.PrintSimpleReport(ValidationReport{Path: "b.reqif", Valid: true})
	if !strings.Contains(buf.String(), "b.reqif is valid") || !strings.Contains(buf.String(), "Errors: 0, Warnings: 0") {
		t.Fatalf("unexpected simple report: %q", buf.String())
	}
}

func TestAnalysisUI(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	NewAnalysisUI(&buf, false).PrintReport(AnalysisReport{
		Sources:      []string{"a.reqif"},
		Requirements: 4,
		Attributes: []AttributeRow{
			{Name: "Priority", FieldType: "attribute", DataType: "enum", Coverage: 0.75, Unique: 3, SuggestedWeight: 0.8},
		},
		Recommended: []string{"title", "Priority"},
		Suggestions: []ProfileSuggestion{{Name: "Essential", Description: "Core fields", Attributes: []string{"title"}}},
		Issues:      []string{"REQ-3: missing Priority"},
	})
	out := buf.String()
	for _, want := range []string{"Attribute Analysis", "Requirements: 4", "Priority", "75.0%", "title, Priority", "Essential", "Quality issues (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing expected string %q.\nGot:\n%s", want, out)
		}
	}
}

func TestBatchUI(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	NewBatchUI(&buf, false).PrintReport(BatchReport{
		OldDir: "old", NewDir: "new",
		Files: []BatchFileRow{
			{Name: "a.reqif", Status: "compared", Modified: 1},
			{Name: "x.reqif → y.reqif", Status: "renamed", Unchanged: 2},
			{Name: "broken.reqif", Status: "added", Error: "malformed XML"},
		},
		Modified: 1, Unchanged: 2, Failed: 1,
	})
	out := buf.String()
	for _, want := range []string{"Folder Comparison", "1 failed", "~ a.reqif", "(renamed)", "✗ broken.reqif malformed XML"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing expected string %q.\nGot:\n%s", want, out)
		}
	}
}

func TestParseUnit(t *testing.T) {
	tcs := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0", 0, true},
		{" 0.75 ", 0.75, true},
		{"1", 1, true},
		{"1.5", 0, false},
		{"-0.1", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range tcs {
		got, err := ParseUnit(tc.in)
		if got != tc.want || (err == nil) != tc.ok {
			t.Fatalf("ParseUnit(%q) = (%v, %v), want (%v, ok=%v)", tc.in, got, err, tc.want, tc.ok)
		}
	}
}

func TestBrowser_Filtering(t *testing.T) {
	plain(t)
	m := NewBrowser("Changes", sampleCompareReport().Changes)
	if got := len(m.visibleRows()); got != 3 {
		t.Fatalf("visible rows = %d, want 3 (unchanged hidden)", got)
	}

	m.kindIdx = 1
	rows := m.visibleRows()
	if len(rows) != 1 || rows[0].Key != "REQ-1" {
		t.Fatalf("modified filter = %+v", rows)
	}

	m.kindIdx = 0
	m.query = "pump"
	rows = m.visibleRows()
	if len(rows) != 1 || rows[0].Key != "REQ-4" {
		t.Fatalf("fuzzy filter = %+v", rows)
	}
}

func TestBrowser_DetailView(t *testing.T) {
	plain(t)
	row := ChangeRow{Key: "REQ-1", Kind: ChangeModified, Similarity: 0.5, Diff: "--- old/REQ-1\n+++ new/REQ-1\n@@ -1 +1 @@\n-a\n+b\n"}
	m := NewBrowser("Changes", []ChangeRow{row})
	m.detail = &row
	out := m.detailView()
	for _, want := range []string{"~ REQ-1", "--- old/REQ-1", "-a", "+b", "esc/enter: back"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q.\nGot:\n%s", want, out)
		}
	}
}

func TestProgressModel(t *testing.T) {
	m := NewProgressModel("Comparing", 4)
	next, _ := m.Update(ProgressMsg{Done: 1, Total: 4, Name: "a.reqif"})
	m = next.(ProgressModel)
	if m.fraction() != 0.25 || m.current != "a.reqif" {
		t.Fatalf("after progress: done=%d current=%q", m.done, m.current)
	}
	next, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
	m = next.(ProgressModel)
	if !m.finished || m.err == nil || cmd == nil {
		t.Fatalf("DoneMsg not applied: %+v", m)
	}

	var tracker *ProgressTracker
	tracker.Start()
	tracker.Advance(1, 2, "x")
	tracker.Complete(nil)
}

func TestWorkflow_FinalRender(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	wf := NewWorkflow(&buf, "Comparing", false)
	parse := wf.AddTask("Parse old")
	cmp := wf.AddTask("Compare")
	skip := wf.AddTask("Write report")
	wf.Start()
	wf.StartTask(parse, "old.reqif")
	wf.CompleteTask(parse, "12 requirements")
	wf.FailTask(cmp, "invalid profile")
	wf.SkipTask(skip, "no output path")
	wf.Stop()

	out := buf.String()
	for _, want := range []string{"Comparing", "✓ Parse old → 12 requirements", "✗ Compare → invalid profile", "⊘ Write report → no output path"} {
		if !strings.Contains(out, want) {
			t.Errorf("workflow output missing %q.\nGot:\n%s", want, out)
		}
	}
	if tasks := wf.Tasks(); tasks[cmp].Status != TaskFailed {
		t.Fatalf("task status = %v, want failed", tasks[cmp].Status)
	}
}
