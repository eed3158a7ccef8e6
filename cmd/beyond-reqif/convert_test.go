package cmd

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
	"github.com/jdai-explore/beyond-reqif/pkg/compare"
	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

func TestProfileFormRoundTrip(t *testing.T) {
	p := profile.New("Mine")
	form := toProfileForm(p, true)
	if !form.NameLocked || form.Name != "Mine" {
		t.Fatalf("unexpected form header: %+v", form)
	}
	if len(form.Attributes) != len(reqif.StandardFields) {
		t.Fatalf("form attributes = %d, want %d", len(form.Attributes), len(reqif.StandardFields))
	}

	form.Description = "edited"
	form.Threshold = 0.9
	form.IgnoreCase = false
	for i := range form.Attributes {
		switch form.Attributes[i].Name {
		case "type":
			form.Attributes[i].Enabled = false
		case "title":
			form.Attributes[i].Weight = 0.5
		}
	}
	if err := applyProfileForm(p, form); err != nil {
		t.Fatalf("applyProfileForm: %v", err)
	}
	if p.Description != "edited" || p.SimilarityThreshold != 0.9 || p.IgnoreCase {
		t.Fatalf("rules not applied: %+v", p)
	}
	if p.Attributes["type"].Enabled {
		t.Fatalf("type should be disabled")
	}
	if p.Attributes["title"].Weight != 0.5 {
		t.Fatalf("title weight = %v, want 0.5", p.Attributes["title"].Weight)
	}
}

func TestApplyProfileForm_UnknownAttribute(t *testing.T) {
	p := profile.New("Mine")
	form := toProfileForm(p, false)
	form.Attributes = append(form.Attributes, ui.ProfileFormAttribute{Name: "nope", Enabled: true, Weight: 1})
	err := applyProfileForm(p, form)
	if !errors.Is(err, profile.ErrUnknownAttribute) {
		t.Fatalf("expected ErrUnknownAttribute, got %v", err)
	}
}

func TestOrderedAttributes(t *testing.T) {
	p := profile.New("Mine")
	for _, n := range []string{"Zeta", "Alpha"} {
		if err := p.AddAttribute(profile.AttributeConfig{Name: n, Enabled: true, Weight: 1}); err != nil {
			t.Fatalf("AddAttribute(%s): %v", n, err)
		}
	}
	got := orderedAttributes(p)
	want := append(append([]string{}, reqif.StandardFields...), "Alpha", "Zeta")
	if len(got) != len(want) {
		t.Fatalf("got %d attributes, want %d", len(got), len(want))
	}
	for i, a := range got {
		if a.Name != want[i] {
			t.Fatalf("attribute %d = %s, want %s", i, a.Name, want[i])
		}
	}
}

func TestToProfileRow_System(t *testing.T) {
	p := profile.SystemProfiles()[profile.KeyBasic]
	row := toProfileRow(p)
	if row.Key != profile.KeyBasic || !row.System || !row.Default {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Enabled != p.Summary().EnabledAttributes || row.Total != len(p.Attributes) {
		t.Fatalf("unexpected counts: %+v", row)
	}
	if toProfileRow(p.Clone("Copy")).Key != "" {
		t.Fatalf("a clone should not carry a system key")
	}
}

func TestToCompareReport_Order(t *testing.T) {
	titled := func(id, title string) *reqif.Requirement {
		return &reqif.Requirement{ID: id, Attributes: map[string]reqif.Value{"title": reqif.TextValue(title)}}
	}
	res := &compare.Result{
		Added:     map[string]*reqif.Requirement{"REQ-3": titled("REQ-3", "new one")},
		Deleted:   map[string]*reqif.Requirement{"REQ-2": titled("REQ-2", "gone")},
		Unchanged: map[string]*reqif.Requirement{},
		Modified: map[string]*compare.Modification{
			"REQ-1": {OldID: "REQ-1", NewID: "REQ-1", Old: titled("REQ-1", "a"), New: titled("REQ-1", "b"), Similarity: 0.7},
		},
		Summary: compare.Summary{AddedCount: 1, ModifiedCount: 1, DeletedCount: 1},
	}
	report := toCompareReport(res, false, 10)
	if len(report.Changes) != 3 {
		t.Fatalf("changes = %d, want 3", len(report.Changes))
	}
	kinds := []string{ui.ChangeModified, ui.ChangeAdded, ui.ChangeDeleted}
	for i, c := range report.Changes {
		if c.Kind != kinds[i] {
			t.Fatalf("change %d kind = %s, want %s", i, c.Kind, kinds[i])
		}
	}
	if report.Changes[0].Title != "b" || report.Changes[1].Title != "new one" {
		t.Fatalf("titles not taken from the newer side: %+v", report.Changes)
	}
	if report.MaxDetails != 10 || report.Added != 1 {
		t.Fatalf("unexpected header: %+v", report)
	}
}

func TestProfileError(t *testing.T) {
	wrapped := errors.WithHint(errors.Wrapf(profile.ErrProfileNotFound, "%q", "x"), "did you mean y?")
	err := profileError(wrapped)
	if !apperr.IsUser(err) {
		t.Fatalf("expected a user error, got %v", err)
	}
	plain := errors.New("disk full")
	if apperr.IsUser(profileError(plain)) {
		t.Fatalf("unrelated errors must pass through")
	}
}
