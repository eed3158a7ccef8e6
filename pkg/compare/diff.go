package compare

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// UnifiedDiff renders a modification as a unified diff between the two
// requirements, one "name: value" line per attribute followed by the body.
func UnifiedDiff(m *Modification) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(render(m.Old)),
		B:        difflib.SplitLines(render(m.New)),
		FromFile: "old/" + m.OldID,
		ToFile:   "new/" + m.NewID,
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", errors.Wrapf(err, "diff %s", m.OldID)
	}
	return out, nil
}

// UnifiedDiffs concatenates the diffs of every modification in key order.
func UnifiedDiffs(r *Result) (string, error) {
	var b strings.Builder
	for _, key := range r.ModifiedKeys() {
		d, err := UnifiedDiff(r.Modified[key])
		if err != nil {
			return "", err
		}
		b.WriteString(d)
	}
	return b.String(), nil
}

func render(r *reqif.Requirement) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", r.ID)
	for _, name := range r.AttributeNames() {
		fmt.Fprintf(&b, "%s: %s\n", name, r.Attributes[name].String())
	}
	if r.Text != "" {
		fmt.Fprintf(&b, "text: %s\n", r.Text)
	}
	return b.String()
}
