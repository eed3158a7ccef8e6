package compare

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// Significance grades a field-level change.
type Significance string

const (
	Minor Significance = "minor"
	Major Significance = "major"
)

// FieldDiff is one attribute whose normalized values differ in a pair.
type FieldDiff struct {
	Attribute    string       `json:"attribute_name"`
	DisplayName  string       `json:"display_name,omitempty"`
	OldValue     reqif.Value  `json:"old_value"`
	NewValue     reqif.Value  `json:"new_value"`
	Weight       float64      `json:"weight"`
	Similarity   float64      `json:"similarity"`
	Significance Significance `json:"significance"`
}

// Modification is a paired requirement whose enabled attributes differ.
type Modification struct {
	OldID          string             `json:"old_id"`
	NewID          string             `json:"new_id"`
	Old            *reqif.Requirement `json:"old"`
	New            *reqif.Requirement `json:"new"`
	FieldDiffs     []FieldDiff        `json:"field_diffs"`
	Similarity     float64            `json:"similarity"`
	TextSimilarity float64            `json:"text_similarity"`

	// Replaced marks a same-id pair whose body text fell below the
	// similarity threshold under IDAndText.
	Replaced bool `json:"replaced,omitempty"`
}

// HasMajor reports whether any field diff is major.
func (m *Modification) HasMajor() bool {
	for _, d := range m.FieldDiffs {
		if d.Significance == Major {
			return true
		}
	}
	return false
}

// Summary counts the result buckets.
type Summary struct {
	AddedCount     int `json:"added_count"`
	ModifiedCount  int `json:"modified_count"`
	DeletedCount   int `json:"deleted_count"`
	UnchangedCount int `json:"unchanged_count"`
	TotalOld       int `json:"total_old"`
	TotalNew       int `json:"total_new"`
}

// Changed is the number of added, modified and deleted entries.
func (s Summary) Changed() int { return s.AddedCount + s.ModifiedCount + s.DeletedCount }

func (s *Summary) add(o Summary) {
	s.AddedCount += o.AddedCount
	s.ModifiedCount += o.ModifiedCount
	s.DeletedCount += o.DeletedCount
	s.UnchangedCount += o.UnchangedCount
	s.TotalOld += o.TotalOld
	s.TotalNew += o.TotalNew
}

// Result is the outcome of one comparison. Unchanged holds the new-side
// requirement; cross-id pairs are keyed "old↔new" in Modified and Unchanged.
type Result struct {
	RunID     string                        `json:"run_id"`
	CreatedAt time.Time                     `json:"created_at"`
	OldSource string                        `json:"old_source"`
	NewSource string                        `json:"new_source"`
	Profile   string                        `json:"profile"`
	Strategy  Strategy                      `json:"strategy"`
	Added     map[string]*reqif.Requirement `json:"added"`
	Deleted   map[string]*reqif.Requirement `json:"deleted"`
	Unchanged map[string]*reqif.Requirement `json:"unchanged"`
	Modified  map[string]*Modification      `json:"modified"`
	Summary   Summary                       `json:"summary"`
	Warnings  []string                      `json:"warnings"`
}

func newResult() *Result {
	return &Result{
		Added:     make(map[string]*reqif.Requirement),
		Deleted:   make(map[string]*reqif.Requirement),
		Unchanged: make(map[string]*reqif.Requirement),
		Modified:  make(map[string]*Modification),
		Warnings:  []string{},
	}
}

func (r *Result) summarize(totalOld, totalNew int) {
	r.Summary = Summary{
		AddedCount:     len(r.Added),
		ModifiedCount:  len(r.Modified),
		DeletedCount:   len(r.Deleted),
		UnchangedCount: len(r.Unchanged),
		TotalOld:       totalOld,
		TotalNew:       totalNew,
	}
}

// ModifiedKeys returns the keys of Modified in sorted order.
func (r *Result) ModifiedKeys() []string { return sortedKeys(r.Modified) }

// AddedKeys returns the keys of Added in sorted order.
func (r *Result) AddedKeys() []string { return sortedKeys(r.Added) }

// DeletedKeys returns the keys of Deleted in sorted order.
func (r *Result) DeletedKeys() []string { return sortedKeys(r.Deleted) }

// UnchangedKeys returns the keys of Unchanged in sorted order.
func (r *Result) UnchangedKeys() []string { return sortedKeys(r.Unchanged) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(r), "encode comparison result")
}
