package compare

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

func req(id, text string, attrs map[string]reqif.Value) *reqif.Requirement {
	if attrs == nil {
		attrs = map[string]reqif.Value{}
	}
	return &reqif.Requirement{ID: id, Text: text, Attributes: attrs}
}

func doc(source string, reqs ...*reqif.Requirement) *reqif.ParsedDocument {
	return reqif.NewDocument(source, reqs...)
}

// accounted checks that every id of both documents appears in exactly one
// bucket entry.
func accounted(t *testing.T, old, new *reqif.ParsedDocument, r *Result) {
	t.Helper()
	seenOld := map[string]int{}
	seenNew := map[string]int{}
	split := func(key string) (string, string) {
		if o, n, ok := strings.Cut(key, "↔"); ok {
			return o, n
		}
		return key, key
	}
	for k := range r.Deleted {
		seenOld[k]++
	}
	for k := range r.Added {
		seenNew[k]++
	}
	for _, keys := range [][]string{r.ModifiedKeys(), r.UnchangedKeys()} {
		for _, k := range keys {
			o, n := split(k)
			seenOld[o]++
			seenNew[n]++
		}
	}
	for id := range old.Requirements {
		assert.Equal(t, 1, seenOld[id], "old id %s", id)
	}
	for id := range new.Requirements {
		assert.Equal(t, 1, seenNew[id], "new id %s", id)
	}
	assert.Len(t, seenOld, len(old.Requirements))
	assert.Len(t, seenNew, len(new.Requirements))
}

func TestCompare_TitleAndPriorityScenario(t *testing.T) {
	old := doc("old", req("REQ-001", "The system shall start", map[string]reqif.Value{
		"Title":    reqif.TextValue("System shall start"),
		"Priority": reqif.EnumValue("high"),
	}))
	new := doc("new", req("REQ-001", "The system shall start", map[string]reqif.Value{
		"Title":    reqif.TextValue("System shall start quickly"),
		"Priority": reqif.EnumValue("critical"),
	}))

	res, err := Compare(old, new, profile.New("p"), Options{Strategy: IDOnly})
	require.NoError(t, err)
	require.Contains(t, res.Modified, "REQ-001")
	mod := res.Modified["REQ-001"]
	require.Len(t, mod.FieldDiffs, 2)
	assert.Equal(t, "title", mod.FieldDiffs[0].Attribute)
	assert.Equal(t, "priority", mod.FieldDiffs[1].Attribute)
	assert.Equal(t, 1.0, mod.FieldDiffs[0].Weight)
	assert.Equal(t, Major, mod.FieldDiffs[0].Significance)
	assert.InDelta(t, 4.0/6, mod.Similarity, 1e-9)
	assert.Equal(t, Summary{ModifiedCount: 1, TotalOld: 1, TotalNew: 1}, res.Summary)

	fuzzy := profile.New("fuzzy")
	fuzzy.UseFuzzyMatching = true
	res, err = Compare(old, new, fuzzy, Options{})
	require.NoError(t, err)
	diffs := res.Modified["REQ-001"].FieldDiffs
	require.Len(t, diffs, 2)
	assert.InDelta(t, 36.0/44, diffs[0].Similarity, 1e-9)
	assert.Equal(t, Minor, diffs[0].Significance)
	assert.Equal(t, Major, diffs[1].Significance)
}

func TestCompare_DisjointIDs(t *testing.T) {
	old := doc("old", req("A-1", "one", nil), req("A-2", "two", nil))
	new := doc("new", req("B-1", "uno", nil), req("B-2", "dos", nil), req("B-3", "tres", nil))

	res, err := Compare(old, new, profile.New("p"), Options{})
	require.NoError(t, err)
	assert.Len(t, res.Added, 3)
	assert.Len(t, res.Deleted, 2)
	assert.Empty(t, res.Modified)
	assert.Empty(t, res.Unchanged)
	accounted(t, old, new, res)
}

func TestCompare_SelfIsUnchanged(t *testing.T) {
	data := []*reqif.Requirement{
		req("R-1", "Alpha  text", map[string]reqif.Value{"Title": reqif.TextValue("Alpha"), "Revision": reqif.IntValue(2)}),
		req("R-2", "Beta", map[string]reqif.Value{"Priority": reqif.EnumValue("High")}),
		req("R-3", "", nil),
	}
	a := doc("a", data...)
	p := profile.New("strict")
	p.IgnoreCase = false
	p.IgnoreWhitespace = false

	res, err := Compare(a, a, p, Options{Strategy: IDOnly})
	require.NoError(t, err)
	assert.Empty(t, res.Modified)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"R-1", "R-2", "R-3"}, res.UnchangedKeys())
}

func TestCompare_Normalization(t *testing.T) {
	pair := func(oldTitle, newTitle string) (*reqif.ParsedDocument, *reqif.ParsedDocument) {
		return doc("o", req("R-1", "body", map[string]reqif.Value{"Title": reqif.TextValue(oldTitle)})),
			doc("n", req("R-1", "body", map[string]reqif.Value{"Title": reqif.TextValue(newTitle)}))
	}
	tests := []struct {
		name      string
		oldTitle  string
		newTitle  string
		configure func(p *profile.Profile)
		unchanged bool
	}{
		{"whitespace ignored", "A  B", "A B", func(*profile.Profile) {}, true},
		{"whitespace significant", "A  B", "A B", func(p *profile.Profile) { p.IgnoreWhitespace = false }, false},
		{"case ignored", "Start", "START", func(*profile.Profile) {}, true},
		{"case significant", "Start", "START", func(p *profile.Profile) { p.IgnoreCase = false }, false},
		{"empty is null", "", "  ", func(*profile.Profile) {}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile.New("p")
			tt.configure(p)
			old, new := pair(tt.oldTitle, tt.newTitle)
			res, err := Compare(old, new, p, Options{})
			require.NoError(t, err)
			_, unchanged := res.Unchanged["R-1"]
			assert.Equal(t, tt.unchanged, unchanged)
		})
	}
}

func TestCompare_EmptyVersusMissing(t *testing.T) {
	old := doc("o", req("R-1", "body", map[string]reqif.Value{"Status": reqif.TextValue("")}))
	new := doc("n", req("R-1", "body", nil))

	p := profile.New("p")
	res, err := Compare(old, new, p, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Unchanged, "R-1")

	p.TreatEmptyAsNull = false
	res, err = Compare(old, new, p, Options{})
	require.NoError(t, err)
	require.Contains(t, res.Modified, "R-1")
	assert.Equal(t, "status", res.Modified["R-1"].FieldDiffs[0].Attribute)
}

func TestCompare_InvalidProfileRejected(t *testing.T) {
	p := profile.New("off")
	for _, cfg := range p.Attributes {
		cfg.Enabled = false
	}
	_, err := Compare(doc("o"), doc("n"), p, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, profile.ErrInvalidProfile))

	_, err = Compare(doc("o"), doc("n"), nil, Options{})
	assert.True(t, errors.Is(err, profile.ErrInvalidProfile))
}

func TestCompare_DisabledExcluded(t *testing.T) {
	old := doc("o", req("R-1", "body", map[string]reqif.Value{"Title": reqif.TextValue("a")}))
	new := doc("n", req("R-1", "body", map[string]reqif.Value{"Title": reqif.TextValue("b")}))

	p := profile.New("p")
	require.NoError(t, p.SetAttributeEnabled("title", false))
	res, err := Compare(old, new, p, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Unchanged, "R-1")
}

func TestCompare_ZeroWeightIsDiffedButNotWeighted(t *testing.T) {
	old := doc("o", req("R-1", "body", map[string]reqif.Value{"Note": reqif.TextValue("alpha")}))
	new := doc("n", req("R-1", "body", map[string]reqif.Value{"Note": reqif.TextValue("omega")}))

	p := profile.New("p")
	require.NoError(t, p.AddAttribute(profile.AttributeConfig{Name: "Note", Enabled: true, Weight: 0}))
	res, err := Compare(old, new, p, Options{})
	require.NoError(t, err)

	require.Contains(t, res.Modified, "R-1")
	mod := res.Modified["R-1"]
	require.Len(t, mod.FieldDiffs, 1)
	assert.Equal(t, "Note", mod.FieldDiffs[0].Attribute)
	assert.Zero(t, mod.FieldDiffs[0].Weight)
	assert.Equal(t, 1.0, mod.Similarity)
}

func TestCompare_KindChangeIsReported(t *testing.T) {
	tcs := []struct {
		name     string
		old, new reqif.Value
	}{
		{"int to text", reqif.IntValue(1), reqif.TextValue("1")},
		{"real to int", reqif.RealValue(1), reqif.IntValue(1)},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			old := doc("o", req("R-1", "body", map[string]reqif.Value{"Count": tc.old}))
			new := doc("n", req("R-1", "body", map[string]reqif.Value{"Count": tc.new}))

			p := profile.New("p")
			p.IgnoreCase, p.IgnoreWhitespace, p.TreatEmptyAsNull = false, false, false
			require.NoError(t, p.AddAttribute(profile.AttributeConfig{Name: "Count", Enabled: true, Weight: 1}))
			res, err := Compare(old, new, p, Options{})
			require.NoError(t, err)

			require.Contains(t, res.Modified, "R-1")
			require.Len(t, res.Modified["R-1"].FieldDiffs, 1)
			assert.Equal(t, "Count", res.Modified["R-1"].FieldDiffs[0].Attribute)
		})
	}
}

func fuzzyDocs() (*reqif.ParsedDocument, *reqif.ParsedDocument) {
	old := doc("o",
		req("REQ-1", "The brake shall engage within 2 s", nil),
		req("REQ-2", "Lights shall flash", nil),
	)
	new := doc("n",
		req("REQ-2", "Lights shall flash", nil),
		req("NEW-9", "The brake shall engage within 3 s", nil),
	)
	return old, new
}

func TestCompare_FuzzyMatching(t *testing.T) {
	old, new := fuzzyDocs()

	res, err := Compare(old, new, profile.New("p"), Options{Strategy: FuzzyMatching})
	require.NoError(t, err)
	require.Contains(t, res.Modified, "REQ-1↔NEW-9")
	mod := res.Modified["REQ-1↔NEW-9"]
	assert.Equal(t, "REQ-1", mod.OldID)
	assert.Equal(t, "NEW-9", mod.NewID)
	assert.Greater(t, mod.TextSimilarity, 0.9)
	assert.Contains(t, res.Unchanged, "REQ-2")
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Deleted)
	accounted(t, old, new, res)

	res, err = Compare(old, new, profile.New("p"), Options{Strategy: IDOnly})
	require.NoError(t, err)
	assert.Contains(t, res.Deleted, "REQ-1")
	assert.Contains(t, res.Added, "NEW-9")
	accounted(t, old, new, res)
}

func TestCompare_FuzzyLimitFallsBack(t *testing.T) {
	old, new := fuzzyDocs()
	res, err := Compare(old, new, profile.New("p"), Options{Strategy: FuzzyMatching, FuzzyLimit: 1})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "falling back to id-only")
	assert.Contains(t, res.Deleted, "REQ-1")
	assert.Contains(t, res.Added, "NEW-9")
}

func TestCompare_ContentBasedTieBreak(t *testing.T) {
	old := doc("o", req("O-2", "same words", nil), req("O-1", "same words", nil))
	new := doc("n", req("N-1", "same words", nil))

	res, err := Compare(old, new, profile.New("p"), Options{Strategy: ContentBased})
	require.NoError(t, err)
	assert.Equal(t, []string{"O-1↔N-1"}, res.ModifiedKeys())
	assert.Equal(t, []string{"O-2"}, res.DeletedKeys())
	accounted(t, old, new, res)

	res, err = Compare(new, old, profile.New("p"), Options{Strategy: ContentBased})
	require.NoError(t, err)
	assert.Equal(t, []string{"N-1↔O-1"}, res.ModifiedKeys())
	assert.Equal(t, []string{"O-2"}, res.AddedKeys())
}

func TestCompare_ContentBasedSameID(t *testing.T) {
	a := doc("a", req("R-1", "identical body", nil))
	res, err := Compare(a, a, profile.New("p"), Options{Strategy: ContentBased})
	require.NoError(t, err)
	assert.Equal(t, []string{"R-1"}, res.UnchangedKeys())
}

func TestCompare_IDAndTextMarksReplaced(t *testing.T) {
	old := doc("o", req("R-1", "The pump shall start", map[string]reqif.Value{"Title": reqif.TextValue("Pump")}))
	new := doc("n", req("R-1", "Completely different content here", map[string]reqif.Value{"Title": reqif.TextValue("Pump")}))

	p := profile.New("title only")
	for _, f := range []string{"id", "description", "type", "priority", "status"} {
		require.NoError(t, p.SetAttributeEnabled(f, false))
	}

	res, err := Compare(old, new, p, Options{Strategy: IDAndText})
	require.NoError(t, err)
	require.Contains(t, res.Modified, "R-1")
	assert.True(t, res.Modified["R-1"].Replaced)
	assert.Empty(t, res.Modified["R-1"].FieldDiffs)

	res, err = Compare(old, new, p, Options{Strategy: IDOnly})
	require.NoError(t, err)
	assert.Contains(t, res.Unchanged, "R-1")
}

func TestCompare_DoesNotMutateProfile(t *testing.T) {
	old, new := fuzzyDocs()
	p := profile.New("p")
	before := p.Clone(p.Name)
	before.CreatedDate, before.ModifiedDate = p.CreatedDate, p.ModifiedDate
	_, err := Compare(old, new, p, Options{Strategy: FuzzyMatching})
	require.NoError(t, err)
	assert.Equal(t, before, p)
}

func TestGreedyPairs_TieBreak(t *testing.T) {
	score := func(o, n string) float64 {
		if o == "b" && n == "y" {
			return 0.95
		}
		return 0.9
	}
	got := greedyPairs([]string{"c", "a", "b"}, []string{"z", "y", "x"}, 0.9, score)
	assert.Equal(t, []pair{{"b", "y", 0.95}, {"a", "x", 0.9}, {"c", "z", 0.9}}, got)

	assert.Empty(t, greedyPairs([]string{"a"}, []string{"x"}, 0.91, score))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.Equal(t, 1.0, Ratio("abcd", "abcd"))
	assert.InDelta(t, 0.75, Ratio("abcd", "abce"), 1e-9)
	assert.InDelta(t, 1.0, Ratio("héllo", "héllo"), 1e-9)
}

func TestParseStrategy(t *testing.T) {
	tests := map[string]Strategy{
		"":              IDOnly,
		"id_only":       IDOnly,
		"IdAndText":     IDAndText,
		"fuzzy":         FuzzyMatching,
		"content-based": ContentBased,
	}
	for in, want := range tests {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrategy("telepathy")
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestCompare_RejectsBadOptions(t *testing.T) {
	a := doc("a", req("R-1", "body", nil))

	_, err := Compare(a, a, profile.New("p"), Options{Strategy: "telepathy"})
	assert.True(t, errors.Is(err, ErrUnknownStrategy))

	_, err = Compare(a, a, profile.New("p"), Options{MinorThreshold: Threshold(1.5)})
	assert.Error(t, err)

	_, err = Compare(a, a, profile.New("p"), Options{MinorThreshold: Threshold(0.3), MajorThreshold: Threshold(0.6)})
	assert.Error(t, err)
}

func TestCompare_ZeroThresholdsAreKept(t *testing.T) {
	old := doc("o", req("R-1", "body", map[string]reqif.Value{"Title": reqif.TextValue("a")}))
	new := doc("n", req("R-1", "body", map[string]reqif.Value{"Title": reqif.TextValue("b")}))

	res, err := Compare(old, new, profile.New("p"), Options{})
	require.NoError(t, err)
	require.Len(t, res.Modified["R-1"].FieldDiffs, 1)
	assert.Equal(t, Major, res.Modified["R-1"].FieldDiffs[0].Significance)

	res, err = Compare(old, new, profile.New("p"), Options{MinorThreshold: Threshold(0), MajorThreshold: Threshold(0)})
	require.NoError(t, err)
	require.Len(t, res.Modified["R-1"].FieldDiffs, 1)
	assert.Equal(t, Minor, res.Modified["R-1"].FieldDiffs[0].Significance)
}

func TestExport(t *testing.T) {
	old := doc("old.reqif", req("REQ-001", "body", map[string]reqif.Value{"Title": reqif.TextValue("System shall start")}))
	new := doc("new.reqif", req("REQ-001", "body", map[string]reqif.Value{"Title": reqif.TextValue("System shall start quickly")}))
	res, err := Compare(old, new, profile.New("p"), Options{})
	require.NoError(t, err)

	diff, err := UnifiedDiffs(res)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- old/REQ-001")
	assert.Contains(t, diff, "+++ new/REQ-001")
	assert.Contains(t, diff, "-Title: System shall start\n")
	assert.Contains(t, diff, "+Title: System shall start quickly\n")

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	var decoded struct {
		RunID   string  `json:"run_id"`
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	_, err = uuid.Parse(decoded.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 1, decoded.Summary.ModifiedCount)
}
