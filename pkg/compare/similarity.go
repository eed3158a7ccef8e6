package compare

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

// Ratio is the sequence-matcher similarity of two strings over their runes:
// 2*M/T where M counts matched runes and T the runes of both. Two empty
// strings are identical; one empty string scores 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// TextSimilarity scores two requirement bodies after lowercasing and
// collapsing whitespace.
func TextSimilarity(a, b *reqif.Requirement) float64 {
	return Ratio(matchText(a), matchText(b))
}

func matchText(r *reqif.Requirement) string {
	text := r.Text
	if strings.TrimSpace(text) == "" {
		if v, ok := r.Field("title"); ok {
			text = v.String()
		}
	}
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// normalizer applies a profile's global rules to attribute values.
type normalizer struct {
	ignoreCase       bool
	ignoreWhitespace bool
	emptyAsNull      bool
}

func newNormalizer(p *profile.Profile) normalizer {
	return normalizer{
		ignoreCase:       p.IgnoreCase,
		ignoreWhitespace: p.IgnoreWhitespace,
		emptyAsNull:      p.TreatEmptyAsNull,
	}
}

// normalized is a value reduced for comparison; missing distinguishes an
// absent value from an empty one unless empty values count as null. Values
// of different kinds never compare equal.
type normalized struct {
	missing bool
	kind    reqif.Kind
	text    string
}

func (n normalizer) apply(v reqif.Value, present bool) normalized {
	if !present || v.Kind() == reqif.KindMissing {
		return normalized{missing: true}
	}
	s := v.String()
	if n.ignoreCase {
		s = strings.ToLower(s)
	}
	if n.ignoreWhitespace {
		s = strings.Join(strings.Fields(s), " ")
	}
	if n.emptyAsNull && strings.TrimSpace(s) == "" {
		return normalized{missing: true}
	}
	return normalized{kind: v.Kind(), text: s}
}

// attributeSimilarity is 1 for equal values, the text ratio when fuzzy
// matching applies to a text attribute, and 0 otherwise.
func (n normalizer) attributeSimilarity(a, b normalized, fuzzy bool, dt profile.DataType) float64 {
	if a == b {
		return 1
	}
	if fuzzy && dt == profile.DataText && !a.missing && !b.missing {
		return Ratio(a.text, b.text)
	}
	return 0
}
