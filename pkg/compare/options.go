// Package compare pairs the requirements of two parsed ReqIF documents and
// classifies each one as added, deleted, modified or unchanged under a
// comparison profile.
package compare

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Strategy selects how requirements are paired before they are diffed.
type Strategy string

const (
	// IDOnly pairs requirements with identical ids.
	IDOnly Strategy = "id-only"
	// IDAndText pairs by id and flags same-id pairs whose text diverged as
	// replaced.
	IDAndText Strategy = "id-and-text"
	// FuzzyMatching pairs by id, then pairs leftover ids across sides by
	// text similarity.
	FuzzyMatching Strategy = "fuzzy"
	// ContentBased ignores ids and pairs purely by text similarity.
	ContentBased Strategy = "content"
)

// Strategies lists every strategy in display order.
var Strategies = []Strategy{IDOnly, IDAndText, FuzzyMatching, ContentBased}

var ErrUnknownStrategy = errors.New("unknown matching strategy")

// ParseStrategy accepts the strategy names plus a few spellings
// (id_only, IdOnly, content-based).
func ParseStrategy(s string) (Strategy, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch key {
	case "", "id", "idonly":
		return IDOnly, nil
	case "idandtext", "idtext":
		return IDAndText, nil
	case "fuzzy", "fuzzymatching":
		return FuzzyMatching, nil
	case "content", "contentbased":
		return ContentBased, nil
	}
	return "", errors.Wrapf(ErrUnknownStrategy, "%q", s)
}

const (
	DefaultMinorThreshold = 0.8
	DefaultMajorThreshold = 0.5
	DefaultFuzzyLimit     = 2000
)

// Options tune a single comparison. Zero values take the defaults.
type Options struct {
	Strategy Strategy
	// MinorThreshold and MajorThreshold classify field diffs: a similarity
	// at or above MinorThreshold is minor, below MajorThreshold major. Nil
	// takes the default; use Threshold to set one, including 0.
	MinorThreshold *float64
	MajorThreshold *float64
	// FuzzyLimit caps the requirements per side that similarity pairing
	// will consider; above it the comparison falls back to IDOnly.
	FuzzyLimit int
}

// Threshold returns a pointer to v for the Options threshold fields.
func Threshold(v float64) *float64 { return &v }

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = IDOnly
	}
	if o.MinorThreshold == nil {
		o.MinorThreshold = Threshold(DefaultMinorThreshold)
	}
	if o.MajorThreshold == nil {
		o.MajorThreshold = Threshold(DefaultMajorThreshold)
	}
	if o.FuzzyLimit <= 0 {
		o.FuzzyLimit = DefaultFuzzyLimit
	}
	return o
}

// validate checks options that already went through withDefaults.
func (o Options) validate() error {
	known := false
	for _, s := range Strategies {
		if o.Strategy == s {
			known = true
			break
		}
	}
	if !known {
		return errors.Wrapf(ErrUnknownStrategy, "%q", o.Strategy)
	}
	minor, major := *o.MinorThreshold, *o.MajorThreshold
	if math.IsNaN(minor) || minor < 0 || minor > 1 || math.IsNaN(major) || major < 0 || major > 1 {
		return errors.Newf("thresholds must be between 0 and 1 (minor %v, major %v)", minor, major)
	}
	if major > minor {
		return errors.Newf("major threshold %v is above minor threshold %v", major, minor)
	}
	return nil
}
