package compare

import (
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/jdai-explore/beyond-reqif/pkg/profile"
	"github.com/jdai-explore/beyond-reqif/pkg/reqif"
)

var now = time.Now

// Compare pairs the requirements of old and new under opts.Strategy and
// diffs every pair against the enabled attributes of p. An invalid profile
// is rejected with a *profile.ValidationError before any work is done.
// Neither document nor the profile is modified.
func Compare(old, new *reqif.ParsedDocument, p *profile.Profile, opts Options) (*Result, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}
	if old == nil || new == nil {
		return nil, errors.New("compare: both documents are required")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	c := &comparison{
		old:     old,
		new:     new,
		profile: p,
		opts:    opts,
		norm:    newNormalizer(p),
		attrs:   p.EnabledAttributes(),
		result:  newResult(),
	}
	c.result.RunID = uuid.NewString()
	c.result.CreatedAt = now().UTC()
	c.result.OldSource = old.Source
	c.result.NewSource = new.Source
	c.result.Profile = p.Name
	c.result.Strategy = opts.Strategy

	c.run()
	c.result.summarize(len(old.Requirements), len(new.Requirements))
	logf(new.Source, "%s: %d added, %d modified, %d deleted, %d unchanged",
		opts.Strategy, c.result.Summary.AddedCount, c.result.Summary.ModifiedCount,
		c.result.Summary.DeletedCount, c.result.Summary.UnchangedCount)
	return c.result, nil
}

type comparison struct {
	old, new *reqif.ParsedDocument
	profile  *profile.Profile
	opts     Options
	norm     normalizer
	attrs    []*profile.AttributeConfig
	result   *Result
}

func (c *comparison) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.result.Warnings = append(c.result.Warnings, msg)
	logf("", "%s", msg)
}

func (c *comparison) run() {
	strategy := c.opts.Strategy
	oldIDs, newIDs := c.old.IDs(), c.new.IDs()

	if strategy == FuzzyMatching || strategy == ContentBased {
		if len(oldIDs) > c.opts.FuzzyLimit || len(newIDs) > c.opts.FuzzyLimit {
			c.warnf("%d/%d requirements exceed the similarity pairing limit of %d per side; falling back to %s",
				len(oldIDs), len(newIDs), c.opts.FuzzyLimit, IDOnly)
			strategy = IDOnly
		}
	}

	var pairs []pair
	var unmatchedOld, unmatchedNew []string
	if strategy == ContentBased {
		unmatchedOld, unmatchedNew = oldIDs, newIDs
	} else {
		for _, id := range oldIDs {
			if _, ok := c.new.Requirements[id]; ok {
				pairs = append(pairs, pair{old: id, new: id, score: 1})
			} else {
				unmatchedOld = append(unmatchedOld, id)
			}
		}
		for _, id := range newIDs {
			if _, ok := c.old.Requirements[id]; !ok {
				unmatchedNew = append(unmatchedNew, id)
			}
		}
	}

	if strategy == FuzzyMatching || strategy == ContentBased {
		matched := greedyPairs(unmatchedOld, unmatchedNew, c.profile.SimilarityThreshold, func(o, n string) float64 {
			return TextSimilarity(c.old.Requirements[o], c.new.Requirements[n])
		})
		pairs = append(pairs, matched...)
		usedOld := make(map[string]bool, len(matched))
		usedNew := make(map[string]bool, len(matched))
		for _, m := range matched {
			usedOld[m.old], usedNew[m.new] = true, true
		}
		unmatchedOld = without(unmatchedOld, usedOld)
		unmatchedNew = without(unmatchedNew, usedNew)
	}

	for _, id := range unmatchedOld {
		c.result.Deleted[id] = c.old.Requirements[id]
	}
	for _, id := range unmatchedNew {
		c.result.Added[id] = c.new.Requirements[id]
	}
	for _, pr := range pairs {
		c.diffPair(pr, strategy)
	}
}

func without(ids []string, used map[string]bool) []string {
	var out []string
	for _, id := range ids {
		if !used[id] {
			out = append(out, id)
		}
	}
	return out
}

func (c *comparison) diffPair(pr pair, strategy Strategy) {
	oldReq, newReq := c.old.Requirements[pr.old], c.new.Requirements[pr.new]
	key := pairKey(pr.old, pr.new)

	diffs, similarity := c.diffAttributes(oldReq, newReq)
	textSim := TextSimilarity(oldReq, newReq)
	replaced := strategy == IDAndText && pr.old == pr.new && textSim < c.profile.SimilarityThreshold

	if len(diffs) == 0 && !replaced {
		c.result.Unchanged[key] = newReq
		return
	}
	c.result.Modified[key] = &Modification{
		OldID:          pr.old,
		NewID:          pr.new,
		Old:            oldReq,
		New:            newReq,
		FieldDiffs:     diffs,
		Similarity:     similarity,
		TextSimilarity: textSim,
		Replaced:       replaced,
	}
}

// diffAttributes compares every enabled attribute and returns the differing
// ones plus the weighted mean similarity. Weight 0 attributes are diffed but
// do not count toward the mean.
func (c *comparison) diffAttributes(oldReq, newReq *reqif.Requirement) ([]FieldDiff, float64) {
	var diffs []FieldDiff
	var weighted, total float64
	for _, cfg := range c.attrs {
		ov, oOK := oldReq.Field(cfg.Name)
		nv, nOK := newReq.Field(cfg.Name)
		a, b := c.norm.apply(ov, oOK), c.norm.apply(nv, nOK)
		sim := c.norm.attributeSimilarity(a, b, c.profile.UseFuzzyMatching, cfg.DataType)

		if cfg.Weight > 0 {
			weighted += sim * cfg.Weight
			total += cfg.Weight
		}
		if a == b {
			continue
		}
		diffs = append(diffs, FieldDiff{
			Attribute:    cfg.Name,
			DisplayName:  cfg.DisplayName,
			OldValue:     ov,
			NewValue:     nv,
			Weight:       cfg.Weight,
			Similarity:   sim,
			Significance: c.significance(sim),
		})
	}
	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].Weight > diffs[j].Weight })
	if total == 0 {
		return diffs, 1
	}
	return diffs, weighted / total
}

func (c *comparison) significance(sim float64) Significance {
	switch {
	case sim >= *c.opts.MinorThreshold:
		return Minor
	case sim < *c.opts.MajorThreshold:
		return Major
	default:
		return Minor
	}
}
