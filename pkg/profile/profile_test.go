package profile

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestNew_Defaults(t *testing.T) {
	p := New("Mine")
	assert.Equal(t, DefaultThreshold, p.SimilarityThreshold)
	assert.True(t, p.IgnoreCase)
	assert.True(t, p.IgnoreWhitespace)
	assert.True(t, p.TreatEmptyAsNull)
	assert.False(t, p.UseFuzzyMatching)
	require.Len(t, p.Attributes, 6)
	for _, cfg := range p.Attributes {
		assert.Equal(t, FieldStandard, cfg.FieldType)
		assert.Equal(t, 1.0, cfg.Weight)
		assert.True(t, cfg.Enabled)
	}
	assert.Equal(t, "Requirement ID", p.Attributes["id"].DisplayName)
	assert.Empty(t, p.Validate())
}

func TestAddAttribute(t *testing.T) {
	p := New("x")
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "safety_level", Weight: 1.7, Enabled: true}))
	cfg := p.Attributes["safety_level"]
	assert.Equal(t, "Safety Level", cfg.DisplayName)
	assert.Equal(t, FieldAttribute, cfg.FieldType)
	assert.Equal(t, DataText, cfg.DataType)
	assert.Equal(t, 1.0, cfg.Weight)

	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "title", Weight: 0.3}))
	assert.Equal(t, FieldStandard, p.Attributes["title"].FieldType)

	assert.Error(t, p.AddAttribute(AttributeConfig{Name: "  "}))
}

func TestRemoveAttribute(t *testing.T) {
	p := New("x")
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "owner", Enabled: true, Weight: 0.5}))
	require.NoError(t, p.RemoveAttribute("owner"))
	assert.NotContains(t, p.Attributes, "owner")

	err := p.RemoveAttribute("title")
	assert.True(t, errors.Is(err, ErrStandardField))
	assert.Contains(t, p.Attributes, "title")

	assert.True(t, errors.Is(p.RemoveAttribute("nope"), ErrUnknownAttribute))
}

func TestWeightsAreClamped(t *testing.T) {
	p := New("x")
	require.NoError(t, p.SetAttributeWeight("title", 3))
	assert.Equal(t, 1.0, p.Attributes["title"].Weight)
	require.NoError(t, p.SetAttributeWeight("title", -2))
	assert.Equal(t, 0.0, p.Attributes["title"].Weight)
	p.SetSimilarityThreshold(1.5)
	assert.Equal(t, 1.0, p.SimilarityThreshold)
}

func TestNormalizeWeights(t *testing.T) {
	p := New("x")
	require.NoError(t, p.SetAttributeEnabled("type", false))
	p.NormalizeWeights()
	assert.InDelta(t, 0.2, p.Attributes["title"].Weight, 1e-9)
	assert.Equal(t, 1.0, p.Attributes["type"].Weight)
	assert.InDelta(t, 1.0, p.TotalWeight(), 1e-9)

	for name := range p.Attributes {
		require.NoError(t, p.SetAttributeWeight(name, 0))
	}
	p.NormalizeWeights()
	assert.Zero(t, p.TotalWeight())
}

func TestResetToDefaults(t *testing.T) {
	p := New("x")
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "owner", Weight: 0.2}))
	require.NoError(t, p.SetAttributeEnabled("status", false))
	require.NoError(t, p.SetAttributeWeight("title", 0.1))
	p.UseFuzzyMatching = true
	p.SimilarityThreshold = 0.4

	p.ResetToDefaults()
	assert.True(t, p.Attributes["status"].Enabled)
	assert.Equal(t, 1.0, p.Attributes["title"].Weight)
	assert.Equal(t, 1.0, p.Attributes["owner"].Weight)
	assert.False(t, p.Attributes["owner"].Enabled)
	assert.False(t, p.UseFuzzyMatching)
	assert.Equal(t, DefaultThreshold, p.SimilarityThreshold)
}

func TestClone_DeepCopy(t *testing.T) {
	p := SystemProfiles()[KeyPriority]
	p.Tags = append(p.Tags, "extra")
	c := p.Clone("")
	assert.Equal(t, "Priority-Focused (Copy)", c.Name)
	assert.False(t, c.IsSystemProfile)
	assert.False(t, c.IsDefault)

	c.Attributes["title"].Weight = 0
	c.Tags[0] = "changed"
	assert.Equal(t, 0.6, p.Attributes["title"].Weight)
	assert.Equal(t, "system", p.Tags[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		issue  string
	}{
		{"valid", func(*Profile) {}, ""},
		{"nothing enabled", func(p *Profile) {
			for _, cfg := range p.Attributes {
				cfg.Enabled = false
			}
		}, "no attributes are enabled"},
		{"zero weight", func(p *Profile) {
			for _, cfg := range p.Attributes {
				cfg.Weight = 0
			}
		}, "total weight"},
		{"threshold", func(p *Profile) { p.SimilarityThreshold = 1.2 }, "similarity threshold"},
		{"duplicate names", func(p *Profile) {
			p.Attributes["heading"] = &AttributeConfig{Name: "title", Enabled: true, Weight: 1}
		}, "duplicate attribute name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("x")
			tt.mutate(p)
			issues := p.Validate()
			err := p.Check()
			if tt.issue == "" {
				assert.Empty(t, issues)
				assert.NoError(t, err)
				return
			}
			require.NotEmpty(t, issues)
			assert.Contains(t, strings.Join(issues, "; "), tt.issue)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, issues, verr.Issues)
		})
	}
}

func TestEnabledAttributesOrder(t *testing.T) {
	p := New("x")
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "zeta", Enabled: true, Weight: 1}))
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "alpha", Enabled: true, Weight: 1}))
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "muted", Enabled: true, Weight: 0}))
	require.NoError(t, p.SetAttributeEnabled("type", false))

	var names []string
	for _, cfg := range p.EnabledAttributes() {
		names = append(names, cfg.Name)
	}
	assert.Equal(t, []string{"id", "title", "description", "priority", "status", "alpha", "muted", "zeta"}, names)
}

func TestSystemProfiles(t *testing.T) {
	sys := SystemProfiles()
	require.Len(t, sys, 3)
	for key, p := range sys {
		assert.True(t, p.IsSystemProfile, key)
		assert.Empty(t, p.Validate(), key)
	}
	assert.False(t, sys[KeyBasic].Attributes["priority"].Enabled)
	assert.Len(t, sys[KeyDetailed].EnabledAttributes(), 6)
	assert.Equal(t, 0.2, sys[KeyPriority].Attributes["type"].Weight)
	assert.True(t, Default().IsDefault)
}

func TestModifiedDateTracksMutations(t *testing.T) {
	p := New("x")
	fixedClock(t)
	require.NoError(t, p.SetAttributeWeight("title", 0.5))
	assert.Equal(t, "2024-05-01T12:00:00Z", p.ModifiedDate)
}
