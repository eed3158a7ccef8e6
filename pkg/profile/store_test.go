package profile

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	p := New("Round Trip")
	p.Description = "weights survive"
	require.NoError(t, p.AddAttribute(AttributeConfig{Name: "Safety Relevant", Enabled: true, Weight: 0.35, DataType: DataBoolean, Coverage: 0.5}))
	p.UseFuzzyMatching = true
	p.SimilarityThreshold = 0.75
	p.Tags = []string{"team"}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(p, format)
			require.NoError(t, err)
			back, err := Unmarshal(data, format)
			require.NoError(t, err)
			assert.Equal(t, p, back)
		})
	}
}

func TestUnmarshal_DefaultsAndClamping(t *testing.T) {
	data := []byte(`{
  "name": "Sparse",
  "similarity_threshold": 4,
  "attributes": {
    "owner": {"weight": 2.5},
    "title": {"enabled": false}
  }
}`)
	p, err := Unmarshal(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.SimilarityThreshold)
	assert.True(t, p.IgnoreCase)
	assert.Equal(t, DefaultVersion, p.Version)
	assert.NotEmpty(t, p.CreatedDate)

	owner := p.Attributes["owner"]
	require.NotNil(t, owner)
	assert.Equal(t, "owner", owner.Name)
	assert.Equal(t, "Owner", owner.DisplayName)
	assert.True(t, owner.Enabled)
	assert.Equal(t, 1.0, owner.Weight)
	assert.Equal(t, FieldAttribute, owner.FieldType)

	title := p.Attributes["title"]
	assert.False(t, title.Enabled)
	assert.Equal(t, FieldStandard, title.FieldType)

	_, err = Unmarshal([]byte("{"), FormatJSON)
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("b.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("b.json"))
	assert.Equal(t, FormatJSON, FormatForPath("b"))
}

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := NewStore(fs, "/profiles")
	require.NoError(t, err)
	return s, fs
}

func TestStore_SystemProfiles(t *testing.T) {
	s, _ := newTestStore(t)
	list := s.List()
	require.Len(t, list, 3)
	for _, p := range list {
		assert.True(t, p.IsSystemProfile)
	}

	p, err := s.Get("basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic Comparison", p.Name)

	p.Attributes["title"].Weight = 0
	again, err := s.Get("Basic Comparison")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Attributes["title"].Weight)

	assert.True(t, errors.Is(s.Remove("basic"), ErrSystemProfile))
	assert.True(t, errors.Is(s.Save(again), ErrSystemProfile))
}

func TestStore_AddSaveRemove(t *testing.T) {
	s, fs := newTestStore(t)
	p := New("Team/Review")
	require.NoError(t, s.Add(p))

	exists, err := afero.Exists(fs, "/profiles/Team_Review.json")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, errors.Is(s.Add(p), ErrProfileExists))

	reloaded, err := NewStore(fs, "/profiles")
	require.NoError(t, err)
	got, err := reloaded.Get("Team/Review")
	require.NoError(t, err)
	assert.Equal(t, p.Attributes, got.Attributes)

	require.NoError(t, s.Remove("Team/Review"))
	exists, _ = afero.Exists(fs, "/profiles/Team_Review.json")
	assert.False(t, exists)
	_, err = s.Get("Team/Review")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
}

func TestStore_RejectsInvalidProfile(t *testing.T) {
	s, _ := newTestStore(t)
	p := New("Broken")
	for _, cfg := range p.Attributes {
		cfg.Enabled = false
	}
	assert.True(t, errors.Is(s.Add(p), ErrInvalidProfile))
}

func TestStore_ImportResolvesConflicts(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, s.Add(New("Shared")))

	src := New("Shared")
	src.IsSystemProfile = true
	data, err := Marshal(src, FormatYAML)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/in/shared.yaml", data, 0o644))

	first, err := s.Import("/in/shared.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Shared (1)", first.Name)
	assert.False(t, first.IsSystemProfile)

	second, err := s.Import("/in/shared.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Shared (2)", second.Name)
}

func TestStore_Export(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, s.Export("priority", "/out/priority.yaml"))
	data, err := afero.ReadFile(fs, "/out/priority.yaml")
	require.NoError(t, err)
	p, err := Unmarshal(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "Priority-Focused", p.Name)
	assert.Equal(t, 0.4, p.Attributes["description"].Weight)
}

func TestStore_SkipsBrokenFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/profiles/bad.json", []byte("{"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/profiles/notes.txt", []byte("x"), 0o644))
	s, err := NewStore(fs, "/profiles")
	require.NoError(t, err)
	assert.Len(t, s.Warnings(), 1)
	assert.Len(t, s.List(), 3)
}

func TestStore_Suggest(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get("detaild")
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "Detailed Comparison")
	assert.Contains(t, s.Suggest("prio"), `"Priority-Focused"`)
}
