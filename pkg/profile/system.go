package profile

// System profile keys accepted wherever a profile name is.
const (
	KeyBasic    = "basic"
	KeyDetailed = "detailed"
	KeyPriority = "priority"
)

// SystemProfiles returns fresh copies of the built-in profiles keyed by
// their short key.
func SystemProfiles() map[string]*Profile {
	basic := New("Basic Comparison")
	basic.Description = "Compare requirement ID, title and description only"
	for _, f := range []string{"type", "priority", "status"} {
		basic.Attributes[f].Enabled = false
	}
	basic.Tags = []string{"system", "basic"}

	detailed := New("Detailed Comparison")
	detailed.Description = "Compare every standard requirement field"
	detailed.Tags = []string{"system", "detailed"}

	priority := New("Priority-Focused")
	priority.Description = "Weigh priority and status above content changes"
	for f, w := range map[string]float64{
		"priority":    1.0,
		"status":      1.0,
		"title":       0.6,
		"description": 0.4,
		"type":        0.2,
	} {
		priority.Attributes[f].Weight = w
	}
	priority.Tags = []string{"system", "priority"}

	out := map[string]*Profile{
		KeyBasic:    basic,
		KeyDetailed: detailed,
		KeyPriority: priority,
	}
	for _, p := range out {
		p.IsSystemProfile = true
	}
	basic.IsDefault = true
	return out
}

// Default returns a fresh copy of the default system profile.
func Default() *Profile { return SystemProfiles()[KeyBasic] }
