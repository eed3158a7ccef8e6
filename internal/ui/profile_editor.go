package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"github.com/jdai-explore/beyond-reqif/internal/apperr"
)

// ProfileFormAttribute mirrors profile.AttributeConfig for editing.
type ProfileFormAttribute struct {
	Name        string
	DisplayName string
	FieldType   string
	Enabled     bool
	Weight      float64
}

// ProfileForm mirrors the editable part of profile.Profile.
type ProfileForm struct {
	Name             string
	Description      string
	Threshold        float64
	IgnoreCase       bool
	IgnoreWhitespace bool
	TreatEmptyAsNull bool
	UseFuzzyMatching bool
	Attributes       []ProfileFormAttribute
	// NameLocked keeps the name field read-only when editing a stored profile.
	NameLocked bool
}

const (
	optIgnoreCase       = "ignore-case"
	optIgnoreWhitespace = "ignore-whitespace"
	optEmptyAsNull      = "empty-as-null"
	optFuzzy            = "fuzzy"
)

// RunProfileEditor edits f in place through an interactive form. Aborting
// the form returns apperr.ErrCancelled and leaves f untouched.
func RunProfileEditor(f *ProfileForm) error {
	name, desc := f.Name, f.Description
	threshold := formatUnit(f.Threshold)

	var options []string
	for opt, on := range map[string]bool{
		optIgnoreCase:       f.IgnoreCase,
		optIgnoreWhitespace: f.IgnoreWhitespace,
		optEmptyAsNull:      f.TreatEmptyAsNull,
		optFuzzy:            f.UseFuzzyMatching,
	} {
		if on {
			options = append(options, opt)
		}
	}

	var enabled []string
	attrOptions := make([]huh.Option[string], 0, len(f.Attributes))
	for _, a := range f.Attributes {
		label := a.Name
		if a.DisplayName != "" && a.DisplayName != a.Name {
			label = fmt.Sprintf("%s (%s)", a.DisplayName, a.Name)
		}
		attrOptions = append(attrOptions, huh.NewOption(label, a.Name))
		if a.Enabled {
			enabled = append(enabled, a.Name)
		}
	}

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewNote().
				Title("Comparison Profile").
				Description("Choose which attributes take part in a comparison and how much each one counts.").
				Next(true).
				NextLabel("Continue"),
		),
		huh.NewGroup(
			nameField(&name, f.NameLocked),
			huh.NewText().
				Title("Description").
				Value(&desc).
				Lines(3).
				CharLimit(500),
			huh.NewInput().
				Title("Similarity threshold").
				Description("Between 0 and 1. Pairs below it are not matched by text.").
				Value(&threshold).
				Validate(func(s string) error {
					_, err := ParseUnit(s)
					return err
				}),
			huh.NewMultiSelect[string]().
				Title("Normalization").
				Options(
					huh.NewOption("Ignore case", optIgnoreCase),
					huh.NewOption("Ignore whitespace", optIgnoreWhitespace),
					huh.NewOption("Treat empty as missing", optEmptyAsNull),
					huh.NewOption("Fuzzy value matching", optFuzzy),
				).
				Value(&options),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Enabled attributes").
				Options(attrOptions...).
				Value(&enabled).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("enable at least one attribute")
					}
					return nil
				}),
		),
	}
	if err := huh.NewForm(groups...).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return apperr.ErrCancelled
		}
		return err
	}

	on := make(map[string]bool, len(enabled))
	for _, n := range enabled {
		on[n] = true
	}
	weights := make([]string, len(f.Attributes))
	var weightFields []huh.Field
	for i, a := range f.Attributes {
		if !on[a.Name] {
			continue
		}
		weights[i] = formatUnit(a.Weight)
		weightFields = append(weightFields, huh.NewInput().
			Title("Weight of "+a.Name).
			Value(&weights[i]).
			Validate(func(s string) error {
				_, err := ParseUnit(s)
				return err
			}))
	}
	if len(weightFields) > 0 {
		if err := huh.NewForm(huh.NewGroup(weightFields...).Title("Attribute weights")).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return apperr.ErrCancelled
			}
			return err
		}
	}

	f.Name = strings.TrimSpace(name)
	f.Description = strings.TrimSpace(desc)
	f.Threshold, _ = ParseUnit(threshold)
	f.IgnoreCase, f.IgnoreWhitespace, f.TreatEmptyAsNull, f.UseFuzzyMatching = false, false, false, false
	for _, opt := range options {
		switch opt {
		case optIgnoreCase:
			f.IgnoreCase = true
		case optIgnoreWhitespace:
			f.IgnoreWhitespace = true
		case optEmptyAsNull:
			f.TreatEmptyAsNull = true
		case optFuzzy:
			f.UseFuzzyMatching = true
		}
	}
	for i := range f.Attributes {
		a := &f.Attributes[i]
		a.Enabled = on[a.Name]
		if a.Enabled {
			a.Weight, _ = ParseUnit(weights[i])
		}
	}
	return nil
}

func nameField(name *string, locked bool) huh.Field {
	if locked {
		return huh.NewNote().Title("Name").Description(*name)
	}
	return huh.NewInput().
		Title("Name").
		Value(name).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a name is required")
			}
			return nil
		})
}

// ParseUnit parses a number in [0, 1].
func ParseUnit(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("must be between 0 and 1")
	}
	return v, nil
}

func formatUnit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ProfileRow mirrors the listing fields of profile.Profile.
type ProfileRow struct {
	Key         string
	Name        string
	Description string
	Enabled     int
	Total       int
	System      bool
	Default     bool
}

// ProfileDetails mirrors profile.Profile for display.
type ProfileDetails struct {
	ProfileRow
	Threshold        float64
	IgnoreCase       bool
	IgnoreWhitespace bool
	TreatEmptyAsNull bool
	UseFuzzyMatching bool
	Tags             []string
	Modified         string
	Attributes       []ProfileFormAttribute
}

// ProfileUI renders profile listings.
type ProfileUI struct {
	writer io.Writer
	quiet  bool
}

// NewProfileUI creates a new UI handler for the profile commands.
func NewProfileUI(w io.Writer, quiet bool) *ProfileUI {
	return &ProfileUI{writer: w, quiet: quiet}
}

// PrintList renders one line per profile.
func (p *ProfileUI) PrintList(rows []ProfileRow) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.writer, SectionHeader.Render(fmt.Sprintf("Profiles (%d)", len(rows))))
	for _, r := range rows {
		marker := GetBullet()
		if r.Default {
			marker = Success.Render("★")
		}
		line := fmt.Sprintf("%s %s %s", marker, Highlight.Render(r.Name), Dim.Render(fmt.Sprintf("%d/%d attributes", r.Enabled, r.Total)))
		if r.System {
			line += " " + Muted.Render("[system: "+r.Key+"]")
		}
		fmt.Fprintln(p.writer, line)
		if r.Description != "" {
			fmt.Fprintln(p.writer, "    "+Dim.Render(r.Description))
		}
	}
}

// PrintDetails renders one profile with its attribute weights.
func (p *ProfileUI) PrintDetails(d ProfileDetails) {
	if p.quiet {
		return
	}
	var sb strings.Builder
	sb.WriteString(Title.Render(d.Name))
	if d.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(Subtitle.Render(d.Description))
	}
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Similarity threshold", RenderPercentage(d.Threshold)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Options", strings.Join(onFlags(d), ", ")))
	if len(d.Tags) > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Tags", strings.Join(d.Tags, ", ")))
	}
	if d.Modified != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Modified", d.Modified))
	}
	sb.WriteString("\n\n")
	sb.WriteString(SectionHeader.Render("Attributes"))
	for _, a := range d.Attributes {
		mark := GetCheckMark()
		if !a.Enabled {
			mark = Muted.Render("○")
		}
		sb.WriteString(fmt.Sprintf("\n%s %-24s %-9s %s %.2f", mark, truncate(a.Name, 24), a.FieldType, RenderProgressBar(a.Weight, 10), a.Weight))
	}
	fmt.Fprintln(p.writer, Box.Render(sb.String()))
}

func onFlags(d ProfileDetails) []string {
	var out []string
	if d.IgnoreCase {
		out = append(out, "ignore case")
	}
	if d.IgnoreWhitespace {
		out = append(out, "ignore whitespace")
	}
	if d.TreatEmptyAsNull {
		out = append(out, "empty as missing")
	}
	if d.UseFuzzyMatching {
		out = append(out, "fuzzy values")
	}
	if len(out) == 0 {
		return []string{"exact"}
	}
	return out
}
