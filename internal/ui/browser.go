package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/list"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sahilm/fuzzy"
)

// changeItem is one row of the result browser.
type changeItem struct {
	row ChangeRow
}

func (i changeItem) Title() string { return RenderChangeLine(i.row) }

func (i changeItem) Description() string {
	switch {
	case len(i.row.Fields) > 0:
		names := make([]string, len(i.row.Fields))
		for n, f := range i.row.Fields {
			names[n] = f.Name
		}
		return Dim.Render("changed: " + strings.Join(names, ", "))
	case i.row.Replaced:
		return Dim.Render("body text replaced")
	default:
		return Dim.Render(i.row.Kind)
	}
}

func (i changeItem) FilterValue() string { return i.row.Key + " " + i.row.Title }

var kindFilters = []string{"", ChangeModified, ChangeAdded, ChangeDeleted}

// browserModel lists the changes of a comparison with a fuzzy filter and a
// detail pane showing the unified diff of the selected pair.
type browserModel struct {
	textInput textinput.Model
	list      list.Model
	rows      []ChangeRow

	kindIdx  int
	query    string
	detail   *ChangeRow
	quitting bool
	width    int
	height   int
}

// NewBrowser creates the interactive result browser. Unchanged rows are
// left out.
func NewBrowser(title string, rows []ChangeRow) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "Filter by id or title..."
	ti.CharLimit = 128
	ti.SetWidth(50)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorHighlight).
		BorderForeground(ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorTextDim).
		BorderForeground(ColorPrimary)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)

	m := &browserModel{textInput: ti, list: l, width: 80, height: 24}
	for _, r := range rows {
		if r.Kind != ChangeUnchanged {
			m.rows = append(m.rows, r)
		}
	}
	m.applyFilter()
	return m
}

func (m *browserModel) Init() tea.Cmd { return nil }

// visibleRows applies the kind filter, then the fuzzy query ranked by score.
func (m *browserModel) visibleRows() []ChangeRow {
	kind := kindFilters[m.kindIdx]
	var rows []ChangeRow
	for _, r := range m.rows {
		if kind == "" || r.Kind == kind {
			rows = append(rows, r)
		}
	}
	if strings.TrimSpace(m.query) == "" {
		return rows
	}
	targets := make([]string, len(rows))
	for i, r := range rows {
		targets[i] = changeItem{row: r}.FilterValue()
	}
	matches := fuzzy.Find(m.query, targets)
	out := make([]ChangeRow, 0, len(matches))
	for _, match := range matches {
		out = append(out, rows[match.Index])
	}
	return out
}

func (m *browserModel) applyFilter() {
	rows := m.visibleRows()
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = changeItem{row: r}
	}
	m.list.SetItems(items)
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.detail != nil {
			switch msg.String() {
			case "ctrl+c", "q":
				m.quitting = true
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.detail = nil
			}
			return m, nil
		}

		if m.textInput.Focused() {
			switch msg.String() {
			case "ctrl+c":
				m.quitting = true
				return m, tea.Quit
			case "esc", "enter", "down", "up":
				m.textInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			if q := m.textInput.Value(); q != m.query {
				m.query = q
				m.applyFilter()
			}
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if it, ok := m.list.SelectedItem().(changeItem); ok {
				row := it.row
				m.detail = &row
			}
			return m, nil
		case "tab":
			m.kindIdx = (m.kindIdx + 1) % len(kindFilters)
			m.applyFilter()
			return m, nil
		case "/":
			m.textInput.Focus()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *browserModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	if m.detail != nil {
		return tea.NewView(m.detailView())
	}

	var b strings.Builder
	b.WriteString(Dim.Render("Filter: "))
	b.WriteString(m.textInput.View())
	kind := kindFilters[m.kindIdx]
	if kind == "" {
		kind = "all"
	}
	b.WriteString("  " + Dim.Render("showing: ") + Highlight.Render(kind))
	b.WriteString("\n\n")
	b.WriteString(m.list.View())
	b.WriteString("\n\n")

	help := lipgloss.NewStyle().Foreground(ColorTextDim)
	if m.textInput.Focused() {
		b.WriteString(help.Render("type to filter · enter/esc: back to list"))
	} else {
		b.WriteString(help.Render("↑/↓: navigate · enter: details · tab: change kind · /: filter · q: quit"))
	}
	return tea.NewView(b.String())
}

func (m *browserModel) detailView() string {
	r := m.detail
	var b strings.Builder
	b.WriteString(RenderChangeLine(*r))
	b.WriteString("\n")
	for _, f := range r.Fields {
		b.WriteString("\n  " + renderFieldChange(f))
	}
	if r.Diff != "" {
		b.WriteString("\n\n")
		for _, line := range strings.Split(strings.TrimRight(r.Diff, "\n"), "\n") {
			b.WriteString(colorDiffLine(line))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorTextDim).Render("esc/enter: back · q: quit"))
	return Box.Render(b.String())
}

func colorDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return Bold.Render(line)
	case strings.HasPrefix(line, "@@"):
		return Secondary.Render(line)
	case strings.HasPrefix(line, "+"):
		return Added.Render(line)
	case strings.HasPrefix(line, "-"):
		return Deleted.Render(line)
	default:
		return line
	}
}

// RunBrowser opens the browser for rows and blocks until the user quits.
func RunBrowser(title string, rows []ChangeRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("no changes to browse")
	}
	_, err := tea.NewProgram(NewBrowser(title, rows)).Run()
	return err
}
