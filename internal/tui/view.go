package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/search"
)

// View renders the picker.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("brewpick"))
	b.WriteString("\n")

	if m.mode == viewSearch {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(dimStyle.Render("/ " + m.input.Value()))
	}
	b.WriteString("\n")

	list := m.renderList()
	if m.previewState().Visible {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.renderPreview()))
	} else {
		b.WriteString(list)
	}
	b.WriteString("\n")

	if m.mode == viewConfirm {
		if pkg, ok := m.current(); ok {
			b.WriteString(modalStyle.Render(fmt.Sprintf("Queue %s (%s) for installation? [y/n]", pkg.Name, pkg.Category)))
			b.WriteString("\n")
		}
	}

	switch {
	case m.alert != "":
		b.WriteString(errorStyle.Render(m.alert))
	case m.searching:
		b.WriteString(m.spinner.View() + " " + m.status)
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderList() string {
	var b strings.Builder
	cur, hasCur := m.current()

	sections := []struct {
		title    string
		category brew.Category
		pkgs     []brew.Package
	}{
		{"Formulae", brew.CategoryFormula, m.snap.Formulae},
		{"Casks", brew.CategoryCask, m.snap.Casks},
	}

	for _, sec := range sections {
		arrow := "▾"
		if m.collapsed[sec.category] {
			arrow = "▸"
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s (%d)", arrow, sec.title, len(sec.pkgs))))
		b.WriteString("\n")

		if m.collapsed[sec.category] {
			continue
		}
		if len(sec.pkgs) == 0 {
			b.WriteString(dimStyle.Render("  (none)"))
			b.WriteString("\n")
			continue
		}
		for _, pkg := range m.window(sec.pkgs, cur) {
			line := fmt.Sprintf("%s  %s", search.ShortToken(pkg.Token), pkg.Name)
			if hasCur && pkg.Token == cur.Token {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString(normalStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// window limits a section to what fits on screen, keeping cur visible.
func (m Model) window(pkgs []brew.Package, cur brew.Package) []brew.Package {
	rows := m.height/2 - 4
	if m.height == 0 || rows >= len(pkgs) {
		return pkgs
	}
	if rows < 3 {
		rows = 3
	}

	start := 0
	for i, pkg := range pkgs {
		if pkg.Token == cur.Token {
			start = i - rows/2
			break
		}
	}
	if start < 0 {
		start = 0
	}
	if start+rows > len(pkgs) {
		start = len(pkgs) - rows
	}
	return pkgs[start : start+rows]
}

func (m Model) renderPreview() string {
	state := m.previewState()
	var b strings.Builder

	if state.Package == nil {
		b.WriteString(dimStyle.Render("Nothing selected"))
		return m.previewBox(b.String())
	}

	b.WriteString(selectedStyle.Render(state.Package.Name))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", state.Package.Category)))
	b.WriteString("\n")
	if state.Loading {
		b.WriteString(m.spinner.View() + " loading")
		b.WriteString("\n")
	}

	meta := state.Metadata
	if meta.Description != "" {
		b.WriteString(meta.Description + "\n")
	}
	if home := meta.HomepageString(); home != "" {
		b.WriteString("Homepage: " + home + "\n")
	}
	if meta.Tap != "" {
		b.WriteString("Tap: " + meta.Tap + "\n")
	}

	switch {
	case meta.Dependencies == nil:
	case len(meta.Dependencies) == 0:
		b.WriteString(dimStyle.Render("No dependencies") + "\n")
	default:
		b.WriteString(fmt.Sprintf("Dependencies (%d):\n", len(meta.Dependencies)))
		for _, dep := range meta.Dependencies {
			name := dep.Name
			if dep.Kind != brew.DependencyRuntime {
				name += dimStyle.Render(" [" + string(dep.Kind) + "]")
			}
			if dep.Installed {
				b.WriteString(installedStyle.Render("  ✓ ") + name + "\n")
			} else {
				b.WriteString("    " + name + "\n")
			}
		}
	}

	if state.Err != nil && !state.Loading {
		b.WriteString(dimStyle.Render("Some details could not be loaded"))
	}

	return m.previewBox(strings.TrimRight(b.String(), "\n"))
}

func (m Model) previewBox(content string) string {
	style := previewStyle
	if m.width > 0 {
		w := m.width/2 - 4
		if w > 20 {
			style = style.Width(w)
		}
	}
	return style.Render(content)
}

func (m Model) helpLine() string {
	switch m.mode {
	case viewSearch:
		return "Enter search · Esc cancel"
	case viewConfirm:
		return "y queue · n cancel"
	}

	bindings := []struct {
		keys, help string
	}{
		{m.keys.Up.Help().Key + " " + m.keys.Down.Help().Key, "move"},
		{m.keys.Search.Help().Key, m.keys.Search.Help().Desc},
		{m.keys.Queue.Help().Key, m.keys.Queue.Help().Desc},
		{m.keys.TogglePreview.Help().Key, m.keys.TogglePreview.Help().Desc},
		{m.keys.ToggleFormulae.Help().Key + "/" + m.keys.ToggleCasks.Help().Key, "collapse"},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		parts = append(parts, kb.keys+" "+kb.help)
	}
	return strings.Join(parts, " · ")
}
