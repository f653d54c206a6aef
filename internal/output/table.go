// Package output provides terminal output utilities for brewpick.
//
// This package includes:
//   - Renderers for search results, package previews and the install queue
//   - Progress bars for reported installer progress
//   - Spinners for brew invocations of unknown length
//
// Renderers return strings and use ANSI color codes only when stdout is a
// terminal and NO_COLOR is unset. Progress indicators are thread-safe.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/search"
)

// ANSI color codes for stage and dependency display
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// SectionFilter selects which result sections RenderSearchResults prints.
type SectionFilter struct {
	HideFormulae bool
	HideCasks    bool
}

// RenderSearchResults renders the formula and cask sections of a search,
// one package per row with its short selection token.
func RenderSearchResults(snap search.Snapshot, filter SectionFilter) string {
	var sb strings.Builder

	if snap.Len() == 0 {
		sb.WriteString(fmt.Sprintf("No formulae or casks found for %q.\n", snap.Query))
		return sb.String()
	}

	if !filter.HideFormulae {
		renderSection(&sb, "Formulae", snap.Formulae)
	}
	if !filter.HideCasks {
		if !filter.HideFormulae {
			sb.WriteString("\n")
		}
		renderSection(&sb, "Casks", snap.Casks)
	}

	return sb.String()
}

func renderSection(sb *strings.Builder, title string, pkgs []brew.Package) {
	sb.WriteString(colorize(colorBold, fmt.Sprintf("%s (%d)", title, len(pkgs))))
	sb.WriteString("\n")

	if len(pkgs) == 0 {
		sb.WriteString(colorize(colorGray, "  (none)"))
		sb.WriteString("\n")
		return
	}

	sb.WriteString(fmt.Sprintf("  %-10s %s\n", "Token", "Name"))
	sb.WriteString("  " + strings.Repeat("─", 40) + "\n")
	for _, pkg := range pkgs {
		sb.WriteString(fmt.Sprintf("  %-10s %s\n", search.ShortToken(pkg.Token), truncate(pkg.Name, 48)))
	}
}

// RenderPreview renders the metadata block for pkg. A nil Dependencies slice
// is shown as not loaded; an empty one as no dependencies.
func RenderPreview(pkg brew.Package, meta brew.Metadata) string {
	var sb strings.Builder

	sb.WriteString(colorize(colorBold, pkg.Name))
	sb.WriteString(fmt.Sprintf(" (%s)\n", pkg.Category))

	sb.WriteString(fmt.Sprintf("%-13s %s\n", "Description:", orDash(meta.Description)))
	sb.WriteString(fmt.Sprintf("%-13s %s\n", "Homepage:", orDash(meta.HomepageString())))
	sb.WriteString(fmt.Sprintf("%-13s %s\n", "Tap:", orDash(meta.Tap)))

	switch {
	case meta.Dependencies == nil:
		sb.WriteString(fmt.Sprintf("%-13s %s\n", "Dependencies:", colorize(colorGray, "not loaded")))
	case len(meta.Dependencies) == 0:
		sb.WriteString(fmt.Sprintf("%-13s %s\n", "Dependencies:", "none"))
	default:
		sb.WriteString(fmt.Sprintf("Dependencies (%d):\n", len(meta.Dependencies)))
		for _, dep := range meta.Dependencies {
			sb.WriteString("  " + formatDependency(dep) + "\n")
		}
	}

	return sb.String()
}

func formatDependency(dep brew.Dependency) string {
	mark := colorize(colorGray, "·")
	if dep.Installed {
		mark = colorize(colorGreen, "✓")
	}
	line := fmt.Sprintf("%s %s", mark, dep.Name)
	if dep.Kind != brew.DependencyRuntime && dep.Kind != "" {
		line += colorize(colorGray, fmt.Sprintf(" [%s]", dep.Kind))
	}
	return line
}

// RenderInstallState renders the install queue record. now anchors the
// relative "updated" time.
func RenderInstallState(st install.State, now time.Time) string {
	if !st.Queued() {
		return "Nothing queued for installation.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)  %s\n",
		colorize(colorBold, st.Package.Name),
		st.Package.Category,
		colorize(stageColor(st.Stage), strings.ToUpper(st.Stage.String()))))

	sb.WriteString(fmt.Sprintf("%s %3d%%\n", RenderBar(st.Progress, 30), int(st.Progress*100)))

	if st.Stage == install.StageFailed && st.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason: %s\n", st.Reason))
	}
	if !st.UpdatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Updated %s\n", humanize.RelTime(st.UpdatedAt, now, "ago", "from now")))
	}

	return sb.String()
}

func stageColor(stage install.Stage) string {
	switch stage {
	case install.StageSucceeded:
		return colorGreen
	case install.StageRunning:
		return colorYellow
	case install.StageFailed:
		return colorRed
	default:
		return colorGray
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
