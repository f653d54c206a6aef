// Package tui implements the interactive package picker behind
// `brewpick browse`.
//
// All session and loader mutations happen in Update. Commands only run brew
// (Session.Find, Loader.Fetch) and hand their results back as messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/preview"
	"github.com/blackwell-systems/brewpick/internal/search"
	"github.com/blackwell-systems/brewpick/internal/session"
)

type viewMode int

const (
	viewList viewMode = iota
	viewSearch
	viewConfirm
)

// Options configures the picker.
type Options struct {
	// Context bounds every brew invocation started by the picker.
	Context context.Context
	// Query, when set, is searched for on start.
	Query  string
	Logger *slog.Logger
}

// Model is the bubbletea model for the picker.
//
//nolint:containedctx // commands started from Update need the program context
type Model struct {
	ctx    context.Context
	sess   *session.Session
	logger *slog.Logger
	keys   keyMap

	width  int
	height int
	mode   viewMode

	input   textinput.Model
	spinner spinner.Model

	snap      search.Snapshot
	collapsed map[brew.Category]bool
	cursor    int

	searchSeq int
	searching bool

	status string
	alert  string
	queued *brew.Package

	initCmds []tea.Cmd
}

// New creates the picker over sess. Results already held by the session are
// shown immediately.
func New(sess *session.Session, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search formulae and casks..."
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	m := Model{
		ctx:       opts.Context,
		sess:      sess,
		logger:    opts.Logger,
		keys:      defaultKeyMap(),
		input:     ti,
		spinner:   sp,
		snap:      sess.Results().Snapshot(),
		collapsed: make(map[brew.Category]bool),
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	query := strings.TrimSpace(opts.Query)
	switch {
	case query != "":
		m.input.SetValue(query)
		var cmd tea.Cmd
		m, cmd = m.startSearch(query)
		m.initCmds = append(m.initCmds, cmd)
	case m.snap.Len() > 0:
		m.input.SetValue(m.snap.Query)
		var cmd tea.Cmd
		m, cmd = m.selectCurrent()
		m.initCmds = append(m.initCmds, cmd)
	default:
		m.mode = viewSearch
		m.input.Focus()
		m.initCmds = append(m.initCmds, textinput.Blink)
	}

	return m
}

// Init starts the initial search or preview.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initCmds...)
}

// Queued returns the package confirmed for installation, if any.
func (m Model) Queued() (brew.Package, bool) {
	if m.queued == nil {
		return brew.Package{}, false
	}
	return *m.queued, true
}

// Alert returns the last error shown to the user.
func (m Model) Alert() string {
	return m.alert
}

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case searchResultsMsg:
		return m.handleSearchResults(msg)

	case previewMsg:
		if !m.sess.Preview().Apply(msg.resp) {
			m.logger.Debug("discarded stale preview", "package", msg.resp.Package.Name)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) loading() bool {
	return m.searching || m.sess.Preview().State().Loading
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case viewSearch:
		return m.handleSearchKey(msg)
	case viewConfirm:
		return m.handleConfirmKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.mode = viewSearch
		m.alert = ""
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			return m.selectCurrent()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
			return m.selectCurrent()
		}

	case key.Matches(msg, m.keys.ToggleFormulae):
		return m.toggleSection(brew.CategoryFormula)

	case key.Matches(msg, m.keys.ToggleCasks):
		return m.toggleSection(brew.CategoryCask)

	case key.Matches(msg, m.keys.TogglePreview):
		loader := m.sess.Preview()
		loader.SetVisible(!loader.State().Visible)

	case key.Matches(msg, m.keys.Queue):
		if _, ok := m.current(); ok {
			m.mode = viewConfirm
			m.alert = ""
		}
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = viewList
		m.input.Blur()
		m.input.SetValue(m.snap.Query)
		return m, nil

	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.mode = viewList
		m.input.Blur()
		return m.startSearch(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = viewList
		pkg, err := m.sess.Confirm()
		if err != nil {
			// ErrCouldNotAssociatePackage dismisses the workflow; the
			// session has already left the install queue untouched.
			m.alert = fmt.Sprintf("Error: %v", err)
			if errors.Is(err, session.ErrCouldNotAssociatePackage) {
				m.alert += " (search again)"
			}
			return m, nil
		}
		m.queued = &pkg
		m.status = fmt.Sprintf("Queued %s for installation", pkg.Name)
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.mode = viewList
		return m, nil

	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) startSearch(query string) (Model, tea.Cmd) {
	m.searchSeq++
	m.searching = true
	m.alert = ""
	m.status = fmt.Sprintf("Searching for %q", m.sess.ExpandQuery(query))

	seq, ctx, sess := m.searchSeq, m.ctx, m.sess
	return m, tea.Batch(
		func() tea.Msg {
			snap, err := sess.Find(ctx, query)
			return searchResultsMsg{seq: seq, snap: snap, err: err}
		},
		m.spinner.Tick,
	)
}

func (m Model) handleSearchResults(msg searchResultsMsg) (Model, tea.Cmd) {
	if msg.seq != m.searchSeq {
		m.logger.Debug("discarded stale search", "query", msg.snap.Query)
		return m, nil
	}
	m.searching = false

	if msg.err != nil {
		m.status = ""
		m.alert = fmt.Sprintf("Search failed: %v", msg.err)
		return m, nil
	}

	m.sess.ApplyResults(msg.snap)
	m.snap = m.sess.Results().Snapshot()
	m.cursor = 0
	m.status = fmt.Sprintf("%d formulae, %d casks for %q", len(m.snap.Formulae), len(m.snap.Casks), m.snap.Query)

	return m.selectCurrent()
}

func (m Model) toggleSection(category brew.Category) (Model, tea.Cmd) {
	prev, hadPrev := m.current()
	m.collapsed[category] = !m.collapsed[category]

	m.cursor = 0
	if hadPrev {
		for i, pkg := range m.visible() {
			if pkg.Token == prev.Token {
				m.cursor = i
				break
			}
		}
	}

	cur, ok := m.current()
	if ok && hadPrev && cur.Token == prev.Token {
		return m, nil
	}
	return m.selectCurrent()
}

// selectCurrent selects the package under the cursor and starts its preview.
func (m Model) selectCurrent() (Model, tea.Cmd) {
	pkg, ok := m.current()
	if !ok {
		m.sess.ClearSelection()
		return m, nil
	}

	req, ok, err := m.sess.Select(pkg.Token)
	if err != nil {
		m.status = fmt.Sprintf("%s is no longer among the search results", pkg.Name)
		return m, nil
	}
	if !ok {
		return m, nil
	}

	ctx, loader := m.ctx, m.sess.Preview()
	return m, tea.Batch(
		func() tea.Msg {
			return previewMsg{resp: loader.Fetch(ctx, req)}
		},
		m.spinner.Tick,
	)
}

// visible returns the packages of the expanded sections in display order.
func (m Model) visible() []brew.Package {
	var pkgs []brew.Package
	if !m.collapsed[brew.CategoryFormula] {
		pkgs = append(pkgs, m.snap.Formulae...)
	}
	if !m.collapsed[brew.CategoryCask] {
		pkgs = append(pkgs, m.snap.Casks...)
	}
	return pkgs
}

func (m Model) current() (brew.Package, bool) {
	pkgs := m.visible()
	if m.cursor < 0 || m.cursor >= len(pkgs) {
		return brew.Package{}, false
	}
	return pkgs[m.cursor], true
}

// previewState is split out for View.
func (m Model) previewState() preview.State {
	return m.sess.Preview().State()
}
