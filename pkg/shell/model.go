package shell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"lutra/pkg/dispatch"
	"lutra/pkg/library"
)

// --- Messages ---

// gamesMsg carries a fresh library listing.
type gamesMsg []library.Game

// presentMsg asks the shell to come to the foreground and refresh.
type presentMsg struct{}

// noticeMsg shows a dismissable error notice.
type noticeMsg struct{ err error }

// confirmMsg opens the install-or-play prompt for an installed game. The
// answer is delivered on reply.
type confirmMsg struct {
	game  *library.Game
	reply chan dispatch.Choice
}

// confirmState is the open prompt, nil when no prompt is showing.
type confirmState struct {
	game  *library.Game
	reply chan dispatch.Choice
}

// answer delivers the choice without blocking; a second answer for the
// same prompt is dropped.
func (c *confirmState) answer(choice dispatch.Choice) {
	select {
	case c.reply <- choice:
	default:
	}
}

// --- Model ---

type model struct {
	lib      *library.Library
	activate Activator
	theme    Theme
	keys     keyMap
	help     help.Model
	table    table.Model
	filter   textinput.Model
	watcher  *fsnotify.Watcher
	dbPath   string

	games   []library.Game // full listing
	visible []library.Game // rows currently in the table

	filtering bool
	confirm   *confirmState
	notice    string

	width  int
	height int
}

func newModel(lib *library.Library, activate Activator, watcher *fsnotify.Watcher, dbPath string) model {
	theme := DefaultTheme()

	columns := []table.Column{
		{Title: "Name", Width: 40},
		{Title: "Runner", Width: 12},
		{Title: "Platform", Width: 14},
		{Title: "Last played", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(theme.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(theme.Muted)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(theme.Primary)
	t.SetStyles(styles)

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "name, slug or runner"
	filter.CharLimit = 64
	filter.Width = 40

	return model{
		lib:      lib,
		activate: activate,
		theme:    theme,
		keys:     newKeyMap(),
		help:     help.New(),
		table:    t,
		filter:   filter,
		watcher:  watcher,
		dbPath:   dbPath,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		fetchGamesCmd(m.lib),
		runWatcher(m.watcher, m.dbPath),
	)
}

// fetchGamesCmd loads the library listing off the UI goroutine.
func fetchGamesCmd(lib *library.Library) tea.Cmd {
	return func() tea.Msg {
		games, err := lib.Games(context.Background(), library.Filter{})
		if err != nil {
			return noticeMsg{err: err}
		}
		return gamesMsg(games)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		if msg.Height > 8 {
			m.table.SetHeight(msg.Height - 6)
		}
		m.help.Width = msg.Width
		return m, nil

	case gamesMsg:
		m.games = msg
		m.applyFilter()
		return m, nil

	case dbChangeMsg:
		return m, tea.Batch(
			fetchGamesCmd(m.lib),
			runWatcher(m.watcher, m.dbPath),
		)

	case presentMsg:
		return m, fetchGamesCmd(m.lib)

	case noticeMsg:
		m.notice = msg.err.Error()
		return m, nil

	case confirmMsg:
		m.confirm = &confirmState{game: msg.game, reply: msg.reply}
		return m, nil
	}
	return m, nil
}

// --- Key handling ---

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}
	if m.notice != "" {
		m.notice = ""
		return m, nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Refresh):
		return m, fetchGamesCmd(m.lib)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		return m.activateSelection()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "p", "y", "enter":
		m.confirm.answer(dispatch.ChoicePlay)
		m.confirm = nil
	case "i":
		m.confirm.answer(dispatch.ChoiceInstall)
		m.confirm = nil
	case "c", "n", "q", "esc":
		m.confirm.answer(dispatch.ChoiceCancel)
		m.confirm = nil
	}
	return m, nil
}

func (m model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filter.SetValue("")
		m.filter.Blur()
		m.applyFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

// activateSelection hands the selected game to the activator. The callback
// runs in a command goroutine so prompts opened during dispatch do not
// block the UI loop.
func (m model) activateSelection() (tea.Model, tea.Cmd) {
	if m.activate == nil || len(m.visible) == 0 {
		return m, nil
	}
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return m, nil
	}
	game := m.visible[idx]
	activate := m.activate
	return m, func() tea.Msg {
		activate(context.Background(), game)
		return nil
	}
}

// --- Rows ---

// applyFilter rebuilds the visible rows from the filter query.
func (m *model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	visible := m.games
	if query != "" {
		visible = nil
		for _, g := range m.games {
			hay := strings.ToLower(g.Name + " " + g.Slug + " " + g.Runner)
			if strings.Contains(hay, query) {
				visible = append(visible, g)
			}
		}
	}
	m.visible = visible

	rows := make([]table.Row, len(visible))
	for i, g := range visible {
		rows[i] = table.Row{g.Name, valueOr(g.Runner), valueOr(g.Platform), lastPlayedLabel(g.LastPlayed)}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

func valueOr(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func lastPlayedLabel(unix int64) string {
	if unix == 0 {
		return "never"
	}
	return time.Unix(unix, 0).Format("2006-01-02")
}

// --- View ---

func (m model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary).
		Render("lutra library")
	count := lipgloss.NewStyle().
		Foreground(m.theme.Muted).
		Render(fmt.Sprintf("  %d games", len(m.visible)))
	b.WriteString(title + count + "\n\n")

	switch {
	case m.confirm != nil:
		b.WriteString(m.renderConfirm())
	case m.notice != "":
		b.WriteString(m.renderNotice())
	default:
		if m.filtering || m.filter.Value() != "" {
			b.WriteString(m.filter.View() + "\n")
		}
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m model) renderConfirm() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2)
	name := lipgloss.NewStyle().Bold(true).Render(m.confirm.game.Name)
	hint := lipgloss.NewStyle().
		Foreground(m.theme.Muted).
		Render("[p]lay  [i]nstall again  [esc] cancel")
	return box.Render(name + " is already installed.\n\n" + hint)
}

func (m model) renderNotice() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Error).
		Padding(1, 2)
	hint := lipgloss.NewStyle().
		Foreground(m.theme.Muted).
		Render("press any key to dismiss")
	return box.Render(m.notice + "\n\n" + hint)
}
