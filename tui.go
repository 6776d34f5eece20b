package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/lian/grab/internal/notify"
	"github.com/lian/grab/internal/search"
	"github.com/lian/grab/internal/transfer"
	"github.com/lian/grab/internal/watch"
)

// noticeTTL is how long a notice stays in the status line.
const noticeTTL = 4 * time.Second

var (
	docStyle          = lipgloss.NewStyle().Margin(1, 2)
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	itemStyle         = lipgloss.NewStyle()
	selectedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	filterPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// mode is the screen the UI is showing.
type mode int

const (
	modeFiles        mode = iota // The grabbed list.
	modeFolders                  // Destination picker for a move or copy.
	modeConfirmTrash             // Waiting for y/n before trashing.
)

// --- Messages ---

type noticeMsg struct{ notice notify.Notice }

// clearNoticeMsg clears the status line unless a newer notice replaced it.
type clearNoticeMsg struct{ seq int }

type grabbedMsg struct {
	added  int
	notice notify.Notice
	auto   bool
}

// storeChangedMsg asks for a list refresh; notice is optional.
type storeChangedMsg struct{ notice notify.Notice }

type debounceMsg struct {
	seq   int
	query string
}

type searchResultMsg struct {
	ticket  search.Ticket
	results []search.FolderCandidate
	err     error
}

type transferDoneMsg struct {
	result transfer.Result
	notice notify.Notice
}

type reloadMsg struct{}

// --- Model ---

type model struct {
	app  *app
	ctx  context.Context
	keys keyMap
	mode mode
	op   transfer.Op // Pending operation while picking a folder.

	files   list.Model
	folders list.Model
	query   textinput.Model
	spinner spinner.Model

	isFiltering bool
	filterQuery string

	tracker     *search.Tracker
	debounce    time.Duration
	debounceSeq int
	searching   bool
	listQuery   string // Query the folder candidates were found for.

	busy      bool // A transfer is running; mutations are ignored.
	notice    notify.Notice
	noticeSeq int

	watcher  *watch.Watcher
	autoGrab bool
	quitting bool
}

func newModel(ctx context.Context, a *app, w *watch.Watcher, autoGrab bool) model {
	m := model{
		app:      a,
		ctx:      ctx,
		keys:     defaultKeyMap(),
		tracker:  &search.Tracker{},
		debounce: a.cfg.Search.Debounce,
		watcher:  w,
		autoGrab: autoGrab,
	}

	files := list.New(nil, fileDelegate{}, 80, 20)
	files.Styles.Title = titleStyle
	files.SetShowStatusBar(false)
	files.SetFilteringEnabled(false)
	files.SetShowHelp(true)
	files.AdditionalFullHelpKeys = m.keys.fileHelp
	m.files = files

	folders := list.New(nil, folderDelegate{}, 80, 18)
	folders.Styles.Title = titleStyle
	folders.SetShowStatusBar(false)
	folders.SetFilteringEnabled(false)
	folders.SetShowHelp(false)
	m.folders = folders

	ti := textinput.New()
	ti.Placeholder = "Search for destination folder..."
	ti.Prompt = filterPromptStyle.Render("> ")
	ti.CharLimit = 256
	m.query = ti

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = filterPromptStyle
	m.spinner = s

	m.refreshFiles()
	return m
}

// refreshFiles rebuilds the grabbed list from the store, applying the filter and
// keeping the cursor on the same path when possible.
func (m *model) refreshFiles() {
	var current string
	if it, ok := m.files.SelectedItem().(fileItem); ok {
		current = it.rec.Path
	}

	records := m.app.store.Filter(m.filterQuery)
	items := make([]list.Item, len(records))
	cursor := 0
	for i, r := range records {
		items[i] = fileItem{rec: r}
		if r.Path == current {
			cursor = i
		}
	}
	m.files.SetItems(items)
	m.files.SetDelegate(fileDelegate{query: m.filterQuery})
	if len(items) > 0 {
		m.files.Select(cursor)
	}

	total := m.app.store.Len()
	if m.filterQuery != "" {
		m.files.Title = fmt.Sprintf("Grabbed Files (%d of %d) matching '%s'", len(records), total, m.filterQuery)
	} else {
		m.files.Title = fmt.Sprintf("Grabbed Files (%d)", total)
	}
}

func (m *model) setFolders(query string, results []search.FolderCandidate) {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = folderItem{folder: r}
	}
	m.listQuery = query
	m.folders.SetItems(items)
	m.folders.SetDelegate(folderDelegate{query: query})
	m.folders.Select(0)
}

// foldersCurrent reports whether the listed candidates belong to the typed query.
func (m model) foldersCurrent() bool {
	return !m.searching && m.listQuery == m.query.Value()
}

// setNotice shows n and schedules its removal.
func (m *model) setNotice(n notify.Notice) tea.Cmd {
	if n.Title == "" {
		return nil
	}
	m.noticeSeq++
	m.notice = n
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

// --- Commands ---

func (m model) grabCmd(auto bool) tea.Cmd {
	verb := "Added"
	if auto {
		verb = "Grabbed"
	}
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		added, n := a.grabFrom(ctx, a.provider, verb)
		return grabbedMsg{added: added, notice: n, auto: auto}
	}
}

func (m model) removeCmd(path string) tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg { return storeChangedMsg{notice: a.remove(ctx, path)} }
}

func (m model) clearCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg { return storeChangedMsg{notice: a.clear(ctx)} }
}

func (m model) reloadCmd() tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		n, _ := a.load(ctx)
		return storeChangedMsg{notice: n}
	}
}

func (m model) transferCmd(op transfer.Op, dest string) tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		res, n := a.transfer(ctx, op, dest, nil)
		return transferDoneMsg{result: res, notice: n}
	}
}

func (m model) searchCmd(ctx context.Context, tk search.Ticket) tea.Cmd {
	folders := m.app.folders
	return func() tea.Msg {
		results, err := folders.Search(ctx, tk.Query)
		return searchResultMsg{ticket: tk, results: results, err: err}
	}
}

func (m model) debounceCmd() tea.Cmd {
	seq, q := m.debounceSeq, m.query.Value()
	return tea.Tick(m.debounce, func(time.Time) tea.Msg { return debounceMsg{seq: seq, query: q} })
}

func (m model) openCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg { return noticeMsg{notice: a.open("")} }
}

func (m model) copyPathsCmd() tea.Cmd {
	a := m.app
	return func() tea.Msg { return noticeMsg{notice: a.copyPaths()} }
}

// waitForReload blocks until the state file changes on disk.
func waitForReload(w *watch.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Events(); !ok {
			return nil
		}
		return reloadMsg{}
	}
}

// --- Bubble Tea ---

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForReload(m.watcher)}
	if m.autoGrab {
		cmds = append(cmds, m.grabCmd(true))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.files.SetSize(msg.Width-h, msg.Height-v-2)
		m.folders.SetSize(msg.Width-h, msg.Height-v-4)
		m.query.Width = msg.Width - h - 4
		return m, nil

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = notify.Notice{}
		}
		return m, nil

	case noticeMsg:
		cmd := m.setNotice(msg.notice)
		return m, cmd

	case grabbedMsg:
		m.refreshFiles()
		// Auto-grab on start stays quiet unless it actually added something.
		if msg.auto && msg.added == 0 {
			return m, nil
		}
		cmd := m.setNotice(msg.notice)
		return m, cmd

	case storeChangedMsg:
		m.refreshFiles()
		cmd := m.setNotice(msg.notice)
		return m, cmd

	case reloadMsg:
		m.app.log.Debug("state file changed on disk")
		return m, tea.Batch(m.reloadCmd(), waitForReload(m.watcher))

	case debounceMsg:
		if m.mode != modeFolders || msg.seq != m.debounceSeq {
			return m, nil
		}
		ctx, tk := m.tracker.Begin(m.ctx, msg.query)
		m.searching = true
		return m, tea.Batch(m.searchCmd(ctx, tk), m.spinner.Tick)

	case searchResultMsg:
		if m.mode != modeFolders || !m.tracker.Current(msg.ticket) {
			return m, nil
		}
		m.tracker.Finish(msg.ticket)
		m.searching = false
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				return m, nil
			}
			m.app.log.Warn("folder search", zap.String("query", msg.ticket.Query), zap.Error(msg.err))
			m.setFolders(msg.ticket.Query, nil)
			return m, nil
		}
		m.setFolders(msg.ticket.Query, msg.results)
		return m, nil

	case transferDoneMsg:
		m.busy = false
		m.mode = modeFiles
		m.refreshFiles()
		cmd := m.setNotice(msg.notice)
		return m, cmd

	case spinner.TickMsg:
		if !m.searching && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.mode {
		case modeFolders:
			return m.updateFolders(msg)
		case modeConfirmTrash:
			return m.updateConfirm(msg)
		}
		if m.isFiltering {
			return m.updateFilter(msg)
		}
		return m.updateFiles(msg)
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	return m, cmd
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.tracker.Stop()
	return m, tea.Quit
}

func (m model) updateFiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}
	// Everything below mutates the set; a running transfer owns it.
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.StartFilter):
		m.isFiltering = true
		return m, nil

	case key.Matches(msg, m.keys.ClearFilter):
		if m.filterQuery != "" {
			m.filterQuery = ""
			m.refreshFiles()
		}
		return m, nil

	case key.Matches(msg, m.keys.Add):
		return m, m.grabCmd(false)

	case key.Matches(msg, m.keys.Remove):
		if it, ok := m.files.SelectedItem().(fileItem); ok {
			return m, m.removeCmd(it.rec.Path)
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		return m, m.clearCmd()

	case key.Matches(msg, m.keys.MoveTo):
		return m.startFolders(transfer.Move)

	case key.Matches(msg, m.keys.CopyTo):
		return m.startFolders(transfer.Copy)

	case key.Matches(msg, m.keys.Trash):
		if m.app.store.Len() == 0 {
			cmd := m.setNotice(notify.NothingGrabbed(transfer.Trash))
			return m, cmd
		}
		m.mode = modeConfirmTrash
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m, m.openCmd()

	case key.Matches(msg, m.keys.CopyPaths):
		return m, m.copyPathsCmd()

	case key.Matches(msg, m.keys.Reload):
		return m, m.reloadCmd()
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.Update(msg)
	return m, cmd
}

// updateFilter edits the filter query. Enter keeps the filter, esc drops it.
func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isFiltering = false
		m.filterQuery = ""
		m.refreshFiles()
	case tea.KeyEnter:
		m.isFiltering = false
	case tea.KeyBackspace:
		if r := []rune(m.filterQuery); len(r) > 0 {
			m.filterQuery = string(r[:len(r)-1])
			m.refreshFiles()
		}
	case tea.KeyCtrlJ, tea.KeyDown:
		m.files.CursorDown()
	case tea.KeyCtrlK, tea.KeyUp:
		m.files.CursorUp()
	case tea.KeyRunes, tea.KeySpace:
		m.filterQuery += string(msg.Runes)
		m.refreshFiles()
	}
	return m, nil
}

// startFolders opens the destination picker with the common folders listed.
func (m model) startFolders(op transfer.Op) (tea.Model, tea.Cmd) {
	if m.app.store.Len() == 0 {
		cmd := m.setNotice(notify.NothingGrabbed(op))
		return m, cmd
	}
	m.mode = modeFolders
	m.op = op
	m.query.Reset()
	m.setFolders("", m.app.folders.CommonFolders())
	verb := "Move"
	if op == transfer.Copy {
		verb = "Copy"
	}
	m.folders.Title = fmt.Sprintf("Select Destination Folder (%s)", verb)
	cmd := m.query.Focus()
	return m, cmd
}

func (m model) closeFolders() model {
	m.mode = modeFiles
	m.searching = false
	m.tracker.Stop()
	m.query.Blur()
	return m
}

func (m model) updateFolders(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.closeFolders(), nil

	case key.Matches(msg, m.keys.Up):
		m.folders.CursorUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.folders.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		if m.busy {
			return m, nil
		}
		// A typed path wins over candidates from an older query and is created
		// if needed. Otherwise enter waits for the list to catch up.
		dest := ""
		q := strings.TrimSpace(m.query.Value())
		typed := strings.HasPrefix(q, "/") || strings.HasPrefix(q, "~")
		if it, ok := m.folders.SelectedItem().(folderItem); ok && m.foldersCurrent() {
			dest = it.folder.Path
		} else if typed {
			dest = q
		}
		if dest == "" {
			return m, nil
		}
		op := m.op
		m = m.closeFolders()
		m.busy = true
		return m, tea.Batch(m.transferCmd(op, dest), m.spinner.Tick)
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() == before {
		return m, cmd
	}
	m.debounceSeq++
	return m, tea.Batch(cmd, m.debounceCmd())
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeFiles
		m.busy = true
		return m, tea.Batch(m.transferCmd(transfer.Trash, ""), m.spinner.Tick)
	case "n", "N", "esc", "q":
		m.mode = modeFiles
		cmd := m.setNotice(notify.Notice{Style: notify.Info, Title: "Cancelled", Message: "Nothing was moved to Trash"})
		return m, cmd
	}
	return m, nil
}

// --- View ---

func (m model) View() string {
	if m.quitting {
		return ""
	}

	switch m.mode {
	case modeFolders:
		return docStyle.Render(m.viewFolders())
	case modeConfirmTrash:
		n := m.app.store.Len()
		prompt := warnStyle.Render(fmt.Sprintf("Move %d file%s to Trash?", n, plural(n)))
		return docStyle.Render(m.files.View() + "\n" + prompt + helpStyle.Render("  y/enter confirm, n/esc cancel"))
	}

	body := m.files.View()
	if m.app.store.Len() == 0 {
		body = titleStyle.Render("No files grabbed") + "\n\n" +
			helpStyle.Render("Select files in Finder and press a to grab them")
	}
	return docStyle.Render(body + "\n" + m.infoLine())
}

// infoLine is the status line under the grabbed list.
func (m model) infoLine() string {
	switch {
	case m.isFiltering:
		return filterPromptStyle.Render("Filter: ") + m.filterQuery + helpStyle.Render("_")
	case m.busy:
		return m.spinner.View() + helpStyle.Render(" Working on "+fmt.Sprint(m.app.store.Len())+" files...")
	case m.notice.Title != "":
		return notify.Render(m.notice)
	}
	return helpStyle.Render("Press ? for help, / to filter, m move, c copy, t trash")
}

func (m model) viewFolders() string {
	n := m.app.store.Len()
	verb := "move"
	if m.op == transfer.Copy {
		verb = "copy"
	}
	status := helpStyle.Render(fmt.Sprintf("%d file%s to %s", n, plural(n), verb))
	if m.searching {
		status = m.spinner.View() + " " + status
	}
	body := m.folders.View()
	if limit := m.app.folders.Limit(); len(m.folders.Items()) >= limit {
		status += helpStyle.Render(fmt.Sprintf("  first %d matches, keep typing to narrow", limit))
	}
	if len(m.folders.Items()) == 0 && !m.searching {
		body = titleStyle.Render(m.folders.Title) + "\n\n" + helpStyle.Render("No folders found. Type a full path and press enter to use it.")
	}
	return m.query.View() + "\n\n" + body + "\n" + status + helpStyle.Render("  enter choose, esc cancel")
}

// runUI runs the terminal UI until the user quits.
func runUI(ctx context.Context, a *app, autoGrab bool) error {
	w, err := watch.New(a.statePath(), watch.DefaultDebounce, a.log.Named("watch"))
	if err != nil {
		a.log.Warn("live reload disabled", zap.Error(err))
		w = nil
	}
	defer func() {
		if w != nil {
			w.Close()
		}
	}()

	p := tea.NewProgram(newModel(ctx, a, w, autoGrab), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
