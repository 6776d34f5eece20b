package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lian/grab/internal/grab"
	"github.com/lian/grab/internal/search"
)

// fileItem is one grabbed file in the list.
type fileItem struct {
	rec grab.FileRecord
}

func (i fileItem) FilterValue() string { return i.rec.Name }

// folderItem is one destination candidate.
type folderItem struct {
	folder search.FolderCandidate
}

func (i folderItem) FilterValue() string { return i.folder.Name }

// fileDelegate renders a grabbed file as name, size, date and a dimmed path. The
// characters matching query are highlighted.
type fileDelegate struct {
	query string
}

func (d fileDelegate) Height() int                               { return 1 }
func (d fileDelegate) Spacing() int                              { return 0 }
func (d fileDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d fileDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(fileItem)
	if !ok {
		return
	}
	base, cursor := itemStyle, "  "
	if index == m.Index() {
		base, cursor = selectedStyle, "> "
	}
	name := highlightName(d.query, i.rec.Name, base, matchStyle)
	meta := helpStyle.Render(fmt.Sprintf("  %s  %s  %s",
		grab.FormatSize(i.rec.Size),
		i.rec.ModifiedAt.Local().Format("2006-01-02"),
		i.rec.Path,
	))
	fmt.Fprint(w, base.Render(cursor)+name+meta)
}

// folderDelegate renders a destination candidate with its path.
type folderDelegate struct {
	query string
}

func (d folderDelegate) Height() int                               { return 1 }
func (d folderDelegate) Spacing() int                              { return 0 }
func (d folderDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d folderDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(folderItem)
	if !ok {
		return
	}
	base, cursor := itemStyle, "  "
	if index == m.Index() {
		base, cursor = selectedStyle, "> "
	}
	name := highlightName(d.query, i.folder.Name, base, matchStyle)
	fmt.Fprint(w, base.Render(cursor)+name+helpStyle.Render("  "+i.folder.Path))
}
