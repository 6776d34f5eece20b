// Package notify turns core outcomes into short user facing notices.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Style is the severity of a notice.
type Style int

const (
	Success Style = iota
	Failure
	Info
)

func (s Style) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "info"
	}
}

// Notice is a title plus an explanatory message.
type Notice struct {
	Style   Style
	Title   string
	Message string
}

// Sink receives notices.
type Sink interface {
	Notify(style Style, title, message string)
}

// Send delivers n to s.
func Send(s Sink, n Notice) {
	s.Notify(n.Style, n.Title, n.Message)
}

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TitleStyle returns the lipgloss style used for a notice title.
func TitleStyle(s Style) lipgloss.Style {
	switch s {
	case Success:
		return successStyle
	case Failure:
		return failureStyle
	default:
		return infoStyle
	}
}

// Render formats a notice on one line.
func Render(n Notice) string {
	out := TitleStyle(n.Style).Render(n.Title)
	if n.Message != "" {
		out += " " + messageStyle.Render(n.Message)
	}
	return out
}

// Console writes rendered notices to W, one per line.
type Console struct {
	mu sync.Mutex
	W  io.Writer
}

func (c *Console) Notify(style Style, title, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.W, Render(Notice{Style: style, Title: title, Message: message}))
}
