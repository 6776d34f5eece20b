package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/lian/grab/internal/grab"
	"github.com/lian/grab/internal/notify"
	"github.com/lian/grab/internal/pathx"
	"github.com/lian/grab/internal/selection"
	"github.com/lian/grab/internal/transfer"
)

// errReported means the failure was already shown to the user as a notice.
var errReported = errors.New("command failed")

// usageError is a bad command line; main prints usage and exits 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	matchStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	plainStyle       = lipgloss.NewStyle()
)

// cli runs one non-interactive subcommand.
type cli struct {
	app  *app
	out  io.Writer
	err  io.Writer
	sink notify.Sink
	// tty is true when stdout is a terminal; output is then styled for humans.
	tty bool
	// confirm asks a yes/no question; it is promptui backed outside tests.
	confirm func(label string) (bool, error)
}

func newCLI(a *app, tty bool) *cli {
	return &cli{
		app:     a,
		out:     os.Stdout,
		err:     os.Stderr,
		sink:    &notify.Console{W: os.Stdout},
		tty:     tty,
		confirm: promptConfirm,
	}
}

// promptConfirm asks on the terminal. Declining is not an error.
func promptConfirm(label string) (bool, error) {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := p.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// report shows n and turns a failure notice into errReported.
func (c *cli) report(n notify.Notice) error {
	notify.Send(c.sink, n)
	if n.Style == notify.Failure {
		return errReported
	}
	return nil
}

func (c *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "quick":
		if len(args) != 0 {
			return usagef("quick takes no arguments")
		}
		_, n := c.app.grabFrom(ctx, c.app.provider, "Grabbed")
		return c.report(n)

	case "add":
		if len(args) == 0 {
			return usagef("add needs at least one PATH")
		}
		_, n := c.app.grabFrom(ctx, selection.Static(args), "Added")
		return c.report(n)

	case "list":
		if len(args) != 0 {
			return usagef("list takes no arguments")
		}
		return c.list()

	case "remove":
		if len(args) != 1 {
			return usagef("remove needs exactly one PATH")
		}
		path, err := pathx.Normalize(args[0])
		if err != nil {
			return usagef("remove: %v", err)
		}
		return c.report(c.app.remove(ctx, path))

	case "clear":
		if len(args) != 0 {
			return usagef("clear takes no arguments")
		}
		return c.report(c.app.clear(ctx))

	case "move", "copy":
		if len(args) > 1 {
			return usagef("%s takes at most one DEST", cmd)
		}
		op, _ := transfer.ParseOp(cmd)
		dest := ""
		if len(args) == 1 {
			dest = args[0]
		}
		return c.transfer(ctx, op, dest)

	case "trash":
		fs := flag.NewFlagSet("trash", flag.ContinueOnError)
		fs.SetOutput(c.err)
		yes := fs.Bool("y", false, "Do not ask for confirmation")
		if err := fs.Parse(args); err != nil {
			return usagef("trash: %v", err)
		}
		if fs.NArg() != 0 {
			return usagef("trash takes no arguments")
		}
		return c.trash(ctx, *yes)

	case "search":
		if len(args) == 0 {
			return usagef("search needs a QUERY")
		}
		return c.search(ctx, strings.Join(args, " "))

	case "open":
		if len(args) > 1 {
			return usagef("open takes at most one PATH")
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return c.report(c.app.open(path))
	}
	return usagef("unknown command %q", cmd)
}

func (c *cli) list() error {
	files := c.app.store.Snapshot()
	if !c.tty {
		// One path per line for scripts.
		for _, f := range files {
			fmt.Fprintln(c.out, f.Path)
		}
		return nil
	}
	if len(files) == 0 {
		return c.report(notify.Notice{Style: notify.Info, Title: "No files grabbed", Message: "Select files in Finder and run grab quick"})
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Name, grab.FormatSize(f.Size), f.ModifiedAt.Local().Format("2006-01-02"), f.Path})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers("Name", "Size", "Modified", "Path").
		Rows(rows...)
	fmt.Fprintln(c.out, t.String())
	fmt.Fprintf(c.out, "Grabbed Files (%d), %s\n", len(files), grab.FormatSize(grab.TotalSize(files)))
	return nil
}

func (c *cli) transfer(ctx context.Context, op transfer.Op, dest string) error {
	res, n := c.app.transfer(ctx, op, dest, nil)
	for _, it := range res.Items {
		if it.Err != nil {
			fmt.Fprintf(c.err, "  %s: %v\n", it.Record.Path, it.Err)
		}
	}
	return c.report(n)
}

func (c *cli) trash(ctx context.Context, yes bool) error {
	count := c.app.store.Len()
	if count == 0 {
		return c.report(notify.NothingGrabbed(transfer.Trash))
	}
	if !yes {
		if !c.tty {
			return usagef("trash: refusing to delete without -y when not on a terminal")
		}
		ok, err := c.confirm(fmt.Sprintf("Move %d file%s to Trash", count, plural(count)))
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			return c.report(notify.Notice{Style: notify.Info, Title: "Cancelled", Message: "Nothing was moved to Trash"})
		}
	}
	return c.transfer(ctx, transfer.Trash, "")
}

func (c *cli) search(ctx context.Context, query string) error {
	results, err := c.app.folders.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}
	c.app.log.Debug("search", zap.String("query", query), zap.Int("results", len(results)))
	for _, r := range results {
		if !c.tty {
			fmt.Fprintln(c.out, r.Path)
			continue
		}
		fmt.Fprintf(c.out, "%s  %s\n", highlightName(query, r.Name, plainStyle, matchStyle), helpStyle.Render(r.Path))
	}
	if len(results) == 0 && c.tty {
		return c.report(notify.Notice{Style: notify.Info, Title: "No folders found", Message: query})
	}
	return nil
}
