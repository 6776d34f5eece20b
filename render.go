package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lian/grab/internal/search"
)

// highlightName renders name with the bytes matching query in hi and the rest in base.
func highlightName(query, name string, base, hi lipgloss.Style) string {
	idx := search.Highlight(query, name)
	if len(idx) == 0 {
		return base.Render(name)
	}
	marked := make(map[int]bool, len(idx))
	for _, i := range idx {
		marked[i] = true
	}

	var b strings.Builder
	var run strings.Builder
	runHi := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runHi {
			b.WriteString(hi.Render(run.String()))
		} else {
			b.WriteString(base.Render(run.String()))
		}
		run.Reset()
	}
	for i, r := range name {
		if marked[i] != runHi {
			flush()
			runHi = marked[i]
		}
		run.WriteRune(r)
	}
	flush()
	return b.String()
}

// plural returns "s" unless n is 1.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
