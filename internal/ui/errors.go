package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"mrt/internal/domain"
)

// maxShownDetails is how many output lines the details pane shows before truncating
const maxShownDetails = 30

const browserHelp = "↑↓ select  [yellow]R[white] reviewed  → output  ← back  Ctrl+C quit"

// ErrorViewer displays test failures in an interactive TUI
type ErrorViewer struct {
	out io.Writer
}

// NewErrorViewer creates a new ErrorViewer. out receives the message printed when there is nothing to show.
func NewErrorViewer(out io.Writer) *ErrorViewer {
	return &ErrorViewer{out: out}
}

// View blocks until the user quits the browser. Reviewed marks last for the session only.
func (ev *ErrorViewer) View(failures []domain.TestFailure) error {
	if len(failures) == 0 {
		green.Fprintln(ev.out, "✓ No test failures found!")
		return nil
	}
	b := newFailureBrowser(failures)
	if err := b.app.SetRoot(b.layout(), true).SetFocus(b.table).Run(); err != nil {
		return fmt.Errorf("failed to run failure browser: %w", err)
	}
	return nil
}

// failureBrowser holds the widgets of one viewing session. Table row 0 is the
// header, failure i lives on row i+1.
type failureBrowser struct {
	app      *tview.Application
	failures []domain.TestFailure
	reviewed []bool

	table   *tview.Table
	header  *tview.TextView
	stats   *tview.TextView
	details *tview.TextView
}

func newFailureBrowser(failures []domain.TestFailure) *failureBrowser {
	b := &failureBrowser{
		app:      tview.NewApplication(),
		failures: failures,
		reviewed: make([]bool, len(failures)),
		table:    tview.NewTable(),
		header:   tview.NewTextView(),
		stats:    tview.NewTextView(),
		details:  tview.NewTextView(),
	}

	b.header.SetTextAlign(tview.AlignCenter).SetDynamicColors(true)
	b.stats.SetDynamicColors(true).SetWrap(false)
	b.details.SetDynamicColors(true).SetWrap(true).SetWordWrap(true)
	b.details.SetBorder(true).SetTitle(" Output ")

	b.table.SetSelectable(true, false).SetFixed(1, 0)
	b.table.SetSelectedStyle(tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkCyan))
	for col, title := range []string{"#", "CASE", "OUTCOME"} {
		b.table.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	for i, f := range failures {
		b.table.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("%d", i+1)).SetTextColor(tcell.ColorYellow))
		b.table.SetCell(i+1, 1, tview.NewTableCell(listItemText(f, false)).SetExpansion(1))
		b.table.SetCell(i+1, 2, tview.NewTableCell(f.Outcome.String()).SetTextColor(outcomeColor(f.Outcome)))
	}

	b.bindKeys()
	b.refreshHeader()
	b.table.Select(1, 0)
	b.show(0)
	return b
}

func (b *failureBrowser) layout() tview.Primitive {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.stats, 2, 0, false).
		AddItem(b.details, 0, 1, false)

	body := tview.NewFlex().
		AddItem(b.table, 0, 1, true).
		AddItem(right, 0, 2, false)

	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.header, 1, 0, false).
		AddItem(body, 0, 1, true)
}

func (b *failureBrowser) bindKeys() {
	b.table.SetSelectionChangedFunc(func(row, _ int) {
		b.show(row - 1)
	})
	b.table.SetSelectedFunc(func(_, _ int) {
		b.app.SetFocus(b.details)
	})
	b.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyRight:
			b.app.SetFocus(b.details)
			return nil
		case event.Key() == tcell.KeyCtrlC:
			b.app.Stop()
			return nil
		case event.Key() == tcell.KeyRune && (event.Rune() == 'r' || event.Rune() == 'R'):
			row, _ := b.table.GetSelection()
			b.toggle(row - 1)
			return nil
		}
		return event
	})
	b.details.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			b.app.SetFocus(b.table)
			return nil
		case tcell.KeyCtrlC:
			b.app.Stop()
			return nil
		}
		return event
	})
}

func (b *failureBrowser) show(index int) {
	if index < 0 || index >= len(b.failures) {
		return
	}
	b.stats.SetText(formatFailureStats(b.failures[index]))
	b.details.SetText(formatFailureDetails(b.failures[index])).ScrollToBeginning()
}

func (b *failureBrowser) toggle(index int) {
	if index < 0 || index >= len(b.failures) {
		return
	}
	b.reviewed[index] = !b.reviewed[index]
	b.table.GetCell(index+1, 1).SetText(listItemText(b.failures[index], b.reviewed[index]))
	b.refreshHeader()
}

func (b *failureBrowser) pending() int {
	n := 0
	for _, r := range b.reviewed {
		if !r {
			n++
		}
	}
	return n
}

func (b *failureBrowser) refreshHeader() {
	b.header.SetText(fmt.Sprintf(" Failures: %d, pending: %d | %s ", len(b.failures), b.pending(), browserHelp))
}

func outcomeColor(o domain.Outcome) tcell.Color {
	if o == domain.Error {
		return tcell.ColorOrange
	}
	return tcell.ColorRed
}

// listItemText is the case cell of the failure table using tview color tags
func listItemText(failure domain.TestFailure, reviewed bool) string {
	name := tview.Escape(failure.Module + "/" + failure.TestName)
	if reviewed {
		return "[gray]✓ " + name + "[white]"
	}
	return name
}

func formatFailureStats(failure domain.TestFailure) string {
	return fmt.Sprintf("[cyan]case:[white] [yellow]%s/%s/%s[white]  [cyan]outcome:[white] %s  [cyan]stage:[white] %s\n",
		tview.Escape(failure.Suite), tview.Escape(failure.Module), tview.Escape(failure.TestName),
		failure.Outcome, failure.Stage)
}

// formatFailureDetails renders the output pane: command line, location, message and the captured excerpt
func formatFailureDetails(failure domain.TestFailure) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[red]✗ Test: %s[white]\n\n", tview.Escape(failure.TestName))
	if failure.Command != "" {
		fmt.Fprintf(&sb, "[cyan]Command: %s[white]\n[cyan]Exit code: %d[white]\n",
			tview.Escape(failure.Command), failure.ExitCode)
	}
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&sb, "[yellow]Location: %s:%d[white]\n", tview.Escape(failure.File), failure.Line)
	}
	sb.WriteString("\n")
	if failure.Message != "" {
		fmt.Fprintf(&sb, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}
	if len(failure.Details) == 0 {
		return sb.String()
	}

	sb.WriteString("[yellow]Output:[white]\n")
	shown := failure.Details
	if len(shown) > maxShownDetails {
		shown = shown[:maxShownDetails]
	}
	for _, line := range shown {
		fmt.Fprintf(&sb, "  %s\n", tview.Escape(line))
	}
	if hidden := len(failure.Details) - len(shown); hidden > 0 {
		fmt.Fprintf(&sb, "  [gray]... and %d more lines[white]\n", hidden)
	}
	return sb.String()
}
