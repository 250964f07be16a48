package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/conorfennell/randpick/internal/domain"
	"github.com/conorfennell/randpick/internal/service"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	resultStyle  = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("5")).
			Padding(0, 2)
)

const (
	symCheck   = "✔"
	symCross   = "✖"
	symDrawn   = "☑"
	symUndrawn = "☐"
	symDefault = "★"
)

func printOK(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(symCheck+" "+msg))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render(symCross+" "+err.Error()))
}

// progressBar renders done/total as a bar with a percentage.
func progressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("%s %3d%%", strings.Repeat("█", filled)+strings.Repeat("░", width-filled), done*100/total)
}

func renderTables(w io.Writer, tables []service.TableSummary) {
	fmt.Fprintln(w, titleStyle.Render("Tables"))
	for _, t := range tables {
		mark := " "
		if t.IsDefault {
			mark = accentStyle.Render(symDefault)
		}
		src := ""
		if t.SourceID != nil {
			src = mutedStyle.Render(fmt.Sprintf(" (source %d)", *t.SourceID))
		}
		fmt.Fprintf(w, "%s %3d  %s  %s%s\n",
			mark, t.ID, t.Name,
			mutedStyle.Render(fmt.Sprintf("remaining %d / total %d", t.Remaining, t.Total)),
			src,
		)
	}
}

func renderItems(w io.Writer, table domain.Table, items []domain.Item) {
	drawn := 0
	for _, it := range items {
		if it.IsDrawn {
			drawn++
		}
	}
	fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(table.Name), mutedStyle.Render(progressBar(drawn, len(items), 20)))
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no items"))
		return
	}
	for _, it := range items {
		box, style := symUndrawn, lipgloss.NewStyle()
		suffix := ""
		if it.IsDrawn {
			box, style = symDrawn, mutedStyle
			if it.DrawnAt != nil {
				suffix = mutedStyle.Render("  drawn " + it.DrawnAt.Format("2006-01-02 15:04"))
			}
		}
		fmt.Fprintf(w, "%4d. %s %s%s\n", it.ID, box, style.Render(it.Text), suffix)
	}
}

func renderDraw(w io.Writer, res service.DrawResult) {
	fmt.Fprintln(w, resultStyle.Render(res.Item.Text))
	mode := "with replacement"
	if res.NoRepeat {
		mode = "no-repeat"
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s · remaining %d / total %d · %s", res.Table.Name, res.Remaining, res.Total, mode)))
}

func renderHistory(w io.Writer, table domain.Table, draws []domain.Draw) {
	fmt.Fprintln(w, titleStyle.Render("Recent draws · "+table.Name))
	if len(draws) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(none yet)"))
		return
	}
	for _, d := range draws {
		fmt.Fprintf(w, "%s  %s\n", mutedStyle.Render(d.DrawnAt.Format("2006-01-02 15:04:05")), d.Text)
	}
}

func renderPreferences(w io.Writer, p domain.Preferences) {
	def := "(none)"
	if p.DefaultTableID != nil {
		def = fmt.Sprintf("%d", *p.DefaultTableID)
	}
	fmt.Fprintf(w, "default table: %s\nno-repeat:     %t\n", def, p.NoRepeat)
}
