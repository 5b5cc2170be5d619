package output

import (
	"fmt"
	"io"
	"net"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vulnverified/redisbrute/internal/engine"
)

var (
	foundHeaders  = []string{"Target", "IP", "Username", "Password", "Found at (UTC)"}
	targetHeaders = []string{"Target", "Status", "Mode", "Attempts", "Found", "Time"}
)

// WriteTable renders the found credentials as a styled terminal table.
func WriteTable(w io.Writer, result *engine.RunResult, noColor bool) {
	if len(result.Found) == 0 {
		fmt.Fprintln(w, "\nNo credentials found.")
		return
	}

	var rows [][]string
	for _, c := range result.Found {
		rows = append(rows, []string{
			net.JoinHostPort(c.Host, c.Port),
			c.IP,
			c.Username,
			truncate(c.Password, 40),
			c.Timestamp,
		})
	}

	// Sort by target, keeping discovery order within a target.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i][0] < rows[j][0]
	})

	fmt.Fprintln(w)

	if noColor {
		writeSimpleTable(w, foundHeaders, rows)
		return
	}

	t := table.New().
		Headers(foundHeaders...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

// WriteTargetTable renders one row per processed target.
func WriteTargetTable(w io.Writer, result *engine.RunResult, noColor bool) {
	if len(result.Targets) == 0 {
		return
	}

	var rows [][]string
	for _, t := range result.Targets {
		rows = append(rows, []string{
			t.Target.String(),
			string(t.Status),
			string(t.Mode),
			fmt.Sprintf("%d", t.Attempts),
			fmt.Sprintf("%d", t.Found),
			fmt.Sprintf("%.1fs", t.DurationSecs),
		})
	}

	fmt.Fprintln(w)

	if noColor {
		writeSimpleTable(w, targetHeaders, rows)
		return
	}

	t := table.New().
		Headers(targetHeaders...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			if col == 1 && row >= 0 && row < len(rows) {
				return statusStyle(engine.TargetStatus(rows[row][1]))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func statusStyle(s engine.TargetStatus) lipgloss.Style {
	switch s {
	case engine.StatusNoAuth:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	case engine.StatusAmbiguous:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case engine.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Print header.
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprintf(w, "%-*s", widths[i], h)
	}
	fmt.Fprintln(w)

	// Separator.
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	// Rows.
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
