package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

const maxTitleWidth = 40

// StyledText applies a lipgloss style to text when colors are enabled.
// When colors are disabled, it returns the plain text unchanged.
func StyledText(text string, style lipgloss.Style) string {
	if ColorsEnabled() {
		return style.Render(text)
	}
	return text
}

// ColorFromName maps model color name strings to lipgloss colors.
func ColorFromName(name string) lipgloss.Color {
	switch name {
	case "red":
		return lipgloss.Color("9")
	case "yellow":
		return lipgloss.Color("11")
	case "blue":
		return lipgloss.Color("12")
	case "green":
		return lipgloss.Color("10")
	case "gray":
		return lipgloss.Color("8")
	default:
		return lipgloss.Color("15")
	}
}

// truncate shortens a string to maxLen runes, appending an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// statusLabel returns a status string with icon, e.g. "✔ resolved".
func statusLabel(s model.Status) string {
	return s.Icon() + " " + string(s)
}

// FormatID renders an issue ID for display.
func FormatID(id int) string {
	return "#" + strconv.Itoa(id)
}

// FormatRef renders an optional user reference, "-" when unset.
func FormatRef(ref *int64) string {
	if ref == nil {
		return "-"
	}
	return "user " + strconv.FormatInt(*ref, 10)
}

// EmptyState renders a styled empty-state message with an optional contextual hint.
// When colors are enabled the message is rendered in dim gray and the hint is italic.
// When quiet is true the hint is suppressed.
func EmptyState(message, hint string, quiet bool) string {
	if !ColorsEnabled() {
		if quiet || hint == "" {
			return message
		}
		return message + "\n" + hint
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	result := dimStyle.Render(message)
	if !quiet && hint != "" {
		result += "\n" + hintStyle.Render(hint)
	}
	return result
}

// newTable returns a bordered table with a bold header row. colStyle styles
// body cells by row and column index.
func newTable(headers []string, rows [][]string, colStyle func(row, col int, s lipgloss.Style) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if row < 0 || row >= len(rows) || colStyle == nil {
				return s
			}
			return colStyle(row, col, s)
		})
}

// RenderIssueTable renders a page of issues as a formatted table.
func RenderIssueTable(issues []*model.Issue) string {
	if len(issues) == 0 {
		return EmptyState("No issues found.", "Import some with: docketd import issues.csv", false)
	}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, issueToRow(issue))
	}

	if !ColorsEnabled() {
		return renderPlainTable([]string{"ID", "Status", "Title", "Assignee", "Ver", "Updated"}, rows)
	}

	t := newTable([]string{"ID", "Status", "Title", "Assignee", "Ver", "Updated"}, rows,
		func(row, col int, s lipgloss.Style) lipgloss.Style {
			switch col {
			case 0: // ID
				return s.Foreground(lipgloss.Color("15"))
			case 1: // Status
				return s.Foreground(ColorFromName(issues[row].Status.Color()))
			case 2: // Title
				return s.Bold(true)
			case 4, 5:
				return s.Foreground(lipgloss.Color("8"))
			default:
				return s
			}
		})

	return t.Render()
}

func issueToRow(issue *model.Issue) []string {
	return []string{
		FormatID(issue.ID),
		statusLabel(issue.Status),
		truncate(issue.Title, maxTitleWidth),
		FormatRef(issue.Assignee),
		strconv.Itoa(issue.Version),
		humanize.Time(issue.UpdatedAt),
	}
}

// RenderAssigneeTable renders the top-assignee report with a share column.
func RenderAssigneeTable(counts []model.AssigneeCount) string {
	if len(counts) == 0 {
		return EmptyState("No assigned issues.", "", false)
	}

	total := 0
	for _, c := range counts {
		total += c.IssueCount
	}

	rows := make([][]string, 0, len(counts))
	for i, c := range counts {
		rows = append(rows, []string{
			humanize.Ordinal(i + 1),
			FormatRef(&c.Assignee),
			humanize.Comma(int64(c.IssueCount)),
			fmt.Sprintf("%.0f%%", 100*float64(c.IssueCount)/float64(total)),
		})
	}

	headers := []string{"Rank", "Assignee", "Issues", "Share"}
	if !ColorsEnabled() {
		return renderPlainTable(headers, rows)
	}

	t := newTable(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		switch col {
		case 0:
			return s.Foreground(lipgloss.Color("8"))
		case 2:
			return s.Bold(true).Align(lipgloss.Right)
		case 3:
			return s.Align(lipgloss.Right)
		default:
			return s
		}
	})
	return t.Render()
}

// RenderLabelTable renders every label with the number of issues carrying it.
func RenderLabelTable(labels []*model.LabelWithCount) string {
	if len(labels) == 0 {
		return EmptyState("No labels.", "Attach some with: docketd label <id> <name>...", false)
	}

	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{l.Name, humanize.Comma(int64(l.IssueCount))})
	}

	headers := []string{"Label", "Issues"}
	if !ColorsEnabled() {
		return renderPlainTable(headers, rows)
	}

	t := newTable(headers, rows, func(row, col int, s lipgloss.Style) lipgloss.Style {
		if col == 0 {
			return s.Foreground(lipgloss.Color("13"))
		}
		return s.Align(lipgloss.Right)
	})
	return t.Render()
}

// RenderLatency renders the resolution latency report as a short summary.
func RenderLatency(r model.LatencyReport) string {
	if !r.HasData() {
		return EmptyState("No resolved or closed issues yet.", "Latency is reported once an issue is resolved or closed.", false)
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().Bold(true)

	lines := []string{
		fmt.Sprintf("%s %s (%s)",
			StyledText("Average resolution:", labelStyle),
			StyledText(model.HumanDuration(*r.Average), valueStyle),
			r.Average.Round(time.Second).String(),
		),
		fmt.Sprintf("%s %s",
			StyledText("Sample size:", labelStyle),
			humanize.Comma(int64(r.Samples)),
		),
	}
	return strings.Join(lines, "\n")
}

// renderPlainTable renders a fixed-width table without any styling.
func renderPlainTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	total := 0
	for _, w := range widths {
		total += w
	}
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", total+2*(len(widths)-1)))
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}
