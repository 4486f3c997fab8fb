package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// eventIcon returns a marker for a timeline event.
func eventIcon(e model.TimelineEvent) string {
	switch e.Type {
	case model.EventCreated:
		return "\u2728" // ✨
	case model.EventStatusChange:
		return e.Status.Icon()
	case model.EventComment:
		return "\u270e" // ✎
	case model.EventLabelUpdate:
		return "\u2691" // ⚑
	default:
		return "\u2022" // •
	}
}

// eventSummary describes an event in one line.
func eventSummary(e model.TimelineEvent) string {
	switch e.Type {
	case model.EventCreated:
		return "Issue created"
	case model.EventStatusChange:
		return "Status is now " + string(e.Status)
	case model.EventComment:
		author := "anonymous"
		if e.Author != nil {
			author = FormatRef(e.Author)
		}
		return fmt.Sprintf("%s commented: %s", author, truncate(firstLine(e.Body), 60))
	case model.EventLabelUpdate:
		return "Labels: " + strings.Join(e.Labels, ", ")
	default:
		return string(e.Type)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// RenderTimeline renders an issue's reconstructed event list, oldest first.
func RenderTimeline(issueID int, events []model.TimelineEvent) string {
	if len(events) == 0 {
		return EmptyState("No events.", "", false)
	}

	if !ColorsEnabled() {
		var b strings.Builder
		fmt.Fprintf(&b, "Timeline for %s\n", FormatID(issueID))
		for _, e := range events {
			fmt.Fprintf(&b, "  %s  %s %s\n", e.Timestamp.Local().Format(timeLayout), eventIcon(e), eventSummary(e))
		}
		return b.String()
	}

	rootStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	t := tree.New().Root(rootStyle.Render("Timeline for " + FormatID(issueID)))
	for _, e := range events {
		iconStyle := lipgloss.NewStyle()
		if e.Type == model.EventStatusChange {
			iconStyle = iconStyle.Foreground(ColorFromName(e.Status.Color()))
		}
		t.Child(fmt.Sprintf("%s  %s %s",
			timeStyle.Render(e.Timestamp.Local().Format(timeLayout)),
			iconStyle.Render(eventIcon(e)),
			eventSummary(e),
		))
	}
	return t.String()
}
