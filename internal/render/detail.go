package render

import (
	"fmt"
	"strconv"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/docketd/internal/model"
)

// RenderDetail renders a full issue detail view including metadata,
// description, labels and comments.
func RenderDetail(d *model.IssueDetail) string {
	if !ColorsEnabled() {
		return renderPlainDetail(d)
	}

	var sections []string

	// Header
	sections = append(sections, renderHeader(&d.Issue))

	// Metadata
	sections = append(sections, renderMetadata(d))

	// Description
	if strings.TrimSpace(d.Description) != "" {
		sections = append(sections, renderDescription(d.Description))
	}

	// Comments
	if len(d.Comments) > 0 {
		sections = append(sections, renderComments(d.Comments))
	}

	return strings.Join(sections, "\n\n")
}

func renderHeader(issue *model.Issue) string {
	idStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	titleStyle := lipgloss.NewStyle().Bold(true)
	statusStyle := lipgloss.NewStyle().
		Foreground(ColorFromName(issue.Status.Color())).
		Bold(true)
	versionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	return fmt.Sprintf("%s  %s\n%s  %s",
		idStyle.Render(FormatID(issue.ID)),
		titleStyle.Render(issue.Title),
		statusStyle.Render(statusLabel(issue.Status)),
		versionStyle.Render("v"+strconv.Itoa(issue.Version)),
	)
}

func renderMetadata(d *model.IssueDetail) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tagStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Assignee:"), FormatRef(d.Assignee)))

	if len(d.Labels) > 0 {
		tags := make([]string, len(d.Labels))
		for i, l := range d.Labels {
			tags[i] = tagStyle.Render(l.Name)
		}
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Labels:"), strings.Join(tags, ", ")))
	}

	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Created:"), humanize.Time(d.CreatedAt)))
	lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Updated:"), humanize.Time(d.UpdatedAt)))
	if d.Status.IsTerminal() {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Open for:"), model.HumanDuration(d.UpdatedAt.Sub(d.CreatedAt))))
	}

	return strings.Join(lines, "\n")
}

func renderDescription(description string) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	header := sectionStyle.Render("Description")

	rendered, err := RenderMarkdown(description)
	if err != nil {
		rendered = description
	}

	return header + "\n" + rendered
}

func renderComments(comments []*model.Comment) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := sectionStyle.Render(fmt.Sprintf("Comments (%d)", len(comments)))

	var parts []string
	for _, c := range comments {
		body, err := RenderMarkdown(c.Body)
		if err != nil {
			body = c.Body
		}

		commentHeader := fmt.Sprintf("%s  %s",
			authorStyle.Render(commentAuthor(c)),
			timeStyle.Render(humanize.Time(c.CreatedAt)),
		)

		parts = append(parts, commentHeader+"\n"+body)
	}

	return header + "\n" + strings.Join(parts, "\n\n")
}

func commentAuthor(c *model.Comment) string {
	if c.Author == nil {
		return "anonymous"
	}
	return FormatRef(c.Author)
}

// renderPlainDetail renders a detail view without any color or styling.
func renderPlainDetail(d *model.IssueDetail) string {
	var b strings.Builder

	// Header
	fmt.Fprintf(&b, "%s  %s\n", FormatID(d.ID), d.Title)
	fmt.Fprintf(&b, "%s  v%d\n", statusLabel(d.Status), d.Version)

	// Metadata
	b.WriteString("\n")
	fmt.Fprintf(&b, "Assignee: %s\n", FormatRef(d.Assignee))
	if len(d.Labels) > 0 {
		names := make([]string, len(d.Labels))
		for i, l := range d.Labels {
			names[i] = l.Name
		}
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Created: %s\n", humanize.Time(d.CreatedAt))
	fmt.Fprintf(&b, "Updated: %s\n", humanize.Time(d.UpdatedAt))
	if d.Status.IsTerminal() {
		fmt.Fprintf(&b, "Open for: %s\n", model.HumanDuration(d.UpdatedAt.Sub(d.CreatedAt)))
	}

	// Description
	if strings.TrimSpace(d.Description) != "" {
		fmt.Fprintf(&b, "\nDescription\n%s\n", d.Description)
	}

	// Comments
	if len(d.Comments) > 0 {
		fmt.Fprintf(&b, "\nComments (%d)\n", len(d.Comments))
		for _, c := range d.Comments {
			fmt.Fprintf(&b, "  %s  %s\n  %s\n\n", commentAuthor(c), humanize.Time(c.CreatedAt), c.Body)
		}
	}

	return b.String()
}
