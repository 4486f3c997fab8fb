package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an issue with its labels and comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIssueID(args[0])
		if err != nil {
			return err
		}

		detail, err := db.GetIssueDetail(cmd.Context(), conn, id)
		if err != nil {
			return issueErr(id, err)
		}

		w.Render(detail, func() string { return render.RenderDetail(detail) })
		return nil
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <id>",
	Short: "Show an issue's reconstructed event timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIssueID(args[0])
		if err != nil {
			return err
		}

		events, err := db.Timeline(cmd.Context(), conn, id)
		if err != nil {
			return issueErr(id, err)
		}

		w.Render(events, func() string { return render.RenderTimeline(id, events) })
		return nil
	},
}

// parseIssueID accepts a bare number or the "#N" form used in listings.
func parseIssueID(arg string) (int, error) {
	id, err := model.ParseID(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil {
		return 0, cmdErr(err, output.ErrValidation)
	}
	return id, nil
}

// issueErr adds the issue ID to not-found errors and classifies the rest.
func issueErr(id int, err error) error {
	if output.ClassifyError(err) == output.ErrNotFound {
		return cmdErr(fmt.Errorf("issue %s not found", render.FormatID(id)), output.ErrNotFound)
	}
	return storeErr(err)
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(timelineCmd)
}
