package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

type listResult struct {
	Issues []*model.Issue `json:"issues"`
	Total  int            `json:"total"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List issues, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		status, _ := cmd.Flags().GetString("status")
		assignee, _ := cmd.Flags().GetString("assignee")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		opts := db.ListOptions{Limit: limit, Offset: offset}

		if status != "" {
			if err := model.ValidateStatus(model.Status(status)); err != nil {
				return cmdErr(model.FieldError("status", err.Error()), output.ErrValidation)
			}
			opts.Status = model.Status(status)
		}
		if assignee != "" {
			ref, err := model.ParseRef(assignee)
			if err != nil {
				return cmdErr(model.FieldError("assignee", model.MsgNotInteger), output.ErrValidation)
			}
			opts.Assignee = ref
		}
		if limit < 0 || offset < 0 {
			return cmdErr(fmt.Errorf("--limit and --offset must not be negative"), output.ErrValidation)
		}

		issues, total, err := db.ListIssues(cmd.Context(), conn, opts)
		if err != nil {
			return cmdErr(fmt.Errorf("listing issues: %w", err), output.ErrGeneral)
		}

		if len(issues) < total {
			w.Info("Showing %d of %d issues", len(issues), total)
		}
		w.Render(listResult{Issues: issues, Total: total}, func() string {
			return render.RenderIssueTable(issues)
		})

		return nil
	},
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().StringP("assignee", "a", "", "Filter by assignee reference")
	listCmd.Flags().Int("limit", 50, "Maximum number of results, 0 for all")
	listCmd.Flags().Int("offset", 0, "Number of issues to skip")
	rootCmd.AddCommand(listCmd)
}
