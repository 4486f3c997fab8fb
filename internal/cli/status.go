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

var statusCmd = &cobra.Command{
	Use:   "status <status> <id>...",
	Short: "Set the status of several issues at once",
	Long: `Set the status of several issues in one transaction. If any issue does
not exist, none of them are changed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		status := model.Status(args[0])
		changes := make([]model.StatusChange, 0, len(args)-1)
		for _, arg := range args[1:] {
			id, err := parseIssueID(arg)
			if err != nil {
				return err
			}
			changes = append(changes, model.StatusChange{ID: id, Status: status})
		}

		issues, err := db.BulkUpdateStatus(cmd.Context(), conn, changes)
		if err != nil {
			return storeErr(err)
		}

		ids := make([]string, len(issues))
		for i, issue := range issues {
			ids[i] = render.FormatID(issue.ID)
		}
		w.Success(issues, fmt.Sprintf("Set %s on %s", status, strings.Join(ids, ", ")))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every issue, comment and label",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			if w.JSONMode {
				return cmdErr(fmt.Errorf("reset requires --yes in JSON mode"), output.ErrValidation)
			}
			ok, err := confirm("Delete all issues, comments and labels? This cannot be undone.")
			if err != nil {
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}
			if !ok {
				w.Info("Cancelled.")
				return nil
			}
		}

		count, err := db.CountIssues(cmd.Context(), conn)
		if err != nil {
			return cmdErr(fmt.Errorf("counting issues: %w", err), output.ErrGeneral)
		}
		if err := db.ClearAllData(cmd.Context(), conn); err != nil {
			return cmdErr(fmt.Errorf("clearing data: %w", err), output.ErrGeneral)
		}

		w.Success(struct {
			Deleted int `json:"deleted"`
		}{Deleted: count}, fmt.Sprintf("Deleted %d issue(s)", count))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}
