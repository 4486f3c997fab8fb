package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/model"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an issue against an expected version",
	Long: `Update an issue. --version must match the stored version; if another
writer got there first the command fails with a conflict and prints the
current version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIssueID(args[0])
		if err != nil {
			return err
		}

		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}

		issue, err := db.UpdateIssue(cmd.Context(), conn, id, patch)
		if err != nil {
			return issueErr(id, err)
		}

		w.Success(issue, fmt.Sprintf("Updated %s: %s (version %d)", render.FormatID(issue.ID), issue.Title, issue.Version))
		return nil
	},
}

// patchFromFlags builds a patch from the flags the user actually set.
func patchFromFlags(cmd *cobra.Command) (model.IssuePatch, error) {
	var patch model.IssuePatch
	flags := cmd.Flags()

	if flags.Changed("version") {
		v, _ := flags.GetInt("version")
		patch.Version = &v
	}
	if flags.Changed("title") {
		s, _ := flags.GetString("title")
		patch.Title = &s
	}
	if flags.Changed("description") {
		s, _ := flags.GetString("description")
		patch.Description = &s
	}
	if flags.Changed("status") {
		s, _ := flags.GetString("status")
		patch.Status = &s
	}

	unassign, _ := flags.GetBool("unassign")
	if flags.Changed("assignee") {
		if unassign {
			return patch, cmdErr(fmt.Errorf("--assignee and --unassign are mutually exclusive"), output.ErrValidation)
		}
		raw, _ := flags.GetString("assignee")
		ref, err := model.ParseRef(raw)
		if err != nil {
			return patch, cmdErr(model.FieldError("assignee", model.MsgNotInteger), output.ErrValidation)
		}
		patch.Assignee = model.OptionalRef{Set: true, Value: ref}
	} else if unassign {
		patch.Assignee = model.OptionalRef{Set: true}
	}

	return patch, nil
}

var commentCmd = &cobra.Command{
	Use:   "comment <id> <body>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIssueID(args[0])
		if err != nil {
			return err
		}

		var author *int64
		if raw, _ := cmd.Flags().GetString("author"); raw != "" {
			if author, err = model.ParseRef(raw); err != nil {
				return cmdErr(model.FieldError("author", model.MsgNotInteger), output.ErrValidation)
			}
		}

		comment, err := db.CreateComment(cmd.Context(), conn, id, author, args[1])
		if err != nil {
			return issueErr(id, err)
		}

		w.Success(comment, fmt.Sprintf("Added comment %d to %s", comment.ID, render.FormatID(id)))
		return nil
	},
}

var labelCmd = &cobra.Command{
	Use:   "label <id> [name...]",
	Short: "Replace an issue's labels; with no names, clear them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		id, err := parseIssueID(args[0])
		if err != nil {
			return err
		}

		labels, err := db.ReplaceIssueLabels(cmd.Context(), conn, id, args[1:])
		if err != nil {
			return issueErr(id, err)
		}

		msg := fmt.Sprintf("Cleared labels on %s", render.FormatID(id))
		if len(labels) > 0 {
			msg = fmt.Sprintf("Set %d label(s) on %s", len(labels), render.FormatID(id))
		}
		w.Success(labels, msg)
		return nil
	},
}

func init() {
	updateCmd.Flags().Int("version", 0, "Expected current version (required)")
	updateCmd.Flags().StringP("title", "t", "", "New title")
	updateCmd.Flags().StringP("description", "d", "", "New description")
	updateCmd.Flags().StringP("status", "s", "", "New status")
	updateCmd.Flags().StringP("assignee", "a", "", "New assignee reference")
	updateCmd.Flags().Bool("unassign", false, "Clear the assignee")

	commentCmd.Flags().String("author", "", "Author user reference")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(labelCmd)
}
