package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate reports over all issues",
}

var reportAssigneesCmd = &cobra.Command{
	Use:   "assignees",
	Short: "Rank assignees by number of issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 0 {
			return cmdErr(fmt.Errorf("--limit must not be negative"), output.ErrValidation)
		}

		counts, err := db.TopAssignees(cmd.Context(), conn, limit)
		if err != nil {
			return cmdErr(fmt.Errorf("building assignee report: %w", err), output.ErrGeneral)
		}

		w.Render(counts, func() string { return render.RenderAssigneeTable(counts) })
		return nil
	},
}

var reportLatencyCmd = &cobra.Command{
	Use:   "latency",
	Short: "Average time from creation to last update for resolved and closed issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		report, err := db.ResolutionLatency(cmd.Context(), conn)
		if err != nil {
			return cmdErr(fmt.Errorf("building latency report: %w", err), output.ErrGeneral)
		}

		w.Render(report, func() string { return render.RenderLatency(report) })
		return nil
	},
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List all labels with their issue counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		labels, err := db.ListAllLabels(cmd.Context(), conn)
		if err != nil {
			return cmdErr(fmt.Errorf("listing labels: %w", err), output.ErrGeneral)
		}

		w.Render(labels, func() string { return render.RenderLabelTable(labels) })
		return nil
	},
}

func init() {
	reportAssigneesCmd.Flags().Int("limit", 0, "Maximum number of assignees, 0 for all")

	reportCmd.AddCommand(reportAssigneesCmd)
	reportCmd.AddCommand(reportLatencyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(labelsCmd)
}
