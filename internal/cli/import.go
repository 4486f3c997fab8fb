package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/importer"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import issues from a CSV file",
	Long: `Import issues from a CSV file with the columns title, description, status
and assignee. Valid rows are created; invalid rows are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		conn := getDB(cmd)

		path := args[0]
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			return cmdErr(fmt.Errorf("file must be a CSV (.csv): %s", path), output.ErrValidation)
		}

		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cmdErr(fmt.Errorf("file not found: %s", path), output.ErrNotFound)
			}
			return cmdErr(fmt.Errorf("opening file: %w", err), output.ErrGeneral)
		}
		defer f.Close()

		result, err := importer.Import(cmd.Context(), conn, f)
		if err != nil {
			return storeErr(err)
		}

		if result.Failed > 0 {
			w.Warn("%d of %d rows were not imported", result.Failed, result.TotalRows)
		}
		w.Success(result, formatImportResult(result))
		return nil
	},
}

func formatImportResult(res *importer.Result) string {
	summary := fmt.Sprintf("Imported %s of %s rows",
		humanize.Comma(int64(res.Created)),
		humanize.Comma(int64(res.TotalRows)),
	)
	if len(res.Errors) == 0 {
		return render.StyledText(summary, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")))
	}

	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	fieldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	lines := []string{render.StyledText(summary, lipgloss.NewStyle().Bold(true)), ""}
	for _, re := range res.Errors {
		lines = append(lines, render.StyledText("Row "+strconv.Itoa(re.Row), rowStyle))
		for _, field := range sortedKeys(re.Errors) {
			lines = append(lines, fmt.Sprintf("  %s %s",
				render.StyledText(field+":", fieldStyle),
				strings.Join(re.Errors[field], " "),
			))
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
