package cli

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

type versionInfo struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date"`
	GoVersion     string `json:"go_version"`
	SchemaVersion int    `json:"schema_version"`
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print docketd version information",
	Annotations: map[string]string{"skipDB": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		w := getWriter(cmd)

		info := versionInfo{
			Version:       version,
			Commit:        commit,
			BuildDate:     buildDate,
			GoVersion:     runtime.Version(),
			SchemaVersion: db.LatestSchemaVersion,
		}

		bold := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		msg := fmt.Sprintf("docketd version %s %s",
			render.StyledText(info.Version, bold),
			render.StyledText(fmt.Sprintf("(commit: %s, built: %s, %s, schema v%d)", info.Commit, info.BuildDate, info.GoVersion, info.SchemaVersion), dim),
		)

		w.Success(info, msg)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
