package cli

import (
	"fmt"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/config"
	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

type configInfo struct {
	DBPath        string `json:"db_path"`
	DBFound       bool   `json:"db_found"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	SchemaVersion int    `json:"schema_version"`
	PathSet       bool   `json:"path_set"`
	Addr          string `json:"addr"`
	Env           string `json:"env"`
	LogFormat     string `json:"log_format"`
	RateLimit     int    `json:"rate_limit"`
	PageSize      int    `json:"page_size"`
	MaxPageSize   int    `json:"max_page_size"`
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Display resolved configuration",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		info := newConfigInfo(cfg)

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}

		if !exists {
			w.Warn("No docket database found. Run 'docketd init' to create one.")
			w.Success(info, formatConfigHuman(info))
			return nil
		}

		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrGeneral)
		}
		defer conn.Close()

		if info.SchemaVersion, err = db.SchemaVersion(conn); err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}

		stat, err := os.Stat(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("reading database file: %w", err), output.ErrGeneral)
		}
		info.DBFound = true
		info.DBSizeBytes = stat.Size()

		w.Success(info, formatConfigHuman(info))
		return nil
	},
}

func newConfigInfo(cfg *config.Config) configInfo {
	return configInfo{
		DBPath:      cfg.DBPath,
		PathSet:     cfg.PathSet,
		Addr:        cfg.Addr,
		Env:         cfg.Env,
		LogFormat:   cfg.LogFormat,
		RateLimit:   cfg.RateLimit,
		PageSize:    cfg.PageSize,
		MaxPageSize: cfg.MaxPageSize,
	}
}

// configRows returns the key/value pairs shown for info, in display order.
func configRows(info configInfo) [][2]string {
	dbPath := info.DBPath
	if !info.DBFound {
		dbPath += " (not found)"
	}
	rows := [][2]string{{"Database path:", dbPath}}
	if info.DBFound {
		rows = append(rows,
			[2]string{"Database size:", humanize.IBytes(uint64(info.DBSizeBytes))},
			[2]string{"Schema version:", fmt.Sprintf("%d", info.SchemaVersion)},
		)
	}

	rate := "disabled"
	if info.RateLimit > 0 {
		rate = fmt.Sprintf("%d/min per IP", info.RateLimit)
	}
	rows = append(rows,
		[2]string{"Listen address:", info.Addr},
		[2]string{"Environment:", info.Env},
		[2]string{"Log format:", info.LogFormat},
		[2]string{"Rate limit:", rate},
		[2]string{"Page size:", fmt.Sprintf("%d (max %d)", info.PageSize, info.MaxPageSize)},
	)
	return rows
}

func formatConfigHuman(info configInfo) string {
	rows := configRows(info)

	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}

	if !render.ColorsEnabled() {
		lines := make([]string, len(rows))
		for i, r := range rows {
			lines[i] = fmt.Sprintf("%-*s  %s", width, r[0], r[1])
		}
		return strings.Join(lines, "\n")
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(width)
	valStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	indicator := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("●")
	if info.DBFound {
		indicator = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
	}

	lines := []string{headerStyle.Render("Docket Configuration"), ""}
	for i, r := range rows {
		val := valStyle.Render(r[1])
		if i == 0 {
			val = indicator + " " + val
		}
		lines = append(lines, fmt.Sprintf("  %s  %s", keyStyle.Render(r[0]), val))
	}
	return strings.Join(lines, "\n")
}

func init() {
	rootCmd.AddCommand(configCmd)
}
