package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/docketd/internal/config"
	"github.com/ALT-F4-LLC/docketd/internal/db"
	"github.com/ALT-F4-LLC/docketd/internal/output"
	"github.com/ALT-F4-LLC/docketd/internal/render"
)

type initResult struct {
	Path          string `json:"path"`
	DBPath        string `json:"db_path"`
	SchemaVersion int    `json:"schema_version"`
	Created       bool   `json:"created"`
}

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize a new docket database",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}

		conn, err := openStore(cfg)
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}
		defer conn.Close()

		schemaVersion, err := db.SchemaVersion(conn)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}

		result := initResult{
			Path:          cfg.DataDir,
			DBPath:        cfg.DBPath,
			SchemaVersion: schemaVersion,
			Created:       !exists,
		}

		if exists {
			w.Warn("Database already exists at %s", cfg.DBPath)
			w.Success(result, render.StyledText("Database already initialized", lipgloss.NewStyle().Foreground(lipgloss.Color("3"))))
			return nil
		}

		w.Success(result, render.StyledText("Initialized docket database", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))))
		w.Info("Database created at %s", cfg.DBPath)
		w.Info("Consider adding .docket/ to your .gitignore")

		return nil
	},
}

// openStore creates the data directory if needed, opens the database and
// brings its schema up to date. Initialize is idempotent, so this is safe on
// an existing store.
func openStore(cfg *config.Config) (*sql.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Initialize(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return conn, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
