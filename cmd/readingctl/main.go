// Command readingctl runs maintenance tasks against the reading log database:
// migrations, JSON backups and the word-list reset.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"readinglog/internal/config"
	"readinglog/internal/database"
	"readinglog/internal/repository"
	"readinglog/internal/service"
	"readinglog/internal/sink"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:           "readingctl",
		Short:         "Maintenance tool for the reading log database",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `readingctl operates on the database configured through the same
environment variables as the server (DB_TYPE, DB_PATH, DATABASE_URL).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(cfg.NewLogger(os.Stderr))
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		migrateCmd(cfg),
		exportCmd(cfg),
		importCmd(cfg),
		resetWordListsCmd(cfg),
		sheetsHeaderCmd(cfg),
	)
	return cmd
}

// openDB connects and brings the schema up to date
func openDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			versions, err := db.AppliedMigrations()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is current (%d migrations recorded)\n", len(versions))
			return nil
		},
	}
}

func exportCmd(cfg *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the database to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("readinglog_backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			data, err := service.NewBackupService(db).Export(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(output)
				return fmt.Errorf("export failed: %w", err)
			}

			var size int64
			if info, err := os.Stat(output); err == nil {
				size = info.Size()
			}
			slog.Info("export complete", "file", output, "bytes", size,
				"children", len(data.Children), "word_lists", len(data.WordLists), "records", len(data.Records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: readinglog_backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func importCmd(cfg *config.Config) *cobra.Command {
	var (
		input     string
		clearData bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer f.Close()

			if clearData && !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
					return nil
				}
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			summary, err := service.NewBackupService(db).Import(f, clearData)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			slog.Info("import complete",
				"children", summary.Children,
				"word_lists", summary.WordLists,
				"words", summary.Words,
				"fonts", summary.Fonts,
				"records", summary.Records,
				"skipped_records", summary.SkippedRecords)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input file path")
	cmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before import (destructive)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func resetWordListsCmd(cfg *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-word-lists",
		Short: "Delete every word list and restore the defaults",
		Long:  "Deletes all word lists, their words and the reading records that reference them, then recreates the default lists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "This deletes all word lists and their reading records. Type 'yes' to confirm: ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
					return nil
				}
			}

			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			listService := service.NewListService(repository.NewListRepository(db), cfg.UploadDir)
			if err := listService.ResetWordLists(); err != nil {
				return err
			}
			slog.Info("word lists reset")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func sheetsHeaderCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets-header",
		Short: "Write the column header row to the configured Google Sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets, err := sink.NewSheetsFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if sheets == nil {
				return fmt.Errorf("GOOGLE_SHEET_ID is not configured")
			}
			if err := sheets.EnsureHeader(cmd.Context()); err != nil {
				return err
			}
			slog.Info("sheet header written", "sheet", cfg.GoogleSheetName)
			return nil
		},
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}
