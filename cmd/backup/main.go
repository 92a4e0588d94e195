package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"linguapath/internal/app"
	"linguapath/internal/repository"
	"linguapath/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "backup",
		Short: "Linguapath database backup tool",
		Long: `Export and import users, daily study records and lesson completions as JSON.

The database is selected with DB_TYPE (sqlite, postgres or mysql), DB_PATH
and DATABASE_URL, the same variables the server reads.`,
		SilenceUsage: true,
	}
	root.AddCommand(newExportCmd(), newImportCmd())
	return root
}

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export database to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			if err := newBackupService(env).ExportFile(cmd.Context(), output); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if info, err := os.Stat(output); err == nil {
				env.Logger.WithField("size_mb", fmt.Sprintf("%.2f", float64(info.Size())/1024/1024)).Info("Export complete")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		input     string
		clearData bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import database from a JSON file",
		Long: `Import a backup. Without --clear existing users are kept and study minutes
are added to the records already present.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input file: %w", err)
			}

			if clearData && !yes {
				fmt.Fprint(cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(answer) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
					return nil
				}
			}

			env, err := app.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			if err := newBackupService(env).ImportFile(cmd.Context(), input, clearData); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path (required)")
	cmd.Flags().BoolVar(&clearData, "clear", false, "clear existing data before import (destructive)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt of --clear")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newBackupService(env *app.Env) *service.BackupService {
	return service.NewBackupService(
		repository.NewUserRepository(env.DB),
		repository.NewStudyRepository(env.DB),
		env.Logger,
	)
}
