package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geophotos/internal/adapters/filestore"
	"github.com/samirrijal/geophotos/internal/adapters/postgres"
	"github.com/samirrijal/geophotos/internal/core/domain"
	"github.com/samirrijal/geophotos/internal/pkg/config"
	"github.com/samirrijal/geophotos/internal/pkg/logging"
)

// execer is the part of the pool the migration runner needs.
type execer interface {
	Exec(ctx context.Context, sql string) error
}

// batchAppender receives imported records in order.
type batchAppender interface {
	AppendBatch(ctx context.Context, photos []domain.Photo) error
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Postgres photo metadata schema and data.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level, _ := cmd.Flags().GetString("log-level")
			logging.Setup(level, "text")
		},
	}
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")

	root.AddCommand(newUpCommand())
	root.AddCommand(newImportCommand())
	return root
}

func newUpCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every migration file in lexical order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			return runMigrations(ctx, poolExecer{db}, dir, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "Directory holding *.sql files.")
	return cmd
}

func newImportCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the records of a storage directory's metadata file into Postgres.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load("geophotos-migrate")
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if dir == "" {
				dir = cfg.Storage.Dir
			}

			storage, err := filestore.NewOSDirectory(dir)
			if err != nil {
				return err
			}
			meta, err := filestore.NewMetadataStore(storage, cfg.Storage.MetadataFile)
			if err != nil {
				return err
			}

			db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer db.Close()

			n, err := runImport(ctx, meta, postgres.NewPhotoRepo(db))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", n, meta.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Storage directory (default: storage.dir from config).")
	return cmd
}

func connect(ctx context.Context) (*postgres.DB, error) {
	cfg, err := config.Load("geophotos-migrate")
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return db, nil
}

type poolExecer struct {
	db *postgres.DB
}

func (p poolExecer) Exec(ctx context.Context, sql string) error {
	_, err := p.db.Pool.Exec(ctx, sql)
	return err
}

// migrationFiles lists dir/*.sql sorted by name.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func runMigrations(ctx context.Context, db execer, dir string, out io.Writer) error {
	files, err := migrationFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if err := db.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		_, _ = fmt.Fprintf(out, "OK  %s\n", f)
	}

	_, _ = fmt.Fprintln(out, "all migrations applied")
	return nil
}

// runImport copies every record from src to dst in stored order.
func runImport(ctx context.Context, src *filestore.MetadataStore, dst batchAppender) (int, error) {
	photos, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", src.Path(), err)
	}
	if len(photos) == 0 {
		return 0, nil
	}
	if err := dst.AppendBatch(ctx, photos); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return len(photos), nil
}
