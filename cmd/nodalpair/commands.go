package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodalpair/nodalpair/internal/application/dto"
	"github.com/nodalpair/nodalpair/internal/application/usecase"
	"github.com/nodalpair/nodalpair/internal/infrastructure/config"
	"github.com/nodalpair/nodalpair/internal/infrastructure/postgres"
	"github.com/nodalpair/nodalpair/internal/infrastructure/tabular"
)

const shutdownTimeout = 15 * time.Second

// newRootCommand builds the command tree. The returned cleanup releases the
// adapters opened by whichever command ran, including after a failure.
func newRootCommand() (*cobra.Command, func()) {
	var a *app

	root := &cobra.Command{
		Use:          "nodalpair",
		Short:        "Pair SLNB patient records with comparable ELND records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = newApp(cmd.Context(), config.Load())
			return err
		},
	}

	cleanup := func() {
		if a == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.close(ctx)
	}

	appFn := func() *app { return a }
	root.AddCommand(
		newGenerateCommand(appFn),
		newImportCommand(appFn),
		newMatchCommand(appFn),
		newExportCommand(appFn),
		newRunCommand(appFn),
		newMigrateCommand(appFn),
	)
	return root, cleanup
}

func newGenerateCommand(a func() *app) *cobra.Command {
	var (
		req  dto.GenerateDatasetRequest
		path string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := generate(cmd.Context(), a(), path, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().IntVar(&req.Rows, "rows", 0, "number of rows (default: random between 100 and 200)")
	cmd.Flags().Uint64Var(&req.Seed, "seed", 0, "random seed (default: random)")
	cmd.Flags().StringVar(&path, "out", "", "dataset path, .csv or .xlsx (default: DATA_DIR/input/dataset.csv)")
	return cmd
}

func generate(ctx context.Context, a *app, path string, req dto.GenerateDatasetRequest) (dto.GenerateDatasetResponse, error) {
	if path == "" {
		path = a.paths("").Dataset
	}
	sink, err := tabular.NewSink(path, tabular.SinkOptions{Sheet: "Dataset"})
	if err != nil {
		return dto.GenerateDatasetResponse{}, err
	}
	uc := usecase.NewGenerateDataset(sink, a.study.Schema, a.study.Layout, a.logger)
	return uc.Execute(ctx, req)
}

func newImportCommand(a func() *app) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Read the dataset and store both cohorts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := importRecords(cmd.Context(), a(), path)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&path, "in", "", "dataset path, .csv or .xlsx (default: DATA_DIR/input/dataset.csv)")
	return cmd
}

func importRecords(ctx context.Context, a *app, path string) (dto.ImportSummary, error) {
	if path == "" {
		path = a.paths("").Dataset
	}
	source, err := tabular.NewSource(path)
	if err != nil {
		return dto.ImportSummary{}, err
	}
	uc := usecase.NewImportRecords(source, a.recordStore(), a.study.Schema, a.study.Layout, a.threshold(), a.logger)
	return uc.Execute(ctx)
}

func newMatchCommand(a func() *app) *cobra.Command {
	var req dto.MatchRequest
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Pair the stored cohorts and record the run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := match(cmd.Context(), a(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().BoolVar(&req.AcceptUnconverged, "accept-unconverged", false,
		"keep the last attempted assignment when the repair pass limit is hit")
	return cmd
}

func match(ctx context.Context, a *app, req dto.MatchRequest) (dto.PairingRunDTO, error) {
	pipeline, err := a.pipeline()
	if err != nil {
		return dto.PairingRunDTO{}, err
	}
	runs, err := a.pairingRepositories(ctx)
	if err != nil {
		return dto.PairingRunDTO{}, err
	}
	publisher, err := a.publisher()
	if err != nil {
		return dto.PairingRunDTO{}, err
	}
	uc := usecase.NewMatchRecords(a.recordStore(), runs, publisher, a.recorder, pipeline, a.cfg.MaxRepairPasses, a.logger)
	return uc.Execute(ctx, req)
}

type exportOptions struct {
	format    string
	overwrite bool
}

func newExportCommand(a func() *app) *cobra.Command {
	opts := exportOptions{format: "csv"}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the pairing report of the latest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := export(cmd.Context(), a(), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", opts.format, "report format: csv or xlsx")
	cmd.Flags().BoolVar(&opts.overwrite, "force", false, "replace an existing report")
	return cmd
}

func export(ctx context.Context, a *app, opts exportOptions) (dto.ExportSummary, error) {
	if opts.format != string(tabular.FormatCSV) && opts.format != string(tabular.FormatXLSX) {
		return dto.ExportSummary{}, fmt.Errorf("unsupported report format %q", opts.format)
	}
	pipeline, err := a.pipeline()
	if err != nil {
		return dto.ExportSummary{}, err
	}
	runs, err := a.pairingRepositories(ctx)
	if err != nil {
		return dto.ExportSummary{}, err
	}
	sink, err := tabular.NewSink(a.paths(opts.format).Report, tabular.SinkOptions{
		Sheet:     tabular.DefaultSheet,
		Overwrite: opts.overwrite,
	})
	if err != nil {
		return dto.ExportSummary{}, err
	}
	uc := usecase.NewExportPairings(a.recordStore(), runs[0], sink, pipeline.Scorer(), a.study.Layout, a.logger)
	return uc.Execute(ctx)
}

func newRunCommand(a func() *app) *cobra.Command {
	var (
		withGenerate bool
		genReq       dto.GenerateDatasetRequest
		matchReq     dto.MatchRequest
		exportOpts   = exportOptions{format: "csv", overwrite: true}
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import, match and export in one go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cur := cmd.Context(), a()
			result := struct {
				Generated *dto.GenerateDatasetResponse `json:"generated,omitempty"`
				Imported  dto.ImportSummary            `json:"imported"`
				Run       dto.PairingRunDTO            `json:"run"`
				Exported  dto.ExportSummary            `json:"exported"`
			}{}

			if withGenerate {
				resp, err := generate(ctx, cur, "", genReq)
				if err != nil {
					return err
				}
				result.Generated = &resp
			}

			var err error
			if result.Imported, err = importRecords(ctx, cur, ""); err != nil {
				return err
			}
			if result.Run, err = match(ctx, cur, matchReq); err != nil {
				return err
			}
			if result.Exported, err = export(ctx, cur, exportOpts); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().BoolVar(&withGenerate, "generate", false, "generate a synthetic dataset first")
	cmd.Flags().Uint64Var(&genReq.Seed, "seed", 0, "random seed for --generate")
	cmd.Flags().BoolVar(&matchReq.AcceptUnconverged, "accept-unconverged", false,
		"keep the last attempted assignment when the repair pass limit is hit")
	cmd.Flags().StringVar(&exportOpts.format, "format", exportOpts.format, "report format: csv or xlsx")
	return cmd
}

func newMigrateCommand(a func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the pairing run database schema",
	}

	dsn := func() (string, error) {
		if a().cfg.DatabaseURL == "" {
			return "", errors.New("DATABASE_URL is not set")
		}
		return a().cfg.DatabaseURL, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				url, err := dsn()
				if err != nil {
					return err
				}
				return postgres.Migrate(url)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				url, err := dsn()
				if err != nil {
					return err
				}
				return postgres.MigrateDown(url)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := dsn()
				if err != nil {
					return err
				}
				version, dirty, ok, err := postgres.SchemaVersion(url)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"version": version, "dirty": dirty, "applied": ok,
				})
			},
		},
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
