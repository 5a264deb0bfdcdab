// Command ingest_resumes pushes a directory of resume PDFs through the same
// ingestion pipeline the API uses, and lists what the bucket holds.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-ingestor/internal/bootstrap"
	"alfredoptarigan/resume-ingestor/internal/config"
	"alfredoptarigan/resume-ingestor/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "ingest_resumes",
	Short: "Bulk resume ingestion tool",
}

var (
	ingestConcurrency int
	ingestDryRun      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Ingest every PDF under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored candidates",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	ingestCmd.Flags().IntVarP(&ingestConcurrency, "concurrency", "c", 2, "Documents processed in parallel")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Only list the PDFs that would be ingested")

	rootCmd.AddCommand(ingestCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*bootstrap.Services, arbor.ILogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := config.NewLogger(cfg)

	svc, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return svc, logger, nil
}

// findPDFs returns the .pdf files under dir in lexical order.
func findPDFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	paths, err := findPDFs(args[0])
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", args[0], err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found under %s", args[0])
	}

	if ingestDryRun {
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	}

	ctx := cmd.Context()
	svc, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if svc.Worker != nil {
		svc.Worker.Start(ctx)
		defer svc.Worker.Stop()
	}

	var stored, existing, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(ingestConcurrency, 1))

	for _, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Error().Str("path", path).Err(err).Msg("Failed to read file")
				failed.Add(1)
				return nil
			}

			result, err := svc.Pipeline.Submit(gctx, services.Document{
				Bytes:     data,
				MediaType: "application/pdf",
				Filename:  filepath.Base(path),
			})
			if err != nil {
				var perr *services.PipelineError
				if errors.As(err, &perr) {
					logger.Error().Str("path", path).Str("stage", string(perr.Stage)).Err(perr.Err).Msg("Ingestion failed")
				} else {
					logger.Error().Str("path", path).Err(err).Msg("Ingestion failed")
				}
				failed.Add(1)
				return nil
			}

			if result.Uploaded {
				stored.Add(1)
			} else {
				existing.Add(1)
			}
			logger.Info().
				Str("path", path).
				Str("parsed_key", result.ParsedKey).
				Bool("uploaded", result.Uploaded).
				Msg("Ingested")
			return nil
		})
	}
	_ = g.Wait()

	logger.Info().
		Int("stored", int(stored.Load())).
		Int("existing", int(existing.Load())).
		Int("failed", int(failed.Load())).
		Msg("Ingestion summary")

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest", n, len(paths))
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	svc, _, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	records, err := svc.Catalog.ListAll(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range records {
		if r.Error != "" {
			fmt.Fprintf(out, "%-40s %s (%s)\n", r.Name, r.FileName, r.Error)
			continue
		}
		fmt.Fprintf(out, "%-40s %s\n", r.Name, r.FileName)
	}
	fmt.Fprintf(out, "%d candidates\n", len(records))
	return nil
}
