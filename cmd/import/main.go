package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oskarh/feedgate/internal/catalog"
	"github.com/oskarh/feedgate/internal/config"
	"github.com/oskarh/feedgate/internal/feed"
	"github.com/oskarh/feedgate/internal/logger"
	"github.com/oskarh/feedgate/internal/mapping"
	"github.com/oskarh/feedgate/internal/repository"
	"github.com/oskarh/feedgate/internal/service"
	"github.com/oskarh/feedgate/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "feedgate-import",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	source := flag.String("source", "", "Feed source: file path, http(s) URL or s3:// key")
	tenantID := flag.String("tenant", "default", "Tenant to import into")
	columnMap := flag.String("map", "", "Manual column mapping as col=field pairs, comma separated")
	batchSize := flag.Int("batch-size", 0, "Rows per ingestion chunk (0 uses config)")
	skipDuplicates := flag.Bool("skip-duplicates", false, "Skip rows matching existing products")
	updateExisting := flag.Bool("update-existing", false, "Update existing products matched by SKU")
	defaultStatus := flag.String("default-status", "", "Status for imported products (draft, active)")
	dryRun := flag.Bool("dry-run", false, "Map and validate only, write nothing")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: import -source <path|url|s3://key> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	manual, err := parseColumnMap(*columnMap)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid -map value")
	}

	appLogger.WithFields(logger.Fields{
		"source":  *source,
		"tenant":  *tenantID,
		"dry_run": *dryRun,
	}).Info("Starting import")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the run on interrupt; ingestion stops between chunks
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		appLogger.Warn("Interrupt received, cancelling import")
		cancel()
	}()

	// Initialize object storage for s3:// sources (optional)
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		objectStorage = s3Storage
	}

	fetcher := feed.NewFetcher(&feed.FetcherConfig{
		Timeout:    cfg.Feed.FetchTimeout,
		RetryCount: cfg.Feed.FetchRetryCount,
	}, objectStorage)

	rawText, err := fetcher.Fetch(ctx, *source)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to fetch feed")
	}

	fieldCatalog := catalog.Default()
	mapper := mapping.NewMapper(fieldCatalog, mapping.NewStaticPresets(cfg.Import.MappingPresets))

	if *dryRun {
		if err := dryRunReport(rawText, manual, fieldCatalog, mapper); err != nil {
			appLogger.WithError(err).Fatal("Dry run failed")
		}
		return
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	importService := service.NewImportService(
		repository.NewProductRepository(db),
		repository.NewImportJobRepository(db),
		fieldCatalog,
		mapper,
		appLogger,
		&service.ImportConfig{
			BatchSize:         cfg.Import.BatchSize,
			MaxKeyLookup:      cfg.Import.MaxKeyLookup,
			MaxNameLookup:     cfg.Import.MaxNameLookup,
			MaxReportedErrors: cfg.Import.MaxReportedErrors,
		},
	)

	result, err := importService.Run(ctx, *tenantID, &service.ImportRequest{
		RawText:       rawText,
		ColumnMapping: manual,
		Options: service.ImportOptions{
			BatchSize:      *batchSize,
			SkipDuplicates: *skipDuplicates,
			UpdateExisting: *updateExisting,
			DefaultStatus:  *defaultStatus,
		},
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Import failed")
	}

	fmt.Printf("Job %s finished in %dms\n", result.JobID, result.DurationMs)
	fmt.Printf("  rows:      %d\n", result.TotalRows)
	fmt.Printf("  imported:  %d\n", result.SuccessCount)
	fmt.Printf("  errors:    %d\n", result.ErrorCount)
	fmt.Printf("  skipped:   %d\n", result.SkippedCount)
	for _, e := range result.Errors {
		fmt.Printf("  row %d: %s\n", e.Row, e.Message)
	}
	if !result.Success {
		os.Exit(1)
	}
}

// dryRunReport maps and validates the feed without touching storage.
func dryRunReport(rawText string, manual map[string]string, cat *catalog.Catalog, mapper *mapping.Mapper) error {
	headers, rows, err := feed.Decode(rawText, feed.DetectDelimiter(rawText))
	if err != nil {
		return err
	}

	res := mapper.Map(headers, manual)
	fmt.Printf("Columns (%d headers):\n", len(headers))
	for _, m := range res.Mappings {
		fmt.Printf("  %-24s -> %-16s %3d%% (%s)\n", m.SourceColumn, m.CanonicalField, m.Confidence, m.MatchedRule)
	}
	for _, u := range res.Unmatched {
		fmt.Printf("  %-24s -> (unmatched)\n", u)
	}
	if missing := mapping.MissingRequired(res, cat); len(missing) > 0 {
		return fmt.Errorf("required fields not mapped: %s", strings.Join(missing, ", "))
	}

	validator := service.NewValidator(cat)
	valid, blocked, warned := 0, 0, 0
	for i, row := range rows {
		candidate, findings := validator.ValidateRow(i+1, row, res.Mappings)
		if candidate == nil {
			blocked++
		} else {
			valid++
		}
		for _, f := range findings {
			if f.Severity == service.SeverityWarning {
				warned++
			}
			fmt.Printf("  row %d [%s] %s: %s\n", f.RowNumber, f.Severity, f.Field, f.Message)
		}
	}
	fmt.Printf("Rows: %d total, %d valid, %d blocked, %d warnings\n", len(rows), valid, blocked, warned)
	return nil
}

func parseColumnMap(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		col, field, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(col) == "" || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("malformed pair %q, want col=field", pair)
		}
		out[strings.TrimSpace(col)] = strings.TrimSpace(field)
	}
	return out, nil
}
