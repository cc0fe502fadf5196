// Command stock-ingest loads gzipped JSON-lines stock feeds from the
// warehouse export into the product_stock table. Feeds are large (one line
// per SKU, tens of millions of lines), so files are processed concurrently
// and rows are written through batched upserts.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/velmart/checkout-core/internal/storage/postgres"
)

const progressEvery = 1_000_000

type feedRow struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
		workers     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing stock feed *.jsonl.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "number of files processed concurrently")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, workers); err != nil {
		slog.Error("ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("ingest complete")
}

func run(ctx context.Context, dataDir, databaseURL string, workers int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewStockRepository(pool)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, file := range files {
		g.Go(func() error {
			return ingestFile(ctx, repo, file)
		})
	}
	return g.Wait()
}

func ingestFile(ctx context.Context, repo *postgres.StockRepository, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gunzip %s", path)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var count int64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var row feedRow
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			slog.Warn("skipping malformed feed line",
				slog.String("file", filepath.Base(path)), slog.Int64("line", count+1))
			count++
			continue
		}
		if row.ProductID == "" || row.Quantity < 0 {
			count++
			continue
		}

		if err := repo.Upsert(ctx, row.ProductID, row.Quantity); err != nil {
			return errors.Wrapf(err, "upsert %q", row.ProductID)
		}
		count++
		if count%progressEvery == 0 {
			slog.Info("progress", slog.String("file", filepath.Base(path)), slog.Int64("rows", count))
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	slog.Info("file done", slog.String("file", filepath.Base(path)), slog.Int64("rows", count))
	return nil
}
