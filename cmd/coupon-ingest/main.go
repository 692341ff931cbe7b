// Command coupon-ingest bulk-loads coupons from gzip-compressed CSV files.
//
// Each line is "code,discount,start,end" (dates as YYYY-MM-DD or RFC 3339,
// an optional header line is skipped). Codes are normalized the same way the
// API does. A code that occurs more than once across all files is created
// once; codes that already exist in the database are skipped.
//
// Files are read in three streaming passes so memory stays proportional to
// the bloom filters plus the suspected duplicates, not to the input size:
//
//  1. build one bloom filter per file, noting in-file repeats;
//  2. test every code against the other files' filters to find cross-file
//     suspects;
//  3. create coupons, resolving suspects exactly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/repository"
)

func main() {
	var (
		databaseURL string
		workers     int
		capacity    uint
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 8, "concurrent coupon writers")
	flag.UintVar(&capacity, "capacity", 10_000_000, "expected codes per file, sizes the bloom filters")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: coupon-ingest [flags] file.csv.gz...")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, workers, capacity); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, workers int, capacity uint) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	in := &ingester{
		coupons:  coupon.NewService(repository.NewCouponRepository(pool)),
		workers:  workers,
		capacity: capacity,
	}
	stats, err := in.Run(ctx, files)
	if err != nil {
		return err
	}
	slog.Info("ingest summary",
		slog.Int64("created", stats.Created),
		slog.Int64("duplicates", stats.Duplicates),
		slog.Int64("existing", stats.Existing),
		slog.Int64("invalid", stats.Invalid),
	)
	return nil
}
