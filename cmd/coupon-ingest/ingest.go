package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	bloomFPR      = 0.0001
	progressEvery = 1_000_000
)

// couponCreator is satisfied by *coupon.Service.
type couponCreator interface {
	Create(ctx context.Context, req coupon.Request) (*coupon.Coupon, error)
}

// Stats counts the outcome of an ingest run.
type Stats struct {
	Created    int64
	Duplicates int64
	Existing   int64
	Invalid    int64
}

type ingester struct {
	coupons  couponCreator
	workers  int
	capacity uint
}

// Run ingests files and returns the outcome counters.
func (in *ingester) Run(ctx context.Context, files []string) (Stats, error) {
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))
	filters, suspects, err := in.buildFilters(ctx, files)
	if err != nil {
		return Stats{}, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding cross-file duplicates")
	if err := crossFileSuspects(ctx, files, filters, suspects); err != nil {
		return Stats{}, errors.Wrap(err, "find duplicates")
	}
	slog.Info("suspected duplicates", slog.Int("count", len(suspects)))

	slog.Info("pass 3: creating coupons", slog.Int("workers", in.workers))
	return in.create(ctx, files, suspects)
}

// buildFilters returns one bloom filter per file and the codes seen more
// than once inside a single file.
func (in *ingester) buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, map[string]struct{}, error) {
	filters := make([]*bloom.BloomFilter, len(files))
	perFile := make([]map[string]struct{}, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(in.capacity, bloomFPR)
			repeats := make(map[string]struct{})
			var n int
			err := streamCodes(ctx, path, func(code string) {
				if filter.TestAndAddString(code) {
					repeats[code] = struct{}{}
				}
				if n++; n%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.String("file", path), slog.Int("codes", n))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			filters[i], perFile[i] = filter, repeats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	suspects := make(map[string]struct{})
	for _, m := range perFile {
		for code := range m {
			suspects[code] = struct{}{}
		}
	}
	return filters, suspects, nil
}

// crossFileSuspects adds every code that tests positive in another file's
// filter. False positives only cost an exact check in pass 3.
func crossFileSuspects(ctx context.Context, files []string, filters []*bloom.BloomFilter, suspects map[string]struct{}) error {
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			found := make(map[string]struct{})
			err := streamCodes(ctx, path, func(code string) {
				for j, f := range filters {
					if j != i && f.TestString(code) {
						found[code] = struct{}{}
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			mu.Lock()
			for code := range found {
				suspects[code] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (in *ingester) create(ctx context.Context, files []string, suspects map[string]struct{}) (Stats, error) {
	var (
		stats   Stats
		created atomic.Int64
		mu      sync.Mutex
		claimed = make(map[string]struct{})
	)
	// claim reports whether this occurrence of code is the one to create.
	claim := func(code string) bool {
		if _, ok := suspects[code]; !ok {
			return true
		}
		mu.Lock()
		defer mu.Unlock()
		if _, ok := claimed[code]; ok {
			return false
		}
		claimed[code] = struct{}{}
		return true
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(in.workers, 1))
	for _, path := range files {
		invalid := func(line int, err error) {
			atomic.AddInt64(&stats.Invalid, 1)
			slog.Warn("skipping invalid record", slog.String("file", path), slog.Int("line", line), slog.String("error", err.Error()))
		}
		if err := streamRecords(gCtx, path, func(rec []string, line int) {
			req, err := parseRecord(rec)
			if err == nil {
				err = req.Validate()
			}
			if err != nil {
				invalid(line, err)
				return
			}
			// Only valid rows may claim a code, so an invalid first
			// occurrence cannot shadow a later valid one.
			if !claim(req.Code) {
				atomic.AddInt64(&stats.Duplicates, 1)
				return
			}
			g.Go(func() error {
				_, err := in.coupons.Create(gCtx, req)
				switch {
				case errors.Is(err, coupon.ErrCodeExists):
					atomic.AddInt64(&stats.Existing, 1)
					return nil
				case apperr.KindOf(err) == apperr.KindValidation:
					atomic.AddInt64(&stats.Invalid, 1)
					slog.Warn("skipping invalid coupon", slog.String("code", req.Code), slog.String("error", err.Error()))
					return nil
				case err != nil:
					return errors.Wrapf(err, "create coupon %s", req.Code)
				}
				if n := created.Add(1); n%10_000 == 0 {
					slog.Info("write progress", slog.Int64("created", n))
				}
				return nil
			})
		}, invalid); err != nil {
			// A failed writer cancels gCtx; report its error, not the cancellation.
			if werr := g.Wait(); werr != nil {
				return stats, werr
			}
			return stats, errors.Wrapf(err, "ingest %s", path)
		}
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	stats.Created = created.Load()
	return stats, nil
}

// parseRecord converts "code,discount,start,end" into a coupon request.
func parseRecord(rec []string) (coupon.Request, error) {
	if len(rec) != 4 {
		return coupon.Request{}, errors.Errorf("expected 4 fields, got %d", len(rec))
	}
	code := coupon.NormalizeCode(rec[0])
	if code == "" {
		return coupon.Request{}, errors.New("empty code")
	}
	discount, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
	if err != nil {
		return coupon.Request{}, errors.Wrap(err, "discount")
	}
	start, err := parseDate(rec[2])
	if err != nil {
		return coupon.Request{}, errors.Wrap(err, "start")
	}
	end, err := parseDate(rec[3])
	if err != nil {
		return coupon.Request{}, errors.Wrap(err, "end")
	}
	return coupon.Request{Code: code, DiscountValue: discount, StartDate: start, EndDate: end}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// streamCodes calls fn with the normalized code of every data record.
// Malformed lines are skipped here and reported by the create pass.
func streamCodes(ctx context.Context, path string, fn func(code string)) error {
	return streamRecords(ctx, path, func(rec []string, _ int) {
		if code := coupon.NormalizeCode(rec[0]); code != "" {
			fn(code)
		}
	}, nil)
}

// streamRecords decompresses path and calls fn for every CSV record except a
// leading "code,..." header. Lines the CSV reader rejects go to bad, when
// set, and reading continues with the next line.
func streamRecords(ctx context.Context, path string, fn func(rec []string, line int), bad func(line int, err error)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	for first := true; ; first = false {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if bad != nil {
				bad(perr.StartLine, perr.Err)
			}
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if first && strings.EqualFold(strings.TrimSpace(rec[0]), "code") {
			continue
		}
		line, _ := r.FieldPos(0)
		fn(rec, line)
	}
}
