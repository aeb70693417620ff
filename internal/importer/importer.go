// Package importer загружает каталог районов и объявлений из CSV в Postgres.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"room_finder/internal/domain"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/lib/metrics"
)

type CatalogWriter interface {
	WriteNeighborhoods(ctx context.Context, rows []domain.Neighborhood) (WriteResult, error)
	WriteListings(ctx context.Context, rows []ListingRow) (WriteResult, error)
}

// FileReport — итог загрузки одного файла.
type FileReport struct {
	Processed  int
	Added      int
	RoomsAdded int
	// Skipped — неразборчивые строки плюс строки, пропущенные при записи
	Skipped int
}

type Report struct {
	Neighborhoods FileReport
	Listings      FileReport
}

type Importer struct {
	log     *slog.Logger
	writer  CatalogWriter
	metrics *metrics.Metrics
}

func New(log *slog.Logger, writer CatalogWriter, m *metrics.Metrics) *Importer {
	return &Importer{log: log, writer: writer, metrics: m}
}

// Run загружает сначала районы, затем объявления: объявления ссылаются на районы.
func (i *Importer) Run(ctx context.Context, neighborhoodsPath, listingsPath string) (Report, error) {
	const op = "importer.Importer.Run"

	var report Report

	timer := i.metrics.StartTimer(metrics.OperationImport)

	nr, err := i.importFile(ctx, neighborhoodsPath, i.ImportNeighborhoods)
	if err != nil {
		timer.Stop(metrics.OutcomeError)
		return report, fmt.Errorf("%s: %w", op, err)
	}
	report.Neighborhoods = nr

	lr, err := i.importFile(ctx, listingsPath, i.ImportListings)
	if err != nil {
		timer.Stop(metrics.OutcomeError)
		return report, fmt.Errorf("%s: %w", op, err)
	}
	report.Listings = lr

	timer.Stop(metrics.OutcomeSuccess)
	i.metrics.AddImported(nr.Added + lr.Added)

	return report, nil
}

func (i *Importer) importFile(ctx context.Context, path string, fn func(context.Context, io.Reader) (FileReport, error)) (FileReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileReport{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := fn(ctx, f)
	if err != nil {
		return FileReport{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ImportNeighborhoods разбирает и записывает CSV районов.
func (i *Importer) ImportNeighborhoods(ctx context.Context, r io.Reader) (FileReport, error) {
	const op = "importer.Importer.ImportNeighborhoods"
	log := i.log.With(slog.String("op", op))

	rows, parsed, err := ParseNeighborhoods(r)
	if err != nil {
		log.Error("failed to parse neighborhoods", sl.Err(err))
		return FileReport{}, fmt.Errorf("%s: %w", op, err)
	}
	i.logInvalid(log, parsed)

	written, err := i.writer.WriteNeighborhoods(ctx, rows)
	if err != nil {
		log.Error("failed to write neighborhoods", sl.Err(err))
		return FileReport{}, fmt.Errorf("%s: %w", op, err)
	}

	res := FileReport{
		Processed: parsed.Processed,
		Added:     written.Added,
		Skipped:   len(parsed.Invalid) + written.Skipped,
	}
	log.Info("neighborhoods imported",
		slog.Int("processed", res.Processed),
		slog.Int("added", res.Added),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

// ImportListings разбирает и записывает CSV объявлений.
func (i *Importer) ImportListings(ctx context.Context, r io.Reader) (FileReport, error) {
	const op = "importer.Importer.ImportListings"
	log := i.log.With(slog.String("op", op))

	rows, parsed, err := ParseListings(r)
	if err != nil {
		log.Error("failed to parse listings", sl.Err(err))
		return FileReport{}, fmt.Errorf("%s: %w", op, err)
	}
	i.logInvalid(log, parsed)

	written, err := i.writer.WriteListings(ctx, rows)
	if err != nil {
		log.Error("failed to write listings", sl.Err(err))
		return FileReport{}, fmt.Errorf("%s: %w", op, err)
	}

	res := FileReport{
		Processed:  parsed.Processed,
		Added:      written.Added,
		RoomsAdded: written.RoomsAdded,
		Skipped:    len(parsed.Invalid) + written.Skipped,
	}
	log.Info("listings imported",
		slog.Int("processed", res.Processed),
		slog.Int("added", res.Added),
		slog.Int("rooms_added", res.RoomsAdded),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (i *Importer) logInvalid(log *slog.Logger, report ParseReport) {
	for _, e := range report.Invalid {
		log.Warn("skipping row", slog.Int("line", e.Line), sl.Err(e.Err))
	}
}
