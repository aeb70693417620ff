package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"room_finder/internal/config"
	"room_finder/internal/importer"
	"room_finder/internal/lib/logger"
	"room_finder/internal/lib/logger/sl"
	"room_finder/internal/lib/metrics"
)

func main() {
	cfg := config.MustLoadImporter()

	neighborhoods := flag.String("neighborhoods", cfg.NeighborhoodsCSV, "path to neighbourhood CSV")
	listings := flag.String("listings", cfg.ListingsCSV, "path to listings CSV")
	flag.Parse()

	log := logger.Setup(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := importer.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", sl.Err(err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	imp := importer.New(log, importer.NewWriter(db, log), metrics.New(log))

	report, err := imp.Run(ctx, *neighborhoods, *listings)
	if err != nil {
		log.Error("import failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("import finished",
		slog.Group("neighborhoods",
			slog.Int("processed", report.Neighborhoods.Processed),
			slog.Int("added", report.Neighborhoods.Added),
			slog.Int("skipped", report.Neighborhoods.Skipped),
		),
		slog.Group("listings",
			slog.Int("processed", report.Listings.Processed),
			slog.Int("added", report.Listings.Added),
			slog.Int("skipped", report.Listings.Skipped),
			slog.Int("rooms_added", report.Listings.RoomsAdded),
		),
	)
}
