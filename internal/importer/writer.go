package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"room_finder/internal/domain"

	"github.com/lib/pq"
)

// Код Postgres foreign_key_violation.
const pqForeignKeyViolation = "23503"

var ErrUnknownNeighborhood = errors.New("listing references unknown neighborhood")

// Open открывает пул соединений database/sql через драйвер lib/pq и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return db, nil
}

// WriteResult — итог загрузки одного файла.
type WriteResult struct {
	Added int
	// Skipped — строки с уже существующим ключом или неизвестным районом
	Skipped    int
	RoomsAdded int
}

// Writer пишет каталог в Postgres. Каждый файл загружается одной транзакцией,
// существующие ключи пропускаются (ON CONFLICT DO NOTHING).
type Writer struct {
	db  *sql.DB
	log *slog.Logger
}

func NewWriter(db *sql.DB, log *slog.Logger) *Writer {
	return &Writer{db: db, log: log}
}

// WriteNeighborhoods загружает районы.
func (w *Writer) WriteNeighborhoods(ctx context.Context, rows []domain.Neighborhood) (res WriteResult, err error) {
	const op = "importer.Writer.WriteNeighborhoods"

	if len(rows) == 0 {
		return WriteResult{}, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO neighborhood (neigh_num, neigh_name, rank)
		VALUES ($1, $2, $3)
		ON CONFLICT (neigh_num) DO NOTHING
	`)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for _, n := range rows {
		added, err := execInsert(ctx, stmt, n.ID, n.Name, n.Rank)
		if err != nil {
			return WriteResult{}, fmt.Errorf("%s: neigh_num %d: %w", op, n.ID, err)
		}
		if added {
			res.Added++
		} else {
			res.Skipped++
		}
	}

	if err = tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("%s: commit: %w", op, err)
	}

	w.log.Info("neighborhoods written", slog.Int("added", res.Added), slog.Int("skipped", res.Skipped))
	return res, nil
}

// WriteListings загружает объявления и комнаты к ним.
// Строки с районом, которого нет в базе, пропускаются до записи, чтобы не прерывать транзакцию.
func (w *Writer) WriteListings(ctx context.Context, rows []ListingRow) (res WriteResult, err error) {
	const op = "importer.Writer.WriteListings"

	if len(rows) == 0 {
		return WriteResult{}, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	known, err := knownNeighborhoods(ctx, tx)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: %w", op, err)
	}

	listingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (airbnb_id, airbnb_name, price, host_id, neigh_num)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (airbnb_id) DO NOTHING
	`)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: prepare listings: %w", op, err)
	}
	defer listingStmt.Close()

	roomStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO room (airbnb_id, host_id, room_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (airbnb_id) DO NOTHING
	`)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%s: prepare room: %w", op, err)
	}
	defer roomStmt.Close()

	for _, row := range rows {
		if _, ok := known[row.NeighNum]; !ok {
			w.log.Warn("skipping listing with unknown neighborhood",
				slog.Int64("listing_id", row.ID),
				slog.Int64("neigh_num", row.NeighNum),
			)
			res.Skipped++
			continue
		}

		added, err := execInsert(ctx, listingStmt, row.ID, row.Name, row.Price, row.HostID, row.NeighNum)
		if err != nil {
			return WriteResult{}, fmt.Errorf("%s: listing %d: %w", op, row.ID, err)
		}
		if added {
			res.Added++
		} else {
			res.Skipped++
		}

		roomAdded, err := execInsert(ctx, roomStmt, row.ID, row.HostID, row.RoomType)
		if err != nil {
			return WriteResult{}, fmt.Errorf("%s: room %d: %w", op, row.ID, err)
		}
		if roomAdded {
			res.RoomsAdded++
		}
	}

	if err = tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("%s: commit: %w", op, err)
	}

	w.log.Info("listings written",
		slog.Int("added", res.Added),
		slog.Int("rooms_added", res.RoomsAdded),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

func knownNeighborhoods(ctx context.Context, tx *sql.Tx) (map[int64]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT neigh_num FROM neighborhood`)
	if err != nil {
		return nil, fmt.Errorf("load neighborhoods: %w", err)
	}
	defer rows.Close()

	known := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan neighborhood: %w", err)
		}
		known[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load neighborhoods: %w", err)
	}
	return known, nil
}

// execInsert выполняет INSERT ... ON CONFLICT DO NOTHING и сообщает, была ли вставлена строка.
func execInsert(ctx context.Context, stmt *sql.Stmt, args ...any) (bool, error) {
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
			return false, fmt.Errorf("%w: %s", ErrUnknownNeighborhood, pqErr.Message)
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
