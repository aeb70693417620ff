package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"room_finder/internal/domain"
)

var ErrMissingColumn = errors.New("missing required column")

// Колонки CSV-файлов каталога.
const (
	colNeighNum      = "neigh_num"
	colNeighbourhood = "neighbourhood"
	colRank          = "rank"

	colListingID = "listing_id"
	colName      = "name"
	colPrice     = "price"
	colHostID    = "host_id"
	colRoomType  = "room_type"
)

// ListingRow — строка CSV объявлений: запись для listings и для room.
type ListingRow struct {
	ID       int64
	Name     string
	Price    int64
	HostID   int64
	NeighNum int64
	RoomType string
}

// RowError — строка, которую не удалось разобрать.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseReport — итог разбора файла.
type ParseReport struct {
	Processed int
	Invalid   []RowError
}

// header сопоставляет имя колонки с её индексом.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	names, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := make(header, len(names))
	for i, name := range names {
		// BOM в начале файла, выгруженного из Excel
		name = strings.TrimPrefix(name, "\ufeff")
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return h, nil
}

func (h header) get(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (h header) int64(record []string, col string) (int64, error) {
	v, err := strconv.ParseInt(h.get(record, col), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return cr
}

// ParseNeighborhoods разбирает CSV районов (neigh_num, neighbourhood, rank).
// Неразборчивые строки пропускаются и попадают в отчёт.
func ParseNeighborhoods(r io.Reader) ([]domain.Neighborhood, ParseReport, error) {
	cr := newReader(r)
	h, err := readHeader(cr, colNeighNum, colNeighbourhood, colRank)
	if err != nil {
		return nil, ParseReport{}, err
	}

	var report ParseReport
	var out []domain.Neighborhood
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		report.Processed++
		if err != nil {
			report.Invalid = append(report.Invalid, RowError{Line: line, Err: err})
			continue
		}

		n, err := parseNeighborhood(h, record)
		if err != nil {
			report.Invalid = append(report.Invalid, RowError{Line: line, Err: err})
			continue
		}
		out = append(out, n)
	}

	return out, report, nil
}

func parseNeighborhood(h header, record []string) (domain.Neighborhood, error) {
	id, err := h.int64(record, colNeighNum)
	if err != nil {
		return domain.Neighborhood{}, err
	}
	rank, err := strconv.ParseInt(h.get(record, colRank), 10, 32)
	if err != nil {
		return domain.Neighborhood{}, fmt.Errorf("column %s: %w", colRank, err)
	}
	name := h.get(record, colNeighbourhood)
	if name == "" {
		return domain.Neighborhood{}, fmt.Errorf("column %s: empty", colNeighbourhood)
	}
	return domain.Neighborhood{ID: id, Name: name, Rank: int32(rank)}, nil
}

// ParseListings разбирает CSV объявлений (listing_id, name, price, host_id, neighbourhood, room_type).
// Колонка neighbourhood содержит номер района.
func ParseListings(r io.Reader) ([]ListingRow, ParseReport, error) {
	cr := newReader(r)
	h, err := readHeader(cr, colListingID, colName, colPrice, colHostID, colNeighbourhood, colRoomType)
	if err != nil {
		return nil, ParseReport{}, err
	}

	var report ParseReport
	var out []ListingRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		report.Processed++
		if err != nil {
			report.Invalid = append(report.Invalid, RowError{Line: line, Err: err})
			continue
		}

		row, err := parseListing(h, record)
		if err != nil {
			report.Invalid = append(report.Invalid, RowError{Line: line, Err: err})
			continue
		}
		out = append(out, row)
	}

	return out, report, nil
}

func parseListing(h header, record []string) (ListingRow, error) {
	var row ListingRow
	var err error

	if row.ID, err = h.int64(record, colListingID); err != nil {
		return ListingRow{}, err
	}
	if row.Price, err = h.int64(record, colPrice); err != nil {
		return ListingRow{}, err
	}
	if row.Price < 0 {
		return ListingRow{}, fmt.Errorf("column %s: negative price %d", colPrice, row.Price)
	}
	if row.HostID, err = h.int64(record, colHostID); err != nil {
		return ListingRow{}, err
	}
	if row.NeighNum, err = h.int64(record, colNeighbourhood); err != nil {
		return ListingRow{}, err
	}
	row.Name = h.get(record, colName)
	row.RoomType = h.get(record, colRoomType)

	return row, nil
}
