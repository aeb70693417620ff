package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"room_finder/internal/domain"
	"room_finder/internal/lib/logger/handlers/slogdiscard"
	"room_finder/internal/lib/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockCatalogWriter struct {
	WriteNeighborhoodsFunc func(ctx context.Context, rows []domain.Neighborhood) (WriteResult, error)
	WriteListingsFunc      func(ctx context.Context, rows []ListingRow) (WriteResult, error)
}

func (m *MockCatalogWriter) WriteNeighborhoods(ctx context.Context, rows []domain.Neighborhood) (WriteResult, error) {
	if m.WriteNeighborhoodsFunc != nil {
		return m.WriteNeighborhoodsFunc(ctx, rows)
	}
	return WriteResult{Added: len(rows)}, nil
}

func (m *MockCatalogWriter) WriteListings(ctx context.Context, rows []ListingRow) (WriteResult, error) {
	if m.WriteListingsFunc != nil {
		return m.WriteListingsFunc(ctx, rows)
	}
	return WriteResult{Added: len(rows), RoomsAdded: len(rows)}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImporter_Run(t *testing.T) {
	dir := t.TempDir()
	neighborhoods := writeFile(t, dir, "neighbourhood.csv",
		"neigh_num,neighbourhood,rank\n1,Williamsburg,1\n2,Harlem,2\nbad,Row,3\n")
	listings := writeFile(t, dir, "finallisting.csv",
		"listing_id,name,price,host_id,neighbourhood,room_type\n10,Loft,149,100,1,Private room\n")

	var order []string
	writer := &MockCatalogWriter{
		WriteNeighborhoodsFunc: func(ctx context.Context, rows []domain.Neighborhood) (WriteResult, error) {
			order = append(order, "neighborhoods")
			assert.Len(t, rows, 2)
			return WriteResult{Added: 1, Skipped: 1}, nil
		},
		WriteListingsFunc: func(ctx context.Context, rows []ListingRow) (WriteResult, error) {
			order = append(order, "listings")
			return WriteResult{Added: 1, RoomsAdded: 1}, nil
		},
	}

	log := slogdiscard.NewDiscardLogger()
	m := metrics.New(log)
	imp := New(log, writer, m)

	report, err := imp.Run(context.Background(), neighborhoods, listings)
	require.NoError(t, err)

	assert.Equal(t, []string{"neighborhoods", "listings"}, order)
	assert.Equal(t, FileReport{Processed: 3, Added: 1, Skipped: 2}, report.Neighborhoods)
	assert.Equal(t, FileReport{Processed: 1, Added: 1, RoomsAdded: 1}, report.Listings)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.Import.CallsTotal)
	assert.Equal(t, int64(2), stats.Import.ItemsTotal)
}

func TestImporter_Run_MissingFile(t *testing.T) {
	imp := New(slogdiscard.NewDiscardLogger(), &MockCatalogWriter{}, nil)

	_, err := imp.Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "also-missing.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImporter_ImportListings_WriterError(t *testing.T) {
	errDB := errors.New("connection reset")
	imp := New(slogdiscard.NewDiscardLogger(), &MockCatalogWriter{
		WriteListingsFunc: func(ctx context.Context, rows []ListingRow) (WriteResult, error) {
			return WriteResult{}, errDB
		},
	}, nil)

	_, err := imp.ImportListings(context.Background(), strings.NewReader(
		"listing_id,name,price,host_id,neighbourhood,room_type\n1,A,1,1,1,Private room\n"))
	assert.ErrorIs(t, err, errDB)
}
