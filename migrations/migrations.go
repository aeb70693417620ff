// Package migrations хранит SQL-миграции в формате goose.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var FS embed.FS

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// Up возвращает секции Up всех миграций в порядке версий.
func Up() ([]string, error) {
	return sections(upMarker, false)
}

// Down возвращает секции Down всех миграций в обратном порядке.
func Down() ([]string, error) {
	return sections(downMarker, true)
}

// Execer — соединение или пул, способный выполнить SQL без параметров.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Apply выполняет секции Up всех миграций. Миграции идемпотентны.
func Apply(ctx context.Context, db Execer) error {
	up, err := Up()
	if err != nil {
		return err
	}
	return exec(ctx, db, up)
}

// Reset удаляет схему и создаёт её заново.
func Reset(ctx context.Context, db Execer) error {
	down, err := Down()
	if err != nil {
		return err
	}
	if err := exec(ctx, db, down); err != nil {
		return err
	}
	return Apply(ctx, db)
}

func exec(ctx context.Context, db Execer, stmts []string) error {
	for i, stmt := range stmts {
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrations: statement %d: %w", i, err)
		}
	}
	return nil
}

func sections(marker string, reverse bool) ([]string, error) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	sort.Strings(names)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		data, err := FS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", name, err)
		}
		out = append(out, extract(string(data), marker))
	}
	return out, nil
}

// extract вырезает секцию после marker до следующего маркера goose Up/Down.
func extract(src, marker string) string {
	start := strings.Index(src, marker)
	if start < 0 {
		return ""
	}
	body := src[start+len(marker):]
	for _, m := range []string{upMarker, downMarker} {
		if i := strings.Index(body, m); i >= 0 {
			body = body[:i]
		}
	}

	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "-- +goose") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
