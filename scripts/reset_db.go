//go:build ignore

// Сброс схемы каталога: удаляет таблицы и применяет миграции заново.
// Запуск: DATABASE_URL=postgres://... go run scripts/reset_db.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"room_finder/migrations"

	"github.com/jackc/pgx/v5"
)

func main() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	fmt.Println("Connecting to database...")
	fmt.Printf("Host: %s\n", extractHost(connStr))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	fmt.Println("Connected successfully!")

	if err := migrations.Reset(ctx, conn); err != nil {
		log.Fatalf("Failed to reset schema: %v", err)
	}

	var tables int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN ('neighborhood', 'listings', 'room')
	`).Scan(&tables)
	if err != nil {
		log.Fatalf("Failed to verify schema: %v", err)
	}

	fmt.Printf("Schema reset complete, %d catalog tables present\n", tables)
}

// extractHost возвращает хост из строки подключения без учётных данных.
func extractHost(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "unknown"
	}
	return u.Host
}
