// Command purge removes a tenant's messaging data from Postgres. Dev tool:
// point DATABASE_URL at the environment to reset between test runs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go <tenant_id>")
		fmt.Println("Example: go run main.go e2e-tenant")
		os.Exit(1)
	}

	tenantID := os.Args[1]

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("Error: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Printf("Error connecting to Postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Printf("Purging data for tenant %s...\n", tenantID)

	// Children before parents; activities also cascade from leads.
	tables := []string{
		"notifications",
		"whatsapp_message_index",
		"activities",
		"message_templates",
		"leads",
	}
	for _, table := range tables {
		tag, err := pool.Exec(ctx, "DELETE FROM "+table+" WHERE tenant_id = $1", tenantID)
		if err != nil {
			fmt.Printf("Error purging %s: %v\n", table, err)
			os.Exit(1)
		}
		fmt.Printf("%s: deleted %d rows\n", table, tag.RowsAffected())
	}

	fmt.Println("Purge complete. processed_events is provider-scoped and left alone.")
}
