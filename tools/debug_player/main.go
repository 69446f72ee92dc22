package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <player_id>", os.Args[0])
	}
	playerID := os.Args[1]

	pgURL := os.Getenv("POSTGRES_URL")
	if pgURL == "" {
		pgURL = "postgres://localhost:5432/tennis"
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, pgURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	var snapshot []byte
	err = conn.QueryRow(ctx,
		`SELECT snapshot FROM player_snapshots WHERE player_id = $1`,
		playerID,
	).Scan(&snapshot)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	var pretty map[string]interface{}
	if err := json.Unmarshal(snapshot, &pretty); err != nil {
		log.Fatalf("Bad snapshot JSON: %v", err)
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Printf("%s\n", out)
}
