package main

import (
	"context"
	"log"
	"os"
	"time"

	"cltlab/adapters/sqlstore"
)

// Creates the game session schema ahead of the first deployment
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <postgres|sqlite> <dsn>")
	}

	kind, dsn := os.Args[1], os.Args[2]
	log.Printf("Migrating %s session store", kind)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Open applies the schema before returning
	store, err := sqlstore.Open(ctx, kind, dsn)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer store.Close()

	log.Println("Session schema is up to date")
}
