// Seeds the user directory with test accounts, so websocket clients
// have valid ids to pair with during local development.
//
// Usage: go run ./cmd/tools -db ./data -count 5
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"pairchat/domain"
	"pairchat/internal"
	"pairchat/repositories"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	dbPath := flag.String("db", "./data", "BadgerDB directory (same as BADGER_FILEPATH)")
	count := flag.Int("count", 5, "number of users to create")
	flag.Parse()

	log := internal.GetLoggerFromLevel(slog.LevelInfo)

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	users, err := repositories.NewUserRepository(db, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "user repository: %v\n", err)
		os.Exit(1)
	}
	defer users.Release()

	for i := 1; i <= *count; i++ {
		id, err := users.Create(domain.User{
			Fullname: fmt.Sprintf("Test User %d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created user %d\n", id)
	}
}
