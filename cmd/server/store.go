package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/Solace/internal/api"
	dbstore "github.com/soaringjerry/Solace/internal/db"
)

// openStore returns the sqlite store at sqlitePath, or an in-memory store
// when the path is empty. The returned close func is never nil.
func openStore(sqlitePath, migrationsDir string) (api.Store, func() error, error) {
	if sqlitePath == "" {
		log.Printf("SOLACE_DB_PATH empty; using in-memory store, data is lost on restart")
		return api.NewMemoryStore(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(sqlitePath))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	closeDB := func() error { return sqliteDB.Close() }

	st, err := dbstore.NewStore(sqliteDB)
	if err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("init sqlite store: %w", err)
	}
	if err := dbstore.RunMigrations(sqliteDB, migrationsDir); err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Printf("sqlite store ready at %s", sqlitePath)
	return st, closeDB, nil
}
