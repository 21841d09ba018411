package sqlite

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens a SQLite file through the pure-Go modernc driver.
// A single connection is kept so writers never contend for the file lock.
func OpenDatabase(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite %s: %w", path, err)
	}
	log.Printf("[DB] Opened SQLite database: %s", path)
	return db, nil
}
