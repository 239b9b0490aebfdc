package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"ffuniverse/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection used as a local cache: item metadata
// from XIVAPI and a history of dispatched alert notifications.
type DB struct {
	sql *sql.DB
}

func dbPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "ffuniverse.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "ffuniverse.db")
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open() (*DB, error) {
	return OpenAt(dbPath())
}

// OpenAt opens the database at an explicit path. Used by tests.
func OpenAt(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS items (
				item_id     INTEGER PRIMARY KEY,
				name_en     TEXT NOT NULL,
				name_de     TEXT NOT NULL DEFAULT '',
				name_fr     TEXT NOT NULL DEFAULT '',
				name_ja     TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				can_be_hq   INTEGER NOT NULL DEFAULT 0,
				cached_at   TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS alert_history (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				alert_id       TEXT NOT NULL,
				item_name      TEXT NOT NULL,
				price          INTEGER NOT NULL,
				direction      TEXT NOT NULL,
				target_price   INTEGER NOT NULL,
				location       TEXT NOT NULL,
				channels_sent  TEXT NOT NULL DEFAULT '[]',
				channels_failed TEXT,
				sent_at        TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_alert_history_sent_at ON alert_history(sent_at);

			INSERT INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}
	return nil
}
