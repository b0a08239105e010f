package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrPlanNotFound is returned when a plan doesn't exist
var ErrPlanNotFound = errors.New("plan not found")

// ErrAssessmentNotFound is returned when no fatigue assessment is stored for a day
var ErrAssessmentNotFound = errors.New("fatigue assessment not found")

// ErrConcurrentModification is returned when a plan was changed by someone else
// between read and write. Callers should reload the plan and retry.
var ErrConcurrentModification = errors.New("concurrent modification")

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the persistence layer for snapshots, logs, assessments and plans.
type Store struct {
	db     *sql.DB
	driver string
}

// Open opens the database for driver, creating the schema if necessary.
// An empty sqlite DSN means ~/.periodizer/data.db.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "", DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

func openSQLite(dsn string) (*Store, error) {
	if dsn == "" {
		dbPath, err := getDBPath()
		if err != nil {
			return nil, fmt.Errorf("getting db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = dbPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := newStore(db, DriverSQLite)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func openPostgres(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres driver requires a dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := newStore(db, DriverPostgres)
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func newStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// getDBPath returns the path to the SQLite database file
func getDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".periodizer", "data.db"), nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Timestamps are stored as RFC 3339 text in UTC so optimistic checks compare exactly.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
