package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

// Database is the minimal SQL surface the repositories need.
type Database interface {
	// Init opens the connection and creates tables
	Init() error
	// Close closes the connection
	Close() error
	// Exec runs a statement
	Exec(query string, args ...interface{}) (sql.Result, error)
	// Query runs a multi-row query
	Query(query string, args ...interface{}) (*sql.Rows, error)
	// QueryRow runs a single-row query
	QueryRow(query string, args ...interface{}) *sql.Row
}

// SQLiteDatabase implements Database over a SQLite file.
type SQLiteDatabase struct {
	db         *sql.DB
	dbFilePath string
}

// NewSQLiteDatabase creates a new SQLite database instance.
func NewSQLiteDatabase(dbFilePath string) Database {
	return &SQLiteDatabase{
		dbFilePath: dbFilePath,
	}
}

// Init opens the SQLite database, creating it and its tables if needed.
func (s *SQLiteDatabase) Init() error {
	logger.Info("initializing sqlite database", "db_path", s.dbFilePath)

	dbDir := filepath.Dir(s.dbFilePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbFilePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.db = db

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := s.createTables(); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	logger.Info("sqlite database ready")
	return nil
}

// createTables creates the seen-article ledger. The table is append-only:
// rows are inserted once per processed article and never updated.
func (s *SQLiteDatabase) createTables() error {
	articleTableSQL := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		outlet TEXT NOT NULL,
		url TEXT NOT NULL,
		posted BOOLEAN NOT NULL DEFAULT 0,
		recorded_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_outlet_id ON articles(outlet, id);
	`

	_, err := s.db.Exec(articleTableSQL)
	if err != nil {
		return fmt.Errorf("create articles table: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		logger.Info("closing database connection")
		return s.db.Close()
	}
	return nil
}

// Exec runs a statement.
func (s *SQLiteDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.db.Exec(query, args...)
}

// Query runs a multi-row query.
func (s *SQLiteDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

// QueryRow runs a single-row query.
func (s *SQLiteDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return s.db.QueryRow(query, args...)
}
