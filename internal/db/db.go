package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/chris/bloom/internal/profile"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// DB is a SQLite-backed profile medium.
type DB struct {
	conn *sql.DB
}

// Open opens the database at path, creating it if needed. A file that SQLite
// reports as corrupt or not a database is renamed to path+".corrupt" and a
// fresh, empty database takes its place.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}
	d, err := open(path)
	if err == nil || path == ":memory:" || !errors.Is(err, profile.ErrCorrupt) {
		return d, err
	}

	aside := path + ".corrupt"
	log.Printf("db: %v; moving %s to %s and starting empty", err, path, aside)
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, fmt.Errorf("%w (moving aside failed: %v)", err, rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	return open(path)
}

func open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps :memory: databases coherent and matches the
	// whole-document write model.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", markCorrupt(err))
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", markCorrupt(err))
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// markCorrupt tags SQLite corruption errors with profile.ErrCorrupt so the
// store can recover from them like a damaged JSON file.
func markCorrupt(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && isCorruptCode(se.Code()) {
		return fmt.Errorf("%w: %v", profile.ErrCorrupt, err)
	}
	return err
}

func isCorruptCode(code int) bool {
	switch code & 0xff { // strip extended result bits
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return true
	}
	return false
}
