package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
)

const batchSize = 500

// Writer abstracts catalog persistence so the ingest pipeline does not
// depend on a specific database.
type Writer interface {
	WriteRecord(ctx context.Context, r Record) error
	Close() error
}

// SQLiteWriter appends records to a fresh catalog database. Position is
// assigned in call order.
type SQLiteWriter struct {
	mu         sync.Mutex
	db         *sql.DB
	insertStmt *sql.Stmt
	tx         *sql.Tx
	txStmt     *sql.Stmt
	count      int
	position   int
}

func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO icons (name, position, outline, solid) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &SQLiteWriter{
		db:         db,
		insertStmt: stmt,
	}, nil
}

func (s *SQLiteWriter) WriteRecord(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		s.tx = tx
		s.txStmt = tx.Stmt(s.insertStmt)
	}

	_, err := s.txStmt.ExecContext(ctx, r.Name, s.position, string(r.Outline), string(r.Solid))
	if err != nil {
		return fmt.Errorf("write icon %s: %w", r.Name, err)
	}
	s.position++

	s.count++
	if s.count >= batchSize {
		if err := s.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteWriter) flush() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	s.txStmt = nil
	s.count = 0
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *SQLiteWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(); err != nil {
		return err
	}
	_ = s.insertStmt.Close()
	return s.db.Close()
}

// WriteAll persists every record of c in catalog order and closes w.
func WriteAll(ctx context.Context, w Writer, c *Catalog) error {
	for _, r := range c.Records() {
		if err := w.WriteRecord(ctx, r); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}

// ReadSQLite loads a catalog database written by SQLiteWriter.
func ReadSQLite(ctx context.Context, path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `SELECT name, outline, solid FROM icons ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query icons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var outline, solid string
		if err := rows.Scan(&r.Name, &outline, &solid); err != nil {
			return nil, fmt.Errorf("scan icon: %w", err)
		}
		r.Outline = Glyph(outline)
		r.Solid = Glyph(solid)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate icons: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("catalog db contains no icons")
	}
	return New(records)
}
