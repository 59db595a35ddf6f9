// Package sqlite records generated papers in a local SQLite file, for runs that have
// neither a PostgreSQL database nor a paper spreadsheet.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jakechorley/exam-allocator/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS paper (
	id              TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	mode            TEXT NOT NULL,
	seed            INTEGER NOT NULL DEFAULT 0,
	target_weight   INTEGER NOT NULL,
	achieved_weight INTEGER NOT NULL,
	complete        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS paper_item (
	id        TEXT PRIMARY KEY,
	paper_id  TEXT NOT NULL REFERENCES paper(id) ON DELETE CASCADE,
	bucket_id TEXT NOT NULL,
	position  INTEGER NOT NULL,
	item_id   TEXT NOT NULL,
	category  TEXT NOT NULL,
	tier      TEXT NOT NULL,
	weight    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_paper_item_paper_id ON paper_item(paper_id);
`

// DB stores papers in a SQLite file
type DB struct {
	conn *sql.DB
}

// NewDB opens (creating if needed) the SQLite file at path and initialises the schema
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialise schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// GetPapers retrieves all paper records in insertion order
func (d *DB) GetPapers(ctx context.Context) ([]db.Paper, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, created_at, mode, seed, target_weight, achieved_weight, complete
		FROM paper
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query papers: %w", err)
	}
	defer rows.Close()

	var papers []db.Paper
	for rows.Next() {
		var p db.Paper
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Mode, &p.Seed, &p.TargetWeight, &p.AchievedWeight, &p.Complete); err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating papers: %w", err)
	}

	return papers, nil
}

// GetPaperItems retrieves the items of one paper ordered by position
func (d *DB) GetPaperItems(ctx context.Context, paperID string) ([]db.PaperItem, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, paper_id, bucket_id, position, item_id, category, tier, weight
		FROM paper_item
		WHERE paper_id = ?
		ORDER BY position
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to query paper items: %w", err)
	}
	defer rows.Close()

	var items []db.PaperItem
	for rows.Next() {
		var item db.PaperItem
		if err := rows.Scan(&item.ID, &item.PaperID, &item.BucketID, &item.Position, &item.ItemID, &item.Category, &item.Tier, &item.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan paper item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paper items: %w", err)
	}

	return items, nil
}

// InsertPaper inserts a paper and its items in a single transaction
func (d *DB) InsertPaper(ctx context.Context, paper *db.Paper, items []db.PaperItem) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO paper (id, created_at, mode, seed, target_weight, achieved_weight, complete)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, paper.ID, paper.CreatedAt, paper.Mode, paper.Seed, paper.TargetWeight, paper.AchievedWeight, paper.Complete)
	if err != nil {
		return fmt.Errorf("failed to insert paper: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO paper_item (id, paper_id, bucket_id, position, item_id, category, tier, weight)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, item.PaperID, item.BucketID, item.Position, item.ItemID, item.Category, item.Tier, item.Weight)
		if err != nil {
			return fmt.Errorf("failed to insert paper item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
