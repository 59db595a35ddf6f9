package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/exam-allocator/pkg/db"
)

// GetPapers retrieves all paper records, oldest first
func (d *DB) GetPapers(ctx context.Context) ([]db.Paper, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, mode, seed, target_weight, achieved_weight, complete
		FROM paper
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query papers: %w", err)
	}
	defer rows.Close()

	var papers []db.Paper
	for rows.Next() {
		var p db.Paper
		var createdAt time.Time
		if err := rows.Scan(&p.ID, &createdAt, &p.Mode, &p.Seed, &p.TargetWeight, &p.AchievedWeight, &p.Complete); err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		p.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		papers = append(papers, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating papers: %w", err)
	}

	return papers, nil
}

// GetPaperItems retrieves the items of one paper ordered by bucket position
func (d *DB) GetPaperItems(ctx context.Context, paperID string) ([]db.PaperItem, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, paper_id, bucket_id, position, item_id, category, tier, weight
		FROM paper_item
		WHERE paper_id = $1
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
	createdAt, err := parseCreatedAt(paper.CreatedAt)
	if err != nil {
		return err
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO paper (id, created_at, mode, seed, target_weight, achieved_weight, complete)
		VALUES ($1, COALESCE($2, NOW()), $3, $4, $5, $6, $7)
	`, paper.ID, createdAt, paper.Mode, paper.Seed, paper.TargetWeight, paper.AchievedWeight, paper.Complete)
	if err != nil {
		return fmt.Errorf("failed to insert paper: %w", err)
	}

	for _, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO paper_item (id, paper_id, bucket_id, position, item_id, category, tier, weight)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, item.PaperID, item.BucketID, item.Position, item.ItemID, item.Category, item.Tier, item.Weight)
		if err != nil {
			return fmt.Errorf("failed to insert paper item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// parseCreatedAt returns nil for an empty timestamp so the column default applies
func parseCreatedAt(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid paper timestamp %q: %w", raw, err)
	}
	return &t, nil
}
