package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// ListContentItems retrieves the question bank in insertion order
func (d *DB) ListContentItems(ctx context.Context) ([]model.ContentItem, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, category, subcategory, bucket, tier, difficulty, weight
		FROM content_item
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query content items: %w", err)
	}
	defer rows.Close()

	var items []model.ContentItem
	for rows.Next() {
		var item model.ContentItem
		var tier string
		if err := rows.Scan(&item.ID, &item.Category, &item.Subcategory, &item.Bucket, &tier, &item.Difficulty, &item.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		parsed, ok := model.ParseTier(tier)
		if !ok {
			return nil, fmt.Errorf("content item %s has invalid tier %q", item.ID, tier)
		}
		item.Tier = parsed
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content items: %w", err)
	}

	return items, nil
}

// ListCategoryWeights retrieves the weightage table in insertion order
func (d *DB) ListCategoryWeights(ctx context.Context) ([]model.CategoryWeight, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT category, percent
		FROM category_weight
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category weights: %w", err)
	}
	defer rows.Close()

	var weights []model.CategoryWeight
	for rows.Next() {
		var w model.CategoryWeight
		if err := rows.Scan(&w.Category, &w.Percent); err != nil {
			return nil, fmt.Errorf("failed to scan category weight: %w", err)
		}
		weights = append(weights, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category weights: %w", err)
	}

	return weights, nil
}

// ImportContent replaces the question bank and weightage table in one transaction
func (d *DB) ImportContent(ctx context.Context, items []model.ContentItem, weights []model.CategoryWeight) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM content_item`); err != nil {
		return fmt.Errorf("failed to clear content items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM category_weight`); err != nil {
		return fmt.Errorf("failed to clear category weights: %w", err)
	}

	for _, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO content_item (id, category, subcategory, bucket, tier, difficulty, weight)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.Category, item.Subcategory, item.Bucket, string(item.Tier), item.Difficulty, item.Weight)
		if err != nil {
			return fmt.Errorf("failed to insert content item %s: %w", item.ID, err)
		}
	}

	for _, w := range weights {
		_, err := tx.Exec(ctx, `
			INSERT INTO category_weight (category, percent)
			VALUES ($1, $2)
		`, w.Category, w.Percent)
		if err != nil {
			return fmt.Errorf("failed to insert category weight %s: %w", w.Category, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
