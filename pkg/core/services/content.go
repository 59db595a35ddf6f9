package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/content"
	"github.com/jakechorley/exam-allocator/pkg/db"
)

// LoadedContent is a pre-loaded question bank and weightage table
type LoadedContent struct {
	Pool    *content.Repository
	Weights content.WeightTable
}

// LoadContent reads the question bank and weightage table from source
func LoadContent(ctx context.Context, source db.ContentSource, logger *zap.Logger) (*LoadedContent, error) {
	logger.Debug("Fetching content items")
	items, err := source.ListContentItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content items: %w", err)
	}

	pool, err := content.NewRepository(items)
	if err != nil {
		return nil, fmt.Errorf("invalid content pool: %w", err)
	}

	logger.Debug("Fetching category weights")
	weights, err := source.ListCategoryWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category weights: %w", err)
	}
	table := content.NewWeightTable(weights)

	logger.Info("Loaded content",
		zap.Int("items", pool.Len()),
		zap.Int("buckets", len(pool.Buckets())),
		zap.Int("categories", len(pool.Categories())),
		zap.Int("weighted_categories", table.Len()))

	for _, category := range pool.Categories() {
		if !table.Has(category) {
			logger.Warn("Category has no declared weightage", zap.String("category", category))
		}
	}

	return &LoadedContent{Pool: pool, Weights: table}, nil
}
