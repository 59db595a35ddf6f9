package db

import (
	"context"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// ContentSource supplies the question bank and the topic weightage table.
// content.FileSource, sheetsclient.ContentSource and postgres.DB implement it.
type ContentSource interface {
	ListContentItems(ctx context.Context) ([]model.ContentItem, error)
	ListCategoryWeights(ctx context.Context) ([]model.CategoryWeight, error)
}

// PaperStore records generated papers.
// Both the SheetsSQL-backed db.DB and postgres.DB implement this interface.
type PaperStore interface {
	GetPapers(ctx context.Context) ([]Paper, error)
	GetPaperItems(ctx context.Context, paperID string) ([]PaperItem, error)
	InsertPaper(ctx context.Context, paper *Paper, items []PaperItem) error
}
