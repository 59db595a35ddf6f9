package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/jakechorley/exam-allocator/pkg/sheetssql"
)

// DB records papers in a SheetsSQL spreadsheet
type DB struct {
	ssql *sheetssql.DB
}

// NewDB creates a new database instance
func NewDB(ssql *sheetssql.DB) *DB {
	return &DB{
		ssql: ssql,
	}
}

// Schema returns the SheetsSQL schema of the paper tables
func Schema() (*sheetssql.Schema, error) {
	return sheetssql.SchemaFromModels(Paper{}, PaperItem{})
}

// GetPapers retrieves all paper records
func (db *DB) GetPapers(ctx context.Context) ([]Paper, error) {
	papers, err := sheetssql.GetTableAs[Paper](db.ssql)
	if err != nil {
		return nil, fmt.Errorf("failed to get papers: %w", err)
	}
	return papers, nil
}

// GetPaperItems retrieves the items of one paper ordered by bucket position
func (db *DB) GetPaperItems(ctx context.Context, paperID string) ([]PaperItem, error) {
	items, err := sheetssql.Select(db.ssql, func(item PaperItem) bool {
		return item.PaperID == paperID
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get paper items: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})

	return items, nil
}

// InsertPaper inserts a paper record followed by its items.
// Sheets has no transactions, so items are written only after the paper row succeeds.
func (db *DB) InsertPaper(ctx context.Context, paper *Paper, items []PaperItem) error {
	if err := sheetssql.InsertModel(db.ssql, *paper); err != nil {
		return fmt.Errorf("failed to insert paper: %w", err)
	}
	if err := sheetssql.InsertModels(db.ssql, items); err != nil {
		return fmt.Errorf("failed to insert paper items: %w", err)
	}
	return nil
}
