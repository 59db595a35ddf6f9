package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/db"
)

// RecordedPaper is a stored paper with its items in paper order
type RecordedPaper struct {
	Paper db.Paper
	Items []db.PaperItem
}

// ListPapers returns the recorded papers, newest first
func ListPapers(ctx context.Context, store db.PaperStore, logger *zap.Logger) ([]db.Paper, error) {
	logger.Debug("Fetching recorded papers")
	papers, err := store.GetPapers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch papers: %w", err)
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].CreatedAt > papers[j].CreatedAt
	})

	logger.Debug("Found recorded papers", zap.Int("count", len(papers)))
	return papers, nil
}

// GetPaper returns one recorded paper with its items
func GetPaper(ctx context.Context, store db.PaperStore, logger *zap.Logger, paperID string) (*RecordedPaper, error) {
	papers, err := store.GetPapers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch papers: %w", err)
	}

	for _, paper := range papers {
		if paper.ID != paperID {
			continue
		}

		items, err := store.GetPaperItems(ctx, paperID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch paper items: %w", err)
		}

		logger.Debug("Found paper", zap.String("paper_id", paperID), zap.Int("items", len(items)))
		return &RecordedPaper{Paper: paper, Items: items}, nil
	}

	return nil, fmt.Errorf("paper %s not found", paperID)
}
