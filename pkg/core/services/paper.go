package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/exam-allocator/internal/config"
	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/db"
)

// PaperOptions controls how a paper is built and recorded
type PaperOptions struct {
	// Seed makes the build reproducible. A random seed is drawn when nil.
	Seed *int64

	// Store records the paper when set
	Store db.PaperStore
}

// PaperResult is a built paper together with the id and seed it was recorded under
type PaperResult struct {
	ID     string
	Seed   int64
	Result *allocation.AllocationResult
}

// GeneratePaper builds one exam paper from the content source using the configured
// buckets and selector settings
func GeneratePaper(ctx context.Context, source db.ContentSource, cfg *config.Config, logger *zap.Logger, opts PaperOptions) (*PaperResult, error) {
	loaded, err := LoadContent(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	seed := resolveSeed(opts.Seed)
	logger.Debug("Generating paper", zap.Int64("seed", seed), zap.Int("buckets", len(cfg.Buckets)))

	paper, err := buildPaper(loaded, cfg, seed)
	if err != nil {
		return nil, err
	}

	logPaper(logger, paper)

	if err := recordPaper(ctx, opts.Store, paper, db.PaperModeGenerated, logger); err != nil {
		return nil, err
	}

	return paper, nil
}

// GeneratePaperVariants builds count independent papers concurrently. Variant i uses
// seed base+i, so a run with the same base seed reproduces every variant. Papers are
// recorded one at a time after all builds succeed.
func GeneratePaperVariants(ctx context.Context, source db.ContentSource, cfg *config.Config, logger *zap.Logger, count int, opts PaperOptions) ([]*PaperResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("variant count must be positive, got %d", count)
	}

	loaded, err := LoadContent(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	base := resolveSeed(opts.Seed)
	logger.Debug("Generating paper variants", zap.Int("count", count), zap.Int64("base_seed", base))

	papers := make([]*PaperResult, count)
	g, gctx := errgroup.WithContext(ctx)
	for i := range count {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			paper, err := buildPaper(loaded, cfg, base+int64(i))
			if err != nil {
				return fmt.Errorf("variant %d: %w", i+1, err)
			}
			papers[i] = paper
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, paper := range papers {
		logPaper(logger, paper)
		if err := recordPaper(ctx, opts.Store, paper, db.PaperModeGenerated, logger); err != nil {
			return nil, err
		}
	}

	return papers, nil
}

// CuratePaper places exactly the listed question ids into their buckets without
// running selection. A nil allowList is treated as an empty one.
func CuratePaper(ctx context.Context, source db.ContentSource, cfg *config.Config, logger *zap.Logger, allowList []string, store db.PaperStore) (*PaperResult, error) {
	loaded, err := LoadContent(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	if allowList == nil {
		allowList = []string{}
	}
	logger.Debug("Curating paper", zap.Int("allow_list", len(allowList)))

	req := paperRequest(loaded, cfg)
	req.AllowList = allowList

	result, err := allocation.BuildCuratedPaper(req, cfg.Settings())
	if err != nil {
		return nil, fmt.Errorf("failed to curate paper: %w", err)
	}

	paper := &PaperResult{ID: uuid.New().String(), Result: result}
	logPaper(logger, paper)

	for _, id := range result.UnknownIDs {
		logger.Warn("Allow-listed id not found in content pool", zap.String("item_id", id))
	}
	for _, id := range result.UnplacedIDs {
		logger.Warn("Allow-listed item belongs to no paper bucket", zap.String("item_id", id))
	}

	if err := recordPaper(ctx, store, paper, db.PaperModeCurated, logger); err != nil {
		return nil, err
	}

	return paper, nil
}

func buildPaper(loaded *LoadedContent, cfg *config.Config, seed int64) (*PaperResult, error) {
	result, err := allocation.BuildPaper(paperRequest(loaded, cfg), cfg.Settings(), allocation.NewRandomSource(&seed))
	if err != nil {
		return nil, fmt.Errorf("failed to build paper: %w", err)
	}
	return &PaperResult{ID: uuid.New().String(), Seed: seed, Result: result}, nil
}

func paperRequest(loaded *LoadedContent, cfg *config.Config) allocation.PaperRequest {
	return allocation.PaperRequest{
		Pool:              loaded.Pool,
		Buckets:           cfg.Quotas(),
		CategoryWeights:   loaded.Weights,
		DifficultyWeights: cfg.DifficultyWeights(),
	}
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return rand.Int64()
}

func logPaper(logger *zap.Logger, paper *PaperResult) {
	result := paper.Result
	logger.Info("Paper built",
		zap.String("paper_id", paper.ID),
		zap.Int64("seed", paper.Seed),
		zap.Int("items", result.ItemCount()),
		zap.Int("achieved_weight", result.AchievedWeight),
		zap.Int("target_weight", result.TargetWeight),
		zap.Bool("complete", result.Complete()))

	for _, warning := range result.Warnings() {
		logger.Warn(warning.Notice(),
			zap.String("bucket_id", warning.BucketID),
			zap.String("status", string(warning.Status)),
			zap.Int("shortfall", warning.Shortfall))
	}
	for _, issue := range result.Issues {
		logger.Warn("Paper validation issue",
			zap.String("bucket_id", issue.BucketID),
			zap.String("criterion", issue.CriterionName),
			zap.String("description", issue.Description))
	}
}

// recordPaper stores the paper and its items. A nil store skips recording.
func recordPaper(ctx context.Context, store db.PaperStore, paper *PaperResult, mode string, logger *zap.Logger) error {
	if store == nil {
		return nil
	}

	record, items := paperRecords(paper, mode, time.Now())
	if err := store.InsertPaper(ctx, record, items); err != nil {
		return fmt.Errorf("failed to record paper: %w", err)
	}

	logger.Debug("Paper recorded", zap.String("paper_id", paper.ID), zap.Int("items", len(items)))
	return nil
}

func paperRecords(paper *PaperResult, mode string, now time.Time) (*db.Paper, []db.PaperItem) {
	result := paper.Result
	record := &db.Paper{
		ID:             paper.ID,
		CreatedAt:      now.UTC().Format(time.RFC3339),
		Mode:           mode,
		Seed:           paper.Seed,
		TargetWeight:   result.TargetWeight,
		AchievedWeight: result.AchievedWeight,
		Complete:       result.Complete(),
	}

	items := make([]db.PaperItem, 0, result.ItemCount())
	for _, bucket := range result.Buckets {
		for _, item := range bucket.Items {
			items = append(items, db.PaperItem{
				ID:       uuid.New().String(),
				PaperID:  paper.ID,
				BucketID: bucket.ID,
				Position: len(items) + 1,
				ItemID:   item.ID,
				Category: item.Category,
				Tier:     string(item.Tier),
				Weight:   item.Weight,
			})
		}
	}

	return record, items
}
