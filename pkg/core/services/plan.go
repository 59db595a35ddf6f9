package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/internal/config"
	"github.com/jakechorley/exam-allocator/pkg/content"
	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/core/schedule"
	"github.com/jakechorley/exam-allocator/pkg/db"
)

// StudyPlan is a study budget split across categories, optionally laid out over
// the configured study sessions
type StudyPlan struct {
	Budget   float64
	Rows     []allocation.ResourceAllocationRow
	Sessions []schedule.Session
}

// PlanStudy distributes a study budget across the weighted categories. A nil budget
// falls back to the configured studyBudgetHours; a budget that is not positive and
// finite is rejected. When a study schedule is configured the hours are also spread
// over its sessions starting from now.
func PlanStudy(ctx context.Context, source db.ContentSource, cfg *config.Config, logger *zap.Logger, budget *float64, now time.Time) (*StudyPlan, error) {
	hours := cfg.StudyBudgetHours
	if budget != nil {
		hours = *budget
	}
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return nil, fmt.Errorf("study budget must be positive, got %g", hours)
	}

	logger.Debug("Fetching category weights")
	weights, err := source.ListCategoryWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category weights: %w", err)
	}

	categories := allocation.PlanFromWeightTable(content.NewWeightTable(weights), cfg.TierOf)
	rows := allocation.BuildResourcePlan(categories, hours, cfg.Multipliers())

	logger.Info("Study plan built",
		zap.Float64("budget", hours),
		zap.Int("categories", len(rows)),
		zap.Float64("allocated", allocation.TotalAllocated(rows)))

	plan := &StudyPlan{Budget: hours, Rows: rows}

	if cfg.StudySchedule == nil {
		return plan, nil
	}

	start := cfg.ScheduleStart(now)
	dates, err := schedule.Sessions(cfg.StudySchedule.RRule, start)
	if err != nil {
		return nil, fmt.Errorf("failed to expand study schedule: %w", err)
	}
	if len(dates) == 0 {
		logger.Warn("Study schedule produced no sessions", zap.Time("start", start))
	}

	plan.Sessions = schedule.Build(rows, dates)
	logger.Debug("Study sessions laid out", zap.Int("sessions", len(plan.Sessions)))

	return plan, nil
}
