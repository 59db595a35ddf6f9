package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// DatabaseURLEnv overrides databaseURL so credentials can stay out of the config file
const DatabaseURLEnv = "EXAM_ALLOCATOR_DATABASE_URL"

// Content sources
const (
	ContentSourceFile     = "file"
	ContentSourceSheets   = "sheets"
	ContentSourcePostgres = "postgres"
)

// BucketConfig defines one exam section of the paper
type BucketConfig struct {
	ID           string `yaml:"id" validate:"required"`
	Label        string `yaml:"label,omitempty"`
	TargetWeight int    `yaml:"targetWeight,omitempty" validate:"min=0"`
	TargetCount  int    `yaml:"targetCount,omitempty" validate:"min=0"`
}

// WeightConfig is a key/percentage pair
type WeightConfig struct {
	Key     string  `yaml:"key" validate:"required"`
	Percent float64 `yaml:"percent" validate:"min=0"`
}

// SheetsConfig locates the question bank in Google Sheets
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID" validate:"required"`
	QuestionsTab  string `yaml:"questionsTab" validate:"required"`
	WeightsTab    string `yaml:"weightsTab" validate:"required"`
	// DatabaseSheetID is the spreadsheet generated papers are recorded in
	DatabaseSheetID string `yaml:"databaseSheetID,omitempty"`
}

// AllocationConfig overrides the selector's scoring. Unset fields keep their defaults.
type AllocationConfig struct {
	TierBonus            map[string]float64 `yaml:"tierBonus,omitempty"`
	TierWeight           *float64           `yaml:"tierWeight,omitempty" validate:"omitempty,min=0"`
	CategoryCoefficient  *float64           `yaml:"categoryCoefficient,omitempty" validate:"omitempty,min=0"`
	SecondaryCoefficient *float64           `yaml:"secondaryCoefficient,omitempty" validate:"omitempty,min=0"`
	OversizePenalty      *float64           `yaml:"oversizePenalty,omitempty" validate:"omitempty,min=0"`
	JitterScale          *float64           `yaml:"jitterScale,omitempty" validate:"omitempty,min=0"`
	OvershootTolerance   *int               `yaml:"overshootTolerance,omitempty" validate:"omitempty,min=0"`
}

// StudyScheduleConfig defines when study sessions take place
type StudyScheduleConfig struct {
	RRule string `yaml:"rrule" validate:"required"`
	Start string `yaml:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Config represents the application configuration
type Config struct {
	ContentSource    string               `yaml:"contentSource" validate:"required,oneof=file sheets postgres"`
	ContentFile      string               `yaml:"contentFile,omitempty"`
	Sheets           *SheetsConfig        `yaml:"sheets,omitempty"`
	DatabaseURL      string               `yaml:"databaseURL,omitempty"`
	PaperStorePath   string               `yaml:"paperStorePath,omitempty"`
	Buckets          []BucketConfig       `yaml:"buckets" validate:"required,min=1,dive"`
	DifficultyRatio  []WeightConfig       `yaml:"difficultyRatio,omitempty" validate:"dive"`
	Allocation       AllocationConfig     `yaml:"allocation,omitempty"`
	TierMultipliers  map[string]float64   `yaml:"tierMultipliers,omitempty"`
	CategoryTiers    map[string]string    `yaml:"categoryTiers,omitempty"`
	StudyBudgetHours float64              `yaml:"studyBudgetHours,omitempty" validate:"min=0"`
	StudySchedule    *StudyScheduleConfig `yaml:"studySchedule,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from allocator_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration with an environment suffix
// For example, env="test" will look for "allocator_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if url := os.Getenv(DatabaseURLEnv); url != "" {
		cfg.DatabaseURL = url
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the source settings, tier names and rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.ContentSource {
	case ContentSourceFile:
		if cfg.ContentFile == "" {
			return fmt.Errorf("config validation failed: contentFile is required when contentSource is %q", cfg.ContentSource)
		}
	case ContentSourceSheets:
		if cfg.Sheets == nil {
			return fmt.Errorf("config validation failed: sheets is required when contentSource is %q", cfg.ContentSource)
		}
	case ContentSourcePostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("config validation failed: databaseURL is required when contentSource is %q", cfg.ContentSource)
		}
	}

	seen := make(map[string]bool)
	for i, bucket := range cfg.Buckets {
		if seen[bucket.ID] {
			return fmt.Errorf("duplicate bucket id in buckets[%d]: %s", i, bucket.ID)
		}
		seen[bucket.ID] = true
	}

	for raw := range cfg.Allocation.TierBonus {
		if _, ok := model.ParseTier(raw); !ok {
			return fmt.Errorf("invalid tier in allocation.tierBonus: %s", raw)
		}
	}
	for raw := range cfg.TierMultipliers {
		if _, ok := model.ParseTier(raw); !ok {
			return fmt.Errorf("invalid tier in tierMultipliers: %s", raw)
		}
	}
	for category, raw := range cfg.CategoryTiers {
		if _, ok := model.ParseTier(raw); !ok {
			return fmt.Errorf("invalid tier for category %s in categoryTiers: %s", category, raw)
		}
	}

	// Validate rrule syntax for the study schedule
	if cfg.StudySchedule != nil {
		if _, err := rrule.StrToRRule(cfg.StudySchedule.RRule); err != nil {
			return fmt.Errorf("invalid rrule in studySchedule: %w", err)
		}
	}

	return nil
}

// Settings returns the selector settings with configured overrides applied
func (c *Config) Settings() allocation.Settings {
	settings := allocation.DefaultSettings()
	a := c.Allocation

	for raw, bonus := range a.TierBonus {
		if tier, ok := model.ParseTier(raw); ok {
			settings.TierBonus[tier] = bonus
		}
	}
	if a.TierWeight != nil {
		settings.TierWeight = *a.TierWeight
	}
	if a.CategoryCoefficient != nil {
		settings.CategoryCoefficient = *a.CategoryCoefficient
	}
	if a.SecondaryCoefficient != nil {
		settings.SecondaryCoefficient = *a.SecondaryCoefficient
	}
	if a.OversizePenalty != nil {
		settings.OversizePenalty = *a.OversizePenalty
	}
	if a.JitterScale != nil {
		settings.JitterScale = *a.JitterScale
	}
	if a.OvershootTolerance != nil {
		settings.OvershootTolerance = *a.OvershootTolerance
	}
	if len(c.DifficultyRatio) > 0 {
		settings.DifficultyRatio = c.DifficultyWeights()
	}

	return settings
}

// Quotas returns the configured buckets in paper order
func (c *Config) Quotas() []allocation.BucketQuota {
	quotas := make([]allocation.BucketQuota, 0, len(c.Buckets))
	for _, bucket := range c.Buckets {
		quotas = append(quotas, allocation.BucketQuota{
			ID:           bucket.ID,
			Label:        bucket.Label,
			TargetWeight: bucket.TargetWeight,
			TargetCount:  bucket.TargetCount,
		})
	}
	return quotas
}

// DifficultyWeights returns the configured difficulty mix, nil when none is set
func (c *Config) DifficultyWeights() []model.Weight {
	if len(c.DifficultyRatio) == 0 {
		return nil
	}
	weights := make([]model.Weight, 0, len(c.DifficultyRatio))
	for _, w := range c.DifficultyRatio {
		weights = append(weights, model.Weight{Key: w.Key, Percent: w.Percent})
	}
	return weights
}

// Multipliers returns the tier multiplier table with configured overrides applied
func (c *Config) Multipliers() allocation.TierMultipliers {
	multipliers := allocation.DefaultTierMultipliers()
	for raw, value := range c.TierMultipliers {
		if tier, ok := model.ParseTier(raw); ok {
			multipliers[tier] = value
		}
	}
	return multipliers
}

// TierOf returns the configured tier of a category, high-roi when none is set
func (c *Config) TierOf(category string) model.Tier {
	if raw, ok := c.CategoryTiers[category]; ok {
		if tier, ok := model.ParseTier(raw); ok {
			return tier
		}
	}
	return model.TierHighROI
}

// ScheduleStart returns the first day of the study schedule, or now when no start is set
func (c *Config) ScheduleStart(now time.Time) time.Time {
	if c.StudySchedule == nil || c.StudySchedule.Start == "" {
		return now
	}
	start, err := time.Parse("2006-01-02", c.StudySchedule.Start)
	if err != nil {
		return now
	}
	return start
}

// findConfigFile searches for allocator_config.yaml in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "allocator_config.test.yaml")
func findConfigFile(env string) (string, error) {
	return locateFile(envFileName("allocator_config", env, ".yaml"))
}

// envFileName returns base+ext, or base.env+ext when env is set
func envFileName(base, env, ext string) string {
	if env == "" {
		return base + ext
	}
	return base + "." + env + ext
}

// locateFile looks for name in the current directory, then the home directory
func locateFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
