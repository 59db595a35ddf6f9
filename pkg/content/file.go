package content

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// fileItem is the YAML shape of a question in a content file
type fileItem struct {
	ID          string `yaml:"id" validate:"required"`
	Category    string `yaml:"category" validate:"required"`
	Subcategory string `yaml:"subcategory,omitempty"`
	Bucket      string `yaml:"bucket" validate:"required"`
	Tier        string `yaml:"tier" validate:"required"`
	Difficulty  string `yaml:"difficulty,omitempty"`
	Marks       int    `yaml:"marks" validate:"gt=0"`
}

// fileWeight is the YAML shape of a weightage row in a content file
type fileWeight struct {
	Category string  `yaml:"category" validate:"required"`
	Percent  float64 `yaml:"percent" validate:"gte=0,lte=100"`
}

type contentFile struct {
	Weights []fileWeight `yaml:"weights" validate:"dive"`
	Items   []fileItem   `yaml:"items" validate:"dive"`
}

var validate = validator.New()

// FileSource reads the question pool and weightage table from a YAML file
type FileSource struct {
	path string
}

// NewFileSource creates a content source backed by the YAML file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ListContentItems decodes every question in the file
func (s *FileSource) ListContentItems(ctx context.Context) ([]model.ContentItem, error) {
	file, err := s.read()
	if err != nil {
		return nil, err
	}

	items := make([]model.ContentItem, 0, len(file.Items))
	for i, raw := range file.Items {
		tier, ok := model.ParseTier(raw.Tier)
		if !ok {
			return nil, fmt.Errorf("invalid tier %q for item %d (%s)", raw.Tier, i, raw.ID)
		}
		items = append(items, model.ContentItem{
			ID:          raw.ID,
			Category:    raw.Category,
			Subcategory: raw.Subcategory,
			Bucket:      raw.Bucket,
			Tier:        tier,
			Difficulty:  raw.Difficulty,
			Weight:      raw.Marks,
		})
	}

	return items, nil
}

// ListCategoryWeights decodes the weightage table in the file
func (s *FileSource) ListCategoryWeights(ctx context.Context) ([]model.CategoryWeight, error) {
	file, err := s.read()
	if err != nil {
		return nil, err
	}

	weights := make([]model.CategoryWeight, 0, len(file.Weights))
	for _, raw := range file.Weights {
		weights = append(weights, model.CategoryWeight{Category: raw.Category, Percent: raw.Percent})
	}

	return weights, nil
}

func (s *FileSource) read() (*contentFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	var file contentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse content file: %w", err)
	}

	if err := validate.Struct(&file); err != nil {
		return nil, fmt.Errorf("content file validation failed: %w", err)
	}

	return &file, nil
}
