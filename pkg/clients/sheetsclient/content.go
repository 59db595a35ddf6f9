package sheetsclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechorley/exam-allocator/internal/config"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// Expected column names in the questions tab
var questionFields = []string{
	"ID",
	"Category",
	"Subcategory",
	"Bucket",
	"Tier",
	"Difficulty",
	"Marks",
}

// Expected column names in the weightage tab
var weightFields = []string{
	"Category",
	"Weightage %",
}

// ValueReader reads a range of cells from a spreadsheet
type ValueReader interface {
	GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// ContentSource reads the question bank and weightage table from a spreadsheet
type ContentSource struct {
	reader ValueReader
	cfg    config.SheetsConfig
}

// NewContentSource creates a content source reading the tabs named in cfg
func NewContentSource(reader ValueReader, cfg config.SheetsConfig) *ContentSource {
	return &ContentSource{reader: reader, cfg: cfg}
}

// ListContentItems retrieves and parses the questions tab
func (s *ContentSource) ListContentItems(ctx context.Context) ([]model.ContentItem, error) {
	values, err := s.reader.GetValues(s.cfg.SpreadsheetID, s.cfg.QuestionsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get question data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("questions tab is empty")
	}

	items, err := parseQuestions(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}

	return items, nil
}

// ListCategoryWeights retrieves and parses the weightage tab
func (s *ContentSource) ListCategoryWeights(ctx context.Context) ([]model.CategoryWeight, error) {
	values, err := s.reader.GetValues(s.cfg.SpreadsheetID, s.cfg.WeightsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get weightage data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("weightage tab is empty")
	}

	weights, err := parseWeights(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse weightage: %w", err)
	}

	return weights, nil
}

// headerIndex maps each required field to its column in the header row
type headerIndex map[string]int

func indexHeader(header []interface{}, fields []string) (headerIndex, error) {
	index := make(headerIndex, len(fields))
	for _, field := range fields {
		col := -1
		for i, cell := range header {
			if cellStr, ok := cell.(string); ok && strings.TrimSpace(cellStr) == field {
				col = i
				break
			}
		}
		if col == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		index[field] = col
	}
	return index, nil
}

// get returns the cell for field as trimmed text. Missing cells read as "".
func (h headerIndex) get(field string, row []interface{}) string {
	col, ok := h[field]
	if !ok || col >= len(row) {
		return ""
	}
	switch v := row[col].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// parseQuestions converts raw spreadsheet data into content items
func parseQuestions(raw [][]interface{}) ([]model.ContentItem, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fields, err := indexHeader(raw[0], questionFields)
	if err != nil {
		return nil, err
	}

	items := make([]model.ContentItem, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := fields.get("ID", row)
		// Skip blank rows
		if id == "" {
			continue
		}

		tier, ok := model.ParseTier(fields.get("Tier", row))
		if !ok {
			return nil, fmt.Errorf("invalid tier for question %s in row %d", id, i+1)
		}

		marks, err := strconv.Atoi(fields.get("Marks", row))
		if err != nil || marks <= 0 {
			return nil, fmt.Errorf("invalid marks for question %s in row %d", id, i+1)
		}

		items = append(items, model.ContentItem{
			ID:          id,
			Category:    fields.get("Category", row),
			Subcategory: fields.get("Subcategory", row),
			Bucket:      fields.get("Bucket", row),
			Tier:        tier,
			Difficulty:  fields.get("Difficulty", row),
			Weight:      marks,
		})
	}

	return items, nil
}

// parseWeights converts raw spreadsheet data into category weights.
// Percentages may be written as "12.5", "12.5%" or a bare number cell.
func parseWeights(raw [][]interface{}) ([]model.CategoryWeight, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fields, err := indexHeader(raw[0], weightFields)
	if err != nil {
		return nil, err
	}

	weights := make([]model.CategoryWeight, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		category := fields.get("Category", row)
		if category == "" {
			continue
		}

		text := strings.TrimSuffix(fields.get("Weightage %", row), "%")
		percent, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weightage for category %s in row %d", category, i+1)
		}

		weights = append(weights, model.CategoryWeight{Category: category, Percent: percent})
	}

	return weights, nil
}
