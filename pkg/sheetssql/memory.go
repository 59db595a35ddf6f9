package sheetssql

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryClient is an in-memory SheetsClient. Values are stored as written, so reads
// return the Go values that were appended rather than formatted strings.
type MemoryClient struct {
	mu     sync.Mutex
	sheets map[string][][]interface{}
	order  []string
}

// NewMemoryClient creates an empty in-memory spreadsheet
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{sheets: make(map[string][][]interface{})}
}

// GetValues returns the rows of a tab. Ranges of the form "tab!A1:ZZ2" return the
// first two rows.
func (c *MemoryClient) GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, cells, hasCells := strings.Cut(sheetRange, "!")
	rows, ok := c.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found", name)
	}

	if hasCells && strings.HasSuffix(cells, "2") && len(rows) > 2 {
		rows = rows[:2]
	}

	out := make([][]interface{}, len(rows))
	copy(out, rows)
	return out, nil
}

// AppendRows appends rows to a tab
func (c *MemoryClient) AppendRows(spreadsheetID, sheetRange string, values [][]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name, _, _ := strings.Cut(sheetRange, "!")
	if _, ok := c.sheets[name]; !ok {
		return fmt.Errorf("sheet %s not found", name)
	}
	c.sheets[name] = append(c.sheets[name], values...)
	return nil
}

// CreateSheet adds an empty tab
func (c *MemoryClient) CreateSheet(spreadsheetID, sheetTitle string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sheets[sheetTitle]; ok {
		return 0, fmt.Errorf("sheet %s already exists", sheetTitle)
	}
	c.sheets[sheetTitle] = [][]interface{}{}
	c.order = append(c.order, sheetTitle)
	return int64(len(c.order)), nil
}

// ListSheets returns the tab names in creation order
func (c *MemoryClient) ListSheets(spreadsheetID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.order...), nil
}

// SetValues replaces the content of a tab, creating it if needed
func (c *MemoryClient) SetValues(sheetTitle string, values [][]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sheets[sheetTitle]; !ok {
		c.order = append(c.order, sheetTitle)
	}
	c.sheets[sheetTitle] = values
}
