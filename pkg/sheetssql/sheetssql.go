package sheetssql

import "fmt"

// SheetsClient is the subset of the Sheets API the database needs
type SheetsClient interface {
	GetValues(spreadsheetID, sheetRange string) ([][]interface{}, error)
	AppendRows(spreadsheetID, sheetRange string, values [][]interface{}) error
	CreateSheet(spreadsheetID, sheetTitle string) (int64, error)
	ListSheets(spreadsheetID string) ([]string, error)
}

// Column defines a column with name and type
type Column struct {
	Name string
	Type string // e.g. "text", "int", "bool", "uuid", "datetime"
}

// TableSchema defines the structure of a table
type TableSchema struct {
	Name    string
	Columns []Column
}

// Schema defines the database schema
type Schema struct {
	Tables []TableSchema
}

// DB treats a spreadsheet as an append-only database: one tab per table, a header
// row, a type row, then one row per record
type DB struct {
	client        SheetsClient
	spreadsheetID string
	schema        *Schema
}

// NewDB creates a new Sheets SQL database connection and ensures schema exists
func NewDB(client SheetsClient, spreadsheetID string, schema *Schema) (*DB, error) {
	db := &DB{
		client:        client,
		spreadsheetID: spreadsheetID,
		schema:        schema,
	}

	if err := db.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// SpreadsheetID returns the database spreadsheet ID
func (db *DB) SpreadsheetID() string {
	return db.spreadsheetID
}

// InsertRow appends a single row to the specified table
func (db *DB) InsertRow(tableName string, row []interface{}) error {
	return db.InsertRows(tableName, [][]interface{}{row})
}

// InsertRows appends multiple rows to the specified table
func (db *DB) InsertRows(tableName string, rows [][]interface{}) error {
	if !db.hasTable(tableName) {
		return fmt.Errorf("unknown table %s", tableName)
	}
	return db.client.AppendRows(db.spreadsheetID, tableName, rows)
}

func (db *DB) hasTable(tableName string) bool {
	for _, table := range db.schema.Tables {
		if table.Name == tableName {
			return true
		}
	}
	return false
}
