package sheetssql

import (
	"fmt"
	"reflect"
	"strconv"
)

// GetTableAs reads every record of T's table. The header and type rows are skipped and
// columns are matched to fields by their ssql_header tag.
func GetTableAs[T any](db *DB) ([]T, error) {
	return Select[T](db, nil)
}

// Select reads the records of T's table that satisfy keep (all records when keep is nil)
func Select[T any](db *DB, keep func(T) bool) ([]T, error) {
	tableName := TableName[T]()

	values, err := db.client.GetValues(db.spreadsheetID, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", tableName, err)
	}

	// Need at least headers, types, and one data row
	if len(values) < 3 {
		return []T{}, nil
	}

	headers := values[0]
	dataRows := values[2:]

	var model T
	t := reflect.TypeOf(model)

	columnIndexes := make(map[string]int)
	for i, header := range headers {
		if headerStr, ok := header.(string); ok {
			columnIndexes[headerStr] = i
		}
	}

	fieldMap := make(map[string]reflect.StructField)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if columnName := field.Tag.Get("ssql_header"); columnName != "" {
			fieldMap[columnName] = field
		}
	}

	results := make([]T, 0, len(dataRows))
	for rowIdx, row := range dataRows {
		result := reflect.New(t).Elem()

		for columnName, colIdx := range columnIndexes {
			field, ok := fieldMap[columnName]
			if !ok || colIdx >= len(row) || row[colIdx] == nil {
				continue
			}

			if err := setFieldValue(result.FieldByName(field.Name), row[colIdx]); err != nil {
				// Row numbers are 1-based and follow the header and type rows
				return nil, fmt.Errorf("row %d, column %s: %w", rowIdx+3, columnName, err)
			}
		}

		record := result.Interface().(T)
		if keep == nil || keep(record) {
			results = append(results, record)
		}
	}

	return results, nil
}

// setFieldValue converts a sheet cell value to the field's type and sets it
func setFieldValue(field reflect.Value, cellValue interface{}) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	// The Sheets API returns formatted strings; anything else is rendered first
	cellStr, ok := cellValue.(string)
	if !ok {
		cellStr = fmt.Sprint(cellValue)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(cellStr)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if cellStr == "" {
			field.SetInt(0)
			return nil
		}
		intVal, err := strconv.ParseInt(cellStr, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse int: %w", err)
		}
		field.SetInt(intVal)

	case reflect.Float32, reflect.Float64:
		if cellStr == "" {
			field.SetFloat(0)
			return nil
		}
		floatVal, err := strconv.ParseFloat(cellStr, 64)
		if err != nil {
			return fmt.Errorf("failed to parse float: %w", err)
		}
		field.SetFloat(floatVal)

	case reflect.Bool:
		if cellStr == "" {
			field.SetBool(false)
			return nil
		}
		boolVal, err := strconv.ParseBool(cellStr)
		if err != nil {
			return fmt.Errorf("failed to parse bool: %w", err)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// InsertModel appends a struct as a row to its table
func InsertModel[T any](db *DB, model T) error {
	return InsertModels(db, []T{model})
}

// InsertModels appends structs as rows to their table in a single call
func InsertModels[T any](db *DB, models []T) error {
	if len(models) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(models))
	for _, model := range models {
		rows = append(rows, modelRow(model))
	}

	return db.InsertRows(TableName[T](), rows)
}

// modelRow renders the tagged fields of a struct in declaration order
func modelRow(model interface{}) []interface{} {
	t := reflect.TypeOf(model)
	v := reflect.ValueOf(model)

	row := make([]interface{}, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("ssql_header") == "" {
			continue
		}
		row = append(row, v.Field(i).Interface())
	}
	return row
}
