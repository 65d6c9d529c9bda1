package components

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// Типы компонентов загрузки данных.
const (
	TypeJSONLoader = "json_loader"
	TypeCSVLoader  = "csv_loader"
)

// JSONLoader разбирает JSON текст.
type JSONLoader struct {
	Base
}

// NewJSONLoader создаёт компонент json_loader.
func NewJSONLoader() Component {
	return &JSONLoader{Base: NewBase(Schema{
		Name:        TypeJSONLoader,
		DisplayName: "JSON Loader",
		Description: "Parse JSON data",
		Category:    "Data",
		Icon:        "FileJson",
		Inputs: []PortSchema{
			{Name: "json_text", DisplayName: "JSON Text", Type: DataTypeText, Description: "JSON data as text", Required: true},
		},
		Outputs: []PortSchema{
			{Name: "data", DisplayName: "Data", Type: DataTypeData, Description: "Parsed JSON data"},
		},
	})}
}

// Run разбирает JSON. Пустой текст даёт data = nil.
func (c *JSONLoader) Run(context.Context) (map[string]any, error) {
	text := c.InputString("json_text")
	if strings.TrimSpace(text) == "" {
		return map[string]any{"data": nil}, nil
	}

	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalidInput, err)
	}
	return map[string]any{"data": data}, nil
}

// CSVLoader разбирает CSV текст в список объектов.
//
// Без заголовка колонки называются column_0, column_1, ...
type CSVLoader struct {
	Base
}

// NewCSVLoader создаёт компонент csv_loader.
func NewCSVLoader() Component {
	return &CSVLoader{Base: NewBase(Schema{
		Name:        TypeCSVLoader,
		DisplayName: "CSV Loader",
		Description: "Load data from CSV format",
		Category:    "Data",
		Icon:        "FileSpreadsheet",
		Inputs: []PortSchema{
			{Name: "csv_data", DisplayName: "CSV Data", Type: DataTypeText, Description: "CSV data as text", Required: true},
			{Name: "has_header", DisplayName: "Has Header", Type: DataTypeBoolean, Description: "First row contains column names", Default: true},
		},
		Outputs: []PortSchema{
			{Name: "data", DisplayName: "Data", Type: DataTypeData, Description: "Parsed CSV data"},
			{Name: "columns", DisplayName: "Columns", Type: DataTypeData, Description: "Column names"},
			{Name: "row_count", DisplayName: "Row Count", Type: DataTypeNumber},
		},
	})}
}

// Run разбирает CSV.
func (c *CSVLoader) Run(context.Context) (map[string]any, error) {
	text := c.InputString("csv_data")
	empty := map[string]any{"data": []any{}, "columns": []any{}, "row_count": 0}
	if text == "" {
		return empty, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid CSV: %v", ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return empty, nil
	}

	var columns []string
	body := rows
	if c.InputBool("has_header", true) {
		columns = rows[0]
		body = rows[1:]
	} else {
		for i := range rows[0] {
			columns = append(columns, fmt.Sprintf("column_%d", i))
		}
	}

	data := make([]any, 0, len(body))
	for _, row := range body {
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		data = append(data, record)
	}

	cols := make([]any, len(columns))
	for i, col := range columns {
		cols[i] = col
	}

	return map[string]any{
		"data":      data,
		"columns":   cols,
		"row_count": len(data),
	}, nil
}
