package parser

import (
	"fmt"
	"strings"

	"propcalc/server/config"
)

// SchemaError marks a file whose header is missing required columns. The
// whole file is rejected before any row is parsed.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s is missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

var requiredColumns = map[config.SchemaVariant][]string{
	config.SchemaAreas: {
		"area_id", "name_en", "name_ar", "municipality_number",
	},
	config.SchemaDLD: {
		"transaction_id", "instance_date", "property_type_en", "area_name_en",
		"actual_worth", "procedure_area", "area_id", "procedure_id",
		"master_project_en", "project_name_en",
	},
	config.SchemaSimple: {
		"transaction_id", "price_aed", "area_sqft", "transaction_date",
		"developer_name", "transaction_type", "property_type", "location",
	},
}

// ValidateHeader checks that the CSV header carries every column the schema
// variant requires. Column order does not matter.
func ValidateHeader(source string, variant config.SchemaVariant, header []string) error {
	required, ok := requiredColumns[variant]
	if !ok {
		return fmt.Errorf("unknown schema variant: %s", variant)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.ToLower(strings.TrimSpace(col))] = true
	}

	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &SchemaError{Source: source, Missing: missing}
	}
	return nil
}

// RowMap pairs a header with one CSV record so fields can be addressed by
// column name regardless of column order.
func RowMap(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			row[strings.ToLower(strings.TrimSpace(col))] = strings.TrimSpace(record[i])
		}
	}
	return row
}
