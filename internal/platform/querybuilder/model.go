package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row insert from the `db` tags of a struct.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValues(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

func columnsAndValues(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
