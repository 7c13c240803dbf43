package docstore

import (
	"fmt"
	"strings"
)

// Filter is a comparison on a JSON field.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Where builds a Filter. Supported operators: ==, !=, <, <=, >, >=.
func Where(field, op string, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query describes a collection query.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

var sqlOps = map[string]string{
	"==": "=",
	"!=": "!=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

func buildWhere(collection string, filters []Filter) (string, []any, error) {
	clauses := []string{"collection = ?"}
	args := []any{collection}
	for _, f := range filters {
		if !fieldPattern.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
		value := f.Value
		if b, isBool := value.(bool); isBool {
			// json_extract yields 1/0 for JSON booleans.
			value = 0
			if b {
				value = 1
			}
		}
		clauses = append(clauses, fmt.Sprintf("json_extract(data, '$.%s') %s ?", f.Field, op))
		args = append(args, value)
	}
	return strings.Join(clauses, " AND "), args, nil
}
