// Package jsonquery filters JSON output of the CLI with JSONPath expressions.
package jsonquery

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Apply marshals v and, if expr is not empty, returns the values selected by
// the JSONPath expression. The result is indented JSON.
func Apply(v any, expr string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return ApplyJSON(string(data), expr)
}

func ApplyJSON(jsonData, expr string) (string, error) {
	obj, err := oj.ParseString(jsonData)
	if err != nil {
		return "", err
	}
	if expr == "" {
		return oj.JSON(obj, &oj.Options{Indent: 2, Sort: false}), nil
	}
	path, err := jp.ParseString(expr)
	if err != nil {
		return "", fmt.Errorf("invalid query %q: %w", expr, err)
	}
	res := path.Get(obj)
	if res == nil {
		res = []any{}
	}
	// single matches are printed unwrapped
	if len(res) == 1 {
		return oj.JSON(res[0], &oj.Options{Indent: 2}), nil
	}
	return oj.JSON(res, &oj.Options{Indent: 2}), nil
}
