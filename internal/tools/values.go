package tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/negokaz/excel-com/internal/automation"
)

// matrixFromJSON converts a JSON array of row arrays into a Matrix.
func matrixFromJSON(raw any) (automation.Value, error) {
	rows, ok := raw.([]any)
	if !ok {
		return automation.Value{}, fmt.Errorf("values must be an array of rows, got %T", raw)
	}
	if len(rows) == 0 {
		return automation.Value{}, fmt.Errorf("values must contain at least one row")
	}
	matrix := make([][]automation.Value, len(rows))
	for i, r := range rows {
		cells, ok := r.([]any)
		if !ok {
			return automation.Value{}, fmt.Errorf("row %d must be an array, got %T", i+1, r)
		}
		if i == 0 && len(cells) == 0 {
			return automation.Value{}, fmt.Errorf("first row must not be empty")
		}
		matrix[i] = make([]automation.Value, len(cells))
		for j, c := range cells {
			v, err := cellFromJSON(c)
			if err != nil {
				return automation.Value{}, fmt.Errorf("row %d, column %d: %w", i+1, j+1, err)
			}
			matrix[i][j] = v
		}
	}
	return automation.Matrix(matrix), nil
}

func cellFromJSON(c any) (automation.Value, error) {
	switch x := c.(type) {
	case nil:
		return automation.Empty(), nil
	case bool:
		return automation.Bool(x), nil
	case string:
		return automation.Text(x), nil
	case float64:
		return number(x), nil
	case int:
		return number(float64(x)), nil
	case int64:
		return number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return automation.Value{}, err
		}
		return number(f), nil
	}
	return automation.Value{}, fmt.Errorf("unsupported cell type %T", c)
}

func number(f float64) automation.Value {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 {
		return automation.Int(int32(f))
	}
	return automation.Double(f)
}
