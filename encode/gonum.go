package encode

import (
	"gonum.org/v1/gonum/mat"
)

// Matrices encode as row-major nested arrays under an ndarray envelope; the
// schema fragment carries the shape so a viewer can rebuild the matrix
// without guessing dimensions.
func init() {
	Register(Rule{
		Name: "gonum.matrix",
		Match: func(v any) bool {
			_, ok := v.(mat.Matrix)
			return ok
		},
		Encode: func(v any, recurse func(any) any) any {
			m := v.(mat.Matrix)
			rows, cols := m.Dims()
			data := make([]any, rows)
			for i := 0; i < rows; i++ {
				row := make([]any, cols)
				for j := 0; j < cols; j++ {
					row[j] = m.At(i, j)
				}
				data[i] = row
			}
			return Value{Datatype: TagNDArray, Data: data, Class: typeName(v)}
		},
		Schema: func(v any) map[string]any {
			m := v.(mat.Matrix)
			rows, cols := m.Dims()
			return map[string]any{
				"type":              "array",
				"title":             typeName(v),
				"x-python-datatype": TagNDArray,
				"x-shape":           []int{rows, cols},
				"x-dtype":           "float64",
			}
		},
	})
}
