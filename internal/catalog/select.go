package catalog

import (
	"fmt"
	"strconv"
)

// Select descends into a structured value along a field path, as produced by
// the trailing bracket group of a metric name (e.g. `Curve["power"][y]`).
// Map keys match by name; list elements by decimal index. Descending into a
// scalar or past a missing key is an error.
func (v Value) Select(fields []string) (Value, error) {
	cur := any(nil)
	if v.Structured != nil {
		cur = v.Structured
	} else if v.Scalar != nil {
		cur = *v.Scalar
	}

	for _, f := range fields {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[f]
			if !ok {
				return Value{}, fmt.Errorf("no field %q", f)
			}
			cur = next
		case map[string]float64:
			next, ok := node[f]
			if !ok {
				return Value{}, fmt.Errorf("no field %q", f)
			}
			cur = next
		case map[string]map[string]float64:
			next, ok := node[f]
			if !ok {
				return Value{}, fmt.Errorf("no field %q", f)
			}
			cur = next
		case []any:
			i, err := listIndex(f, len(node))
			if err != nil {
				return Value{}, err
			}
			cur = node[i]
		case []float64:
			i, err := listIndex(f, len(node))
			if err != nil {
				return Value{}, err
			}
			cur = node[i]
		default:
			return Value{}, fmt.Errorf("cannot select %q from %T", f, cur)
		}
	}

	if f, ok := cur.(float64); ok {
		return Scalar(f), nil
	}
	if cur == nil {
		return Value{}, nil
	}
	return Structured(cur), nil
}

func listIndex(f string, n int) (int, error) {
	i, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("list index %q is not a number", f)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("list index %d out of range (%d elements)", i, n)
	}
	return i, nil
}
