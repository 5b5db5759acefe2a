package graph

import "math"

// NormalizeNumbers rewrites decoded Style and Extra values to the types
// diagram code builds them with. Binary codecs hand back the smallest
// integer type that holds a value; those become int again. Floats are kept.
func (d *Data) NormalizeNumbers() {
	if d == nil {
		return
	}
	for _, n := range d.Nodes {
		n.Style = normalizeMap(n.Style)
		n.Extra = normalizeMap(n.Extra)
	}
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		if x >= math.MinInt && x <= math.MaxInt {
			return int(x)
		}
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		if uint64(x) <= math.MaxInt {
			return int(x)
		}
	case uint64:
		if x <= math.MaxInt {
			return int(x)
		}
	case map[string]interface{}:
		return normalizeMap(x)
	case []interface{}:
		for i := range x {
			x[i] = normalizeValue(x[i])
		}
	}
	return v
}
