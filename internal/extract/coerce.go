package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// toInt accepts JSON numbers and numeric strings
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

// toStringSlice keeps the string elements of a JSON list, in order
func toStringSlice(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// toSpan reads a [start,end] pair; anything invalid becomes [0,0]
func toSpan(v any) [2]int {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return [2]int{}
	}
	start, ok1 := toInt(list[0])
	end, ok2 := toInt(list[1])
	if !ok1 || !ok2 || start < 0 || start > end {
		return [2]int{}
	}
	return [2]int{start, end}
}
