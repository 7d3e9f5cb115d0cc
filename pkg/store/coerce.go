package store

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// parseFloat converts loosely typed document values to float64. Absent,
// nil and empty values count as a clean zero; ok is false only for values
// that cannot be read as a number at all.
func parseFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// floatOrZero never fails: unreadable values become 0.
func floatOrZero(v interface{}) float64 {
	f, _ := parseFloat(v)
	return f
}

// asSlice unwraps an ordered sequence regardless of whether it came from a
// JSON body or a BSON decode.
func asSlice(v interface{}) []interface{} {
	switch x := v.(type) {
	case []interface{}:
		return x
	case bson.A:
		return x
	}
	return nil
}

// asDoc unwraps a mapping value to bson.M without copying where possible.
func asDoc(v interface{}) (bson.M, bool) {
	switch x := v.(type) {
	case bson.M:
		return x, true
	case map[string]interface{}:
		return bson.M(x), true
	case bson.D:
		return x.Map(), true
	}
	return nil, false
}

// coerceItemNumbers rewrites quantity and price in place, each one
// independently, when the key is present.
func coerceItemNumbers(item bson.M) {
	if _, ok := item["quantity"]; ok {
		item["quantity"] = floatOrZero(item["quantity"])
	}
	if _, ok := item["price"]; ok {
		item["price"] = floatOrZero(item["price"])
	}
}
