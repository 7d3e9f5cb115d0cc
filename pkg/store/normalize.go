package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// copyDoc deep-copies a document, folding bson.D sub-documents into bson.M
// so callers always see map-shaped values.
func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case bson.M:
		return copyDoc(x)
	case map[string]interface{}:
		return copyDoc(bson.M(x))
	case bson.D:
		out := make(bson.M, len(x))
		for _, e := range x {
			out[e.Key] = copyValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// normalizeOrder renders a stored document for API consumption: _id becomes
// its hex string and datetime timestamps become fixed-format strings.
// orderDate and deliveryDate are already plain date strings and pass through.
func normalizeOrder(doc bson.M) bson.M {
	if doc == nil {
		return nil
	}
	out := copyDoc(doc)

	if id, ok := out["_id"].(primitive.ObjectID); ok {
		out["_id"] = id.Hex()
	}

	for _, key := range []string{"createdAt", "updatedAt"} {
		switch t := out[key].(type) {
		case time.Time:
			out[key] = t.Format(timestampLayout)
		case primitive.DateTime:
			out[key] = t.Time().Format(timestampLayout)
		}
	}

	return out
}
