package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryHandle is an in-memory Handle for local development and tests. It
// supports the slice of collection behavior the store relies on: equality
// filters, single-key sorts and include/exclude projections.
type MemoryHandle struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]bson.M
}

func NewMemoryHandle() *MemoryHandle {
	return &MemoryHandle{
		docs: make(map[primitive.ObjectID]bson.M),
	}
}

func (h *MemoryHandle) Insert(ctx context.Context, doc bson.M) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Stored copy so later caller mutations don't leak in.
	stored := copyDoc(doc)
	id, ok := stored["_id"].(primitive.ObjectID)
	if !ok {
		id = primitive.NewObjectID()
		stored["_id"] = id
	}
	h.docs[id] = stored
	return nil
}

func (h *MemoryHandle) Find(ctx context.Context, filter bson.M, sortSpec bson.D, projection bson.D) ([]bson.M, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matched := make([]bson.M, 0, len(h.docs))
	for _, doc := range h.docs {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}

	applySort(matched, sortSpec)

	out := make([]bson.M, 0, len(matched))
	for _, doc := range matched {
		out = append(out, project(doc, projection))
	}
	return out, nil
}

func (h *MemoryHandle) FindOne(ctx context.Context, filter bson.M) (bson.M, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, doc := range h.docs {
		if matches(doc, filter) {
			return copyDoc(doc), nil
		}
	}
	return nil, nil
}

func (h *MemoryHandle) FindOneAndUpdate(ctx context.Context, filter bson.M, set bson.M, projection bson.D) (bson.M, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, doc := range h.docs {
		if !matches(doc, filter) {
			continue
		}
		for k, v := range set {
			doc[k] = copyValue(v)
		}
		h.docs[id] = doc
		return project(doc, projection), nil
	}
	return nil, nil
}

// Len reports the number of stored documents.
func (h *MemoryHandle) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.docs)
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		if doc[k] != want {
			return false
		}
	}
	return true
}

func applySort(docs []bson.M, sortSpec bson.D) {
	if len(sortSpec) == 0 {
		return
	}
	key := sortSpec[0].Key
	desc := false
	if dir, ok := sortSpec[0].Value.(int); ok && dir < 0 {
		desc = true
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return valueLess(docs[j][key], docs[i][key])
		}
		return valueLess(docs[i][key], docs[j][key])
	})
}

func valueLess(a, b interface{}) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return false
}

// project applies a flat include (1) or exclude (0) projection. As in the
// real collection, include mode keeps _id unless it is excluded explicitly.
func project(doc bson.M, projection bson.D) bson.M {
	if len(projection) == 0 {
		return copyDoc(doc)
	}

	include := false
	for _, e := range projection {
		if dir, ok := e.Value.(int); ok && dir != 0 {
			include = true
			break
		}
	}

	if include {
		out := make(bson.M, len(projection)+1)
		if id, ok := doc["_id"]; ok {
			out["_id"] = id
		}
		for _, e := range projection {
			dir, _ := e.Value.(int)
			if dir == 0 {
				delete(out, e.Key)
				continue
			}
			if v, ok := doc[e.Key]; ok {
				out[e.Key] = copyValue(v)
			}
		}
		return out
	}

	out := copyDoc(doc)
	for _, e := range projection {
		delete(out, e.Key)
	}
	return out
}

var _ Handle = (*MemoryHandle)(nil)
