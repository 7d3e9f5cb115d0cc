// Package store is the sole gateway to order persistence for the sweet
// shop. It coerces numeric fields on the way in and normalizes database
// native types (ObjectIDs, datetimes) on the way out, so callers never see
// either.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/example/sweetshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrUnavailable is returned by mutation operations when there is no
// database connection. Read operations degrade to empty results instead.
var ErrUnavailable = errors.New("order store: database not connected")

// editFieldMap is the allow-list of editable fields, keyed by the public
// name and mapping to the stored name. Keys outside this map are dropped.
var editFieldMap = map[string]string{
	"customerName": "customerName",
	"contact":      "mobile",
	"amount":       "total",
	"status":       "status",
	"address":      "address",
	"mobile":       "mobile",
	"total":        "total",
	"deliveryDate": "deliveryDate",
	"preference":   "preference",
	"items":        "items",
}

// statusProjection fixes the field set returned by UpdateOrderStatus.
var statusProjection = bson.D{
	{Key: "_id", Value: 1},
	{Key: "customerName", Value: 1},
	{Key: "mobile", Value: 1},
	{Key: "address", Value: 1},
	{Key: "status", Value: 1},
	{Key: "total", Value: 1},
	{Key: "orderDate", Value: 1},
	{Key: "deliveryDate", Value: 1},
	{Key: "createdAt", Value: 1},
	{Key: "updatedAt", Value: 1},
	{Key: "items", Value: 1},
}

// Store wraps the orders collection. A nil handle means the database is
// unavailable; every operation checks this up front and either degrades
// (reads) or fails with ErrUnavailable (mutations).
type Store struct {
	handle Handle
	logger *zap.Logger
}

func New(handle Handle, logger *zap.Logger) *Store {
	return &Store{
		handle: handle,
		logger: logger,
	}
}

// Available reports whether the store has a live database handle.
func (s *Store) Available() bool {
	return s.handle != nil
}

// Place stamps orderDate and createdAt on the order, coerces its numeric
// fields and inserts it as a new document. Malformed numerics never fail
// the call; they default to 0.
func (s *Store) Place(ctx context.Context, order bson.M) error {
	if s.handle == nil {
		return ErrUnavailable
	}

	now := time.Now()
	doc := copyDoc(order)
	doc["orderDate"] = now.Format(dateLayout)
	doc["createdAt"] = now

	if _, ok := doc["total"]; ok {
		doc["total"] = floatOrZero(doc["total"])
	}

	for _, entry := range asSlice(doc["items"]) {
		if item, ok := asDoc(entry); ok {
			coerceItemNumbers(item)
		}
	}

	return s.handle.Insert(ctx, doc)
}

// GetOrders returns every order, newest first, normalized for API use.
// Returns an empty list when the database is unavailable.
func (s *Store) GetOrders(ctx context.Context) ([]bson.M, error) {
	if s.handle == nil {
		s.logger.Warn("database not connected, returning empty order list")
		return []bson.M{}, nil
	}

	docs, err := s.handle.Find(ctx, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, nil)
	if err != nil {
		return nil, err
	}

	orders := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, normalizeOrder(doc))
	}
	return orders, nil
}

// GetDailySummary aggregates today's orders: counts, revenue, items sold
// and the five best selling sweets by quantity. Returns a zeroed summary
// when the database is unavailable.
func (s *Store) GetDailySummary(ctx context.Context) (models.DailySummary, error) {
	if s.handle == nil {
		s.logger.Warn("database not connected, returning empty daily summary")
		return models.EmptyDailySummary(), nil
	}

	today := time.Now().Format(dateLayout)
	docs, err := s.handle.Find(ctx,
		bson.M{"orderDate": today},
		bson.D{{Key: "createdAt", Value: -1}},
		bson.D{{Key: "_id", Value: 0}})
	if err != nil {
		return models.EmptyDailySummary(), err
	}

	summary := models.EmptyDailySummary()
	summary.TotalOrders = len(docs)

	for _, doc := range docs {
		// Unparsable totals are skipped here, not zeroed; per-item
		// coercion below zeroes instead.
		if total, ok := parseFloat(doc["total"]); ok {
			summary.TotalRevenue += total
		}
	}

	stats := make(map[string]*models.SweetStat)
	var seen []string

	for _, doc := range docs {
		for _, entry := range asSlice(doc["items"]) {
			item, ok := asDoc(entry)
			if !ok {
				continue
			}

			quantity := floatOrZero(item["quantity"])
			price := floatOrZero(item["price"])
			summary.TotalItemsSold += quantity

			name := sweetName(item)
			stat, ok := stats[name]
			if !ok {
				stat = &models.SweetStat{Name: name}
				stats[name] = stat
				seen = append(seen, name)
			}
			stat.Quantity += quantity
			stat.Revenue += quantity * price
		}
	}

	popular := make([]models.SweetStat, 0, len(seen))
	for _, name := range seen {
		popular = append(popular, *stats[name])
	}
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Quantity > popular[j].Quantity
	})
	if len(popular) > 5 {
		popular = popular[:5]
	}
	summary.PopularSweets = popular

	for _, doc := range docs {
		summary.Orders = append(summary.Orders, normalizeOrder(doc))
	}

	return summary, nil
}

// UpdateOrderStatus atomically sets status and updatedAt on the matching
// order and returns the post-update document, projected to a fixed field
// set. A malformed or unknown id yields a nil document, not an error.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) (bson.M, error) {
	if s.handle == nil {
		return nil, ErrUnavailable
	}

	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, nil
	}

	updated, err := s.handle.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"status": status, "updatedAt": time.Now()},
		statusProjection)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	return normalizeOrder(updated), nil
}

// EditOrder applies a partial update after remapping public field names to
// stored ones (contact becomes mobile, amount becomes total) and dropping
// unknown keys. When nothing remains to set, the current document is
// returned unchanged, which distinguishes "nothing to update" from "not
// found". A malformed or unknown id yields a nil document, not an error.
func (s *Store) EditOrder(ctx context.Context, orderID string, updates bson.M) (bson.M, error) {
	if s.handle == nil {
		return nil, ErrUnavailable
	}

	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, nil
	}

	set := bson.M{}
	for key, value := range updates {
		dest, ok := editFieldMap[key]
		if !ok {
			continue
		}
		if dest == "total" {
			value = floatOrZero(value)
		}
		if dest == "items" {
			if seq := asSlice(value); seq != nil {
				value = rebuildItems(seq)
			}
		}
		set[dest] = value
	}

	if len(set) == 0 {
		current, err := s.handle.FindOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, nil
		}
		return normalizeOrder(current), nil
	}

	set["updatedAt"] = time.Now()

	updated, err := s.handle.FindOneAndUpdate(ctx, bson.M{"_id": oid}, set, nil)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	return normalizeOrder(updated), nil
}

// rebuildItems copies each mapping entry with quantity and price coerced to
// float64. Entries that are not mappings are dropped.
func rebuildItems(seq []interface{}) []interface{} {
	items := make([]interface{}, 0, len(seq))
	for _, entry := range seq {
		item, ok := asDoc(entry)
		if !ok {
			continue
		}
		rebuilt := copyDoc(item)
		coerceItemNumbers(rebuilt)
		items = append(items, rebuilt)
	}
	return items
}

// sweetName resolves the display name of a line item: sweetName, then name,
// then "Unknown".
func sweetName(item bson.M) string {
	if name, ok := item["sweetName"].(string); ok && name != "" {
		return name
	}
	if name, ok := item["name"].(string); ok && name != "" {
		return name
	}
	return "Unknown"
}
