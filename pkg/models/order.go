package models

import (
	"go.mongodb.org/mongo-driver/bson"
)

// SweetStat aggregates sales of one sweet across today's orders.
type SweetStat struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// DailySummary holds aggregated statistics over orders dated today.
type DailySummary struct {
	TotalOrders    int         `json:"total_orders"`
	TotalRevenue   float64     `json:"total_revenue"`
	TotalItemsSold float64     `json:"total_items_sold"`
	PopularSweets  []SweetStat `json:"popular_sweets"`
	Orders         []bson.M    `json:"orders"`
}

// EmptyDailySummary returns the zero-valued summary shape reported when the
// database is unavailable.
func EmptyDailySummary() DailySummary {
	return DailySummary{
		PopularSweets: []SweetStat{},
		Orders:        []bson.M{},
	}
}
