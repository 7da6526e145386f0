package models

import "time"

// StockReport summarizes the inventory at a point in time.
type StockReport struct {
	GeneratedAt       time.Time `bson:"generated_at" json:"generated_at"`
	Source            string    `bson:"source" json:"source"`
	Products          int       `bson:"products" json:"products"`
	TotalUnits        int       `bson:"total_units" json:"total_units"`
	TotalValue        float64   `bson:"total_value" json:"total_value"`
	LowStockThreshold int       `bson:"low_stock_threshold" json:"low_stock_threshold"`
	LowStock          []Product `bson:"low_stock" json:"low_stock"`
}
