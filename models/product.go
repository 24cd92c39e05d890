package models

import "time"

// Product represents a tracked product price source
type Product struct {
	ID    int64
	Title string
	URL   string
	XPath string // Path to the page element containing the price text
}

// PriceScan represents one recorded price observation for a product
type PriceScan struct {
	ID        int64
	ProductID int64
	Price     int64 // Price in kopecks at scan time
	ScanTime  time.Time
}
