package db

import (
	"fmt"
	"time"

	"price-watcher/models"
)

// ProductHistory groups a product with its recorded price scans, oldest first
type ProductHistory struct {
	Product models.Product
	Scans   []models.PriceScan
}

// ListProducts returns all tracked products
func (db *DB) ListProducts() ([]models.Product, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, url, xpath
		FROM product_info
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.XPath); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}

	return products, nil
}

// InsertProducts saves imported products and returns them with assigned IDs
func (db *DB) InsertProducts(products []models.Product) ([]models.Product, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO product_info (title, url, xpath)
		VALUES ($1, $2, $3)
		RETURNING id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := make([]models.Product, 0, len(products))
	for _, p := range products {
		if err := stmt.QueryRow(p.Title, p.URL, p.XPath).Scan(&p.ID); err != nil {
			return nil, fmt.Errorf("failed to insert product %q: %w", p.Title, err)
		}
		inserted = append(inserted, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	return inserted, nil
}

// AddPriceScan appends a price observation for a product
func (db *DB) AddPriceScan(productID int64, kopecks int64, scanTime time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO price_scans (product_id, price, scan_time)
		VALUES ($1, $2, $3)
	`, productID, kopecks, scanTime)
	return err
}

// GetPriceHistory returns every product with its scans ordered by scan time
func (db *DB) GetPriceHistory() ([]ProductHistory, error) {
	products, err := db.ListProducts()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`
		SELECT product_id, price, scan_time
		FROM price_scans
		ORDER BY product_id ASC, scan_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price scans: %w", err)
	}
	defer rows.Close()

	scansByProduct := make(map[int64][]models.PriceScan)
	for rows.Next() {
		var s models.PriceScan
		if err := rows.Scan(&s.ProductID, &s.Price, &s.ScanTime); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		scansByProduct[s.ProductID] = append(scansByProduct[s.ProductID], s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price rows: %w", err)
	}

	history := make([]ProductHistory, 0, len(products))
	for _, p := range products {
		history = append(history, ProductHistory{
			Product: p,
			Scans:   scansByProduct[p.ID],
		})
	}

	return history, nil
}

// ClearProducts removes every tracked product and, via cascade, its price scans
func (db *DB) ClearProducts() error {
	_, err := db.conn.Exec(`DELETE FROM product_info`)
	return err
}
