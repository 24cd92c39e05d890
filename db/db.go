package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection
func NewDB() (*DB, error) {
	// Get connection string from environment variable
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		// Try to build from individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "price_watcher")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "price_watcher")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	// Initialize schema
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema() error {
	// Create product_info table
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS product_info (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			url VARCHAR(500) NOT NULL,
			xpath VARCHAR(500) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create product_info table: %w", err)
	}

	// Create price_scans table
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS price_scans (
			id SERIAL PRIMARY KEY,
			product_id INTEGER NOT NULL REFERENCES product_info(id) ON DELETE CASCADE,
			price BIGINT NOT NULL,
			scan_time TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create price_scans table: %w", err)
	}

	// Create indexes
	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_price_scans_product_id ON price_scans(product_id)`)
	if err != nil {
		log.Printf("Warning: Failed to create index on price_scans.product_id: %v\n", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_price_scans_scan_time ON price_scans(scan_time)`)
	if err != nil {
		log.Printf("Warning: Failed to create index on price_scans.scan_time: %v\n", err)
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// GetConn returns the underlying database connection
func (db *DB) GetConn() *sql.DB {
	return db.conn
}
