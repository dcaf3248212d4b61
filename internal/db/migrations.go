package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Statements stay within the SQL shared by PostgreSQL and SQLite so the
// same schema backs the in-memory test databases.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS lots (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price NUMERIC(18,2) NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		photos TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		unit_price NUMERIC(18,2),
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS members (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		number_of_lots INTEGER NOT NULL,
		unit_price NUMERIC(18,2) NOT NULL,
		total_lot_amount NUMERIC(18,2) NOT NULL,
		payment_duration INTEGER NOT NULL,
		monthly_quota NUMERIC(18,2) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS payments (
		id VARCHAR(36) PRIMARY KEY,
		member_id VARCHAR(36) NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		amount NUMERIC(18,2) NOT NULL,
		paid_on DATE NOT NULL,
		month_key VARCHAR(7) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_member_id ON payments (member_id);`,
	`CREATE INDEX IF NOT EXISTS idx_payments_month_key ON payments (month_key);`,
	`CREATE INDEX IF NOT EXISTS idx_members_name ON members (name);`,
}

func RunMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
