package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The pairing between a listing and a position lives only in
// boat_listings.position_id. Its UNIQUE constraint is what stops two
// listings from ever holding the same position.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(100) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'staff',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		revoked_at DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS maps (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) COLLATE utf8mb4_bin NOT NULL,
		description TEXT NULL,
		image_path VARCHAR(255) NOT NULL,
		image_width INT NOT NULL DEFAULT 794,
		image_height INT NOT NULL DEFAULT 1123,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		KEY idx_maps_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	// Map names compare byte-for-byte, as they do on SQLite.
	`ALTER TABLE maps MODIFY name VARCHAR(100) COLLATE utf8mb4_bin NOT NULL`,
	`CREATE TABLE IF NOT EXISTS boat_positions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		map_id BIGINT UNSIGNED NOT NULL,
		x DOUBLE NOT NULL DEFAULT 200,
		y DOUBLE NOT NULL DEFAULT 200,
		width DOUBLE NOT NULL DEFAULT 100,
		height DOUBLE NOT NULL DEFAULT 50,
		rotation DOUBLE NOT NULL DEFAULT 0,
		color VARCHAR(50) NOT NULL DEFAULT 'blue',
		stroke_color VARCHAR(50) NOT NULL DEFAULT 'black',
		stroke_width DOUBLE NOT NULL DEFAULT 1,
		is_visible BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		KEY idx_boat_positions_map (map_id),
		CONSTRAINT fk_boat_positions_map FOREIGN KEY (map_id) REFERENCES maps (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS boat_listings (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		boat_index INT NOT NULL,
		name VARCHAR(100) NULL,
		customer_name VARCHAR(100) NOT NULL,
		size VARCHAR(50) NULL,
		make_model VARCHAR(100) NULL,
		vehicle_type VARCHAR(50) NULL,
		section VARCHAR(10) NULL,
		notes TEXT NULL,
		position_id BIGINT UNSIGNED NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NULL,
		UNIQUE KEY uq_boat_listings_index (boat_index),
		UNIQUE KEY uq_boat_listings_position (position_id),
		KEY idx_boat_listings_customer (customer_name),
		KEY idx_boat_listings_section (section),
		CONSTRAINT fk_boat_listings_position FOREIGN KEY (position_id) REFERENCES boat_positions (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'staff',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS maps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NULL,
		image_path TEXT NOT NULL,
		image_width INTEGER NOT NULL DEFAULT 794,
		image_height INTEGER NOT NULL DEFAULT 1123,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_maps_name ON maps (name)`,
	`CREATE TABLE IF NOT EXISTS boat_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		map_id INTEGER NOT NULL REFERENCES maps (id) ON DELETE CASCADE,
		x REAL NOT NULL DEFAULT 200,
		y REAL NOT NULL DEFAULT 200,
		width REAL NOT NULL DEFAULT 100,
		height REAL NOT NULL DEFAULT 50,
		rotation REAL NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT 'blue',
		stroke_color TEXT NOT NULL DEFAULT 'black',
		stroke_width REAL NOT NULL DEFAULT 1,
		is_visible BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boat_positions_map ON boat_positions (map_id)`,
	`CREATE TABLE IF NOT EXISTS boat_listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		boat_index INTEGER NOT NULL UNIQUE,
		name TEXT NULL,
		customer_name TEXT NOT NULL,
		size TEXT NULL,
		make_model TEXT NULL,
		vehicle_type TEXT NULL,
		section TEXT NULL,
		notes TEXT NULL,
		position_id INTEGER NULL UNIQUE REFERENCES boat_positions (id) ON DELETE SET NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boat_listings_customer ON boat_listings (customer_name)`,
	`CREATE INDEX IF NOT EXISTS idx_boat_listings_section ON boat_listings (section)`,
}

// Migrate creates any missing tables. Statements are idempotent and run
// one at a time because the MySQL driver rejects multi-statement Exec.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := sqliteSchema
	if IsMySQL(db) {
		stmts = mysqlSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i+1, err)
		}
	}
	return nil
}
