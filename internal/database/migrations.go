package database

import "fmt"

func (d *Database) RunMigrations() error {
	// Transactions table, keyed naturally by transaction_id
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transaction_id TEXT UNIQUE NOT NULL,
			property_type TEXT,
			location TEXT,
			transaction_date TIMESTAMP,
			price REAL,
			area REAL,
			developer_name TEXT,
			transaction_type TEXT,
			unit_number TEXT,
			building TEXT,
			project TEXT,
			floor TEXT,
			bedrooms INTEGER,
			bathrooms INTEGER,
			parking_spaces INTEGER,
			unit_view TEXT,
			area_id INTEGER,
			area_name TEXT,
			latitude REAL,
			longitude REAL,
			geocoding_attempted BOOLEAN DEFAULT 0,
			ingested_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transactions table: %v", err)
	}

	// Areas lookup table
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS areas (
			area_id INTEGER PRIMARY KEY,
			name_en TEXT NOT NULL,
			name_ar TEXT,
			municipality_number TEXT,
			sector_number TEXT,
			community_number TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create areas table: %v", err)
	}

	// Per-run quality reports
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS quality_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			source TEXT NOT NULL,
			total_rows INTEGER,
			valid_rows INTEGER,
			score REAL,
			level TEXT,
			completeness REAL,
			consistency REAL,
			validity REAL,
			improvements TEXT,
			generated_at TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create quality_reports table: %v", err)
	}

	// Per-source processing results
	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS processing_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			source TEXT NOT NULL,
			success BOOLEAN,
			stage TEXT,
			rows_processed INTEGER,
			rows_inserted INTEGER,
			rows_failed INTEGER,
			batches_failed INTEGER,
			elapsed_ms INTEGER,
			error TEXT,
			started_at TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create processing_results table: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_date
		ON transactions(transaction_date);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_location
		ON transactions(location);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_coordinates
		ON transactions(latitude, longitude);
	`)
	if err != nil {
		return err
	}

	return nil
}
