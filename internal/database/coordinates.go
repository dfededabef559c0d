package database

import (
	"fmt"

	"propcalc/server/internal/geocoding"
)

// UpdateMissingCoordinates geocodes transactions that have a location but no
// coordinates yet. Every row is marked as attempted, failed or not, so a
// dead location is never retried on the next run.
func (d *Database) UpdateMissingCoordinates(geocoder *geocoding.Geocoder) error {
	var totalCount int
	err := d.db.QueryRow(`
		SELECT COUNT(*)
		FROM transactions
		WHERE (latitude IS NULL OR longitude IS NULL)
		AND geocoding_attempted = 0
		AND location IS NOT NULL
		AND location != ''
	`).Scan(&totalCount)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %v", err)
	}

	if totalCount == 0 {
		return nil
	}

	var processed, failed int
	batchSize := 10

	for processed+failed < totalCount {
		tx, err := d.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %v", err)
		}

		rows, err := tx.Query(`
			SELECT id, location
			FROM transactions
			WHERE (latitude IS NULL OR longitude IS NULL)
			AND geocoding_attempted = 0
			AND location IS NOT NULL
			AND location != ''
			LIMIT ?
		`, batchSize)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to query transactions: %v", err)
		}

		type pending struct {
			id       int64
			location string
		}
		var batch []pending
		for rows.Next() {
			var p pending
			if err := rows.Scan(&p.id, &p.location); err != nil {
				rows.Close()
				tx.Rollback()
				return fmt.Errorf("failed to scan row: %v", err)
			}
			batch = append(batch, p)
		}
		rows.Close()

		if len(batch) == 0 {
			tx.Rollback()
			return fmt.Errorf("no transactions processed in batch, possible data inconsistency. Total processed: %d/%d",
				processed+failed, totalCount)
		}

		for _, p := range batch {
			lat, lon, err := geocoder.GeocodeLocation(p.location)
			if err != nil {
				// Mark as attempted even if geocoding failed
				if _, err := tx.Exec(`
					UPDATE transactions
					SET geocoding_attempted = 1
					WHERE id = ?
				`, p.id); err != nil {
					tx.Rollback()
					return fmt.Errorf("failed to mark geocoding attempt: %v", err)
				}
				failed++
				continue
			}

			if _, err := tx.Exec(`
				UPDATE transactions
				SET latitude = ?, longitude = ?, geocoding_attempted = 1
				WHERE id = ?
			`, lat, lon, p.id); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to update coordinates: %v", err)
			}
			processed++
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %v", err)
		}
	}

	return nil
}
