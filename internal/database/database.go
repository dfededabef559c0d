package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"propcalc/server/internal/models"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

func (d *Database) GetTransactions(startDate, endDate, location string) ([]models.Transaction, error) {
	query := `
        SELECT
            id,
            transaction_id,
            property_type,
            location,
            COALESCE(transaction_date, '') as transaction_date,
            price,
            area,
            developer_name,
            transaction_type,
            unit_number,
            building,
            project,
            floor,
            bedrooms,
            bathrooms,
            parking_spaces,
            unit_view,
            area_id,
            area_name,
            latitude,
            longitude,
            COALESCE(ingested_at, '') as ingested_at,
            COALESCE(created_at, '') as created_at
        FROM transactions
        WHERE (? = '' OR transaction_date >= ?)
        AND (? = '' OR transaction_date <= ?)
        AND (? = '' OR LOWER(location) = LOWER(?))
        ORDER BY transaction_date DESC
    `
	rows, err := d.db.Query(query,
		startDate, startDate,
		endDate, endDate,
		location, location,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// GetTransactionByID returns one transaction by its natural key, or nil when
// absent.
func (d *Database) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	query := `
        SELECT
            id, transaction_id, property_type, location,
            COALESCE(transaction_date, '') as transaction_date,
            price, area, developer_name, transaction_type,
            unit_number, building, project, floor,
            bedrooms, bathrooms, parking_spaces, unit_view,
            area_id, area_name, latitude, longitude,
            COALESCE(ingested_at, '') as ingested_at,
            COALESCE(created_at, '') as created_at
        FROM transactions
        WHERE transaction_id = ?
    `
	rows, err := d.db.Query(query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	txn, err := scanTransaction(rows)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func scanTransaction(rows *sql.Rows) (models.Transaction, error) {
	var t models.Transaction
	var propertyType, location, developer, txnType sql.NullString
	var unitNumber, building, project, floor, view, areaName sql.NullString
	var transactionDate, ingestedAt, createdAt sql.NullString
	var bedrooms, bathrooms, parking, areaID sql.NullInt64
	var price, area sql.NullFloat64
	var latitude, longitude sql.NullFloat64

	err := rows.Scan(
		&t.ID,
		&t.TransactionID,
		&propertyType,
		&location,
		&transactionDate,
		&price,
		&area,
		&developer,
		&txnType,
		&unitNumber,
		&building,
		&project,
		&floor,
		&bedrooms,
		&bathrooms,
		&parking,
		&view,
		&areaID,
		&areaName,
		&latitude,
		&longitude,
		&ingestedAt,
		&createdAt,
	)
	if err != nil {
		return t, err
	}

	if propertyType.Valid {
		t.PropertyType = models.PropertyType(propertyType.String)
	}
	if location.Valid {
		t.Location = location.String
	}
	if developer.Valid {
		t.DeveloperName = developer.String
	}
	if txnType.Valid {
		t.TransactionType = txnType.String
	}
	if unitNumber.Valid {
		t.UnitNumber = unitNumber.String
	}
	if building.Valid {
		t.Building = building.String
	}
	if project.Valid {
		t.Project = project.String
	}
	if floor.Valid {
		t.Floor = floor.String
	}
	if view.Valid {
		t.View = view.String
	}
	if areaName.Valid {
		t.AreaName = areaName.String
	}
	if price.Valid {
		t.Price = price.Float64
	}
	if area.Valid {
		t.Area = area.Float64
	}
	if bedrooms.Valid {
		n := int(bedrooms.Int64)
		t.Bedrooms = &n
	}
	if bathrooms.Valid {
		n := int(bathrooms.Int64)
		t.Bathrooms = &n
	}
	if parking.Valid {
		n := int(parking.Int64)
		t.ParkingSpaces = &n
	}
	if areaID.Valid {
		id := areaID.Int64
		t.AreaID = &id
	}
	if latitude.Valid {
		lat := latitude.Float64
		t.Latitude = &lat
	}
	if longitude.Valid {
		lon := longitude.Float64
		t.Longitude = &lon
	}

	if transactionDate.Valid && transactionDate.String != "" {
		if parsed, err := time.Parse("2006-01-02", strings.SplitN(transactionDate.String, " ", 2)[0]); err == nil {
			t.TransactionDate = parsed
		} else if parsed, err := time.Parse(time.RFC3339, transactionDate.String); err == nil {
			t.TransactionDate = parsed
		}
	}
	if ingestedAt.Valid && ingestedAt.String != "" {
		if parsed, err := time.Parse(time.RFC3339, ingestedAt.String); err == nil {
			t.IngestedAt = parsed
		}
	}
	if createdAt.Valid && createdAt.String != "" {
		if parsed, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
			t.CreatedAt = parsed
		}
	}

	return t, nil
}

func (d *Database) GetTransactionStats(startDate, endDate, location string) (models.TransactionStats, error) {
	query := `
        WITH filtered AS (
            SELECT price, area, transaction_type
            FROM transactions
            WHERE price > 0
            AND (? = '' OR transaction_date >= ?)
            AND (? = '' OR transaction_date <= ?)
            AND (? = '' OR LOWER(location) = LOWER(?))
        )
        SELECT
            COUNT(*) as total_transactions,
            COALESCE(AVG(price), 0) as average_price,
            COALESCE((
                SELECT price FROM filtered ORDER BY price
                LIMIT 1 OFFSET (SELECT COUNT(*) FROM filtered) / 2
            ), 0) as median_price,
            COALESCE(AVG(price / NULLIF(area, 0)), 0) as price_per_sqft,
            COALESCE(SUM(CASE WHEN transaction_type = 'sale' THEN 1 ELSE 0 END), 0) as total_sales,
            COALESCE(SUM(CASE WHEN transaction_type = 'rent' THEN 1 ELSE 0 END), 0) as total_rentals
        FROM filtered
    `
	var stats models.TransactionStats
	err := d.db.QueryRow(query,
		startDate, startDate,
		endDate, endDate,
		location, location,
	).Scan(
		&stats.TotalTransactions,
		&stats.AveragePrice,
		&stats.MedianPrice,
		&stats.PricePerSqft,
		&stats.TotalSales,
		&stats.TotalRentals,
	)
	return stats, err
}

func (d *Database) GetAreaStats(areaID int64) (models.AreaStats, error) {
	query := `
        SELECT
            t.area_id,
            COALESCE(a.name_en, t.area_name, '') as area_name,
            COUNT(*) as transaction_count,
            COALESCE(AVG(t.price), 0) as average_price,
            COALESCE(AVG(t.price / NULLIF(t.area, 0)), 0) as avg_price_per_sqft
        FROM transactions t
        LEFT JOIN areas a ON a.area_id = t.area_id
        WHERE t.area_id = ?
        GROUP BY t.area_id
    `
	var stats models.AreaStats
	err := d.db.QueryRow(query, areaID).Scan(
		&stats.AreaID,
		&stats.AreaName,
		&stats.TransactionCount,
		&stats.AveragePrice,
		&stats.AvgPricePerSqft,
	)
	return stats, err
}

func (d *Database) GetRecentSales(limit int) ([]models.Transaction, error) {
	query := `
        SELECT
            id, transaction_id, property_type, location,
            COALESCE(transaction_date, '') as transaction_date,
            price, area, developer_name, transaction_type,
            unit_number, building, project, floor,
            bedrooms, bathrooms, parking_spaces, unit_view,
            area_id, area_name, latitude, longitude,
            COALESCE(ingested_at, '') as ingested_at,
            COALESCE(created_at, '') as created_at
        FROM transactions
        WHERE transaction_type = 'sale'
        ORDER BY transaction_date DESC
        LIMIT ?
    `
	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// LoadAreas returns the whole areas lookup table.
func (d *Database) LoadAreas() ([]models.Area, error) {
	rows, err := d.db.Query(`
		SELECT area_id, name_en, name_ar, municipality_number,
		       COALESCE(sector_number, ''), COALESCE(community_number, '')
		FROM areas
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas: %v", err)
	}
	defer rows.Close()

	var areas []models.Area
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.AreaID, &a.NameEn, &a.NameAr, &a.MunicipalityNumber,
			&a.SectorNumber, &a.CommunityNumber); err != nil {
			return nil, fmt.Errorf("failed to scan area: %v", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// UpsertAreas replaces lookup rows keyed by area id.
func (d *Database) UpsertAreas(areas []models.Area) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO areas
		(area_id, name_en, name_ar, municipality_number, sector_number, community_number)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range areas {
		_, err = stmt.Exec(a.AreaID, a.NameEn, a.NameAr, a.MunicipalityNumber,
			a.SectorNumber, a.CommunityNumber)
		if err != nil {
			return fmt.Errorf("failed to insert area: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveQualityReport persists one run's quality report.
func (d *Database) SaveQualityReport(report models.QualityReport) error {
	improvements, err := json.Marshal(report.Improvements)
	if err != nil {
		return fmt.Errorf("failed to marshal improvements: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO quality_reports
		(run_id, source, total_rows, valid_rows, score, level,
		 completeness, consistency, validity, improvements, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID, report.Source, report.TotalRows, report.ValidRows,
		report.Score, string(report.Level), report.Completeness,
		report.Consistency, report.Validity, string(improvements),
		report.GeneratedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert quality report: %w", err)
	}
	return nil
}

func (d *Database) GetQualityReports(limit int) ([]models.QualityReport, error) {
	rows, err := d.db.Query(`
		SELECT run_id, source, total_rows, valid_rows, score, level,
		       completeness, consistency, validity, improvements, generated_at
		FROM quality_reports
		ORDER BY generated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query quality reports: %v", err)
	}
	defer rows.Close()

	var reports []models.QualityReport
	for rows.Next() {
		var r models.QualityReport
		var level, improvements, generatedAt string
		if err := rows.Scan(&r.RunID, &r.Source, &r.TotalRows, &r.ValidRows,
			&r.Score, &level, &r.Completeness, &r.Consistency, &r.Validity,
			&improvements, &generatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quality report: %v", err)
		}
		r.Level = models.QualityLevel(level)
		if err := json.Unmarshal([]byte(improvements), &r.Improvements); err != nil {
			r.Improvements = []string{}
		}
		if parsed, err := time.Parse(time.RFC3339, generatedAt); err == nil {
			r.GeneratedAt = parsed
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// SaveProcessingResult persists the per-source outcome of one run.
func (d *Database) SaveProcessingResult(result models.ProcessingResult) error {
	_, err := d.db.Exec(`
		INSERT INTO processing_results
		(run_id, source, success, stage, rows_processed, rows_inserted,
		 rows_failed, batches_failed, elapsed_ms, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID, result.Source, result.Success, result.Stage,
		result.RowsProcessed, result.RowsInserted, result.RowsFailed,
		result.BatchesFailed, result.Elapsed.Milliseconds(), result.Error,
		result.StartedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert processing result: %w", err)
	}
	return nil
}

func (d *Database) GetProcessingResults(limit int) ([]models.ProcessingResult, error) {
	rows, err := d.db.Query(`
		SELECT run_id, source, success, stage, rows_processed, rows_inserted,
		       rows_failed, batches_failed, elapsed_ms, COALESCE(error, ''), started_at
		FROM processing_results
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing results: %v", err)
	}
	defer rows.Close()

	var results []models.ProcessingResult
	for rows.Next() {
		var r models.ProcessingResult
		var elapsedMs int64
		var startedAt string
		if err := rows.Scan(&r.RunID, &r.Source, &r.Success, &r.Stage,
			&r.RowsProcessed, &r.RowsInserted, &r.RowsFailed, &r.BatchesFailed,
			&elapsedMs, &r.Error, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan processing result: %v", err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		if parsed, err := time.Parse(time.RFC3339, startedAt); err == nil {
			r.StartedAt = parsed
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
