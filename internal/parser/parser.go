package parser

import (
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"propcalc/server/config"
	"propcalc/server/internal/models"
)

// Validation bounds for accepted transactions.
const (
	MinPrice = 100_000
	MaxPrice = 100_000_000
	MinArea  = 100
	MaxArea  = 50_000
)

// MinTransactionDate is the lower bound of the accepted date window; the
// upper bound is the wall clock at parse time.
var MinTransactionDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Rejection describes why a single row was excluded. Rejections are tallied
// in the quality report, never raised.
type Rejection struct {
	Row    int
	Reason string
}

// Parser converts raw CSV rows into validated transactions for one schema
// variant, resolving area foreign keys against the in-memory lookup table.
type Parser struct {
	variant config.SchemaVariant
	areas   *AreaTable
	logger  *logrus.Logger
	now     func() time.Time
}

func NewParser(variant config.SchemaVariant, areas *AreaTable, logger *logrus.Logger) *Parser {
	if logger == nil {
		logger = logrus.New()
	}
	if areas == nil {
		areas = NewAreaTable(nil)
	}
	return &Parser{
		variant: variant,
		areas:   areas,
		logger:  logger,
		now:     time.Now,
	}
}

// ParseRow converts one CSV row into a Transaction, or returns a Rejection
// naming the first rule the row failed.
func (p *Parser) ParseRow(rowNum int, row map[string]string) (*models.Transaction, *Rejection) {
	var txn *models.Transaction
	switch p.variant {
	case config.SchemaDLD:
		txn = p.fromDLDRow(row)
	case config.SchemaSimple:
		txn = p.fromSimpleRow(row)
	default:
		return nil, &Rejection{Row: rowNum, Reason: "unsupported schema variant: " + string(p.variant)}
	}

	if reason := p.validate(txn); reason != "" {
		return nil, &Rejection{Row: rowNum, Reason: reason}
	}

	txn.IngestedAt = p.now().UTC()
	return txn, nil
}

func (p *Parser) fromDLDRow(row map[string]string) *models.Transaction {
	txn := &models.Transaction{
		TransactionID: row["transaction_id"],
		Location:      row["area_name_en"],
		PropertyType:  ClassifyPropertyType(row["property_type_en"]),
		Project:       row["project_name_en"],
		Building:      row["building_name_en"],
		UnitNumber:    row["unit_number"],
		Floor:         row["floor"],
		View:          row["view"],
	}

	// The DLD feed has no dedicated developer column; the master project
	// name is the closest stable equivalent.
	txn.DeveloperName = row["master_project_en"]
	if txn.DeveloperName == "" {
		txn.DeveloperName = row["project_name_en"]
	}

	if date, ok := ParseDate(row["instance_date"]); ok {
		txn.TransactionDate = date
	}
	if price, ok := ParseAmount(row["actual_worth"]); ok {
		txn.Price = price
	}
	if area, ok := ParseAmount(row["procedure_area"]); ok {
		txn.Area = area
	}

	// Procedure 2 is a lease registration, everything else counts as a sale.
	if row["procedure_id"] == "2" {
		txn.TransactionType = "rent"
	} else {
		txn.TransactionType = "sale"
	}

	if id, err := strconv.ParseInt(row["area_id"], 10, 64); err == nil {
		txn.AreaID = &id
		txn.AreaName = p.areas.Resolve(id)
	}

	txn.Bedrooms = ParseRoomCount(row["rooms_en"])
	return txn
}

func (p *Parser) fromSimpleRow(row map[string]string) *models.Transaction {
	txn := &models.Transaction{
		TransactionID:   row["transaction_id"],
		Location:        row["location"],
		DeveloperName:   row["developer_name"],
		TransactionType: row["transaction_type"],
		PropertyType:    ClassifyPropertyType(row["property_type"]),
		UnitNumber:      row["unit_number"],
		Building:        row["building"],
		Project:         row["project"],
		Floor:           row["floor"],
		View:            row["view"],
	}

	if date, ok := ParseDate(row["transaction_date"]); ok {
		txn.TransactionDate = date
	}
	if price, ok := ParseAmount(row["price_aed"]); ok {
		txn.Price = price
	}
	if area, ok := ParseAmount(row["area_sqft"]); ok {
		txn.Area = area
	}

	txn.Bedrooms = ParseRoomCount(row["bedrooms"])
	txn.Bathrooms = ParseRoomCount(row["bathrooms"])
	txn.ParkingSpaces = ParseRoomCount(row["parking"])
	return txn
}

// validate applies the acceptance rules. It returns an empty string for a
// valid transaction, or the first failed rule.
func (p *Parser) validate(txn *models.Transaction) string {
	if txn.TransactionID == "" {
		return "missing transaction id"
	}
	if txn.Location == "" {
		return "missing location"
	}
	if txn.DeveloperName == "" {
		return "missing developer name"
	}
	if txn.Price <= 0 {
		return "price must be positive"
	}
	if txn.Area <= 0 {
		return "area must be positive"
	}
	if txn.Price < MinPrice || txn.Price > MaxPrice {
		return "price outside sanity bounds"
	}
	if txn.Area < MinArea || txn.Area > MaxArea {
		return "area outside sanity bounds"
	}
	if txn.TransactionDate.IsZero() {
		return "missing or unparseable date"
	}
	if txn.TransactionDate.Before(MinTransactionDate) {
		return "date before accepted window"
	}
	if txn.TransactionDate.After(p.now()) {
		return "date in the future"
	}
	return ""
}
