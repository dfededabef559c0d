package models

import "time"

// PropertyType is the fixed taxonomy every raw DLD type string is mapped into.
type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "Apartment"
	PropertyTypeVilla      PropertyType = "Villa"
	PropertyTypeOffice     PropertyType = "Office"
	PropertyTypeRetail     PropertyType = "Retail"
	PropertyTypeIndustrial PropertyType = "Industrial"
	PropertyTypeMixed      PropertyType = "Mixed"
	PropertyTypeUnknown    PropertyType = "Unknown"
)

// Transaction is a single real-estate sale or lease event. It is built by the
// parser from one CSV row and immutable after validation. TransactionID is the
// natural key; persistence is insert-or-ignore on it.
type Transaction struct {
	ID              int64        `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID   string       `json:"transaction_id" gorm:"column:transaction_id;uniqueIndex"`
	PropertyType    PropertyType `json:"property_type"`
	Location        string       `json:"location"`
	TransactionDate time.Time    `json:"transaction_date"`
	Price           float64      `json:"price"`
	Area            float64      `json:"area"`
	DeveloperName   string       `json:"developer_name"`
	TransactionType string       `json:"transaction_type"`
	UnitNumber      string       `json:"unit_number,omitempty"`
	Building        string       `json:"building,omitempty"`
	Project         string       `json:"project,omitempty"`
	Floor           string       `json:"floor,omitempty"`
	Bedrooms        *int         `json:"bedrooms"`
	Bathrooms       *int         `json:"bathrooms"`
	ParkingSpaces   *int         `json:"parking_spaces"`
	View            string       `json:"view,omitempty" gorm:"column:unit_view"`
	AreaID          *int64       `json:"area_id"`
	AreaName        string       `json:"area_name,omitempty"`
	Latitude        *float64     `json:"latitude"`
	Longitude       *float64     `json:"longitude"`
	IngestedAt      time.Time    `json:"ingested_at"`
	CreatedAt       time.Time    `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Area is a geographic reference row used to resolve foreign keys while
// parsing. The whole table is bulk-loaded at the start of an ingestion run
// and held in memory for its duration.
type Area struct {
	AreaID             int64  `json:"area_id" gorm:"column:area_id;primaryKey"`
	NameEn             string `json:"name_en"`
	NameAr             string `json:"name_ar"`
	MunicipalityNumber string `json:"municipality_number"`
	SectorNumber       string `json:"sector_number,omitempty"`
	CommunityNumber    string `json:"community_number,omitempty"`
}

func (Area) TableName() string {
	return "areas"
}

type TransactionStats struct {
	TotalTransactions int     `json:"total_transactions"`
	AveragePrice      float64 `json:"average_price"`
	MedianPrice       float64 `json:"median_price"`
	PricePerSqft      float64 `json:"price_per_sqft"`
	TotalSales        int     `json:"total_sales"`
	TotalRentals      int     `json:"total_rentals"`
}

type AreaStats struct {
	AreaID           int64   `json:"area_id"`
	AreaName         string  `json:"area_name"`
	TransactionCount int     `json:"transaction_count"`
	AveragePrice     float64 `json:"average_price"`
	AvgPricePerSqft  float64 `json:"avg_price_per_sqft"`
}
