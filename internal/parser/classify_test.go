package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"propcalc/server/internal/models"
)

func TestClassifyPropertyType(t *testing.T) {
	tests := []struct {
		input    string
		expected models.PropertyType
	}{
		{"Unit", models.PropertyTypeApartment},
		{"Flat", models.PropertyTypeApartment},
		{"Residential Apartment", models.PropertyTypeApartment},
		{"Villa", models.PropertyTypeVilla},
		{"Townhouse", models.PropertyTypeVilla},
		{"Land", models.PropertyTypeVilla},
		{"Office Space", models.PropertyTypeOffice},
		{"Retail", models.PropertyTypeRetail},
		{"Shop", models.PropertyTypeRetail},
		{"Showroom", models.PropertyTypeRetail},
		{"Warehouse", models.PropertyTypeIndustrial},
		{"Industrial Plot", models.PropertyTypeIndustrial},
		{"Workshop", models.PropertyTypeIndustrial},
		{"Whole Building", models.PropertyTypeMixed},
		{"Mixed Use", models.PropertyTypeMixed},
		// Unrecognized types fall through to the most common category.
		{"", models.PropertyTypeApartment},
		{"Gibberish", models.PropertyTypeApartment},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPropertyType(tt.input))
		})
	}
}

func TestClassifyPropertyType_CaseInsensitive(t *testing.T) {
	assert.Equal(t, models.PropertyTypeVilla, ClassifyPropertyType("VILLA"))
	assert.Equal(t, models.PropertyTypeOffice, ClassifyPropertyType("oFfIcE"))
}
