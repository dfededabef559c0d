package parser

import (
	"strings"

	"propcalc/server/internal/models"
)

// typeRules map raw DLD type substrings to the fixed taxonomy. Matching is
// case-insensitive and first-match-wins in this order; "workshop" sits
// before "shop" so the longer match is not shadowed.
var typeRules = []struct {
	substr string
	result models.PropertyType
}{
	{"unit", models.PropertyTypeApartment},
	{"flat", models.PropertyTypeApartment},
	{"apartment", models.PropertyTypeApartment},
	{"villa", models.PropertyTypeVilla},
	{"townhouse", models.PropertyTypeVilla},
	{"land", models.PropertyTypeVilla},
	{"office", models.PropertyTypeOffice},
	{"warehouse", models.PropertyTypeIndustrial},
	{"industrial", models.PropertyTypeIndustrial},
	{"workshop", models.PropertyTypeIndustrial},
	{"retail", models.PropertyTypeRetail},
	{"shop", models.PropertyTypeRetail},
	{"showroom", models.PropertyTypeRetail},
	{"building", models.PropertyTypeMixed},
	{"mixed", models.PropertyTypeMixed},
}

// ClassifyPropertyType maps a raw property type string to the taxonomy.
// Unrecognized input falls through to Apartment, the most common category
// in the upstream data, matching how the upstream DLD feed labels
// unrecognized rows.
func ClassifyPropertyType(raw string) models.PropertyType {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range typeRules {
		if strings.Contains(lowered, rule.substr) {
			return rule.result
		}
	}
	return models.PropertyTypeApartment
}
