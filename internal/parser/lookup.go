package parser

import (
	"strconv"

	"propcalc/server/internal/models"
)

// AreaTable holds the area lookup entities for one ingestion run. It is
// bulk-loaded before row parsing begins and discarded with the run.
type AreaTable struct {
	byID map[int64]models.Area
}

func NewAreaTable(areas []models.Area) *AreaTable {
	byID := make(map[int64]models.Area, len(areas))
	for _, a := range areas {
		byID[a.AreaID] = a
	}
	return &AreaTable{byID: byID}
}

// Resolve returns the English name for an area id. An absent id yields an
// empty name, never a rejection.
func (t *AreaTable) Resolve(id int64) string {
	if a, ok := t.byID[id]; ok {
		return a.NameEn
	}
	return ""
}

func (t *AreaTable) Len() int {
	return len(t.byID)
}

// ParseAreaRow converts one areas-CSV row into an Area entity.
func ParseAreaRow(row map[string]string) (models.Area, bool) {
	id, err := strconv.ParseInt(row["area_id"], 10, 64)
	if err != nil {
		return models.Area{}, false
	}
	return models.Area{
		AreaID:             id,
		NameEn:             row["name_en"],
		NameAr:             row["name_ar"],
		MunicipalityNumber: row["municipality_number"],
		SectorNumber:       row["sector_number"],
		CommunityNumber:    row["community_number"],
	}, true
}
