package geometry

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"
)

// AreaIndex holds community boundary polygons keyed by English area name.
// Boundaries come from a GeoJSON FeatureCollection exported from the
// municipality open-data portal; each feature carries a "name_en" property.
type AreaIndex struct {
	mu       sync.RWMutex
	features map[string]*geojson.Feature
	logger   *logrus.Logger
}

func NewAreaIndex(logger *logrus.Logger) *AreaIndex {
	if logger == nil {
		logger = logrus.New()
	}
	return &AreaIndex{
		features: make(map[string]*geojson.Feature),
		logger:   logger,
	}
}

// LoadFile reads a GeoJSON FeatureCollection of area boundaries.
func (idx *AreaIndex) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read boundary file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("failed to parse boundary file: %w", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	loaded := 0
	for _, feature := range fc.Features {
		name, ok := feature.Properties["name_en"].(string)
		if !ok || name == "" {
			continue
		}
		idx.features[normalizeName(name)] = feature
		loaded++
	}

	idx.logger.WithField("areas", loaded).Info("Loaded area boundaries")
	return nil
}

// Len reports how many boundaries are loaded.
func (idx *AreaIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.features)
}

// Centroid returns the centroid of an area's boundary, as (lat, lon).
func (idx *AreaIndex) Centroid(areaName string) (float64, float64, bool) {
	idx.mu.RLock()
	feature, ok := idx.features[normalizeName(areaName)]
	idx.mu.RUnlock()
	if !ok {
		return 0, 0, false
	}

	centroid, _ := planar.CentroidArea(feature.Geometry)
	return centroid.Lat(), centroid.Lon(), true
}

// Locate returns the name of the area containing the point, if any.
func (idx *AreaIndex) Locate(lat, lon float64) (string, bool) {
	point := orb.Point{lon, lat}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for name, feature := range idx.features {
		switch geom := feature.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(geom, point) {
				return name, true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(geom, point) {
				return name, true
			}
		}
	}
	return "", false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
