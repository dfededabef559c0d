package quality

import (
	"time"

	"github.com/sirupsen/logrus"

	"propcalc/server/internal/models"
)

// Weights blend the three quality dimensions into one score.
type Weights struct {
	Completeness float64
	Consistency  float64
	Validity     float64
}

// DefaultWeights favors completeness, the dimension the DLD feeds fail most.
var DefaultWeights = Weights{Completeness: 0.4, Consistency: 0.3, Validity: 0.3}

// Scorer computes blended quality scores over full tables. Rows are
// processed in fixed-size chunks purely to bound memory and runtime per
// step; the chunked result is identical to scoring the table at once.
type Scorer struct {
	weights   Weights
	chunkSize int
	logger    *logrus.Logger
}

func NewScorer(weights Weights, chunkSize int, logger *logrus.Logger) *Scorer {
	if logger == nil {
		logger = logrus.New()
	}
	if chunkSize <= 0 {
		chunkSize = 5000
	}
	return &Scorer{
		weights:   weights,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// columnTally accumulates per-column counts across chunks.
type columnTally struct {
	nulls      int
	kindCounts map[ColumnKind]int
	matched    map[ColumnKind]int
}

// Score computes the blended quality score of a table. An empty table
// scores 0; a table with no nulls, no mixed columns, and all-valid cells
// scores 1. The result is always within [0, 1].
func (s *Scorer) Score(table *Table) (float64, float64, float64, float64) {
	rows := table.RowCount()
	cols := table.ColumnCount()
	if rows == 0 || cols == 0 {
		return 0, 0, 0, 0
	}

	tallies := make([]columnTally, cols)
	for i := range tallies {
		tallies[i] = columnTally{
			kindCounts: make(map[ColumnKind]int),
			matched:    make(map[ColumnKind]int),
		}
	}

	for start := 0; start < rows; start += s.chunkSize {
		end := start + s.chunkSize
		if end > rows {
			end = rows
		}
		s.tallyChunk(table, start, end, tallies)
	}

	completeness := s.completeness(tallies, rows)
	consistency := s.consistency(tallies)
	validity := s.validity(tallies, rows)

	score := s.weights.Completeness*completeness +
		s.weights.Consistency*consistency +
		s.weights.Validity*validity
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, completeness, consistency, validity
}

func (s *Scorer) tallyChunk(table *Table, start, end int, tallies []columnTally) {
	for row := start; row < end; row++ {
		for col := range tallies {
			cell := table.Cell(row, col)
			if cell == "" {
				tallies[col].nulls++
				continue
			}
			tallies[col].kindCounts[cellKind(cell)]++
			for _, kind := range []ColumnKind{KindString, KindNumeric, KindDate, KindEmail, KindPhone} {
				if matchesKind(cell, kind) {
					tallies[col].matched[kind]++
				}
			}
		}
	}
}

// completeness is the non-null ratio over every cell of the table.
func (s *Scorer) completeness(tallies []columnTally, rows int) float64 {
	total := rows * len(tallies)
	nulls := 0
	for _, t := range tallies {
		nulls += t.nulls
	}
	return float64(total-nulls) / float64(total)
}

// consistency is the proportion of columns whose non-null cells all share a
// single kind. An all-null column is vacuously consistent.
func (s *Scorer) consistency(tallies []columnTally) float64 {
	consistent := 0
	for _, t := range tallies {
		if len(t.kindCounts) <= 1 {
			consistent++
		}
	}
	return float64(consistent) / float64(len(tallies))
}

// validity is the proportion of non-null cells well-formed for their
// column's dominant kind. A table with no non-null cells counts as fully
// valid so that the completeness dimension alone carries the penalty.
func (s *Scorer) validity(tallies []columnTally, rows int) float64 {
	nonNull := 0
	wellFormed := 0
	for _, t := range tallies {
		kind := dominantKind(t.kindCounts)
		nonNull += rows - t.nulls
		wellFormed += t.matched[kind]
	}
	if nonNull == 0 {
		return 1
	}
	return float64(wellFormed) / float64(nonNull)
}

func dominantKind(counts map[ColumnKind]int) ColumnKind {
	best := KindString
	bestCount := 0
	for kind, count := range counts {
		if count > bestCount {
			best = kind
			bestCount = count
		}
	}
	return best
}

// Report builds a full quality report for one ingestion run.
func (s *Scorer) Report(runID, source string, table *Table, validRows int, improvements []string) models.QualityReport {
	score, completeness, consistency, validity := s.Score(table)
	if improvements == nil {
		improvements = []string{}
	}
	return models.QualityReport{
		RunID:        runID,
		Source:       source,
		TotalRows:    table.RowCount(),
		ValidRows:    validRows,
		Score:        score,
		Level:        models.QualityLevelForScore(score),
		Completeness: completeness,
		Consistency:  consistency,
		Validity:     validity,
		Improvements: improvements,
		GeneratedAt:  time.Now().UTC(),
	}
}
