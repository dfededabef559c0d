package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"propcalc/server/internal/models"
)

func newTestScorer(chunkSize int) *Scorer {
	return NewScorer(DefaultWeights, chunkSize, nil)
}

func TestScore_EmptyTable(t *testing.T) {
	scorer := newTestScorer(0)

	score, completeness, consistency, validity := scorer.Score(NewTable(nil, nil))
	assert.Zero(t, score)
	assert.Zero(t, completeness)
	assert.Zero(t, consistency)
	assert.Zero(t, validity)

	score, _, _, _ = scorer.Score(NewTable([]string{"a", "b"}, nil))
	assert.Zero(t, score)
}

func TestScore_PerfectTable(t *testing.T) {
	scorer := newTestScorer(0)
	table := NewTable(
		[]string{"id", "price", "date"},
		[][]string{
			{"T001", "1000000", "2024-03-15"},
			{"T002", "2500000", "2024-03-16"},
		},
	)

	score, completeness, consistency, validity := scorer.Score(table)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 1.0, completeness)
	assert.Equal(t, 1.0, consistency)
	assert.Equal(t, 1.0, validity)
}

func TestScore_PenalizesNulls(t *testing.T) {
	scorer := newTestScorer(0)
	table := NewTable(
		[]string{"id", "price"},
		[][]string{
			{"T001", "1000000"},
			{"T002", ""},
		},
	)

	score, completeness, consistency, validity := scorer.Score(table)
	assert.Equal(t, 0.75, completeness)
	assert.Equal(t, 1.0, consistency)
	assert.Equal(t, 1.0, validity)
	assert.InDelta(t, 0.4*0.75+0.3+0.3, score, 1e-9)
}

func TestScore_PenalizesMixedColumns(t *testing.T) {
	scorer := newTestScorer(0)
	table := NewTable(
		[]string{"id", "price"},
		[][]string{
			{"T001", "1000000"},
			{"T002", "2500000"},
			{"T003", "eine million"},
		},
	)

	_, _, consistency, validity := scorer.Score(table)
	// The price column mixes numeric and string cells.
	assert.Equal(t, 0.5, consistency)
	// One of its three cells fails the dominant numeric kind.
	assert.InDelta(t, 5.0/6.0, validity, 1e-9)
}

func TestScore_AllNullColumnIsConsistent(t *testing.T) {
	scorer := newTestScorer(0)
	table := NewTable(
		[]string{"id", "empty"},
		[][]string{
			{"T001", ""},
			{"T002", ""},
		},
	)

	_, completeness, consistency, validity := scorer.Score(table)
	assert.Equal(t, 0.5, completeness)
	assert.Equal(t, 1.0, consistency)
	assert.Equal(t, 1.0, validity)
}

func TestScore_WithinBounds(t *testing.T) {
	scorer := newTestScorer(0)
	table := NewTable(
		[]string{"a", "b", "c"},
		[][]string{
			{"", "", ""},
			{"x", "12", "bad@"},
			{"", "y", "a@b.com"},
		},
	)

	score, _, _, _ := scorer.Score(table)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestScore_ChunkSizeInvariant(t *testing.T) {
	rows := make([][]string, 250)
	for i := range rows {
		price := fmt.Sprintf("%d", 1000000+i)
		date := "2024-03-15"
		if i%7 == 0 {
			price = ""
		}
		if i%11 == 0 {
			date = "soon"
		}
		rows[i] = []string{fmt.Sprintf("T%03d", i), price, date}
	}
	table := NewTable([]string{"id", "price", "date"}, rows)

	whole, wc, wk, wv := newTestScorer(10000).Score(table)
	for _, chunkSize := range []int{1, 3, 7, 100, 249, 250} {
		score, completeness, consistency, validity := newTestScorer(chunkSize).Score(table)
		assert.Equal(t, whole, score, "chunk size %d", chunkSize)
		assert.Equal(t, wc, completeness)
		assert.Equal(t, wk, consistency)
		assert.Equal(t, wv, validity)
	}
}

func TestReport(t *testing.T) {
	scorer := newTestScorer(0)
	table := NewTable(
		[]string{"id", "price"},
		[][]string{{"T001", "1000000"}},
	)

	report := scorer.Report("run-1", "dld-transactions", table, 1, nil)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "dld-transactions", report.Source)
	assert.Equal(t, 1, report.TotalRows)
	assert.Equal(t, 1, report.ValidRows)
	assert.Equal(t, 1.0, report.Score)
	assert.Equal(t, models.QualityExcellent, report.Level)
	assert.NotNil(t, report.Improvements)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestQualityLevelThresholds(t *testing.T) {
	tests := []struct {
		score    float64
		expected models.QualityLevel
	}{
		{1.0, models.QualityExcellent},
		{0.90, models.QualityExcellent},
		{0.899, models.QualityGood},
		{0.75, models.QualityGood},
		{0.749, models.QualityFair},
		{0.50, models.QualityFair},
		{0.499, models.QualityPoor},
		{0.0, models.QualityPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, models.QualityLevelForScore(tt.score), "score %v", tt.score)
	}
}
