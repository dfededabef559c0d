package models

import "time"

// ProcessingResult is the per-source outcome of one ingestion run.
type ProcessingResult struct {
	RunID         string        `json:"run_id"`
	Source        string        `json:"source"`
	Success       bool          `json:"success"`
	Stage         string        `json:"stage"`
	RowsProcessed int           `json:"rows_processed"`
	RowsInserted  int           `json:"rows_inserted"`
	RowsFailed    int           `json:"rows_failed"`
	BatchesFailed int           `json:"batches_failed"`
	Elapsed       time.Duration `json:"elapsed"`
	Error         string        `json:"error,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
}

// QualityLevel is the qualitative bucket a quality score falls into.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityFair      QualityLevel = "fair"
	QualityPoor      QualityLevel = "poor"
)

// QualityLevelForScore maps a blended score to its level using fixed
// thresholds.
func QualityLevelForScore(score float64) QualityLevel {
	switch {
	case score >= 0.90:
		return QualityExcellent
	case score >= 0.75:
		return QualityGood
	case score >= 0.50:
		return QualityFair
	default:
		return QualityPoor
	}
}

// QualityReport summarizes how much of a parsed table passed validation and
// which improvement actions were applied. Produced once per run, read-only
// afterward; the improvement log is the only audit trail.
type QualityReport struct {
	RunID        string       `json:"run_id"`
	Source       string       `json:"source"`
	TotalRows    int          `json:"total_rows"`
	ValidRows    int          `json:"valid_rows"`
	Score        float64      `json:"score"`
	Level        QualityLevel `json:"level"`
	Completeness float64      `json:"completeness"`
	Consistency  float64      `json:"consistency"`
	Validity     float64      `json:"validity"`
	Improvements []string     `json:"improvements"`
	GeneratedAt  time.Time    `json:"generated_at"`
}
