package domain

import "time"

// RunReport summarises one ingestion run.
type RunReport struct {
	RunID      string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time

	// Files is the number of regular, non-hidden files seen.
	Files int
	// Processed counts files that produced at least one record.
	Processed int
	// Unchanged counts files skipped by the skip-unchanged pre-check.
	Unchanged int
	// Failed counts files that were unreadable, unsupported or empty.
	Failed int
	// Records counts records upserted.
	Records int
	// Rejected counts records that failed the record contract.
	Rejected int
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
