// Package storage provides scan statistics storage.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures

package storage

import (
	"context"
	"time"
)

// ScanRecord is the outcome of one monitoring pass.
type ScanRecord struct {
	ID          string
	Cycle       int
	StartedAt   time.Time
	CompletedAt time.Time
	Suppliers   int
	Safe        int
	Critical    int
	Skipped     int
	Suppressed  int
	AvgRisk     float64
	// Scores holds every assessment score produced in the pass, in order.
	Scores []float64
}

// ScanSummary aggregates every stored record.
type ScanSummary struct {
	Scans         int
	TotalScanned  int
	TotalCritical int
	// AvgRisk is the mean of every recorded score, not of per-scan averages.
	AvgRisk  float64
	LastScan time.Time
}

// ScanStorage defines the interface for storing scan statistics.
type ScanStorage interface {
	// SaveScan stores one record. Saving an existing ID replaces it.
	SaveScan(ctx context.Context, rec ScanRecord) error

	// RecentScans returns up to limit records, newest first.
	// A non-positive limit returns every record.
	RecentScans(ctx context.Context, limit int) ([]ScanRecord, error)

	// Summary aggregates all records. An empty store yields a zero summary.
	Summary(ctx context.Context) (ScanSummary, error)

	// Reset removes every record.
	Reset(ctx context.Context) error
}

// AverageRisk returns the mean of scores, or 0 for none.
func AverageRisk(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
