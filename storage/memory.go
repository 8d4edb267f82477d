// Package storage provides in-memory scan storage.
//
// Information Hiding:
// - Slice storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral runs

package storage

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStorage implements ScanStorage using an in-memory slice.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu    sync.RWMutex
	scans []ScanRecord
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

// SaveScan stores one record.
func (s *InMemoryStorage) SaveScan(ctx context.Context, rec ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy scores to avoid external mutations
	rec.Scores = append([]float64(nil), rec.Scores...)
	for i := range s.scans {
		if s.scans[i].ID == rec.ID {
			s.scans[i] = rec
			return nil
		}
	}
	s.scans = append(s.scans, rec)
	return nil
}

// RecentScans returns up to limit records, newest first.
func (s *InMemoryStorage) RecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ScanRecord, len(s.scans))
	for i, rec := range s.scans {
		rec.Scores = append([]float64(nil), rec.Scores...)
		out[i] = rec
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Summary aggregates all records.
func (s *InMemoryStorage) Summary(ctx context.Context) (ScanSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum ScanSummary
	var scores []float64
	for _, rec := range s.scans {
		sum.Scans++
		sum.TotalScanned += rec.Suppliers
		sum.TotalCritical += rec.Critical
		scores = append(scores, rec.Scores...)
		if rec.CompletedAt.After(sum.LastScan) {
			sum.LastScan = rec.CompletedAt
		}
	}
	sum.AvgRisk = AverageRisk(scores)
	return sum, nil
}

// Reset removes every record.
func (s *InMemoryStorage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = nil
	return nil
}

// Verify InMemoryStorage implements ScanStorage
var _ ScanStorage = (*InMemoryStorage)(nil)
