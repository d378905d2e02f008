package model

import (
	"sort"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/quality"
)

// RecentLimit is how many entries Stats.RecentOperations holds.
const RecentLimit = 5

// NewStats summarises history. The success rate is a percentage rounded to two
// decimals and zero for an empty history.
func NewStats(history []History) Stats {
	stats := Stats{TotalOperations: len(history), RecentOperations: []History{}}
	for _, h := range history {
		if h.Success {
			stats.SuccessfulOperations++
		}
	}
	if stats.TotalOperations > 0 {
		rate := float64(stats.SuccessfulOperations) / float64(stats.TotalOperations) * 100
		stats.SuccessRate = quality.Round(rate, 2)
	}

	recent := make([]History, len(history))
	copy(recent, history)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	stats.RecentOperations = append(stats.RecentOperations, recent...)
	return stats
}
