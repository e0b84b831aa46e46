// Package analytics derives read-only summary figures from a user's progress
// record and test history. It never mutates either input.
package analytics

import (
	"github.com/medqbank/qbank/internal/progress"
	"github.com/medqbank/qbank/internal/session"
)

const trendLen = 10

type Summary struct {
	Total           int       `json:"total"`
	Unused          int       `json:"unused"`
	Correct         int       `json:"correct"`
	Incorrect       int       `json:"incorrect"`
	Marked          int       `json:"marked"`
	UsagePercent    float64   `json:"usage_percent"`
	AccuracyPercent float64   `json:"accuracy_percent"`
	// RecentScoreTrend holds the last completed test scores as percentages,
	// newest first.
	RecentScoreTrend []float64 `json:"recent_score_trend"`
}

// Summarize computes a user's aggregate view. total is the size of the loaded
// question bank. Every ratio degrades to 0 rather than dividing by zero.
func Summarize(p progress.Progress, history []session.Summary, total int) Summary {
	s := Summary{
		Total:            total,
		Unused:           total - len(p.Used),
		Correct:          len(p.Correct),
		Incorrect:        len(p.Incorrect),
		Marked:           len(p.Marked),
		RecentScoreTrend: []float64{},
	}
	if s.Unused < 0 {
		s.Unused = 0
	}
	if total > 0 {
		s.UsagePercent = float64(len(p.Used)) / float64(total) * 100
	}
	if attempted := len(p.Correct) + len(p.Incorrect); attempted > 0 {
		s.AccuracyPercent = float64(len(p.Correct)) / float64(attempted) * 100
	}
	for _, h := range history {
		if !h.Completed || h.QuestionCount == 0 {
			continue
		}
		s.RecentScoreTrend = append(s.RecentScoreTrend,
			float64(h.Score)/float64(h.QuestionCount)*100)
		if len(s.RecentScoreTrend) == trendLen {
			break
		}
	}
	return s
}
