// Package insight assembles the dashboard, chat, search and digest views
// on top of the scoring, pattern and alert engines.
package insight

import (
	"time"

	"github.com/recallhq/recall/pkg/memory"
)

// Stats summarizes a memory collection.
type Stats struct {
	Total            int                 `json:"total"`
	Reviewed         int                 `json:"reviewed"`
	Unreviewed       int                 `json:"unreviewed"`
	ReviewRate       float64             `json:"reviewRate"`
	ByType           map[memory.Type]int `json:"byType"`
	Quizzed          int                 `json:"quizzed"`
	AverageRetention *float64            `json:"averageRetention,omitempty"`
	DueThisWeek      int                 `json:"dueThisWeek"`
	AddedThisWeek    int                 `json:"addedThisWeek"`
}

const week = 7 * 24 * time.Hour

// ComputeStats counts records relative to now. DueThisWeek counts unreviewed
// records whose deadline falls within the next seven days.
func ComputeStats(records []*memory.Record, now time.Time) Stats {
	st := Stats{ByType: map[memory.Type]int{
		memory.TypeStudy:     0,
		memory.TypeInterview: 0,
		memory.TypeMeeting:   0,
		memory.TypePersonal:  0,
	}}
	sum := 0.0
	for _, r := range records {
		if r == nil {
			continue
		}
		st.Total++
		st.ByType[memory.ParseType(string(r.Metadata.Type))]++
		if r.Metadata.Reviewed {
			st.Reviewed++
		} else if d := r.Metadata.Deadline; d != nil && !d.Before(now) && d.Sub(now) <= week {
			st.DueThisWeek++
		}
		if v, ok := r.Retention(); ok {
			st.Quizzed++
			sum += v
		}
		if age := now.Sub(r.CreatedAt); age >= 0 && age <= week {
			st.AddedThisWeek++
		}
	}
	st.Unreviewed = st.Total - st.Reviewed
	if st.Total > 0 {
		st.ReviewRate = float64(st.Reviewed) / float64(st.Total)
	}
	if st.Quizzed > 0 {
		st.AverageRetention = memory.Float(sum / float64(st.Quizzed))
	}
	return st
}
