// Package patterns derives behavioral observations (timing, consistency,
// knowledge gaps, retention trend) from a user's memory collection.
package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/recallhq/recall/pkg/memory"
)

// Type classifies a pattern.
type Type string

const (
	TypeTime        Type = "time"
	TypePerformance Type = "performance"
	TypeConsistency Type = "consistency"
	TypeGap         Type = "gap"
	TypeHabit       Type = "habit"
)

// Keys identify each check. Two checks share TypePerformance.
const (
	KeyPeakTime       = "peak_time"
	KeyBestRetention  = "best_retention_time"
	KeyConsistency    = "consistency"
	KeyKnowledgeGap   = "knowledge_gap"
	KeyRetentionTrend = "retention_trend"
	KeyReviewHabit    = "review_habit"
)

// Trend labels.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

const (
	minStudyForPeak  = 5 // strictly more than this
	minSubjectSize   = 3
	gapReviewRateMax = 0.5
	trendWindow      = 30 * 24 * time.Hour
	habitWindow      = 7 * 24 * time.Hour
	weekDays         = 7
)

// Pattern is one derived observation.
type Pattern struct {
	Key         string         `json:"key"`
	Type        Type           `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Confidence  float64        `json:"confidence"`
	Data        map[string]any `json:"data,omitempty"`
}

// Detector runs every pattern check over a snapshot of records.
type Detector struct {
	now func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the time source. Its location defines calendar days and hours.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// NewDetector creates a Detector.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns every applicable pattern. Input records are not modified.
func (d *Detector) Detect(records []*memory.Record) []Pattern {
	now := d.now()
	var out []Pattern

	peak, peakOK := peakTime(records, now.Location())
	if peakOK {
		out = append(out, peak.pattern)
		if best, ok := bestRetentionTime(peak); ok {
			out = append(out, best)
		}
	}
	if p, ok := consistency(records, now); ok {
		out = append(out, p)
	}
	if p, ok := knowledgeGap(records); ok {
		out = append(out, p)
	}
	if p, ok := retentionTrend(records, now); ok {
		out = append(out, p)
	}
	if p, ok := reviewHabit(records, now); ok {
		out = append(out, p)
	}

	for i := range out {
		out[i].Confidence = clamp01(out[i].Confidence)
	}
	return out
}

// peakResult carries the study buckets forward to the best-retention check.
type peakResult struct {
	pattern Pattern
	hour    int
	byHour  map[int][]*memory.Record
}

func peakTime(records []*memory.Record, loc *time.Location) (peakResult, bool) {
	byHour := make(map[int][]*memory.Record)
	total := 0
	for _, r := range records {
		if r == nil || memory.ParseType(string(r.Metadata.Type)) != memory.TypeStudy {
			continue
		}
		h := r.CreatedAt.In(loc).Hour()
		byHour[h] = append(byHour[h], r)
		total++
	}
	if total <= minStudyForPeak {
		return peakResult{}, false
	}

	hour, count := -1, 0
	for h := 0; h < 24; h++ {
		if n := len(byHour[h]); n > count {
			hour, count = h, n
		}
	}

	window := hourWindow(hour)
	desc := fmt.Sprintf("You capture most study notes between %s (%d of %d).", window, count, total)
	data := map[string]any{
		"hour":   hour,
		"window": window,
		"count":  count,
		"total":  total,
	}
	if avg, n := meanRetention(byHour[hour]); n > 0 {
		desc += fmt.Sprintf(" Average retention in that window: %s.", percent(avg))
		data["avgRetention"] = avg
	}

	return peakResult{
		pattern: Pattern{
			Key:         KeyPeakTime,
			Type:        TypeTime,
			Title:       "Peak productivity time",
			Description: desc,
			Confidence:  math.Min(0.9, 2*float64(count)/float64(total)),
			Data:        data,
		},
		hour:   hour,
		byHour: byHour,
	}, true
}

func bestRetentionTime(peak peakResult) (Pattern, bool) {
	bestHour, bestAvg, bestN := -1, -1.0, 0
	for h := 0; h < 24; h++ {
		avg, n := meanRetention(peak.byHour[h])
		if n == 0 {
			continue
		}
		if avg > bestAvg {
			bestHour, bestAvg, bestN = h, avg, n
		}
	}
	if bestHour < 0 || bestHour == peak.hour {
		return Pattern{}, false
	}

	window := hourWindow(bestHour)
	return Pattern{
		Key:   KeyBestRetention,
		Type:  TypePerformance,
		Title: "Best retention time",
		Description: fmt.Sprintf("Notes taken between %s stick best (%s average retention across %d quizzed notes).",
			window, percent(bestAvg), bestN),
		Confidence: math.Min(0.85, float64(bestN)/5),
		Data: map[string]any{
			"hour":         bestHour,
			"window":       window,
			"avgRetention": bestAvg,
			"scored":       bestN,
		},
	}, true
}

func consistency(records []*memory.Record, now time.Time) (Pattern, bool) {
	active := make(map[string]bool)
	for _, r := range records {
		if r != nil {
			active[dayKey(r.CreatedAt, now.Location())] = true
		}
	}
	if len(active) == 0 {
		return Pattern{}, false
	}

	today := startOfDay(now)
	activeDays := 0
	for i := 0; i < weekDays; i++ {
		if active[dayKey(today.AddDate(0, 0, -i), now.Location())] {
			activeDays++
		}
	}

	streak := 0
	for day := today; active[dayKey(day, now.Location())]; day = day.AddDate(0, 0, -1) {
		streak++
	}

	desc := fmt.Sprintf("Active %d/7 days this week", activeDays)
	if streak > 1 {
		desc += fmt.Sprintf(" • %d day streak 🔥", streak)
	}
	return Pattern{
		Key:         KeyConsistency,
		Type:        TypeConsistency,
		Title:       "Weekly activity",
		Description: desc,
		Confidence:  float64(activeDays) / weekDays,
		Data: map[string]any{
			"activeDays": activeDays,
			"streak":     streak,
		},
	}, true
}

type subjectStats struct {
	name         string
	total        int
	reviewed     int
	reviewRate   float64
	avgRetention float64
	score        float64
}

func knowledgeGap(records []*memory.Record) (Pattern, bool) {
	groups := make(map[string][]*memory.Record)
	names := make(map[string]string)
	for _, r := range records {
		if r == nil {
			continue
		}
		subject := strings.TrimSpace(r.Metadata.Subject)
		if subject == "" {
			continue
		}
		key := strings.ToLower(subject)
		if _, ok := names[key]; !ok {
			names[key] = subject
		}
		groups[key] = append(groups[key], r)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var stats []subjectStats
	for _, k := range keys {
		group := groups[k]
		if len(group) < minSubjectSize {
			continue
		}
		st := subjectStats{name: names[k], total: len(group)}
		sum, scored := 0.0, 0
		for _, r := range group {
			if r.Metadata.Reviewed {
				st.reviewed++
			}
			if v, ok := r.Retention(); ok {
				sum += v
				scored++
			}
		}
		st.reviewRate = float64(st.reviewed) / float64(st.total)
		st.avgRetention = sum / float64(max(1, scored))
		st.score = 0.5*st.reviewRate + 0.5*st.avgRetention
		stats = append(stats, st)
	}
	if len(stats) == 0 {
		return Pattern{}, false
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].score < stats[j].score })
	worst := stats[0]
	if worst.reviewRate >= gapReviewRateMax {
		return Pattern{}, false
	}

	return Pattern{
		Key:   KeyKnowledgeGap,
		Type:  TypeGap,
		Title: "Knowledge gap: " + worst.name,
		Description: fmt.Sprintf("Only %d of %d %s notes reviewed (%s), average retention %s.",
			worst.reviewed, worst.total, worst.name, percent(worst.reviewRate), percent(worst.avgRetention)),
		Confidence: 0.8,
		Data: map[string]any{
			"subject":      worst.name,
			"total":        worst.total,
			"reviewed":     worst.reviewed,
			"reviewRate":   worst.reviewRate,
			"avgRetention": worst.avgRetention,
		},
	}, true
}

func retentionTrend(records []*memory.Record, now time.Time) (Pattern, bool) {
	var all, recent []*memory.Record
	for _, r := range records {
		if r == nil || !r.Metadata.Reviewed || !r.HasRetention() {
			continue
		}
		all = append(all, r)
		if now.Sub(r.UpdatedAt) <= trendWindow {
			recent = append(recent, r)
		}
	}
	if len(all) == 0 {
		return Pattern{}, false
	}

	overall, _ := meanRetention(all)
	trend := TrendStable
	recentAvg, n := meanRetention(recent)
	if n > 0 {
		switch {
		case recentAvg > overall:
			trend = TrendImproving
		case recentAvg < overall:
			trend = TrendDeclining
		}
	}

	desc := fmt.Sprintf("Overall retention is %s across %d reviewed notes.", percent(overall), len(all))
	data := map[string]any{
		"trend":   trend,
		"overall": overall,
		"scored":  len(all),
	}
	if n > 0 {
		desc += fmt.Sprintf(" Last 30 days: %s.", percent(recentAvg))
		data["recent"] = recentAvg
	}
	return Pattern{
		Key:         KeyRetentionTrend,
		Type:        TypePerformance,
		Title:       "Retention " + trend,
		Description: desc,
		Confidence:  math.Min(0.95, float64(len(all))/10),
		Data:        data,
	}, true
}

func reviewHabit(records []*memory.Record, now time.Time) (Pattern, bool) {
	count := 0
	for _, r := range records {
		if r == nil || r.Metadata.LastReviewed == nil {
			continue
		}
		age := now.Sub(*r.Metadata.LastReviewed)
		if age >= 0 && age <= habitWindow {
			count++
		}
	}
	if count == 0 {
		return Pattern{}, false
	}
	noun := "notes"
	if count == 1 {
		noun = "note"
	}
	return Pattern{
		Key:         KeyReviewHabit,
		Type:        TypeHabit,
		Title:       "Review habit",
		Description: fmt.Sprintf("You reviewed %d %s in the last 7 days.", count, noun),
		Confidence:  0.7,
		Data:        map[string]any{"reviewedThisWeek": count},
	}, true
}

func meanRetention(records []*memory.Record) (float64, int) {
	sum, n := 0.0, 0
	for _, r := range records {
		if v, ok := r.Retention(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// hourWindow formats the two-hour window starting at h, e.g. "23:00-01:00 (next day)".
func hourWindow(h int) string {
	end := h + 2
	if end >= 24 {
		return fmt.Sprintf("%02d:00-%02d:00 (next day)", h, end-24)
	}
	return fmt.Sprintf("%02d:00-%02d:00", h, end)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
