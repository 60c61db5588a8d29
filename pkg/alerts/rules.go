// Package alerts turns a memory collection into a short, prioritized list of
// actionable notices. Rules is deterministic; Coach asks a generator for
// phrasing and falls back to Rules on any failure.
package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/recallhq/recall/pkg/memory"
)

// Type is the severity of an alert.
type Type string

const (
	TypeUrgent  Type = "urgent"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// ParseType maps raw values onto the closed set; unknown values become TypeInfo.
func ParseType(s string) Type {
	switch Type(s) {
	case TypeUrgent, TypeWarning:
		return Type(s)
	default:
		return TypeInfo
	}
}

// Rule alert ids.
const (
	IDDeadlineToday    = "deadline-today"
	IDDeadlineUpcoming = "deadline-upcoming"
	IDHighPriority     = "high-priority"
	IDStaleBacklog     = "stale-backlog"
	IDAllReviewed      = "all-reviewed"
)

// Alert is one actionable notice.
type Alert struct {
	ID        string   `json:"id"`
	Type      Type     `json:"type"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	MemoryIDs []string `json:"memoryIds"`
	Priority  int      `json:"priority"`
	Action    string   `json:"action,omitempty"`
}

// Thresholds tune the rule engine.
type Thresholds struct {
	// StaleDays is the age in days after which an unreviewed memory is stale.
	StaleDays int
	// StaleBacklogMin is the minimum number of stale memories worth an alert.
	StaleBacklogMin int
	// UpcomingDays is the horizon for upcoming deadlines.
	UpcomingDays int
	// MaxAlerts caps the output length.
	MaxAlerts int
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StaleDays:       7,
		StaleBacklogMin: 5,
		UpcomingDays:    3,
		MaxAlerts:       5,
	}
}

const staleListMax = 5

// Rules is the deterministic alert generator.
type Rules struct {
	now        func() time.Time
	thresholds Thresholds
}

// RulesOption configures Rules.
type RulesOption func(*Rules)

// WithClock sets the time source. Its location defines "today".
func WithClock(now func() time.Time) RulesOption {
	return func(r *Rules) { r.now = now }
}

// WithThresholds overrides the defaults. Zero fields keep their default.
func WithThresholds(t Thresholds) RulesOption {
	return func(r *Rules) {
		d := DefaultThresholds()
		if t.StaleDays > 0 {
			d.StaleDays = t.StaleDays
		}
		if t.StaleBacklogMin > 0 {
			d.StaleBacklogMin = t.StaleBacklogMin
		}
		if t.UpcomingDays > 0 {
			d.UpcomingDays = t.UpcomingDays
		}
		if t.MaxAlerts > 0 {
			d.MaxAlerts = t.MaxAlerts
		}
		r.thresholds = d
	}
}

// NewRules creates a rule engine.
func NewRules(opts ...RulesOption) *Rules {
	r := &Rules{now: time.Now, thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate evaluates every rule. Each memory lands in at most one urgent or
// warning category, checked in order: deadline today, upcoming deadline,
// high priority. The informational stale backlog counts every old unreviewed
// memory regardless. Output is sorted by priority descending and capped.
func (r *Rules) Generate(records []*memory.Record) []Alert {
	now := r.now()

	if allReviewed(records) {
		return []Alert{caughtUp(len(records))}
	}

	var today, upcoming, high, stale []*memory.Record
	for _, m := range records {
		if m == nil || m.Metadata.Reviewed {
			continue
		}
		days, hasDeadline := r.daysUntilDeadline(m, now)
		switch {
		case hasDeadline && days == 0:
			today = append(today, m)
		case hasDeadline && days > 0 && days <= r.thresholds.UpcomingDays:
			upcoming = append(upcoming, m)
		case memory.ParsePriority(string(m.Metadata.Priority)) == memory.PriorityHigh:
			high = append(high, m)
		}
		if daysOld(m.CreatedAt, now) > r.thresholds.StaleDays {
			stale = append(stale, m)
		}
	}

	out := []Alert{}
	if len(today) > 0 {
		out = append(out, Alert{
			ID:        IDDeadlineToday,
			Type:      TypeUrgent,
			Title:     "Due today",
			Message:   fmt.Sprintf("%s due today and not reviewed yet.", countNoun(len(today), "memory is", "memories are")),
			MemoryIDs: ids(today),
			Priority:  10,
			Action:    "Review now",
		})
	}
	if len(upcoming) > 0 {
		out = append(out, Alert{
			ID:    IDDeadlineUpcoming,
			Type:  TypeWarning,
			Title: "Upcoming deadlines",
			Message: fmt.Sprintf("%s due in the next %d days.",
				countNoun(len(upcoming), "memory is", "memories are"), r.thresholds.UpcomingDays),
			MemoryIDs: ids(upcoming),
			Priority:  8,
			Action:    "Plan a review",
		})
	}
	if len(high) > 0 {
		out = append(out, Alert{
			ID:        IDHighPriority,
			Type:      TypeWarning,
			Title:     "High-priority items waiting",
			Message:   fmt.Sprintf("%s marked high priority and still unreviewed.", countNoun(len(high), "memory is", "memories are")),
			MemoryIDs: ids(high),
			Priority:  8,
			Action:    "Review high-priority items",
		})
	}
	if len(stale) >= r.thresholds.StaleBacklogMin {
		sort.SliceStable(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
		listed := stale
		if len(listed) > staleListMax {
			listed = listed[:staleListMax]
		}
		out = append(out, Alert{
			ID:    IDStaleBacklog,
			Type:  TypeInfo,
			Title: "Review backlog",
			Message: fmt.Sprintf("%d memories have gone unreviewed for more than %d days.",
				len(stale), r.thresholds.StaleDays),
			MemoryIDs: ids(listed),
			Priority:  5,
			Action:    "Start with the oldest",
		})
	}

	return Rank(out, r.thresholds.MaxAlerts)
}

// Rank sorts alerts by priority descending (stable) and truncates to max.
func Rank(alerts []Alert, max int) []Alert {
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Priority > alerts[j].Priority })
	if max > 0 && len(alerts) > max {
		alerts = alerts[:max]
	}
	return alerts
}

func allReviewed(records []*memory.Record) bool {
	for _, m := range records {
		if m != nil && !m.Metadata.Reviewed {
			return false
		}
	}
	return true
}

func caughtUp(n int) Alert {
	msg := "Nothing to review yet. You're all caught up!"
	if n > 0 {
		msg = fmt.Sprintf("All %s reviewed. You're all caught up!", countNoun(n, "memory is", "memories are"))
	}
	return Alert{
		ID:        IDAllReviewed,
		Type:      TypeInfo,
		Title:     "All caught up",
		Message:   msg,
		MemoryIDs: []string{},
		Priority:  1,
	}
}

// daysUntilDeadline is the calendar-day distance from today to the deadline
// in now's location: 0 for today, negative once past.
func (r *Rules) daysUntilDeadline(m *memory.Record, now time.Time) (int, bool) {
	if m.Metadata.Deadline == nil {
		return 0, false
	}
	return calendarDays(now, m.Metadata.Deadline.In(now.Location())), true
}

func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func daysOld(created, now time.Time) int {
	if now.Before(created) {
		return 0
	}
	return int(now.Sub(created).Hours() / 24)
}

func ids(records []*memory.Record) []string {
	out := make([]string, len(records))
	for i, m := range records {
		out[i] = m.ID
	}
	return out
}

func countNoun(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
