package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recallhq/recall/pkg/alerts"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/patterns"
	"github.com/recallhq/recall/pkg/quiz"
)

const digestFocusSize = 5

// FocusItem is one memory suggested for practice.
type FocusItem struct {
	MemoryID string `json:"memoryId"`
	Excerpt  string `json:"excerpt"`
	Reason   string `json:"reason"`
}

// Digest is the weekly summary for one container.
type Digest struct {
	ContainerTag string             `json:"containerTag"`
	GeneratedAt  time.Time          `json:"generatedAt"`
	PeriodStart  time.Time          `json:"periodStart"`
	PeriodEnd    time.Time          `json:"periodEnd"`
	Stats        Stats              `json:"stats"`
	Alerts       []alerts.Alert     `json:"alerts"`
	Patterns     []patterns.Pattern `json:"patterns"`
	Focus        []FocusItem        `json:"focus"`
	Body         string             `json:"body"`
}

// Digest builds the weekly digest. Alerts come from the rule engine so the
// digest is reproducible.
func (s *Service) Digest(ctx context.Context, tag string) (Digest, error) {
	records, err := s.records(ctx, tag)
	if err != nil {
		return Digest{}, err
	}
	return BuildDigest(tag, records, s.now(), s.coach.Rules(), s.detector), nil
}

// BuildDigest assembles a digest from a snapshot.
func BuildDigest(tag string, records []*memory.Record, now time.Time, rules *alerts.Rules, detector *patterns.Detector) Digest {
	d := Digest{
		ContainerTag: tag,
		GeneratedAt:  now,
		PeriodStart:  now.Add(-week),
		PeriodEnd:    now,
		Stats:        ComputeStats(records, now),
		Alerts:       rules.Generate(records),
		Patterns:     detector.Detect(records),
		Focus:        []FocusItem{},
	}
	if d.Patterns == nil {
		d.Patterns = []patterns.Pattern{}
	}
	for _, r := range quiz.PickForPractice(records, digestFocusSize) {
		d.Focus = append(d.Focus, FocusItem{
			MemoryID: r.ID,
			Excerpt:  clip(r.Content, 120),
			Reason:   focusReason(r),
		})
	}
	d.Body = RenderDigest(d)
	return d
}

func focusReason(r *memory.Record) string {
	if !r.Metadata.Reviewed {
		return "not reviewed yet"
	}
	if v, ok := r.Retention(); ok {
		return fmt.Sprintf("retention %.0f%%", v*100)
	}
	return "not quizzed yet"
}

// RenderDigest formats the plain-text body.
func RenderDigest(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your week in review (%s - %s)\n\n",
		d.PeriodStart.Format("Jan 2"), d.PeriodEnd.Format("Jan 2, 2006"))

	st := d.Stats
	fmt.Fprintf(&b, "Notes: %d total, %d added this week\n", st.Total, st.AddedThisWeek)
	fmt.Fprintf(&b, "Reviewed: %d of %d (%.0f%%)\n", st.Reviewed, st.Total, st.ReviewRate*100)
	if st.AverageRetention != nil {
		fmt.Fprintf(&b, "Quiz retention: %.0f%% across %d notes\n", *st.AverageRetention*100, st.Quizzed)
	}
	if st.DueThisWeek > 0 {
		fmt.Fprintf(&b, "Due this week: %d\n", st.DueThisWeek)
	}

	if len(d.Alerts) > 0 {
		b.WriteString("\nAlerts\n")
		for _, a := range d.Alerts {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", strings.ToUpper(string(a.Type)), a.Title, a.Message)
		}
	}
	if len(d.Patterns) > 0 {
		b.WriteString("\nPatterns\n")
		for _, p := range d.Patterns {
			fmt.Fprintf(&b, "  %s: %s\n", p.Title, p.Description)
		}
	}
	if len(d.Focus) > 0 {
		b.WriteString("\nFocus next\n")
		for i, f := range d.Focus {
			fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, f.Excerpt, f.Reason)
		}
	}
	return b.String()
}
