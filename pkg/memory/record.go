// Package memory defines the memory record model shared by every recall component.
package memory

import (
	"errors"
	"strings"
	"time"
)

// Sentinel errors for memory records.
var (
	ErrNotFound      = errors.New("memory: record not found")
	ErrInvalidRecord = errors.New("memory: invalid record")
)

// Type classifies a memory. The set is closed; see ParseType.
type Type string

const (
	TypeStudy     Type = "study"
	TypeInterview Type = "interview"
	TypeMeeting   Type = "meeting"
	TypePersonal  Type = "personal"
)

// Types lists the closed set of memory types in display order.
var Types = []Type{TypeStudy, TypeInterview, TypeMeeting, TypePersonal}

// ParseType maps a raw value onto the closed type set. Unknown or empty
// values become TypePersonal.
func ParseType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeStudy:
		return TypeStudy
	case TypeInterview:
		return TypeInterview
	case TypeMeeting:
		return TypeMeeting
	default:
		return TypePersonal
	}
}

// Priority is the user-assigned importance of a memory.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps a raw value onto the closed priority set. Unknown or
// empty values become PriorityMedium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Metadata holds the classification and review state of a memory.
type Metadata struct {
	// Type drives grouping and alert rules.
	Type Type `json:"type"`

	// Subject groups study memories.
	Subject string `json:"subject,omitempty"`

	// Company groups interview memories.
	Company string `json:"company,omitempty"`

	Priority Priority `json:"priority"`

	// Reviewed is set when the user has explicitly revisited the memory.
	Reviewed     bool       `json:"reviewed"`
	LastReviewed *time.Time `json:"lastReviewed,omitempty"`

	// Deadline is an externally meaningful due date (exam, interview, commitment).
	Deadline *time.Time `json:"deadline,omitempty"`

	// RetentionScore is CorrectAttempts/QuizAttempts; nil until the first quiz attempt.
	RetentionScore  *float64   `json:"retentionScore,omitempty"`
	QuizAttempts    *int       `json:"quizAttempts,omitempty"`
	CorrectAttempts *int       `json:"correctAttempts,omitempty"`
	LastQuizzed     *time.Time `json:"lastQuizzed,omitempty"`

	// Date is the user-facing "occurred on" time. Defaults to the creation time.
	Date time.Time `json:"date"`

	// Source names the import path (manual, chat, gmail, ...).
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Record is a single stored note plus its metadata.
type Record struct {
	ID           string    `json:"id"`
	ContainerTag string    `json:"containerTag,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Metadata     Metadata  `json:"metadata"`
}

// Patch describes a partial update. Nil fields are left untouched; a
// non-nil Metadata replaces the stored metadata wholesale.
type Patch struct {
	Content  *string   `json:"content,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// HasRetention reports whether the memory has been quizzed at least once.
func (r *Record) HasRetention() bool {
	return r.Metadata.RetentionScore != nil
}

// Retention returns the retention score and whether one is present.
func (r *Record) Retention() (float64, bool) {
	if r.Metadata.RetentionScore == nil {
		return 0, false
	}
	return *r.Metadata.RetentionScore, true
}

// MarkReviewed flags the memory as reviewed at now.
func (r *Record) MarkReviewed(now time.Time) {
	r.Metadata.Reviewed = true
	if now.Before(r.CreatedAt) {
		now = r.CreatedAt
	}
	t := now
	r.Metadata.LastReviewed = &t
}

// MarkUnreviewed clears the reviewed flag. LastReviewed is kept as history.
func (r *Record) MarkUnreviewed() {
	r.Metadata.Reviewed = false
}

// Normalize coerces a record into its invariant-respecting shape. It is
// applied by every store adapter on ingest.
func (r *Record) Normalize() {
	r.Content = strings.TrimSpace(r.Content)
	r.Metadata.Type = ParseType(string(r.Metadata.Type))
	r.Metadata.Priority = ParsePriority(string(r.Metadata.Priority))
	r.Metadata.Subject = strings.TrimSpace(r.Metadata.Subject)
	r.Metadata.Company = strings.TrimSpace(r.Metadata.Company)

	if r.UpdatedAt.IsZero() || r.UpdatedAt.Before(r.CreatedAt) {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Metadata.Date.IsZero() {
		r.Metadata.Date = r.CreatedAt
	}

	if r.Metadata.Reviewed {
		lr := r.Metadata.LastReviewed
		if lr == nil || lr.Before(r.CreatedAt) {
			at := r.UpdatedAt
			r.Metadata.LastReviewed = &at
		}
	}

	r.normalizeRetention()
}

func (r *Record) normalizeRetention() {
	md := &r.Metadata
	if md.QuizAttempts == nil || *md.QuizAttempts <= 0 {
		md.QuizAttempts = nil
		md.CorrectAttempts = nil
		md.RetentionScore = nil
		return
	}
	correct := 0
	if md.CorrectAttempts != nil {
		correct = *md.CorrectAttempts
	}
	if correct < 0 {
		correct = 0
	}
	if correct > *md.QuizAttempts {
		correct = *md.QuizAttempts
	}
	md.CorrectAttempts = &correct
	score := float64(correct) / float64(*md.QuizAttempts)
	md.RetentionScore = &score
}

// Validate checks the fields every stored record must carry.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.Join(ErrInvalidRecord, errors.New("id is required"))
	}
	if r.CreatedAt.IsZero() {
		return errors.Join(ErrInvalidRecord, errors.New("createdAt is required"))
	}
	return nil
}

// ValidateContent checks the body of a record about to be created.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.Join(ErrInvalidRecord, errors.New("content is required"))
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Metadata = r.Metadata.clone()
	return &c
}

func (m Metadata) clone() Metadata {
	c := m
	c.LastReviewed = cloneTime(m.LastReviewed)
	c.Deadline = cloneTime(m.Deadline)
	c.LastQuizzed = cloneTime(m.LastQuizzed)
	if m.RetentionScore != nil {
		v := *m.RetentionScore
		c.RetentionScore = &v
	}
	if m.QuizAttempts != nil {
		v := *m.QuizAttempts
		c.QuizAttempts = &v
	}
	if m.CorrectAttempts != nil {
		v := *m.CorrectAttempts
		c.CorrectAttempts = &v
	}
	if m.Tags != nil {
		c.Tags = append([]string(nil), m.Tags...)
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Apply merges a patch into the record and stamps UpdatedAt.
func (r *Record) Apply(p Patch, now time.Time) {
	if p.Content != nil {
		r.Content = *p.Content
	}
	if p.Metadata != nil {
		r.Metadata = p.Metadata.clone()
	}
	r.UpdatedAt = now
	r.Normalize()
}

// Int returns a pointer to v. Convenience for building metadata.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
