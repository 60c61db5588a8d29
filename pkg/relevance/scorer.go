// Package relevance ranks memory records against a query and recent
// conversation using additive point scoring.
package relevance

import (
	"sort"
	"strings"
	"unicode"

	"github.com/recallhq/recall/pkg/memory"
)

// Point values. Several weak signals are meant to compound; none dominates
// except the shopping bonus, which exists so exact-category matches win.
const (
	pointsContent       = 10
	pointsSubject       = 5
	pointsCompany       = 5
	pointsType          = 2
	pointsTypeIntent    = 10
	pointsShopping      = 20
	pointsHighPriority  = 2
	pointsUnreviewed    = 5
	pointsFocusNudge    = 5
	pointsVeryWeak      = 8
	pointsWeak          = 4
	pointsWeakIntent    = 5
	pointsQuizContext   = 10
	pointsFrustration   = 8
	penaltyReviewedFocus = 3
)

const (
	keywordHistory = 3
	contextHistory = 5
	minKeywordLen  = 3
)

// Message is one conversation turn, oldest first in a history slice.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ScoredRecord pairs a record with its relevance. The record is a copy; the
// caller's input is never modified.
type ScoredRecord struct {
	Record *memory.Record `json:"memory"`
	Score  int            `json:"relevanceScore"`
}

// Scorer computes relevance scores.
type Scorer struct {
	intents IntentTable
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithIntents replaces the intent keyword table.
func WithIntents(t IntentTable) Option {
	return func(s *Scorer) { s.intents = t }
}

// NewScorer creates a Scorer with the default intent table.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{intents: DefaultIntents()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// query holds everything derived once per Score call.
type query struct {
	text     string
	keywords []string
	context  string

	focus       bool
	weak        bool
	shopping    bool
	frustration bool
	quiz        bool
}

func (s *Scorer) prepare(q string, history []Message) query {
	p := query{text: strings.ToLower(q)}

	seen := make(map[string]bool)
	add := func(text string) {
		for _, w := range Keywords(text) {
			if !seen[w] {
				seen[w] = true
				p.keywords = append(p.keywords, w)
			}
		}
	}
	add(q)
	for _, m := range tail(history, keywordHistory) {
		add(m.Content)
	}

	var ctx strings.Builder
	for _, m := range tail(history, contextHistory) {
		ctx.WriteString(strings.ToLower(m.Content))
		ctx.WriteByte('\n')
	}
	p.context = ctx.String()

	p.focus = s.intents.Match(IntentFocus, q)
	p.weak = s.intents.Match(IntentWeak, q)
	p.shopping = s.intents.Match(IntentShopping, q)
	p.quiz = s.intents.Match(IntentQuiz, p.context)
	p.frustration = s.intents.Match(IntentFrustration, p.context+p.text)
	return p
}

// Score ranks records for the query. Only records with a positive score are
// returned, highest first; equal scores keep their input order.
func (s *Scorer) Score(q string, history []Message, records []*memory.Record) []ScoredRecord {
	p := s.prepare(q, history)

	out := make([]ScoredRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if score := s.score(p, r); score > 0 {
			out = append(out, ScoredRecord{Record: r.Clone(), Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (s *Scorer) score(p query, r *memory.Record) int {
	content := strings.ToLower(r.Content)
	subject := strings.ToLower(r.Metadata.Subject)
	company := strings.ToLower(r.Metadata.Company)
	typ := memory.ParseType(string(r.Metadata.Type))

	score := 0
	for _, kw := range p.keywords {
		if strings.Contains(content, kw) {
			score += pointsContent
		}
		if subject != "" && strings.Contains(subject, kw) {
			score += pointsSubject
		}
		if company != "" && strings.Contains(company, kw) {
			score += pointsCompany
		}
		if strings.Contains(string(typ), kw) {
			score += pointsType
		}
	}

	for _, t := range []memory.Type{memory.TypeInterview, memory.TypeStudy, memory.TypeMeeting} {
		if typ == t && strings.Contains(p.text, string(t)) {
			score += pointsTypeIntent
		}
	}

	// Both sides must look like shopping. Content alone would lift every
	// grocery note into unrelated queries.
	if p.shopping && s.intents.Match(IntentShopping, content) {
		score += pointsShopping
	}

	if memory.ParsePriority(string(r.Metadata.Priority)) == memory.PriorityHigh {
		score += pointsHighPriority
	}

	if !r.Metadata.Reviewed {
		score += pointsUnreviewed
		if p.focus {
			score += pointsFocusNudge
		}
	} else if p.focus {
		score -= penaltyReviewedFocus
	}

	if retention, ok := r.Retention(); ok {
		switch {
		case retention < 0.5:
			score += pointsVeryWeak
		case retention < 0.7:
			score += pointsWeak
		}
		if retention < 0.7 && p.weak {
			score += pointsWeakIntent
		}
		if retention < 0.6 && p.frustration {
			score += pointsFrustration
		}
	}

	if p.quiz && subject != "" && strings.Contains(p.context, subject) {
		score += pointsQuizContext
	}

	return score
}

// Keywords splits text into unique lowercase words longer than two characters.
func Keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minKeywordLen || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func tail(history []Message, n int) []Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
