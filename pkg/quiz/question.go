package quiz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/recallhq/recall/pkg/memory"
)

// QuestionSource tells how a question was produced.
type QuestionSource string

const (
	SourceAI       QuestionSource = "ai"
	SourceFallback QuestionSource = "fallback"
)

// Self-check options used when content is too short for a cloze.
const (
	OptionRemember = "I remember it"
	OptionReview   = "I need to review"
)

// errInvalidQuestion marks a generator reply that could not be used.
var errInvalidQuestion = errors.New("quiz: invalid generated question")

const (
	blank         = "_____"
	minClozeWord  = 4
	maxDistractor = 3
)

// Question is a multiple-choice question about one memory.
type Question struct {
	MemoryID    string         `json:"memoryId"`
	Prompt      string         `json:"question"`
	Options     []string       `json:"options"`
	AnswerIndex int            `json:"answerIndex"`
	Explanation string         `json:"explanation,omitempty"`
	Source      QuestionSource `json:"source"`
}

// Fallback builds a question straight from the memory content without any
// generator call. It blanks the longest word of the first sentence and
// offers other long words from the note as distractors. Notes too short
// for that get a self-check question.
func Fallback(r *memory.Record) Question {
	content := strings.TrimSpace(r.Content)
	sentence := firstSentence(content)

	answer := longestWord(sentence)
	if answer != "" {
		var distractors []string
		seen := map[string]bool{strings.ToLower(answer): true}
		for _, w := range words(content) {
			key := strings.ToLower(w)
			if utf8.RuneCountInString(w) < minClozeWord || seen[key] {
				continue
			}
			seen[key] = true
			distractors = append(distractors, w)
			if len(distractors) == maxDistractor {
				break
			}
		}
		if len(distractors) > 0 {
			options := append([]string{answer}, distractors...)
			sort.Strings(options)
			return Question{
				MemoryID:    r.ID,
				Prompt:      "Fill in the blank: " + strings.Replace(sentence, answer, blank, 1),
				Options:     options,
				AnswerIndex: sort.SearchStrings(options, answer),
				Explanation: sentence,
				Source:      SourceFallback,
			}
		}
	}

	return Question{
		MemoryID:    r.ID,
		Prompt:      "What do you remember about: " + clip(content, 120) + "?",
		Options:     []string{OptionRemember, OptionReview},
		AnswerIndex: 0,
		Explanation: content,
		Source:      SourceFallback,
	}
}

// parseQuestion reads a generator reply holding one JSON object.
func parseQuestion(text string, r *memory.Record) (Question, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Question{}, fmt.Errorf("%w: no JSON object in response", errInvalidQuestion)
	}
	payload := text[start : end+1]
	if !gjson.Valid(payload) {
		return Question{}, fmt.Errorf("%w: malformed JSON in response", errInvalidQuestion)
	}
	v := gjson.Parse(payload)

	prompt := strings.TrimSpace(v.Get("question").String())
	if prompt == "" {
		return Question{}, fmt.Errorf("%w: question is empty", errInvalidQuestion)
	}
	var options []string
	for _, o := range v.Get("options").Array() {
		if s := strings.TrimSpace(o.String()); s != "" {
			options = append(options, s)
		}
	}
	if len(options) < 2 {
		return Question{}, fmt.Errorf("%w: fewer than two options", errInvalidQuestion)
	}
	idx := v.Get("answerIndex")
	if !idx.Exists() || idx.Int() < 0 || int(idx.Int()) >= len(options) {
		return Question{}, fmt.Errorf("%w: answer index out of range", errInvalidQuestion)
	}

	return Question{
		MemoryID:    r.ID,
		Prompt:      prompt,
		Options:     options,
		AnswerIndex: int(idx.Int()),
		Explanation: strings.TrimSpace(v.Get("explanation").String()),
		Source:      SourceAI,
	}, nil
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?\n"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// longestWord returns the first longest word of at least minClozeWord runes.
func longestWord(s string) string {
	best, bestLen := "", minClozeWord-1
	for _, w := range words(s) {
		if n := utf8.RuneCountInString(w); n > bestLen {
			best, bestLen = w, n
		}
	}
	return best
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
