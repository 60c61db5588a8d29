package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/recallhq/recall/pkg/generator"
	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/relevance"
)

// ErrEmptyMessage is returned for blank chat input.
var ErrEmptyMessage = errors.New("insight: message is required")

const (
	chatContextSize = 5
	chatHistorySize = 10
	chatSource      = "chat"
)

// Canned replies.
const (
	ReplyStoreDown  = "I can't reach your memories right now. Please try again in a moment."
	ReplyNoMatches  = "I couldn't find anything related in your memories yet. Try saving a note about it first."
	ReplyMatchesFmt = "I can't compose a full answer right now, but here is what I found in your memories:\n%s"
	ReplySaved      = "Got it, I'll remember that."
)

// ChatReply is the answer to one chat turn.
type ChatReply struct {
	Reply          string                   `json:"reply"`
	Memories       []relevance.ScoredRecord `json:"memories"`
	Saved          *memory.Record           `json:"saved,omitempty"`
	Degraded       bool                     `json:"degraded"`
	FallbackReason string                   `json:"fallback_reason,omitempty"`
}

const chatSystemPrompt = `You are a personal memory assistant. Answer the user's question using the notes below when they
are relevant. Be brief and concrete. If the notes do not cover the question, say so.

Notes:
%s`

// Chat answers one message. A message starting with "remember" is saved as
// a personal memory. Store and generator failures produce a canned reply
// marked degraded; only blank input is an error.
func (s *Service) Chat(ctx context.Context, tag, message string, history []relevance.Message) (ChatReply, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "insight.Service.Chat")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, ErrEmptyMessage
	}

	if body, ok := RememberBody(message); ok {
		saved, err := s.store.Add(ctx, tag, body, memory.Metadata{Type: memory.TypePersonal, Source: chatSource})
		if err != nil {
			s.logger.Warn("chat auto-save failed", "container", tag, "error", err)
			metricsRecorder().RecordFallback("chat", ReasonStoreUnavailable)
			return ChatReply{Reply: ReplyStoreDown, Memories: []relevance.ScoredRecord{}, Degraded: true,
				FallbackReason: ReasonStoreUnavailable}, nil
		}
		s.logger.Info("chat memory saved", "container", tag, "memory_id", saved.ID)
		return ChatReply{Reply: ReplySaved, Memories: []relevance.ScoredRecord{}, Saved: saved}, nil
	}

	records, err := s.records(ctx, tag)
	if err != nil {
		s.logger.Warn("chat context unavailable", "container", tag, "error", err)
		metricsRecorder().RecordFallback("chat", ReasonStoreUnavailable)
		return ChatReply{Reply: ReplyStoreDown, Memories: []relevance.ScoredRecord{}, Degraded: true,
			FallbackReason: ReasonStoreUnavailable}, nil
	}

	scored := s.scorer.Score(message, history, records)
	if len(scored) > chatContextSize {
		scored = scored[:chatContextSize]
	}

	req := generator.Request{
		System:      fmt.Sprintf(chatSystemPrompt, contextBlock(scored)),
		Messages:    chatMessages(history, message),
		MaxTokens:   600,
		Temperature: 0.7,
	}
	text, err := s.gen.Complete(ctx, req)
	text = strings.TrimSpace(text)
	if err == nil && text != "" {
		return ChatReply{Reply: text, Memories: scored}, nil
	}

	reason := generatorReason(err)
	s.logger.Debug("chat reply fallback", "reason", reason, "error", err)
	metricsRecorder().RecordFallback("chat", reason)
	return ChatReply{Reply: CannedReply(scored), Memories: scored, Degraded: true, FallbackReason: reason}, nil
}

// RememberBody extracts the note from "remember ...", "remember: ..." or
// "remember that ..." messages.
func RememberBody(message string) (string, bool) {
	lower := strings.ToLower(message)
	if !strings.HasPrefix(lower, "remember") {
		return "", false
	}
	rest := message[len("remember"):]
	if rest != "" && rest[0] != ' ' && rest[0] != ':' {
		// "remembering", "remembered", ...
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
	if strings.HasPrefix(strings.ToLower(rest), "that ") {
		rest = strings.TrimSpace(rest[len("that "):])
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// CannedReply lists the top matches when no generator answers.
func CannedReply(scored []relevance.ScoredRecord) string {
	if len(scored) == 0 {
		return ReplyNoMatches
	}
	var b strings.Builder
	for _, sr := range scored {
		fmt.Fprintf(&b, "- %s\n", clip(sr.Record.Content, 140))
	}
	return fmt.Sprintf(ReplyMatchesFmt, strings.TrimRight(b.String(), "\n"))
}

func contextBlock(scored []relevance.ScoredRecord) string {
	if len(scored) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, sr := range scored {
		r := sr.Record
		fmt.Fprintf(&b, "- [%s", r.Metadata.Type)
		if r.Metadata.Subject != "" {
			fmt.Fprintf(&b, ", %s", r.Metadata.Subject)
		}
		if r.Metadata.Company != "" {
			fmt.Fprintf(&b, ", %s", r.Metadata.Company)
		}
		if !r.Metadata.Reviewed {
			b.WriteString(", unreviewed")
		}
		fmt.Fprintf(&b, "] %s\n", clip(r.Content, 400))
	}
	return b.String()
}

func chatMessages(history []relevance.Message, message string) []generator.Message {
	if len(history) > chatHistorySize {
		history = history[len(history)-chatHistorySize:]
	}
	out := make([]generator.Message, 0, len(history)+1)
	for _, m := range history {
		role := generator.RoleUser
		if strings.EqualFold(m.Role, string(generator.RoleAssistant)) {
			role = generator.RoleAssistant
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, generator.Message{Role: role, Content: m.Content})
	}
	return append(out, generator.Message{Role: generator.RoleUser, Content: message})
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
