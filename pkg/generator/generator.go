// Package generator abstracts the text-completion backend used to phrase
// coaching alerts, chat replies and quiz questions.
package generator

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrUnavailable means no generator is configured or the provider failed.
	ErrUnavailable = errors.New("generator: unavailable")
	// ErrRateLimited means the request was refused by a local or remote rate limit.
	ErrRateLimited = errors.New("generator: rate limited")
	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("generator: empty response")
)

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the provider.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Generator completes text.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Unavailable is the generator used when no provider is configured.
type Unavailable struct{}

// Complete always fails with ErrUnavailable.
func (Unavailable) Complete(context.Context, Request) (string, error) {
	return "", ErrUnavailable
}

// Prompt builds a single-user-message request.
func Prompt(system, user string, maxTokens int, temperature float64) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: user}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// RateLimited refuses calls beyond the limiter's budget with ErrRateLimited
// instead of waiting, so callers fall back immediately.
func RateLimited(next Generator, limiter *rate.Limiter) Generator {
	if limiter == nil {
		return next
	}
	return &rateLimited{next: next, limiter: limiter}
}

func (g *rateLimited) Complete(ctx context.Context, req Request) (string, error) {
	if !g.limiter.Allow() {
		return "", ErrRateLimited
	}
	return g.next.Complete(ctx, req)
}

type timeout struct {
	next Generator
	d    time.Duration
}

// WithTimeout bounds each call to d.
func WithTimeout(next Generator, d time.Duration) Generator {
	if d <= 0 {
		return next
	}
	return &timeout{next: next, d: d}
}

func (g *timeout) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.Complete(ctx, req)
}
