// Package models defines API request/response data structures.
package models

import (
	"time"

	"github.com/recallhq/recall/pkg/memory"
)

// CreateMemoryRequest represents a new memory submission.
type CreateMemoryRequest struct {
	// Content is the note body.
	Content string `json:"content" validate:"required,min=1,max=20000" example:"Dijkstra fails with negative edge weights"`

	// Type is one of study, interview, meeting, personal. Unknown values become personal.
	Type string `json:"type,omitempty" validate:"omitempty,max=32" example:"study"`

	Subject  string `json:"subject,omitempty" validate:"max=100" example:"algorithms"`
	Company  string `json:"company,omitempty" validate:"max=100" example:"Acme"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" example:"high"`

	// Deadline is an optional due date (exam, interview, commitment).
	Deadline *time.Time `json:"deadline,omitempty"`

	// Date is the "occurred on" time. Defaults to the creation time.
	Date *time.Time `json:"date,omitempty"`

	Source string   `json:"source,omitempty" validate:"max=50" example:"manual"`
	Tags   []string `json:"tags,omitempty" validate:"max=20,dive,max=50"`
}

// Metadata converts the request into record metadata.
func (r CreateMemoryRequest) Metadata() memory.Metadata {
	md := memory.Metadata{
		Type:     memory.ParseType(r.Type),
		Subject:  r.Subject,
		Company:  r.Company,
		Priority: memory.ParsePriority(r.Priority),
		Deadline: r.Deadline,
		Source:   r.Source,
		Tags:     r.Tags,
	}
	if md.Source == "" {
		md.Source = "manual"
	}
	if r.Date != nil {
		md.Date = *r.Date
	}
	return md
}

// UpdateMemoryRequest carries a partial update. Absent fields are left as they are.
type UpdateMemoryRequest struct {
	Content  *string    `json:"content,omitempty" validate:"omitempty,min=1,max=20000"`
	Type     *string    `json:"type,omitempty" validate:"omitempty,max=32"`
	Subject  *string    `json:"subject,omitempty" validate:"omitempty,max=100"`
	Company  *string    `json:"company,omitempty" validate:"omitempty,max=100"`
	Priority *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Tags     []string   `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`

	// ClearDeadline removes an existing deadline.
	ClearDeadline bool `json:"clearDeadline,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r UpdateMemoryRequest) Empty() bool {
	return r.Content == nil && r.Type == nil && r.Subject == nil && r.Company == nil &&
		r.Priority == nil && r.Deadline == nil && r.Date == nil && r.Tags == nil && !r.ClearDeadline
}

// Patch merges the request into the current record's metadata.
func (r UpdateMemoryRequest) Patch(current *memory.Record) memory.Patch {
	md := current.Clone().Metadata
	if r.Type != nil {
		md.Type = memory.ParseType(*r.Type)
	}
	if r.Subject != nil {
		md.Subject = *r.Subject
	}
	if r.Company != nil {
		md.Company = *r.Company
	}
	if r.Priority != nil {
		md.Priority = memory.ParsePriority(*r.Priority)
	}
	if r.ClearDeadline {
		md.Deadline = nil
	}
	if r.Deadline != nil {
		md.Deadline = r.Deadline
	}
	if r.Date != nil {
		md.Date = *r.Date
	}
	if r.Tags != nil {
		md.Tags = r.Tags
	}
	return memory.Patch{Content: r.Content, Metadata: &md}
}

// ReviewRequest toggles the reviewed flag. A missing body marks the memory reviewed.
type ReviewRequest struct {
	Reviewed *bool `json:"reviewed,omitempty"`
}

// MemoryListResponse is a page of memories.
type MemoryListResponse struct {
	Memories []*memory.Record `json:"memories"`
	Count    int              `json:"count"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}
