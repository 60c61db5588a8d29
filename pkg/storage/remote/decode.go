package remote

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
)

// listPaths are the envelope keys a hosted store has been seen to use for record arrays.
var listPaths = []string{"results", "memories", "data", "items"}

// objectPaths wrap a single record.
var objectPaths = []string{"memory", "data", "result"}

// decodeList extracts records from whichever envelope the response uses. A
// known envelope key holding null is an empty list; a body with no record
// array at all is an error, so a changed upstream shape never reads as an
// empty collection.
func decodeList(body []byte, containerTag string) ([]*memory.Record, error) {
	if !gjson.ValidBytes(body) {
		return nil, &storage.SerializationError{Operation: "unmarshal", Cause: errors.New("list response is not valid JSON")}
	}
	root := gjson.ParseBytes(body)
	arr := root
	if !root.IsArray() {
		arr = gjson.Result{}
		found := false
		for _, p := range listPaths {
			v := root.Get(p)
			if v.IsArray() || (v.Exists() && v.Type == gjson.Null) {
				arr, found = v, true
				break
			}
		}
		if !found {
			return nil, &storage.SerializationError{
				Operation: "unmarshal",
				Cause:     fmt.Errorf("list response holds no record array under %s", strings.Join(listPaths, ", ")),
			}
		}
	}

	var out []*memory.Record
	arr.ForEach(func(_, item gjson.Result) bool {
		if r, ok := decodeRecord(item, containerTag); ok {
			out = append(out, r)
		}
		return true
	})
	return out, nil
}

// decodeObject extracts a single record, unwrapping a known envelope if present.
func decodeObject(body []byte, containerTag string) (*memory.Record, bool) {
	root := gjson.ParseBytes(body)
	for _, p := range objectPaths {
		if v := root.Get(p); v.IsObject() {
			return decodeRecord(v, containerTag)
		}
	}
	return decodeRecord(root, containerTag)
}

// decodeRecord normalizes one loosely shaped item into a Record. Items
// without an id, or belonging to another container, are rejected.
func decodeRecord(item gjson.Result, containerTag string) (*memory.Record, bool) {
	if !item.IsObject() {
		return nil, false
	}
	id := first(item, "id", "_id", "memoryId").String()
	if id == "" {
		return nil, false
	}
	if tag := first(item, "containerTag", "container_tag").String(); tag != "" && tag != containerTag {
		return nil, false
	}

	md := item.Get("metadata")
	r := &memory.Record{
		ID:           id,
		ContainerTag: containerTag,
		Content:      first(item, "content", "summary", "text", "memory").String(),
		CreatedAt:    parseTime(first(item, "createdAt", "created_at")),
		UpdatedAt:    parseTime(first(item, "updatedAt", "updated_at")),
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = parseTime(md.Get("date"))
	}
	if r.CreatedAt.IsZero() {
		// Undated items are dropped rather than given a fabricated age.
		return nil, false
	}

	r.Metadata = memory.Metadata{
		Type:     memory.ParseType(md.Get("type").String()),
		Subject:  md.Get("subject").String(),
		Company:  md.Get("company").String(),
		Priority: memory.ParsePriority(md.Get("priority").String()),
		Reviewed: parseBool(md.Get("reviewed")),
		Date:     parseTime(md.Get("date")),
		Source:   md.Get("source").String(),
		Tags:     parseTags(md.Get("tags")),
	}
	r.Metadata.LastReviewed = optTime(md.Get("lastReviewed"))
	r.Metadata.Deadline = optTime(md.Get("deadline"))
	r.Metadata.LastQuizzed = optTime(md.Get("lastQuizzed"))
	r.Metadata.QuizAttempts = optInt(md.Get("quizAttempts"))
	r.Metadata.CorrectAttempts = optInt(md.Get("correctAttempts"))
	r.Metadata.RetentionScore = optFloat(md.Get("retentionScore"))

	r.Normalize()
	return r, true
}

func first(item gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func parseBool(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		b, _ := strconv.ParseBool(strings.TrimSpace(v.Str))
		return b
	case gjson.Number:
		return v.Num != 0
	default:
		return false
	}
}

func parseTime(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unix(n)
		}
	case gjson.Number:
		return unix(v.Int())
	}
	return time.Time{}
}

// unix interprets n as milliseconds when it is too large to be seconds.
func unix(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func optTime(v gjson.Result) *time.Time {
	t := parseTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

func optInt(v gjson.Result) *int {
	switch v.Type {
	case gjson.Number:
		n := int(v.Int())
		return &n
	case gjson.String:
		if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
			return &n
		}
	}
	return nil
}

func optFloat(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Num
		return &f
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64); err == nil {
			return &f
		}
	}
	return nil
}

func parseTags(v gjson.Result) []string {
	var tags []string
	switch {
	case v.IsArray():
		v.ForEach(func(_, t gjson.Result) bool {
			if s := strings.TrimSpace(t.String()); s != "" {
				tags = append(tags, s)
			}
			return true
		})
	case v.Type == gjson.String:
		for _, s := range strings.Split(v.Str, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}
