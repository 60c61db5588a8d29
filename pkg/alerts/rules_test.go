package alerts

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/memory"
)

var now = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func testRules() *Rules {
	return NewRules(WithClock(func() time.Time { return now }))
}

type opt func(*memory.Record)

func reviewed(r *memory.Record) { r.Metadata.Reviewed = true }

func deadline(t time.Time) opt {
	return func(r *memory.Record) { r.Metadata.Deadline = memory.Time(t) }
}

func priority(p memory.Priority) opt {
	return func(r *memory.Record) { r.Metadata.Priority = p }
}

func age(days int) opt {
	return func(r *memory.Record) {
		r.CreatedAt = now.AddDate(0, 0, -days)
		r.UpdatedAt = r.CreatedAt
	}
}

func rec(id string, opts ...opt) *memory.Record {
	r := &memory.Record{ID: id, Content: "note " + id, CreatedAt: now.Add(-time.Hour)}
	r.UpdatedAt = r.CreatedAt
	for _, o := range opts {
		o(r)
	}
	r.Normalize()
	return r
}

func byID(out []Alert, id string) (Alert, bool) {
	for _, a := range out {
		if a.ID == id {
			return a, true
		}
	}
	return Alert{}, false
}

func TestRules_AllReviewed(t *testing.T) {
	out := testRules().Generate([]*memory.Record{rec("a", reviewed), rec("b", reviewed), rec("c", reviewed)})

	require.Len(t, out, 1)
	assert.Equal(t, IDAllReviewed, out[0].ID)
	assert.Equal(t, TypeInfo, out[0].Type)
	assert.Equal(t, 1, out[0].Priority)
	assert.Contains(t, out[0].Message, "3")
	assert.Empty(t, out[0].MemoryIDs)
}

func TestRules_EmptyInput(t *testing.T) {
	out := testRules().Generate(nil)
	require.Len(t, out, 1)
	assert.Equal(t, IDAllReviewed, out[0].ID)
}

func TestRules_DeadlineToday(t *testing.T) {
	todayLate := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	records := []*memory.Record{
		rec("r1", reviewed), rec("r2", reviewed),
		rec("due", deadline(todayLate)),
		rec("r3", reviewed), rec("r4", reviewed),
	}

	out := testRules().Generate(records)
	require.NotEmpty(t, out)
	assert.Equal(t, IDDeadlineToday, out[0].ID)
	assert.Equal(t, TypeUrgent, out[0].Type)
	assert.Equal(t, 10, out[0].Priority)
	assert.Equal(t, []string{"due"}, out[0].MemoryIDs)

	urgent := 0
	for _, a := range out {
		if a.Type == TypeUrgent {
			urgent++
		}
	}
	assert.Equal(t, 1, urgent)
}

func TestRules_DeadlineBoundary(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		want     string
	}{
		{"start of today", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), IDDeadlineToday},
		{"end of today", time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC), IDDeadlineToday},
		{"tomorrow early", time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC), IDDeadlineUpcoming},
		{"three days out", time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC), IDDeadlineUpcoming},
		{"four days out", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), ""},
		{"yesterday", time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := testRules().Generate([]*memory.Record{rec("m", deadline(tt.deadline))})
			_, today := byID(out, IDDeadlineToday)
			_, upcoming := byID(out, IDDeadlineUpcoming)
			assert.False(t, today && upcoming, "categories must be exclusive")
			switch tt.want {
			case IDDeadlineToday:
				assert.True(t, today)
			case IDDeadlineUpcoming:
				assert.True(t, upcoming)
			default:
				assert.False(t, today)
				assert.False(t, upcoming)
			}
		})
	}
}

func TestRules_DeadlineUsesClockLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2026-03-10 20:00 UTC is already 2026-03-11 in UTC+9.
	local := time.Date(2026, 3, 11, 5, 0, 0, 0, loc)
	r := NewRules(WithClock(func() time.Time { return local }))

	out := r.Generate([]*memory.Record{rec("m", deadline(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)))})
	_, ok := byID(out, IDDeadlineToday)
	assert.True(t, ok)
}

func TestRules_OneCategoryPerMemory(t *testing.T) {
	tomorrow := now.AddDate(0, 0, 1)
	records := []*memory.Record{
		rec("both", deadline(tomorrow), priority(memory.PriorityHigh), age(30)),
		rec("high", priority(memory.PriorityHigh)),
	}

	out := testRules().Generate(records)
	upcoming, ok := byID(out, IDDeadlineUpcoming)
	require.True(t, ok)
	assert.Equal(t, []string{"both"}, upcoming.MemoryIDs)

	high, ok := byID(out, IDHighPriority)
	require.True(t, ok)
	assert.Equal(t, []string{"high"}, high.MemoryIDs)
	assert.Equal(t, 8, high.Priority)
}

func TestRules_StaleBacklogThreshold(t *testing.T) {
	var records []*memory.Record
	for i := 0; i < 4; i++ {
		records = append(records, rec(fmt.Sprintf("s%d", i), age(10+i)))
	}
	_, ok := byID(testRules().Generate(records), IDStaleBacklog)
	assert.False(t, ok)

	for i := 4; i < 8; i++ {
		records = append(records, rec(fmt.Sprintf("s%d", i), age(10+i)))
	}
	a, ok := byID(testRules().Generate(records), IDStaleBacklog)
	require.True(t, ok)
	assert.Equal(t, TypeInfo, a.Type)
	assert.Equal(t, 5, a.Priority)
	assert.Contains(t, a.Message, "8")
	// oldest first, at most five listed
	assert.Equal(t, []string{"s7", "s6", "s5", "s4", "s3"}, a.MemoryIDs)
}

func TestRules_StaleCountsAlongsideAttentionCategories(t *testing.T) {
	records := []*memory.Record{
		rec("hp-old", age(12), priority(memory.PriorityHigh)),
		rec("soon-old", age(11), deadline(now.AddDate(0, 0, 2))),
	}
	for i := 0; i < 3; i++ {
		records = append(records, rec(fmt.Sprintf("s%d", i), age(9)))
	}

	out := testRules().Generate(records)
	high, ok := byID(out, IDHighPriority)
	require.True(t, ok)
	assert.Equal(t, []string{"hp-old"}, high.MemoryIDs)
	upcoming, ok := byID(out, IDDeadlineUpcoming)
	require.True(t, ok)
	assert.Equal(t, []string{"soon-old"}, upcoming.MemoryIDs)

	stale, ok := byID(out, IDStaleBacklog)
	require.True(t, ok)
	assert.Contains(t, stale.Message, "5 memories")
	assert.Contains(t, stale.MemoryIDs, "hp-old")
	assert.Contains(t, stale.MemoryIDs, "soon-old")
}

func TestRules_NoRuleFiresIsEmptyNotNil(t *testing.T) {
	out := testRules().Generate([]*memory.Record{rec("fresh")})
	require.NotNil(t, out)
	assert.Empty(t, out)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRules_SevenDaysIsNotStale(t *testing.T) {
	var records []*memory.Record
	for i := 0; i < 6; i++ {
		records = append(records, rec(fmt.Sprintf("s%d", i), age(7)))
	}
	_, ok := byID(testRules().Generate(records), IDStaleBacklog)
	assert.False(t, ok)
}

func TestRules_OrderingAndCap(t *testing.T) {
	var records []*memory.Record
	for i := 0; i < 6; i++ {
		records = append(records, rec(fmt.Sprintf("old%d", i), age(20)))
	}
	records = append(records,
		rec("hp", priority(memory.PriorityHigh)),
		rec("soon", deadline(now.AddDate(0, 0, 2))),
		rec("today", deadline(now.Add(time.Hour))),
	)

	out := testRules().Generate(records)
	require.Len(t, out, 4)
	assert.LessOrEqual(t, len(out), 5)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Priority, out[i].Priority)
	}
	assert.Equal(t, []string{IDDeadlineToday, IDDeadlineUpcoming, IDHighPriority, IDStaleBacklog},
		[]string{out[0].ID, out[1].ID, out[2].ID, out[3].ID})
}

func TestRules_CustomThresholds(t *testing.T) {
	r := NewRules(
		WithClock(func() time.Time { return now }),
		WithThresholds(Thresholds{StaleBacklogMin: 1, MaxAlerts: 1}),
	)
	out := r.Generate([]*memory.Record{rec("old", age(9)), rec("hp", priority(memory.PriorityHigh))})
	require.Len(t, out, 1)
	assert.Equal(t, IDHighPriority, out[0].ID)
}

func TestRank(t *testing.T) {
	in := []Alert{{ID: "a", Priority: 3}, {ID: "b", Priority: 9}, {ID: "c", Priority: 3}, {ID: "d", Priority: 9}}
	out := Rank(in, 3)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"b", "d", "a"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestParseType(t *testing.T) {
	assert.Equal(t, TypeUrgent, ParseType("urgent"))
	assert.Equal(t, TypeWarning, ParseType("warning"))
	assert.Equal(t, TypeInfo, ParseType("critical"))
	assert.Equal(t, TypeInfo, ParseType(""))
}
