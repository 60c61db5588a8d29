package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	now := time.Now().UTC()
	deadline := now.Add(2 * time.Hour)

	body := fmt.Sprintf(`{
  "memories": [
    {"id": "m-kafka", "content": "Kafka partitions keep order within a partition", "createdAt": %q,
     "metadata": {"type": "study", "subject": "distributed systems", "priority": "high"}},
    {"id": "m-demo", "content": "Prepare the demo for the Acme interview", "createdAt": %q,
     "metadata": {"type": "interview", "company": "Acme", "deadline": %q}}
  ]
}`, now.Add(-48*time.Hour).Format(time.RFC3339), now.Add(-24*time.Hour).Format(time.RFC3339), deadline.Format(time.RFC3339))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseExport(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"id":"a","content":"x"},{"id":"b","content":"y"}]`, 2, false},
		{"memories envelope", `{"memories":[{"content":"x"}]}`, 1, false},
		{"data envelope", `{"data":[{"content":"x"},{"content":"y"},{"content":"z"}]}`, 3, false},
		{"summary stands in for content", `[{"id":"a","summary":"x"},{"content":"y"}]`, 2, false},
		{"non-object item", `[1,{"content":"ok"}]`, 0, true},
		{"no body", `[{"content":""},{"content":"ok"}]`, 0, true},
		{"invalid json", `{"memories":[`, 0, true},
		{"no array", `{"count":3}`, 0, true},
		{"bad field type", `[{"content":"x","createdAt":42}]`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseExport([]byte(tt.data), "alice", now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
			for _, r := range records {
				assert.Equal(t, "alice", r.ContainerTag)
				assert.NotEmpty(t, r.ID)
				assert.False(t, r.CreatedAt.IsZero())
			}
		})
	}
}

func TestParseExport_KeepsExistingTag(t *testing.T) {
	records, err := ParseExport([]byte(`[{"id":"a","containerTag":"bob","content":"x"}]`), "alice", time.Now())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "bob", records[0].ContainerTag)
	assert.Equal(t, "a", records[0].ID)
}

func TestRoot_RequiresTag(t *testing.T) {
	t.Setenv(TagEnv, "")
	_, err := run(t, "--file", writeFixture(t), "patterns")
	assert.ErrorContains(t, err, "--tag is required")
}

func TestRoot_TagFromEnv(t *testing.T) {
	t.Setenv(TagEnv, "alice")
	out, err := run(t, "--file", writeFixture(t), "search", "kafka")
	require.NoError(t, err)
	assert.Contains(t, out, "m-kafka")
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "--file", writeFixture(t), "--tag", "alice", "--format", "yaml", "digest")
	assert.ErrorContains(t, err, "unknown format")
}

func TestAlerts_Rules(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "alerts", "--mode", "rules")
	require.NoError(t, err)

	var res struct {
		Source string `json:"source"`
		Alerts []struct {
			MemoryIDs []string `json:"memoryIds"`
		} `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "rules", res.Source)
	require.NotEmpty(t, res.Alerts)
	assert.Contains(t, res.Alerts[0].MemoryIDs, "m-demo")
}

func TestAlerts_CoachWithoutGeneratorIsDegraded(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "--format", "text", "alerts")
	require.NoError(t, err)
	assert.Contains(t, out, "fallback: generator_unavailable")
}

func TestSearch_Text(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "-f", "text", "search", "kafka", "partitions")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [study] Kafka partitions keep order")
}

func TestSearch_OtherTagSeesNothing(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "bob", "search", "kafka")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestPatterns_JSONArray(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "patterns")
	require.NoError(t, err)
	var ps []map[string]any
	assert.NoError(t, json.Unmarshal([]byte(out), &ps))
}

func TestDigest_Text(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "--format", "text", "digest")
	require.NoError(t, err)
	assert.Contains(t, out, "Your week in review")
}

func TestQuizAnswer_RewritesExport(t *testing.T) {
	path := writeFixture(t)

	out, err := run(t, "--file", path, "--tag", "alice", "quiz", "answer", "m-kafka", "--correct")
	require.NoError(t, err)
	var outcome struct {
		RetentionScore float64 `json:"retentionScore"`
		QuizAttempts   int     `json:"quizAttempts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, 1.0, outcome.RetentionScore)
	assert.Equal(t, 1, outcome.QuizAttempts)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := ParseExport(data, "alice", time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		if r.ID == "m-kafka" {
			require.NotNil(t, r.Metadata.QuizAttempts)
			assert.Equal(t, 1, *r.Metadata.QuizAttempts)
			assert.True(t, r.Metadata.Reviewed)
		}
	}

	out, err = run(t, "--file", path, "--tag", "alice", "-f", "text", "quiz", "answer", "m-kafka", "--wrong")
	require.NoError(t, err)
	assert.Equal(t, "Retention 50% (1/2 correct)\n", out)
}

func TestQuizAnswer_KeepsSummaryOnlyRecords(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`[
  {"id": "m-1", "content": "Raft elects a leader per term", "createdAt": %q},
  {"id": "m-2", "summary": "Paxos needs a majority quorum", "createdAt": %q}
]`, created, created)
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := run(t, "--file", path, "--tag", "alice", "quiz", "answer", "m-2", "--correct")
	require.NoError(t, err)
	_, err = run(t, "--file", path, "--tag", "alice", "quiz", "answer", "m-1", "--wrong")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := ParseExport(data, "alice", time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[string]string{}
	for _, r := range records {
		byID[r.ID] = r.Content
		require.NotNil(t, r.Metadata.QuizAttempts, r.ID)
		assert.Equal(t, 1, *r.Metadata.QuizAttempts, r.ID)
	}
	assert.Equal(t, "Paxos needs a majority quorum", byID["m-2"])
	assert.Equal(t, "Raft elects a leader per term", byID["m-1"])
}

func TestQuizAnswer_Errors(t *testing.T) {
	path := writeFixture(t)

	_, err := run(t, "--file", path, "--tag", "alice", "quiz", "answer", "m-kafka")
	assert.ErrorContains(t, err, "exactly one")

	_, err = run(t, "--file", path, "--tag", "alice", "quiz", "answer", "m-kafka", "--correct", "--wrong")
	assert.ErrorContains(t, err, "exactly one")

	_, err = run(t, "--file", path, "--tag", "alice", "quiz", "answer", "ghost", "--correct")
	assert.Error(t, err)
}

func TestQuizQuestions_Fallback(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "quiz", "questions", "--count", "2")
	require.NoError(t, err)

	var qs []struct {
		MemoryID string `json:"memoryId"`
		Source   string `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &qs))
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.Equal(t, "fallback", q.Source)
	}
}

func TestExport_RoundTrip(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--tag", "alice", "export")
	require.NoError(t, err)

	records, err := ParseExport([]byte(out), "alice", time.Now())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	dst := filepath.Join(t.TempDir(), "copy.json")
	_, err = run(t, "--file", writeFixture(t), "--tag", "alice", "export", "--out", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	records, err = ParseExport(data, "alice", time.Now())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFileMissing(t *testing.T) {
	_, err := run(t, "--file", filepath.Join(t.TempDir(), "nope.json"), "--tag", "alice", "patterns")
	assert.ErrorContains(t, err, "read export")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet("  a \n b ", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
}
