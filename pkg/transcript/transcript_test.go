package transcript

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRender_ChronologicalOrder(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	msgs := []Message{
		{Timestamp: base, Author: "alice", Content: "first"},
		{Timestamp: base.Add(1 * time.Minute), Author: "bob", Content: "second"},
		{Timestamp: base.Add(2 * time.Minute), Author: "alice", Content: "third"},
	}

	out := Render("inquiry-alice", base.Add(3*time.Minute), msgs)

	first := strings.Index(out, "alice: first")
	second := strings.Index(out, "bob: second")
	third := strings.Index(out, "alice: third")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, third)
	require.Less(t, first, second)
	require.Less(t, second, third)

	// Exactly one rendered line per message.
	body := out[strings.Index(out, strings.Repeat("=", 50)):]
	lines := 0
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "[") {
			lines++
		}
	}
	require.Equal(t, 3, lines)
}

func TestRender_Header(t *testing.T) {
	closedAt := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	out := Render("report-bob", closedAt, nil)

	require.True(t, strings.HasPrefix(out, "Ticket channel: report-bob\n"))
	// 03:00 UTC is 12:00 in Seoul.
	require.Contains(t, out, "Closed at: 2024-03-01 12:00:00\n")
	require.Contains(t, out, strings.Repeat("=", 50)+"\n")
}

func TestRender_EmptyContentPlaceholder(t *testing.T) {
	msgs := []Message{
		{
			Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Author:      "alice",
			Content:     "",
			Attachments: []string{"https://cdn.example.com/file.png"},
		},
	}

	out := Render("inquiry-alice", time.Now(), msgs)

	require.Contains(t, out, "alice: [embedded/attachment content]\n")
	require.Contains(t, out, "  └ attachment: https://cdn.example.com/file.png\n")
}

func TestRender_MultipleAttachments(t *testing.T) {
	msgs := []Message{
		{
			Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Author:      "bob",
			Content:     "see these",
			Attachments: []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
		},
	}

	out := Render("report-bob", time.Now(), msgs)

	require.Contains(t, out, "bob: see these\n")
	require.Equal(t, 2, strings.Count(out, "  └ attachment: "))
}

func TestRender_TimestampsLocalized(t *testing.T) {
	// 23:30 UTC on the 1st is 08:30 on the 2nd in Seoul.
	msgs := []Message{
		{Timestamp: time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC), Author: "alice", Content: "late"},
	}

	out := Render("inquiry-alice", time.Now(), msgs)

	require.Contains(t, out, "[2024-03-02 08:30:00] alice: late\n")
}
