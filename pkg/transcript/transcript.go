// Package transcript renders a ticket channel's message history into the
// plain-text log uploaded when the ticket is closed.
package transcript

import (
	"fmt"
	"strings"
	"time"
)

const (
	// timestampFormat is the layout used for every timestamp in the transcript.
	timestampFormat = "2006-01-02 15:04:05"

	// placeholder is substituted for messages with no text content.
	placeholder = "[embedded/attachment content]"

	// ruleWidth is the width of the separator under the header.
	ruleWidth = 50
)

// location is the fixed timezone transcripts are rendered in. When the zone
// database is unavailable the KST offset is used directly.
var location = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}()

// Message is one rendered line of the transcript.
type Message struct {
	// Timestamp is when the message was sent.
	Timestamp time.Time

	// Author is the sender's username.
	Author string

	// Content is the text content. Empty for embed- or attachment-only
	// messages.
	Content string

	// Attachments are the URLs of any attached files.
	Attachments []string
}

// Render produces the transcript for a closed ticket channel. Messages must
// already be in chronological order, oldest first.
func Render(channelName string, closedAt time.Time, msgs []Message) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Ticket channel: %s\n", channelName))
	sb.WriteString(fmt.Sprintf("Closed at: %s\n", closedAt.In(location).Format(timestampFormat)))
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n\n")

	for _, m := range msgs {
		content := m.Content
		if content == "" {
			content = placeholder
		}

		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.Timestamp.In(location).Format(timestampFormat), m.Author, content))

		for _, url := range m.Attachments {
			sb.WriteString(fmt.Sprintf("  └ attachment: %s\n", url))
		}
	}

	return sb.String()
}
