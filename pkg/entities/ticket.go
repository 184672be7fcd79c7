package entities

import (
	"fmt"
	"strings"

	"github.com/fennec-bot/fennec/pkg/custom"
)

// TicketCategory is one of the fixed categories a member can open a ticket
// under.
type TicketCategory string

const (
	// CategoryGeneral is a general inquiry.
	CategoryGeneral TicketCategory = "general"

	// CategoryReport is a report of a problem within the server.
	CategoryReport TicketCategory = "report"

	// CategoryEvent is an event or partnership inquiry.
	CategoryEvent TicketCategory = "event"
)

// categoryLabels maps each category to the label used in channel names and
// embeds.
var categoryLabels = map[TicketCategory]string{
	CategoryGeneral: "inquiry",
	CategoryReport:  "report",
	CategoryEvent:   "event",
}

// Valid reports whether c is one of the fixed categories.
func (c TicketCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display label for the category. Unknown categories fall
// back to the raw value.
func (c TicketCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Ticket is the metadata record for one ticket channel.
type Ticket struct {
	// ChannelID is the ID of the ticket channel. Unique per guild while the
	// ticket is active.
	ChannelID string `json:"channelId" bson:"channel_id"`

	// UserID is the ID of the member that opened the ticket.
	UserID string `json:"userId" bson:"user_id"`

	// Category is the category the member selected.
	Category TicketCategory `json:"category" bson:"category"`

	// Active is false once the ticket has been closed. Closing is terminal.
	Active bool `json:"active" bson:"active"`

	// CreatedAt is the time the ticket was opened. Absent in records written
	// by older versions.
	CreatedAt custom.Datetime `json:"createdAt,omitempty" bson:"created_at,omitempty"`
}

// ChannelName derives the name of the ticket channel from the category label
// and the opening member's username.
func ChannelName(category TicketCategory, username string) string {
	name := fmt.Sprintf("%s-%s", category.Label(), username)
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}
