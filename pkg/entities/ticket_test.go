package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicketCategory_Valid(t *testing.T) {
	tests := []struct {
		name     string
		category TicketCategory
		want     bool
	}{
		{name: "General", category: CategoryGeneral, want: true},
		{name: "Report", category: CategoryReport, want: true},
		{name: "Event", category: CategoryEvent, want: true},
		{name: "Unknown", category: TicketCategory("billing"), want: false},
		{name: "Empty", category: TicketCategory(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.category.Valid())
		})
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		name     string
		category TicketCategory
		username string
		want     string
	}{
		{name: "General", category: CategoryGeneral, username: "alice", want: "inquiry-alice"},
		{name: "Report", category: CategoryReport, username: "Bob", want: "report-bob"},
		{name: "SpacesCollapsed", category: CategoryEvent, username: "mr nice", want: "event-mr-nice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ChannelName(tt.category, tt.username))
		})
	}
}
