package main

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

// The orphan-cleanup and close paths discard the deleted channel returned by
// the API; pin the signature so those call sites stay in step with the
// library.
var _ func(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) = (*discordgo.Session)(nil).ChannelDelete

func TestTicketOverwrites(t *testing.T) {
	st := discordgo.NewState()
	st.User = &discordgo.User{ID: "bot1"}
	a := &App{s: &discordgo.Session{State: st}}

	overwrites := ticketOverwrites(a, "guild1", "user1", "staff1")
	require.Len(t, overwrites, 4)

	require.Equal(t, "guild1", overwrites[0].ID)
	require.Equal(t, discordgo.PermissionOverwriteTypeRole, overwrites[0].Type)
	require.Equal(t, int64(discordgo.PermissionViewChannel), overwrites[0].Deny)

	require.Equal(t, "user1", overwrites[1].ID)
	require.Equal(t, discordgo.PermissionOverwriteTypeMember, overwrites[1].Type)

	require.Equal(t, "staff1", overwrites[2].ID)
	require.Equal(t, discordgo.PermissionOverwriteTypeRole, overwrites[2].Type)

	require.Equal(t, "bot1", overwrites[3].ID)
	require.Equal(t, discordgo.PermissionOverwriteTypeMember, overwrites[3].Type)
	require.NotZero(t, overwrites[3].Allow&discordgo.PermissionManageChannels)
}

func TestTicketOverwrites_NoStateUser(t *testing.T) {
	a := &App{s: &discordgo.Session{}}

	overwrites := ticketOverwrites(a, "guild1", "user1", "staff1")

	// Without a known bot ID there must be no bot overwrite at all, and in
	// particular no member-typed overwrite carrying the guild ID.
	require.Len(t, overwrites, 3)
	for _, ow := range overwrites {
		if ow.ID == "guild1" {
			require.Equal(t, discordgo.PermissionOverwriteTypeRole, ow.Type)
			require.Zero(t, ow.Allow)
		}
	}
}
