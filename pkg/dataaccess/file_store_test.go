package dataaccess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fennec-bot/fennec/pkg/entities"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err, "Failed to create logger")

	return NewFileStore(filepath.Join(t.TempDir(), "ticket_system.json"), l)
}

func testConfig() *entities.GuildConfig {
	return &entities.GuildConfig{
		PanelChannelID:   "panel-1",
		StaffRoleID:      "staff-1",
		CategoryParentID: "cat-1",
		LogChannelID:     "log-1",
	}
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Config(context.Background(), "g1")
	require.ErrorIs(t, err, ErrConfigNotFound)

	has, err := s.HasActiveTicket(context.Background(), "g1", "u1")
	require.NoError(t, err)
	require.False(t, has)
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ticket_system.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewFileStore(path, l)

	_, err = s.Config(context.Background(), "g1")
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestFileStore_SetConfigLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testConfig()
	require.NoError(t, s.SetConfig(ctx, "g1", first))

	second := &entities.GuildConfig{
		PanelChannelID:   "panel-2",
		StaffRoleID:      "staff-2",
		CategoryParentID: "cat-2",
		LogChannelID:     "log-2",
	}
	require.NoError(t, s.SetConfig(ctx, "g1", second))

	got, err := s.Config(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestFileStore_AddTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := &entities.Ticket{
		ChannelID: "c1",
		UserID:    "u1",
		Category:  entities.CategoryGeneral,
		Active:    true,
	}
	require.NoError(t, s.AddTicket(ctx, "g1", ticket))

	has, err := s.HasActiveTicket(ctx, "g1", "u1")
	require.NoError(t, err)
	require.True(t, has)

	// Other users and other guilds are unaffected.
	has, err = s.HasActiveTicket(ctx, "g1", "u2")
	require.NoError(t, err)
	require.False(t, has)

	has, err = s.HasActiveTicket(ctx, "g2", "u1")
	require.NoError(t, err)
	require.False(t, has)
}

func TestFileStore_AddTicketRejectsSecondActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddTicket(ctx, "g1", &entities.Ticket{
		ChannelID: "c1", UserID: "u1", Category: entities.CategoryGeneral, Active: true,
	}))

	err := s.AddTicket(ctx, "g1", &entities.Ticket{
		ChannelID: "c2", UserID: "u1", Category: entities.CategoryReport, Active: true,
	})
	require.ErrorIs(t, err, ErrActiveTicketExists)

	// The rejected ticket was not appended.
	_, err = s.TicketByChannel(ctx, "g1", "c2")
	require.ErrorIs(t, err, ErrTicketNotFound)

	// A new ticket is allowed once the first one is closed.
	require.NoError(t, s.CloseTicket(ctx, "g1", "c1"))
	require.NoError(t, s.AddTicket(ctx, "g1", &entities.Ticket{
		ChannelID: "c2", UserID: "u1", Category: entities.CategoryReport, Active: true,
	}))
}

func TestFileStore_CloseTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddTicket(ctx, "g1", &entities.Ticket{
		ChannelID: "c1", UserID: "u1", Category: entities.CategoryEvent, Active: true,
	}))

	require.NoError(t, s.CloseTicket(ctx, "g1", "c1"))

	got, err := s.TicketByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	require.False(t, got.Active)

	has, err := s.HasActiveTicket(ctx, "g1", "u1")
	require.NoError(t, err)
	require.False(t, has)

	// Repeated closes are a no-op, as are closes for unknown records.
	require.NoError(t, s.CloseTicket(ctx, "g1", "c1"))
	require.NoError(t, s.CloseTicket(ctx, "g1", "missing"))
	require.NoError(t, s.CloseTicket(ctx, "missing", "c1"))
}

func TestFileStore_TicketByChannel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := &entities.Ticket{
		ChannelID: "c1", UserID: "u1", Category: entities.CategoryGeneral, Active: true,
	}
	require.NoError(t, s.AddTicket(ctx, "g1", ticket))

	got, err := s.TicketByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	require.Equal(t, ticket.UserID, got.UserID)
	require.Equal(t, ticket.Category, got.Category)

	_, err = s.TicketByChannel(ctx, "g1", "missing")
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestFileStore_PersistenceRoundTrip(t *testing.T) {
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ticket_system.json")
	ctx := context.Background()

	s := NewFileStore(path, l)
	require.NoError(t, s.SetConfig(ctx, "g1", testConfig()))
	require.NoError(t, s.AddTicket(ctx, "g1", &entities.Ticket{
		ChannelID: "c1", UserID: "u1", Category: entities.CategoryGeneral, Active: true,
	}))
	require.NoError(t, s.AddTicket(ctx, "g1", &entities.Ticket{
		ChannelID: "c2", UserID: "u2", Category: entities.CategoryReport, Active: true,
	}))
	require.NoError(t, s.CloseTicket(ctx, "g1", "c1"))
	require.NoError(t, s.SetConfig(ctx, "g2", testConfig()))

	// A fresh instance over the same file sees identical data.
	fresh := NewFileStore(path, l)

	cfg, err := fresh.Config(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, testConfig(), cfg)

	closed, err := fresh.TicketByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	require.False(t, closed.Active)
	require.Equal(t, entities.CategoryGeneral, closed.Category)

	open, err := fresh.TicketByChannel(ctx, "g1", "c2")
	require.NoError(t, err)
	require.True(t, open.Active)
	require.Equal(t, "u2", open.UserID)

	cfg, err = fresh.Config(ctx, "g2")
	require.NoError(t, err)
	require.Equal(t, testConfig(), cfg)
}

func TestFileStore_LoadsLegacyFileFormat(t *testing.T) {
	// Files written before CreatedAt existed load unchanged.
	const legacy = `{
  "g1": {
    "setup": {
      "panelChannel": "panel-1",
      "staffRole": "staff-1",
      "categoryParent": "cat-1",
      "logChannel": "log-1"
    },
    "activeTickets": [
      {"channelId": "c1", "userId": "u1", "category": "general", "active": true}
    ]
  }
}`

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ticket_system.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := NewFileStore(path, l)
	ctx := context.Background()

	cfg, err := s.Config(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, testConfig(), cfg)

	has, err := s.HasActiveTicket(ctx, "g1", "u1")
	require.NoError(t, err)
	require.True(t, has)
}

func TestFileStore_Ping(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)

	missing := NewFileStore(filepath.Join(t.TempDir(), "gone", "ticket_system.json"), l)
	require.Error(t, missing.Ping(context.Background()))
}
