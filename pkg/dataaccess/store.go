package dataaccess

import (
	"context"
	"errors"

	"github.com/fennec-bot/fennec/pkg/entities"
)

var (
	// ErrConfigNotFound is returned when a guild has not run setup.
	ErrConfigNotFound = errors.New("guild config not found")

	// ErrTicketNotFound is returned when a channel has no ticket record.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrActiveTicketExists is returned by AddTicket when the user already
	// has an active ticket in the guild.
	ErrActiveTicketExists = errors.New("user already has an active ticket")
)

// TicketStore is the persistence layer for guild configs and ticket records.
type TicketStore interface {
	// SetConfig replaces the guild's config wholesale and persists.
	SetConfig(ctx context.Context, guildID string, cfg *entities.GuildConfig) error

	// Config returns the guild's config, or ErrConfigNotFound.
	Config(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// AddTicket appends a ticket record and persists. The check for an
	// existing active ticket and the insert happen as one operation; it
	// returns ErrActiveTicketExists when the user already has one.
	AddTicket(ctx context.Context, guildID string, ticket *entities.Ticket) error

	// HasActiveTicket reports whether the user has an active ticket in the guild.
	HasActiveTicket(ctx context.Context, guildID, userID string) (bool, error)

	// TicketByChannel returns the first ticket record for the channel, or
	// ErrTicketNotFound.
	TicketByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)

	// CloseTicket marks the channel's ticket inactive and persists. It is a
	// silent no-op when the guild or record is absent, and idempotent.
	CloseTicket(ctx context.Context, guildID, channelID string) error

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
