package logging

const (
	// KeyError is the slog attribute key used for error values.
	KeyError = "err"

	// KeyStore is the slog attribute key used for the ticket store backend name.
	KeyStore = "store"

	// KeyGuild is the slog attribute key used for guild IDs.
	KeyGuild = "guild_id"

	// KeyChannel is the slog attribute key used for channel IDs.
	KeyChannel = "channel_id"

	// KeyUser is the slog attribute key used for user IDs.
	KeyUser = "user_id"
)
