package entities

// GuildConfig is the ticket-system configuration for a single guild. It is
// written wholesale by the setup command; a later setup replaces it rather
// than merging into it. All four identifiers are present together or the
// record does not exist.
type GuildConfig struct {
	// PanelChannelID is the text channel holding the ticket panel.
	PanelChannelID string `json:"panelChannel" bson:"panel_channel"`

	// StaffRoleID is the role granted access to every ticket channel.
	StaffRoleID string `json:"staffRole" bson:"staff_role"`

	// CategoryParentID is the category channel that ticket channels are created under.
	CategoryParentID string `json:"categoryParent" bson:"category_parent"`

	// LogChannelID is the text channel transcripts are uploaded to.
	LogChannelID string `json:"logChannel" bson:"log_channel"`
}

// GuildData is everything the store holds for one guild.
type GuildData struct {
	// Config is the guild's setup. Nil until the setup command has run.
	Config *GuildConfig `json:"setup,omitempty" bson:"setup,omitempty"`

	// Tickets is the ordered ticket history for the guild. Closed tickets
	// stay in the list with Active set to false.
	Tickets []*Ticket `json:"activeTickets" bson:"tickets"`
}
