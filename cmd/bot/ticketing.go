package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fennec-bot/fennec/cmd/bot/monitoring"
	"github.com/fennec-bot/fennec/pkg/custom"
	"github.com/fennec-bot/fennec/pkg/dataaccess"
	"github.com/fennec-bot/fennec/pkg/entities"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/fennec-bot/fennec/pkg/transcript"
)

const (
	// CreateTicketMenuID is the custom ID of the panel's category menu.
	CreateTicketMenuID = "create-ticket-menu"

	// CloseTicketButtonID is the custom ID of the close button posted in
	// every ticket channel.
	CloseTicketButtonID = "close-ticket-button"

	// TicketCmdName is the ticket management command.
	TicketCmdName = "ticket"

	// CloseCmdName is the subcommand closing the current ticket.
	CloseCmdName = "close"

	// closeDelay is how long a close is announced before the channel is
	// deleted. Once the delay starts the close is committed.
	closeDelay = 5 * time.Second

	// transcriptFetchLimit is the maximum number of messages included in a
	// transcript, bounded by the API's page size.
	transcriptFetchLimit = 100

	// transcriptDir is the directory transcripts are staged in before
	// upload, relative to the working directory.
	transcriptDir = "tmp"
)

var (
	// ticketCmd is the command for managing the ticket in the current channel.
	ticketCmd = &discordgo.ApplicationCommand{
		Name:        TicketCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Manage the ticket in the current channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        CloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Close the current ticket and log its transcript.",
			},
		},
	}
)

func ticketCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if i.GuildID == "" || i.Member == nil {
		if err := respondEphemeral(a, i, "This command can only be used inside a server."); err != nil {
			return nil, fmt.Errorf("error responding to interaction: %w", err)
		}
		return nil, nil
	}

	subCmd := i.ApplicationCommandData().Options[0].Name

	switch subCmd {
	case CloseCmdName:
		return closeTicketCmd, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

// createTicket handles a category selection from the panel menu.
func createTicket(a IApp, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" || i.Member == nil {
		return respondEphemeral(a, i, "Tickets can only be opened inside a server.")
	}

	user := i.Member.User

	if !a.TicketLimiter().Allow(user.ID) {
		return respondEphemeral(a, i, "You are doing that too fast, please wait a moment.")
	}

	// Single-open-ticket policy. AddTicket re-checks under the store lock;
	// this early check exists for the friendly message.
	hasTicket, err := a.Store().HasActiveTicket(a.Context(), i.GuildID, user.ID)
	if err != nil {
		return fmt.Errorf("error checking active tickets: %w", err)
	}
	if hasTicket {
		return respondEphemeral(a, i, "You already have an open ticket.")
	}

	cfg, err := a.Store().Config(a.Context(), i.GuildID)
	if errors.Is(err, dataaccess.ErrConfigNotFound) {
		return respondEphemeral(a, i, "The ticket system has not been set up on this server.")
	} else if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return respondEphemeral(a, i, "No category selected.")
	}
	category := entities.TicketCategory(values[0])
	if !category.Valid() {
		return respondEphemeral(a, i, "Unknown ticket category.")
	}

	// Resolution and channel creation can take a moment.
	if err := deferEphemeral(a, i); err != nil {
		return fmt.Errorf("error deferring interaction: %w", err)
	}

	parent, err := a.Session().Channel(cfg.CategoryParentID)
	if err != nil || parent.Type != discordgo.ChannelTypeGuildCategory {
		return editResponse(a, i, "The ticket category could not be found. Ask an administrator to re-run setup.")
	}

	staffRole, err := a.Session().State.Role(i.GuildID, cfg.StaffRoleID)
	if err != nil {
		roles, rErr := a.Session().GuildRoles(i.GuildID)
		if rErr != nil {
			return editResponse(a, i, "The staff role could not be found. Ask an administrator to re-run setup.")
		}
		for _, r := range roles {
			if r.ID == cfg.StaffRoleID {
				staffRole = r
				break
			}
		}
		if staffRole == nil {
			return editResponse(a, i, "The staff role could not be found. Ask an administrator to re-run setup.")
		}
	}

	ticketChannel, err := a.Session().GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 entities.ChannelName(category, user.Username),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Ticket opened by %s", user.Username),
		ParentID:             parent.ID,
		PermissionOverwrites: ticketOverwrites(a, i.GuildID, user.ID, staffRole.ID),
	})
	if err != nil {
		return fmt.Errorf("error creating ticket channel: %w", err)
	}

	ticket := &entities.Ticket{
		ChannelID: ticketChannel.ID,
		UserID:    user.ID,
		Category:  category,
		Active:    true,
		CreatedAt: custom.Datetime(time.Now().UTC()),
	}

	if err := a.Store().AddTicket(a.Context(), i.GuildID, ticket); err != nil {
		if errors.Is(err, dataaccess.ErrActiveTicketExists) {
			// Lost the race against another creation by the same user. The
			// freshly created channel has no record; remove it again.
			if _, dErr := a.Session().ChannelDelete(ticketChannel.ID); dErr != nil {
				a.Log().Error("Error deleting orphaned ticket channel",
					slog.String(logging.KeyChannel, ticketChannel.ID),
					slog.String(logging.KeyError, dErr.Error()))
			}
			return editResponse(a, i, "You already have an open ticket.")
		}
		return fmt.Errorf("error saving ticket: %w", err)
	}

	monitoring.TotalTicketsCreated.Inc()

	if _, err := a.Session().ChannelMessageSendComplex(ticketChannel.ID, welcomeMessage(user.ID, staffRole.ID, category)); err != nil {
		// The ticket exists and is recorded; the missing welcome message is
		// not worth failing the interaction over.
		a.Log().Error("Error sending ticket welcome message",
			slog.String(logging.KeyChannel, ticketChannel.ID),
			slog.String(logging.KeyError, err.Error()))
	}

	if err := editResponse(a, i, fmt.Sprintf("Your ticket has been created: <#%s>", ticketChannel.ID)); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

// ticketOverwrites builds the permission overwrites for a new ticket
// channel: hidden from @everyone; visible to the creator, the staff role and
// the bot (which additionally needs manage to delete the channel on close).
func ticketOverwrites(a IApp, guildID, userID, staffRoleID string) []*discordgo.PermissionOverwrite {
	const memberPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID, // @everyone
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPerms,
		},
		{
			ID:    staffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberPerms,
		},
	}

	// The bot's own ID is only known once the gateway session is established;
	// without it the overwrite is skipped rather than guessed.
	if a.Session().State != nil && a.Session().State.User != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    a.Session().State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPerms | discordgo.PermissionManageChannels,
		})
	}

	return overwrites
}

func welcomeMessage(userID, staffRoleID string, category entities.TicketCategory) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("\U0001F4E9 %s ticket", category.Label()),
		Description: fmt.Sprintf("<@%s>, <@&%s>.\n\nYour **[%s]** ticket has been created.\nPlease describe your issue below.", userID, staffRoleID, category.Label()),
		Color:       0x5865F2,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	return &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> <@&%s>", userID, staffRoleID),
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Close ticket",
						Style:    discordgo.DangerButton,
						CustomID: CloseTicketButtonID,
						Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F510"},
					},
				},
			},
		},
	}
}

// closeTicketCmd is the `ticket close` path.
func closeTicketCmd(a IApp, i *discordgo.InteractionCreate) error {
	return closeTicket(a, i)
}

// closeTicketButton is the close-button path. It runs the same validation
// as the command path rather than trusting whoever built the button.
func closeTicketButton(a IApp, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" || i.Member == nil {
		return respondEphemeral(a, i, "This button can only be used inside a server.")
	}
	return closeTicket(a, i)
}

// closeTicket is the single close operation shared by both entry points.
func closeTicket(a IApp, i *discordgo.InteractionCreate) error {
	guildID, channelID := i.GuildID, i.ChannelID
	if channelID == "" {
		return respondEphemeral(a, i, "This can only be used inside a ticket channel.")
	}

	ticket, err := a.Store().TicketByChannel(a.Context(), guildID, channelID)
	if errors.Is(err, dataaccess.ErrTicketNotFound) {
		return respondEphemeral(a, i, "This channel is not a ticket channel.")
	} else if err != nil {
		return fmt.Errorf("error getting ticket: %w", err)
	}

	if !ticket.Active {
		return respondEphemeral(a, i, "This ticket is already closed.")
	}

	cfg, err := a.Store().Config(a.Context(), guildID)
	if errors.Is(err, dataaccess.ErrConfigNotFound) {
		return respondEphemeral(a, i, "The ticket system has not been set up on this server.")
	} else if err != nil {
		return fmt.Errorf("error getting guild config: %w", err)
	}

	// From here on the close is committed; the notice goes to the channel.
	if err := respond(a, i, "⏳ Closing this ticket in 5 seconds..."); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}

	// Transcript is best-effort: failures are logged and the close proceeds.
	if err := logTranscript(a, cfg, guildID, channelID, i.Member.User.ID); err != nil {
		a.Log().Error("Error logging ticket transcript",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyChannel, channelID),
			slog.String(logging.KeyError, err.Error()))
	}

	select {
	case <-time.After(closeDelay):
	case <-a.Context().Done():
		// Shutting down; leave the channel in place rather than deleting it
		// mid-teardown. The record stays active and the close can be re-run.
		return a.Context().Err()
	}

	if err := a.Store().CloseTicket(a.Context(), guildID, channelID); err != nil {
		return fmt.Errorf("error closing ticket: %w", err)
	}

	monitoring.TotalTicketsClosed.Inc()

	if _, err := a.Session().ChannelDelete(channelID, discordgo.WithAuditLogReason("ticket closed")); err != nil {
		return fmt.Errorf("error deleting ticket channel: %w", err)
	}
	return nil
}

// logTranscript renders the channel history and uploads it to the guild's
// log channel. An unusable log channel skips the transcript entirely.
func logTranscript(a IApp, cfg *entities.GuildConfig, guildID, channelID, closerID string) error {
	logChannel, err := a.Session().Channel(cfg.LogChannelID)
	if err != nil || logChannel.Type != discordgo.ChannelTypeGuildText {
		a.Log().Warn("Log channel unusable, skipping transcript",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyChannel, cfg.LogChannelID))
		return nil
	}

	channel, err := a.Session().Channel(channelID)
	if err != nil {
		return fmt.Errorf("error getting ticket channel: %w", err)
	}

	msgs, err := a.Session().ChannelMessages(channelID, transcriptFetchLimit, "", "", "")
	if err != nil {
		return fmt.Errorf("error fetching channel messages: %w", err)
	}

	// The API returns newest first; the transcript wants oldest first.
	lines := make([]transcript.Message, 0, len(msgs))
	for idx := len(msgs) - 1; idx >= 0; idx-- {
		m := msgs[idx]

		attachments := make([]string, 0, len(m.Attachments))
		for _, att := range m.Attachments {
			attachments = append(attachments, att.URL)
		}

		lines = append(lines, transcript.Message{
			Timestamp:   m.Timestamp,
			Author:      m.Author.Username,
			Content:     m.Content,
			Attachments: attachments,
		})
	}

	closedAt := time.Now().UTC()
	rendered := transcript.Render(channel.Name, closedAt, lines)

	if err := os.MkdirAll(transcriptDir, 0o755); err != nil {
		return fmt.Errorf("error creating transcript directory: %w", err)
	}

	filePath := filepath.Join(transcriptDir, fmt.Sprintf("ticket-log-%s.txt", channelID))
	if err := os.WriteFile(filePath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("error writing transcript file: %w", err)
	}

	// Remove the staged file whether or not the upload succeeds.
	defer func() {
		if err := os.Remove(filePath); err != nil {
			a.Log().Error("Error removing transcript file", slog.String(logging.KeyError, err.Error()))
		}
	}()

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("error opening transcript file: %w", err)
	}
	defer func() { _ = file.Close() }()

	summary := &discordgo.MessageEmbed{
		Title:       "\U0001F4CB Ticket closed",
		Description: fmt.Sprintf("Ticket **%s** has been closed.", channel.Name),
		Color:       0xFF0000,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Closed by", Value: fmt.Sprintf("<@%s>", closerID), Inline: true},
			{Name: "Closed at", Value: closedAt.Format(time.RFC3339), Inline: true},
		},
		Timestamp: closedAt.Format(time.RFC3339),
	}

	if _, err := a.Session().ChannelMessageSendComplex(logChannel.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{summary},
		Files: []*discordgo.File{
			{
				Name:        filepath.Base(filePath),
				ContentType: "text/plain",
				Reader:      file,
			},
		},
	}); err != nil {
		return fmt.Errorf("error uploading transcript: %w", err)
	}
	return nil
}
