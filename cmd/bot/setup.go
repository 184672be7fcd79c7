package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fennec-bot/fennec/pkg/entities"
)

const (
	// SetupCmdName is the command for configuring the ticket system.
	SetupCmdName = "ticket-setup"

	// panelChannelOptName is the option naming the channel the panel is posted to.
	panelChannelOptName = "panel-channel"

	// staffRoleOptName is the option naming the staff role.
	staffRoleOptName = "staff-role"

	// categoryParentOptName is the option naming the category ticket channels go under.
	categoryParentOptName = "category-parent"

	// logChannelOptName is the option naming the transcript log channel.
	logChannelOptName = "log-channel"
)

var (
	// setupCmd configures the guild's ticket system and posts the panel.
	setupCmd = &discordgo.ApplicationCommand{
		Name:        SetupCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Set up the 1:1 support ticket system for this server.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         panelChannelOptName,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Channel the ticket panel is posted to.",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			},
			{
				Name:        staffRoleOptName,
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "Role that can view and manage every ticket.",
				Required:    true,
			},
			{
				Name:         categoryParentOptName,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Category the ticket channels are created under.",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
				Required:     true,
			},
			{
				Name:         logChannelOptName,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "Channel closed-ticket transcripts are sent to.",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				Required:     true,
			},
		},
	}

	// panelEmbed is the fixed embed posted above the category menu.
	panelEmbed = &discordgo.MessageEmbed{
		Title:       "\U0001F4E9 1:1 Support",
		Description: "Need to talk to the staff? Pick a category from the menu below.",
		Color:       0x5865F2,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Selecting a category opens a private channel for you.",
		},
	}
)

// panelMenu builds the category select menu posted with the panel.
func panelMenu() discordgo.SelectMenu {
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    CreateTicketMenuID,
		Placeholder: "Select a category...",
		Options: []discordgo.SelectMenuOption{
			{
				Label:       "General inquiry",
				Description: "General questions about the server",
				Value:       string(entities.CategoryGeneral),
				Emoji:       &discordgo.ComponentEmoji{Name: "\U0001F4AC"},
			},
			{
				Label:       "Report",
				Description: "Report a problem or a member",
				Value:       string(entities.CategoryReport),
				Emoji:       &discordgo.ComponentEmoji{Name: "\U0001F6A8"},
			},
			{
				Label:       "Event / partnership",
				Description: "Events and partnership inquiries",
				Value:       string(entities.CategoryEvent),
				Emoji:       &discordgo.ComponentEmoji{Name: "\U0001F389"},
			},
		},
	}
}

func setupCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	if i.GuildID == "" || i.Member == nil {
		if err := respondEphemeral(a, i, "This command can only be used inside a server."); err != nil {
			return nil, fmt.Errorf("error responding to interaction: %w", err)
		}
		return nil, nil
	}

	// Ensure the user is an administrator.
	if i.Member.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
		if err := respondEphemeral(a, i, "You must be an administrator to use this command."); err != nil {
			return nil, fmt.Errorf("error responding to interaction: %w", err)
		}
		return nil, nil
	}

	return setupTickets, nil
}

// setupTickets stores the guild config and posts the ticket panel.
func setupTickets(a IApp, i *discordgo.InteractionCreate) error {
	opts := optionMap(i.ApplicationCommandData().Options)

	panelChannel := opts[panelChannelOptName].ChannelValue(a.Session())
	staffRole := opts[staffRoleOptName].RoleValue(a.Session(), i.GuildID)
	categoryParent := opts[categoryParentOptName].ChannelValue(a.Session())
	logChannel := opts[logChannelOptName].ChannelValue(a.Session())

	// The option carries a ChannelTypes constraint, but the value arrives as
	// an ID and is only trusted once refetched.
	if panelChannel == nil || panelChannel.Type != discordgo.ChannelTypeGuildText {
		return respondEphemeral(a, i, "The panel channel must be a text channel.")
	}

	fetched, err := a.Session().Channel(panelChannel.ID)
	if err != nil {
		return respondEphemeral(a, i, "The panel channel could not be found.")
	}

	cfg := &entities.GuildConfig{
		PanelChannelID:   fetched.ID,
		StaffRoleID:      staffRole.ID,
		CategoryParentID: categoryParent.ID,
		LogChannelID:     logChannel.ID,
	}

	if err := a.Store().SetConfig(a.Context(), i.GuildID, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}

	// Post the panel.
	if _, err := a.Session().ChannelMessageSendComplex(fetched.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{panelEmbed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{panelMenu()},
			},
		},
	}); err != nil {
		return fmt.Errorf("error sending panel message: %w", err)
	}

	content := fmt.Sprintf("Ticket system configured.\nPanel: <#%s>\nStaff: <@&%s>\nCategory: <#%s>\nLogs: <#%s>",
		cfg.PanelChannelID, cfg.StaffRoleID, cfg.CategoryParentID, cfg.LogChannelID)
	if err := respondEphemeral(a, i, content); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}
