package main

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/fennec-bot/fennec/cmd/bot/monitoring"
	"github.com/fennec-bot/fennec/pkg/logging"
)

func guildJoinedHandler(a *App) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Info(fmt.Sprintf("Joined guild %s", g.Name))

		// Increment the total number of guilds.
		monitoring.TotalDiscordGuilds.Inc()

		// Newly joined guilds need the commands too. Guild create also fires
		// once per guild on connect; re-registering is harmless as creation
		// upserts by name.
		if err := a.registerGuildCommands(g.ID); err != nil {
			a.Error("Error registering commands for guild",
				slog.String(logging.KeyGuild, g.ID),
				slog.String(logging.KeyError, err.Error()))
		}
	}
}

func guildLeaveHandler(a *App) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Info(fmt.Sprintf("Left guild %s", g.ID))

		// Decrement the total number of guilds.
		monitoring.TotalDiscordGuilds.Dec()
	}
}
