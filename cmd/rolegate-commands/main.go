// Command rolegate-commands registers the gate's slash commands with a
// guild. Registration is a plain REST call; run it once per deployment or
// whenever the command set changes.
package main

import (
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/dbfutures/rolegate/pkg/config"
	"github.com/dbfutures/rolegate/pkg/discord"
)

func main() {
	root := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		root.Fatal().Err(err).Msg("configuration invalid")
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		root.Fatal().Err(err).Msg("discord session init failed")
	}

	if err := discord.RegisterCommands(session, cfg.DiscordAppID, cfg.GuildID); err != nil {
		root.Fatal().Err(err).Msg("command registration failed")
	}
	root.Info().Str("guild", cfg.GuildID).Msg("commands registered")
}
