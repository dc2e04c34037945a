package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/tbourn/go-tellonym/internal/interaction"
)

var adminOnly = func() *int64 {
	p := int64(discordgo.PermissionAdministrator)
	return &p
}()

func channelOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         interaction.OptChannel,
		Description:  desc,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		Required:     true,
	}
}

func userOption(desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        interaction.OptUser,
		Description: desc,
		Required:    true,
	}
}

func adminCommand(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     name,
		Description:              desc,
		Options:                  opts,
		DefaultMemberPermissions: adminOnly,
	}
}

// Commands returns the slash command definitions served by the router.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: interaction.CmdTellonym, Description: "Send an anonymous message"},
		{Name: interaction.CmdHelp, Description: "Display help information for the Tellonym bot"},
		adminCommand(interaction.CmdPanel, "Display the Tellonym panel with the button"),
		adminCommand(interaction.CmdLogs, "Set channel to show member who send anonymous messages",
			channelOption("The channel for admin logs")),
		adminCommand(interaction.CmdShowLogs, "Set the tellonym logs channel",
			channelOption("The channel to send tellonym logs to")),
		adminCommand(interaction.CmdToggle, "Enable or disable the Tellonym system", &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        interaction.OptEnabled,
			Description: "Whether anonymous messages can be sent",
			Required:    true,
		}),
		adminCommand(interaction.CmdBan, "Manage user bans for anonymous messages",
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Ban a user from sending tellonyms",
				Options:     []*discordgo.ApplicationCommandOption{userOption("The user to ban")},
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Unban a user",
				Options:     []*discordgo.ApplicationCommandOption{userOption("The user to unban")},
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List all banned users",
			},
		),
		adminCommand(interaction.CmdRateLimit, "Configure rate limiting for anonymous messages",
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        interaction.OptMessages,
				Description: "Number of messages allowed per window (0 to disable)",
				Required:    true,
			},
			&discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        interaction.OptWindow,
				Description: "Time window in minutes",
			},
		),
		adminCommand(interaction.CmdRateStats, "View current rate limiting statistics"),
		adminCommand(interaction.CmdMsgStats, "View message type statistics"),
		adminCommand(interaction.CmdResetStats, "Reset message type statistics"),
		adminCommand(interaction.CmdShowConfig, "Show Tellonym configuration for this server"),
	}
}

// RegisterCommands overwrites the application's commands. An empty guildID
// registers them globally.
func (c *Client) RegisterCommands(ctx context.Context, appID, guildID string) (int, error) {
	out, err := c.S.ApplicationCommandBulkOverwrite(appID, guildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("register commands: %w", err)
	}
	return len(out), nil
}
