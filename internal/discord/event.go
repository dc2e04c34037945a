package discord

import (
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/tbourn/go-tellonym/internal/interaction"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

func actor(i *discordgo.Interaction) (workflow.Actor, bool) {
	u := i.User
	admin := false
	if i.Member != nil {
		if i.Member.User != nil {
			u = i.Member.User
		}
		admin = i.Member.Permissions&discordgo.PermissionAdministrator != 0
	}
	a := workflow.Actor{Scope: i.GuildID}
	if u != nil {
		a.Profile = profile(u)
	}
	return a, admin
}

func optionValue(o *discordgo.ApplicationCommandInteractionDataOption) string {
	switch v := o.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func flattenOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) (sub string, out map[string]string) {
	out = make(map[string]string, len(opts))
	for _, o := range opts {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			sub = o.Name
			_, nested := flattenOptions(o.Options)
			for k, v := range nested {
				out[k] = v
			}
			continue
		}
		out[o.Name] = optionValue(o)
	}
	return sub, out
}

func textInputs(comps []discordgo.MessageComponent, out map[string]string) {
	for _, c := range comps {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			textInputs(v.Components, out)
		case discordgo.ActionsRow:
			textInputs(v.Components, out)
		case *discordgo.TextInput:
			out[v.CustomID] = v.Value
		case discordgo.TextInput:
			out[v.CustomID] = v.Value
		}
	}
}

// ToEvent converts an inbound interaction. Pings and autocompletes map to
// interaction.EventUnknown.
func ToEvent(i *discordgo.Interaction) interaction.Event {
	a, admin := actor(i)
	ev := interaction.Event{Actor: a, Admin: admin}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		ev.Kind = interaction.EventCommand
		ev.Name = data.Name
		ev.Subcommand, ev.Options = flattenOptions(data.Options)

	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		ev.CustomID = data.CustomID
		ev.Values = data.Values
		ev.Kind = interaction.EventTrigger
		if data.ComponentType == discordgo.SelectMenuComponent || len(data.Values) > 0 {
			ev.Kind = interaction.EventSelect
		}

	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		ev.Kind = interaction.EventForm
		ev.CustomID = data.CustomID
		ev.Fields = map[string]string{}
		textInputs(data.Components, ev.Fields)
	}
	return ev
}
