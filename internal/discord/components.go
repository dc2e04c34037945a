package discord

import (
	"bytes"

	"github.com/bwmarrin/discordgo"

	"github.com/tbourn/go-tellonym/internal/interaction"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

// maxButtonsPerRow is the platform's action row width.
const maxButtonsPerRow = 5

var buttonStyles = map[workflow.ButtonStyle]discordgo.ButtonStyle{
	workflow.StylePrimary:   discordgo.PrimaryButton,
	workflow.StyleSecondary: discordgo.SecondaryButton,
	workflow.StyleSuccess:   discordgo.SuccessButton,
	workflow.StyleDanger:    discordgo.DangerButton,
}

func buttonStyle(s workflow.ButtonStyle) discordgo.ButtonStyle {
	if st, ok := buttonStyles[s]; ok {
		return st
	}
	return discordgo.SecondaryButton
}

// buttonRows lays buttons out in rows of at most five.
func buttonRows(buttons []workflow.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons); start += maxButtonsPerRow {
		end := min(start+maxButtonsPerRow, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Style),
				CustomID: b.Action.ID(),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func selectRow(s *workflow.Select) discordgo.MessageComponent {
	opts := make([]discordgo.SelectMenuOption, 0, len(s.Options))
	for _, o := range s.Options {
		opts = append(opts, discordgo.SelectMenuOption{Label: o.Label, Value: o.Value, Description: o.Description})
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    s.Action.ID(),
			Placeholder: s.Placeholder,
			Options:     opts,
		},
	}}
}

// components converts the interactive parts of a reply.
func components(r workflow.Reply) []discordgo.MessageComponent {
	out := buttonRows(r.Buttons)
	if r.Select != nil {
		out = append(out, selectRow(r.Select))
	}
	return out
}

func modal(f *workflow.Form) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(f.Fields))
	for _, fd := range f.Fields {
		style := discordgo.TextInputShort
		if fd.Long {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  fd.ID,
				Label:     fd.Label,
				Style:     style,
				Required:  true,
				MaxLength: fd.MaxLength,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   f.Action.ID(),
		Title:      f.Title,
		Components: rows,
	}
}

func flags(public bool) discordgo.MessageFlags {
	if public {
		return 0
	}
	return discordgo.MessageFlagsEphemeral
}

// InitialResponse converts a synchronous result into the interaction
// response. It returns nil for silent results.
func InitialResponse(resp interaction.Response) *discordgo.InteractionResponse {
	if resp.Silent {
		return nil
	}
	if resp.Reply.Form != nil {
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: modal(resp.Reply.Form),
		}
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    resp.Reply.Text,
			Components: components(resp.Reply),
			Flags:      flags(resp.Public),
		},
	}
}

// DeferredResponse acknowledges an event whose result follows as an edit.
func DeferredResponse(public bool) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(public)},
	}
}

// PongResponse answers a ping.
func PongResponse() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
}

// followUpEdit converts a deferred result into the edit of the original
// response. Forms cannot follow a deferral and degrade to their title.
func followUpEdit(r workflow.Reply) *discordgo.WebhookEdit {
	text := r.Text
	if text == "" && r.Form != nil {
		text = r.Form.Title
	}
	comps := components(r)
	return &discordgo.WebhookEdit{Content: &text, Components: &comps}
}

// messageFiles attaches the post image, if any.
func messageFiles(p workflow.Post) []*discordgo.File {
	if len(p.Image) == 0 {
		return nil
	}
	name := p.FileName
	if name == "" {
		name = "image.png"
	}
	return []*discordgo.File{{Name: name, ContentType: "image/png", Reader: bytes.NewReader(p.Image)}}
}
