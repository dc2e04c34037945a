// Package discord adapts the Discord REST API to the workflow engine: it
// resolves identities, publishes and edits cards, delivers direct messages,
// and converts interaction payloads to and from platform-neutral types.
//
// The adapter is REST-only; inbound interactions arrive over the signed
// HTTP webhook served by internal/http.
package discord

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/interaction"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

// Session is the subset of *discordgo.Session the adapter calls.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	GuildMembersSearch(guildID, query string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// searchLimit bounds member search results considered for a name query.
const searchLimit = 10

var snowflakeRe = regexp.MustCompile(`^\d{15,21}$`)

// Client implements workflow.Resolver and workflow.Publisher.
type Client struct {
	S   Session
	Log zerolog.Logger
}

// New opens a REST session authenticated with the bot token.
func New(token string, log zerolog.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Client{S: s, Log: log.With().Str("component", "discord").Logger()}, nil
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func profile(u *discordgo.User) domain.Profile {
	return domain.Profile{
		ID:          u.ID,
		DisplayName: displayName(u),
		Automated:   u.Bot,
	}
}

// Profile fetches userID. ok is false when the user does not exist.
func (c *Client) Profile(ctx context.Context, userID string) (domain.Profile, bool, error) {
	u, err := c.S.User(userID, discordgo.WithContext(ctx))
	if isNotFound(err) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("get user: %w", err)
	}
	return profile(u), true, nil
}

// Resolve accepts a user id, a mention, or a name. Names are matched
// case-insensitively against username, global name, and nickname of the
// members of scope.
func (c *Client) Resolve(ctx context.Context, scope, query string) (domain.Profile, bool, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(q, "<@!"), "<@"), ">")
	if snowflakeRe.MatchString(q) {
		return c.Profile(ctx, q)
	}
	q = strings.TrimPrefix(strings.TrimSpace(query), "@")
	if q == "" || scope == "" {
		return domain.Profile{}, false, nil
	}

	members, err := c.S.GuildMembersSearch(scope, q, searchLimit, discordgo.WithContext(ctx))
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("search members: %w", err)
	}
	for _, m := range members {
		if m.User == nil {
			continue
		}
		if strings.EqualFold(m.User.Username, q) ||
			strings.EqualFold(m.User.GlobalName, q) ||
			strings.EqualFold(m.Nick, q) {
			return profile(m.User), true, nil
		}
	}
	return domain.Profile{}, false, nil
}

// Publish sends p to channelID and returns the new message id.
func (c *Client) Publish(ctx context.Context, channelID string, p workflow.Post) (string, error) {
	msg, err := c.S.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    p.Content,
		Components: buttonRows(p.Buttons),
		Files:      messageFiles(p),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

// Edit replaces content, attachments, and buttons of a published message.
func (c *Client) Edit(ctx context.Context, channelID, messageID string, p workflow.Post) error {
	content := p.Content
	comps := buttonRows(p.Buttons)
	attachments := []*discordgo.MessageAttachment{}
	_, err := c.S.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:          messageID,
		Channel:     channelID,
		Content:     &content,
		Components:  &comps,
		Files:       messageFiles(p),
		Attachments: &attachments,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// SetButtons replaces only the buttons of a published message.
func (c *Client) SetButtons(ctx context.Context, channelID, messageID string, buttons []workflow.Button) error {
	comps := buttonRows(buttons)
	_, err := c.S.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Components: &comps,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("set buttons: %w", err)
	}
	return nil
}

// SendPrivate delivers p as a direct message.
func (c *Client) SendPrivate(ctx context.Context, userID string, p workflow.Post) error {
	ch, err := c.S.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	if _, err := c.Publish(ctx, ch.ID, p); err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

// FollowUp edits the deferred response of i with resp. Transient platform
// errors are wrapped with workflow.ErrTransient.
func (c *Client) FollowUp(ctx context.Context, i *discordgo.Interaction, resp interaction.Response) error {
	if resp.Silent {
		return nil
	}
	_, err := c.S.InteractionResponseEdit(i, followUpEdit(resp.Reply), discordgo.WithContext(ctx))
	return classify("edit interaction response", err)
}
