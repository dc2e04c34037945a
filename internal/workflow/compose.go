package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-tellonym/internal/action"
	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/policy"
)

// Messages shown at the end of the compose flow.
const (
	TextChooseType = "What type of message is this?"
	TextSent       = "✔ Your anonymous message has been sent!"
)

var typeStyles = map[domain.MessageType]ButtonStyle{
	domain.TypeQuestion:   StylePrimary,
	domain.TypeCompliment: StyleSuccess,
	domain.TypeAdvice:     StyleSecondary,
	domain.TypeConfession: StyleDanger,
}

// OpenCompose runs the entry gates and returns the compose form.
func (e *Engine) OpenCompose(ctx context.Context, actor Actor) (r Reply, err error) {
	ctx, finish := e.begin(ctx, flowOpenCompose, actor)
	defer func() { finish(err) }()

	cfg, err := e.readConfig(ctx)
	if err != nil {
		return Reply{}, err
	}
	if err = gateSender(cfg, actor.ID); err != nil {
		return Reply{}, err
	}
	if err = e.gateRate(ctx, actor.ID); err != nil {
		return Reply{}, err
	}

	return Reply{Form: &Form{
		Action: action.ComposeForm(),
		Title:  "Send Anonymous Message",
		Fields: []Field{
			{ID: FieldReceiver, Label: "Receiver (ID or Username)"},
			{ID: FieldMessage, Label: "Message", Long: true},
		},
	}}, nil
}

// SubmitCompose validates the draft, resolves the receiver, and stores a
// PendingCompose. A sender with a remembered type is published straight
// away; everyone else is asked to pick a type.
//
// The attempt is recorded against the sender's rate window once every
// sender gate has passed, before the receiver is resolved.
func (e *Engine) SubmitCompose(ctx context.Context, actor Actor, query, content string) (r Reply, err error) {
	ctx, finish := e.begin(ctx, flowSubmitCompose, actor)
	defer func() { finish(err) }()

	content, err = cleanText(content, 0)
	if err != nil {
		return Reply{}, err
	}
	cfg, err := e.readConfig(ctx)
	if err != nil {
		return Reply{}, err
	}
	if err = gateSender(cfg, actor.ID); err != nil {
		return Reply{}, err
	}
	if !policy.LogsConfigured(cfg) {
		return Reply{}, ErrLogsNotConfigured
	}
	if err = e.gateRate(ctx, actor.ID); err != nil {
		return Reply{}, err
	}
	if err = e.Limiter.RecordAttempt(ctx, actor.ID); err != nil {
		return Reply{}, fmt.Errorf("record attempt: %w", err)
	}

	receiver, err := e.resolveReceiver(ctx, actor.Scope, query)
	if err != nil {
		return Reply{}, err
	}

	cacheID := e.newID()
	e.Store.Pending.Put(cacheID, domain.PendingCompose{
		SenderID:   actor.ID,
		ReceiverID: receiver.ID,
		Content:    content,
	})

	if t, ok := e.Store.Choices.Get(actor.ID); ok {
		return e.publish(ctx, actor, t, cacheID)
	}

	buttons := make([]Button, 0, len(domain.MessageTypes))
	for _, t := range domain.MessageTypes {
		buttons = append(buttons, Button{
			Label:  e.title(string(t)),
			Style:  typeStyles[t],
			Action: action.Classify(t, cacheID),
		})
	}
	return Reply{Text: TextChooseType, Buttons: buttons}, nil
}

func (e *Engine) resolveReceiver(ctx context.Context, scope, query string) (domain.Profile, error) {
	p, ok, err := e.Resolver.Resolve(ctx, scope, query)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("resolve receiver: %w", err)
	}
	if !ok {
		return domain.Profile{}, &ReceiverNotFoundError{Query: query}
	}
	if p.Automated {
		return domain.Profile{}, ErrReceiverAutomated
	}
	return p, nil
}

// ChooseType publishes the pending compose under cacheID as type t.
// A second call for the same cacheID finds nothing and returns
// ErrPendingComposeMissing.
func (e *Engine) ChooseType(ctx context.Context, actor Actor, t domain.MessageType, cacheID string) (r Reply, err error) {
	ctx, finish := e.begin(ctx, flowClassify, actor,
		attribute.String("message.type", string(t)),
		attribute.String("cache.id", cacheID))
	defer func() { finish(err) }()

	return e.publish(ctx, actor, t, cacheID)
}

func (e *Engine) publish(ctx context.Context, actor Actor, t domain.MessageType, cacheID string) (Reply, error) {
	if !t.Valid() {
		return Reply{}, fmt.Errorf("unknown message type %q", t)
	}
	cfg, err := e.readConfig(ctx)
	if err != nil {
		return Reply{}, err
	}
	if err := gateSender(cfg, actor.ID); err != nil {
		return Reply{}, err
	}
	if !policy.LogsConfigured(cfg) {
		return Reply{}, ErrLogsNotConfigured
	}

	pending, ok := e.Store.Pending.Get(cacheID)
	if !ok || pending.SenderID != actor.ID {
		return Reply{}, ErrPendingComposeMissing
	}

	receiver, ok, err := e.Resolver.Profile(ctx, pending.ReceiverID)
	if err != nil {
		return Reply{}, fmt.Errorf("load receiver: %w", err)
	}
	if !ok {
		return Reply{}, &ReceiverNotFoundError{Query: pending.ReceiverID}
	}
	if receiver.Automated {
		return Reply{}, ErrReceiverAutomated
	}

	post := e.messagePost(pending.Content, receiver, t, nil)

	// Consumption point: whoever takes the entry publishes it.
	if _, ok := e.Store.Pending.Take(cacheID); !ok {
		return Reply{}, ErrPendingComposeMissing
	}
	e.Store.Choices.Put(actor.ID, t)

	if err := e.Config.IncrementCounter(ctx, t); err != nil {
		e.Log.Error().Err(err).Str("type", string(t)).Msg("increment type counter")
	}

	msgID, err := e.Publisher.Publish(ctx, cfg.LogChannelID, post)
	if err != nil {
		return Reply{}, errors.Join(ErrPublishFailed, err)
	}

	if err := e.Publisher.SetButtons(ctx, cfg.LogChannelID, msgID, cardButtons(msgID)); err != nil {
		e.Log.Warn().Err(err).Str("message_id", msgID).Msg("attach card buttons")
	}

	e.Store.Mappings.Put(msgID, domain.DispatchMapping{
		SenderID:           pending.SenderID,
		ReceiverID:         pending.ReceiverID,
		ChannelID:          cfg.LogChannelID,
		PublishedMessageID: msgID,
		Type:               t,
		CreatedAt:          e.Store.Clock().Now(),
	})
	e.Store.Originals.Put(msgID, pending.Content)

	res := e.adminLog(ctx, cfg, pending.Content, actor.Profile, receiver)
	adminLogs.WithLabelValues(res.Outcome.String()).Inc()
	if res.Err != nil {
		e.Log.Warn().Err(res.Err).Str("outcome", res.Outcome.String()).Msg("admin log")
	}

	e.Log.Info().
		Str("message_id", msgID).
		Str("type", string(t)).
		Msg("note published")

	return Reply{Text: TextSent}, nil
}

// messagePost renders the public card, falling back to a text-only post.
func (e *Engine) messagePost(content string, receiver domain.Profile, t domain.MessageType, comments []domain.Comment) Post {
	heading := fmt.Sprintf("**New %s**\nMessage Sent To: %s", e.title(string(t)), Mention(receiver.ID))
	img, err := e.Renderer.MessageCard(content, receiver.DisplayName, t, comments)
	if err != nil {
		e.Log.Warn().Err(err).Msg("render message card")
		return Post{Content: heading + "\n\n" + content}
	}
	return Post{Content: heading, Image: img, FileName: "tellonym.png"}
}

// cardButtons are the actions attached to every published card.
func cardButtons(messageID string) []Button {
	return []Button{
		{Label: "Comment", Style: StyleSecondary, Action: action.Comment(messageID)},
		{Label: "Reply", Style: StylePrimary, Action: action.Reply(messageID)},
	}
}
