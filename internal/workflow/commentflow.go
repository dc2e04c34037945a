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

// Texts used by the comment sub-flow.
const (
	TextChooseMode      = "How would you like to comment?"
	TextRefreshed       = "✅ Message automatically updated with your comment!"
	textCommentAdded    = "Click the button below to automatically update the message with your comment:"
	originalFallback    = "Original message"
)

// gateComment requires a live mapping and no prior comment by userID.
func (e *Engine) gateComment(messageID, userID string) (domain.DispatchMapping, error) {
	m, ok := e.Store.Mappings.Get(messageID)
	if !ok {
		return domain.DispatchMapping{}, ErrMappingMissing
	}
	if policy.HasCommented(e.Store, messageID, userID) {
		return domain.DispatchMapping{}, ErrAlreadyCommented
	}
	return m, nil
}

// RequestComment asks actor to pick anonymous or identified commenting.
func (e *Engine) RequestComment(ctx context.Context, actor Actor, messageID string) (r Reply, err error) {
	_, finish := e.begin(ctx, flowRequestComm, actor, attribute.String("message.id", messageID))
	defer func() { finish(err) }()

	if _, err = e.gateComment(messageID, actor.ID); err != nil {
		return Reply{}, err
	}
	return Reply{
		Text: TextChooseMode,
		Select: &Select{
			Action:      action.CommentMode(messageID),
			Placeholder: "Choose comment type",
			Options: []Option{
				{Label: "Anonymous Comment", Value: string(domain.ModeAnonymous), Description: "Comment without revealing your identity"},
				{Label: "Identified Comment", Value: string(domain.ModeIdentified), Description: "Comment with your identity shown"},
			},
		},
	}, nil
}

// ChooseCommentMode returns the comment form for the selected mode value.
func (e *Engine) ChooseCommentMode(ctx context.Context, actor Actor, messageID, value string) (r Reply, err error) {
	_, finish := e.begin(ctx, flowChooseMode, actor, attribute.String("message.id", messageID))
	defer func() { finish(err) }()

	mode, ok := domain.ParseCommentMode(value)
	if !ok {
		return Reply{}, fmt.Errorf("unknown comment mode %q", value)
	}
	if _, err = e.gateComment(messageID, actor.ID); err != nil {
		return Reply{}, err
	}

	title := "Add Anonymous Comment"
	if mode == domain.ModeIdentified {
		title = "Add Identified Comment"
	}
	return Reply{Form: &Form{
		Action: action.CommentForm(messageID, mode),
		Title:  title,
		Fields: []Field{{ID: FieldComment, Label: "Your Comment", Long: true, MaxLength: MaxCommentRunes}},
	}}, nil
}

// SubmitComment records actor's comment on messageID. The marker write is
// the commit point: of concurrent submissions by one user exactly one wins.
func (e *Engine) SubmitComment(ctx context.Context, actor Actor, messageID string, mode domain.CommentMode, text string) (r Reply, err error) {
	_, finish := e.begin(ctx, flowSubmitComment, actor,
		attribute.String("message.id", messageID),
		attribute.String("comment.mode", string(mode)))
	defer func() { finish(err) }()

	if !mode.Valid() {
		return Reply{}, fmt.Errorf("unknown comment mode %q", mode)
	}
	text, err = cleanText(text, MaxCommentRunes)
	if err != nil {
		return Reply{}, err
	}
	if _, err = e.gateComment(messageID, actor.ID); err != nil {
		return Reply{}, err
	}
	if !e.Store.MarkCommented(messageID, actor.ID) {
		return Reply{}, ErrAlreadyCommented
	}

	c := domain.Comment{
		Mode:      mode,
		AuthorID:  actor.ID,
		Text:      text,
		CreatedAt: e.Store.Clock().Now(),
	}
	lead := "✔ Your anonymous comment has been added!"
	if mode == domain.ModeIdentified {
		c.AuthorName = actor.DisplayName
		lead = fmt.Sprintf("✔ Your comment has been added as %s!", actor.DisplayName)
	}
	e.Store.AppendComment(messageID, c)

	return Reply{
		Text: lead + " " + textCommentAdded,
		Buttons: []Button{{
			Label:  "Auto-Update Message",
			Style:  StyleSuccess,
			Action: action.Refresh(messageID),
		}},
	}, nil
}

// Refresh re-renders the published card with its current comment thread
// and replaces it in place.
func (e *Engine) Refresh(ctx context.Context, actor Actor, messageID string) (r Reply, err error) {
	ctx, finish := e.begin(ctx, flowRefresh, actor, attribute.String("message.id", messageID))
	defer func() { finish(err) }()

	m, ok := e.Store.Mappings.Get(messageID)
	if !ok {
		return Reply{}, ErrMappingMissing
	}
	receiver, ok, err := e.Resolver.Profile(ctx, m.ReceiverID)
	if err != nil {
		return Reply{}, fmt.Errorf("load receiver: %w", err)
	}
	if !ok {
		receiver = domain.Profile{ID: m.ReceiverID, DisplayName: "Unknown"}
	}

	content, ok := e.Store.Originals.Get(messageID)
	if !ok {
		content = originalFallback
	}

	post := e.messagePost(content, receiver, m.Type, e.Store.Comments(messageID))
	post.Buttons = cardButtons(messageID)
	if err = e.Publisher.Edit(ctx, m.ChannelID, messageID, post); err != nil {
		return Reply{}, errors.Join(ErrEditFailed, err)
	}
	return Reply{Text: TextRefreshed}, nil
}
