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

// TextReplySent confirms a delivered reply.
const TextReplySent = "✅ Your reply has been sent!"

// replyMapping loads the mapping for messageID and authorizes actor.
// Without a mapping there is no receiver to match, so the error is both a
// denial and an expiry.
func (e *Engine) replyMapping(messageID, userID string) (domain.DispatchMapping, error) {
	m, ok := e.Store.Mappings.Get(messageID)
	if !ok {
		return domain.DispatchMapping{}, fmt.Errorf("%w: %w", ErrUnauthorizedReplier, ErrMappingMissing)
	}
	if !policy.IsAuthorizedReplier(m, userID) {
		return domain.DispatchMapping{}, ErrUnauthorizedReplier
	}
	return m, nil
}

// RequestReply returns the reply form when actor received messageID.
func (e *Engine) RequestReply(ctx context.Context, actor Actor, messageID string) (r Reply, err error) {
	_, finish := e.begin(ctx, flowRequestReply, actor, attribute.String("message.id", messageID))
	defer func() { finish(err) }()

	if _, err = e.replyMapping(messageID, actor.ID); err != nil {
		return Reply{}, err
	}
	return Reply{Form: &Form{
		Action: action.ReplyForm(messageID),
		Title:  "Reply",
		Fields: []Field{{ID: FieldReply, Label: "Your Reply", Long: true, MaxLength: MaxReplyRunes}},
	}}, nil
}

// SubmitReply delivers text privately to the original sender of messageID.
func (e *Engine) SubmitReply(ctx context.Context, actor Actor, messageID, text string) (r Reply, err error) {
	ctx, finish := e.begin(ctx, flowSubmitReply, actor, attribute.String("message.id", messageID))
	defer func() { finish(err) }()

	text, err = cleanText(text, MaxReplyRunes)
	if err != nil {
		return Reply{}, err
	}
	m, err := e.replyMapping(messageID, actor.ID)
	if err != nil {
		return Reply{}, err
	}

	heading := fmt.Sprintf("📩 **%s replied to your anonymous message!**", actor.DisplayName)
	post := Post{Content: heading}
	img, rerr := e.Renderer.ReplyCard(text, actor.DisplayName)
	if rerr != nil {
		e.Log.Warn().Err(rerr).Msg("render reply card")
		post.Content = heading + "\n\n" + text
	} else {
		post.Image, post.FileName = img, "reply.png"
	}

	if err = e.Publisher.SendPrivate(ctx, m.SenderID, post); err != nil {
		return Reply{}, errors.Join(ErrPrivateSendFailed, err)
	}
	return Reply{Text: TextReplySent}, nil
}
