package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/go-tellonym/internal/domain"
)

// AdminLogOutcome says which path an admin log delivery took.
type AdminLogOutcome int

const (
	AdminLogSkipped AdminLogOutcome = iota
	AdminLogCard
	AdminLogText
	AdminLogFailed
)

func (o AdminLogOutcome) String() string {
	switch o {
	case AdminLogCard:
		return "card"
	case AdminLogText:
		return "text"
	case AdminLogFailed:
		return "failed"
	}
	return "skipped"
}

// AdminLogResult reports the outcome and, on the text or failed paths, the
// error that forced it.
type AdminLogResult struct {
	Outcome AdminLogOutcome
	Err     error
}

// adminLog posts the privileged copy of a note. A card failure (render or
// publish) falls back to a text summary; the public publish is never
// affected.
func (e *Engine) adminLog(ctx context.Context, cfg domain.Config, content string, sender, receiver domain.Profile) AdminLogResult {
	if cfg.AdminLogChannelID == "" {
		return AdminLogResult{Outcome: AdminLogSkipped}
	}

	cardErr := e.adminCard(ctx, cfg.AdminLogChannelID, content, sender, receiver)
	if cardErr == nil {
		return AdminLogResult{Outcome: AdminLogCard}
	}

	text := fmt.Sprintf("**Admin Log: New Tellonym (Image Failed)**\n"+
		"**Sender:** %s (%s)\n**Receiver:** %s (%s)\n**Message:** %s",
		sender.DisplayName, sender.ID, receiver.DisplayName, receiver.ID, content)
	if _, err := e.Publisher.Publish(ctx, cfg.AdminLogChannelID, Post{Content: text}); err != nil {
		return AdminLogResult{Outcome: AdminLogFailed, Err: errors.Join(cardErr, err)}
	}
	return AdminLogResult{Outcome: AdminLogText, Err: cardErr}
}

func (e *Engine) adminCard(ctx context.Context, channelID, content string, sender, receiver domain.Profile) error {
	img, err := e.Renderer.AdminCard(content, sender, receiver)
	if err != nil {
		return fmt.Errorf("render admin card: %w", err)
	}
	_, err = e.Publisher.Publish(ctx, channelID, Post{
		Content:  fmt.Sprintf("Sender: %s | Receiver: %s", Mention(sender.ID), Mention(receiver.ID)),
		Image:    img,
		FileName: "admin-log.png",
	})
	if err != nil {
		return fmt.Errorf("publish admin card: %w", err)
	}
	return nil
}
