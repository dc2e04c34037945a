// Interactions webhook.
//
// The platform POSTs every interaction to one endpoint and expects an answer
// within three seconds. Quick steps (forms, choice prompts, admin commands)
// are answered inline. Steps doing I/O are acknowledged with a deferred
// response and finished in the background by editing that response.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-tellonym/internal/discord"
	"github.com/tbourn/go-tellonym/internal/http/middleware"
	"github.com/tbourn/go-tellonym/internal/interaction"
)

// interactionKey stores the decoded interaction in the gin context.
const interactionKey = "interaction"

// followUpTTL bounds background work; interaction tokens expire after 15m.
const followUpTTL = 14 * time.Minute

// InteractionRouter resolves and runs events.
type InteractionRouter interface {
	Route(ev interaction.Event) (interaction.Route, bool)
	Run(ctx context.Context, rt interaction.Route) interaction.Response
}

// FollowUpper edits a deferred interaction response.
type FollowUpper interface {
	FollowUp(ctx context.Context, i *discordgo.Interaction, resp interaction.Response) error
}

// Interactions serves the webhook.
type Interactions struct {
	router   InteractionRouter
	platform FollowUpper
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewInteractions builds the webhook handler.
func NewInteractions(router InteractionRouter, platform FollowUpper, log zerolog.Logger) *Interactions {
	return &Interactions{
		router:   router,
		platform: platform,
		log:      log.With().Str("component", "interactions").Logger(),
	}
}

// Decode parses the signed body into an interaction and records the acting
// user so the edge rate limiter keys per user. Run it after signature
// verification and before rate limiting.
func (h *Interactions) Decode() gin.HandlerFunc {
	return func(c *gin.Context) {
		var i discordgo.Interaction
		if err := json.NewDecoder(c.Request.Body).Decode(&i); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeInvalidPayload, "invalid interaction payload")
			return
		}
		if u := actorOf(&i); u != nil {
			middleware.SetUserID(c, u.ID)
		}
		c.Set(interactionKey, &i)
		c.Next()
	}
}

func actorOf(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// Handle answers one interaction.
func (h *Interactions) Handle(c *gin.Context) {
	v, _ := c.Get(interactionKey)
	i, isInteraction := v.(*discordgo.Interaction)
	if !isInteraction {
		fail(c, http.StatusBadRequest, ErrCodeInvalidPayload, "missing interaction")
		return
	}
	if i.Type == discordgo.InteractionPing {
		ok(c, http.StatusOK, discord.PongResponse())
		return
	}

	rt, found := h.router.Route(discord.ToEvent(i))
	if !found {
		middleware.LoggerFrom(c).Debug().Str("interaction_id", i.ID).Msg("ignored interaction")
		noContent(c)
		return
	}

	if rt.Ack == interaction.AckDeferred {
		ok(c, http.StatusOK, discord.DeferredResponse(rt.Public))
		h.finish(c.Request.Context(), i, rt)
		return
	}

	resp := discord.InitialResponse(h.router.Run(c.Request.Context(), rt))
	if resp == nil {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, resp)
}

// finish runs a deferred route detached from the request and edits the
// deferred response with its result.
func (h *Interactions) finish(parent context.Context, i *discordgo.Interaction, rt interaction.Route) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), followUpTTL)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()

		resp := h.router.Run(ctx, rt)
		if err := h.platform.FollowUp(ctx, i, resp); err != nil {
			ev := h.log.Error()
			if discord.IsTransient(err) {
				ev = h.log.Debug()
			}
			ev.Err(err).Str("interaction_id", i.ID).Str("flow", rt.Flow).Msg("follow-up failed")
		}
	}()
}

// Wait blocks until background follow-ups finish or ctx ends.
func (h *Interactions) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
