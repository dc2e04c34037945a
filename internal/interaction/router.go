package interaction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-tellonym/internal/action"
	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

// Engine is the subset of *workflow.Engine the router drives.
type Engine interface {
	OpenCompose(ctx context.Context, actor workflow.Actor) (workflow.Reply, error)
	SubmitCompose(ctx context.Context, actor workflow.Actor, query, content string) (workflow.Reply, error)
	ChooseType(ctx context.Context, actor workflow.Actor, t domain.MessageType, cacheID string) (workflow.Reply, error)
	RequestReply(ctx context.Context, actor workflow.Actor, messageID string) (workflow.Reply, error)
	SubmitReply(ctx context.Context, actor workflow.Actor, messageID, text string) (workflow.Reply, error)
	RequestComment(ctx context.Context, actor workflow.Actor, messageID string) (workflow.Reply, error)
	ChooseCommentMode(ctx context.Context, actor workflow.Actor, messageID, value string) (workflow.Reply, error)
	SubmitComment(ctx context.Context, actor workflow.Actor, messageID string, mode domain.CommentMode, text string) (workflow.Reply, error)
	Refresh(ctx context.Context, actor workflow.Actor, messageID string) (workflow.Reply, error)
}

// Ack says how an event is acknowledged.
type Ack int

const (
	// AckSync answers with the route's result directly.
	AckSync Ack = iota
	// AckDeferred acknowledges at once and delivers the result as an edit.
	AckDeferred
)

// Response is what the transport sends back to the actor.
type Response struct {
	Reply workflow.Reply
	// Public responses are visible to the whole channel.
	Public bool
	// Silent responses are not delivered at all.
	Silent bool
}

// Route is a resolved dispatch entry, ready to run.
type Route struct {
	Ack    Ack
	Flow   string
	Public bool

	run func(ctx context.Context) (workflow.Reply, error)
}

// Flow names used for error wording and logs.
const (
	flowCompose  = "compose"
	flowClassify = "classify"
	flowReply    = "reply"
	flowComment  = "comment"
	flowRefresh  = "refresh"
	flowAdmin    = "admin"
)

// Router maps events to engine and admin calls.
type Router struct {
	Engine Engine
	Admin  Admin
	Log    zerolog.Logger
}

type binding struct {
	ack  Ack
	flow string
	call func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error)
}

type dispatchKey struct {
	event EventKind
	kind  action.Kind
}

var table = map[dispatchKey]binding{
	{EventTrigger, action.KindCompose}: {AckSync, flowCompose,
		func(r *Router, ctx context.Context, ev Event, _ action.Action) (workflow.Reply, error) {
			return r.Engine.OpenCompose(ctx, ev.Actor)
		}},
	{EventForm, action.KindComposeForm}: {AckDeferred, flowCompose,
		func(r *Router, ctx context.Context, ev Event, _ action.Action) (workflow.Reply, error) {
			return r.Engine.SubmitCompose(ctx, ev.Actor, ev.field(workflow.FieldReceiver), ev.field(workflow.FieldMessage))
		}},
	{EventTrigger, action.KindClassify}: {AckDeferred, flowClassify,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.ChooseType(ctx, ev.Actor, a.Type, a.CacheID)
		}},
	{EventTrigger, action.KindReply}: {AckSync, flowReply,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.RequestReply(ctx, ev.Actor, a.MessageID)
		}},
	{EventForm, action.KindReplyForm}: {AckDeferred, flowReply,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.SubmitReply(ctx, ev.Actor, a.MessageID, ev.field(workflow.FieldReply))
		}},
	{EventTrigger, action.KindComment}: {AckSync, flowComment,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.RequestComment(ctx, ev.Actor, a.MessageID)
		}},
	{EventSelect, action.KindCommentMode}: {AckSync, flowComment,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.ChooseCommentMode(ctx, ev.Actor, a.MessageID, ev.firstValue())
		}},
	{EventForm, action.KindCommentForm}: {AckDeferred, flowComment,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.SubmitComment(ctx, ev.Actor, a.MessageID, a.Mode, ev.field(workflow.FieldComment))
		}},
	{EventTrigger, action.KindRefresh}: {AckDeferred, flowRefresh,
		func(r *Router, ctx context.Context, ev Event, a action.Action) (workflow.Reply, error) {
			return r.Engine.Refresh(ctx, ev.Actor, a.MessageID)
		}},
}

// Route resolves ev to a dispatch entry. ok is false for events the router
// does not recognise; those are ignored.
func (r *Router) Route(ev Event) (Route, bool) {
	if ev.Kind == EventCommand {
		return r.commandRoute(ev)
	}

	a, ok := action.Parse(ev.CustomID)
	if !ok {
		return Route{}, false
	}
	b, ok := table[dispatchKey{ev.Kind, a.Kind}]
	if !ok {
		return Route{}, false
	}
	return Route{
		Ack:  b.ack,
		Flow: b.flow,
		run: func(ctx context.Context) (workflow.Reply, error) {
			return b.call(r, ctx, ev, a)
		},
	}, true
}

// Run executes the route and translates its outcome into a Response.
func (r *Router) Run(ctx context.Context, rt Route) Response {
	reply, err := rt.run(ctx)
	if err == nil {
		return Response{Reply: reply, Public: rt.Public}
	}

	text, show := userText(rt.Flow, err)
	// The engine logs its own failures.
	if rt.Flow == flowAdmin && workflow.Classify(err) == workflow.KindUnexpected {
		r.Log.Error().Err(err).Str("flow", rt.Flow).Msg("interaction failed")
	}
	if !show {
		return Response{Silent: true}
	}
	return Response{Reply: workflow.Reply{Text: text}}
}

// Handle routes and runs ev in one step. ok is false when ev was ignored.
func (r *Router) Handle(ctx context.Context, ev Event) (Response, bool) {
	rt, ok := r.Route(ev)
	if !ok {
		return Response{}, false
	}
	return r.Run(ctx, rt), true
}
