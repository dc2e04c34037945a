package interaction

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-tellonym/internal/action"
	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/services"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

type call struct {
	op   string
	args []string
}

type fakeEngine struct {
	calls []call
	err   error
}

func (f *fakeEngine) rec(op string, args ...string) (workflow.Reply, error) {
	f.calls = append(f.calls, call{op, args})
	if f.err != nil {
		return workflow.Reply{}, f.err
	}
	return workflow.Reply{Text: op}, nil
}

func (f *fakeEngine) OpenCompose(_ context.Context, a workflow.Actor) (workflow.Reply, error) {
	return f.rec("OpenCompose", a.ID)
}
func (f *fakeEngine) SubmitCompose(_ context.Context, a workflow.Actor, q, c string) (workflow.Reply, error) {
	return f.rec("SubmitCompose", a.ID, q, c)
}
func (f *fakeEngine) ChooseType(_ context.Context, a workflow.Actor, t domain.MessageType, id string) (workflow.Reply, error) {
	return f.rec("ChooseType", a.ID, string(t), id)
}
func (f *fakeEngine) RequestReply(_ context.Context, a workflow.Actor, m string) (workflow.Reply, error) {
	return f.rec("RequestReply", a.ID, m)
}
func (f *fakeEngine) SubmitReply(_ context.Context, a workflow.Actor, m, t string) (workflow.Reply, error) {
	return f.rec("SubmitReply", a.ID, m, t)
}
func (f *fakeEngine) RequestComment(_ context.Context, a workflow.Actor, m string) (workflow.Reply, error) {
	return f.rec("RequestComment", a.ID, m)
}
func (f *fakeEngine) ChooseCommentMode(_ context.Context, a workflow.Actor, m, v string) (workflow.Reply, error) {
	return f.rec("ChooseCommentMode", a.ID, m, v)
}
func (f *fakeEngine) SubmitComment(_ context.Context, a workflow.Actor, m string, mode domain.CommentMode, t string) (workflow.Reply, error) {
	return f.rec("SubmitComment", a.ID, m, string(mode), t)
}
func (f *fakeEngine) Refresh(_ context.Context, a workflow.Actor, m string) (workflow.Reply, error) {
	return f.rec("Refresh", a.ID, m)
}

type fakeAdmin struct {
	cfg    domain.Config
	bans   map[string]bool
	policy domain.RatePolicy
	stats  services.MessageStats
	err    error
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		cfg:  domain.Config{Enabled: true, BannedUsers: map[string]struct{}{}},
		bans: map[string]bool{},
		stats: services.MessageStats{
			Counts: map[domain.MessageType]int64{domain.TypeQuestion: 2, domain.TypeAdvice: 1},
			Total:  3,
		},
	}
}

func (f *fakeAdmin) Config(context.Context) (domain.Config, error) { return f.cfg, f.err }
func (f *fakeAdmin) SetLogChannel(_ context.Context, ch string) (domain.Config, error) {
	if ch == "bad" {
		return domain.Config{}, services.ErrInvalidChannelID
	}
	f.cfg.LogChannelID = ch
	return f.cfg, f.err
}
func (f *fakeAdmin) SetAdminLogChannel(_ context.Context, ch string) (domain.Config, error) {
	f.cfg.AdminLogChannelID = ch
	return f.cfg, f.err
}
func (f *fakeAdmin) SetEnabled(_ context.Context, on bool) (domain.Config, error) {
	f.cfg.Enabled = on
	return f.cfg, f.err
}
func (f *fakeAdmin) ConfigureRateLimit(_ context.Context, l, w int) (domain.RatePolicy, error) {
	f.policy = domain.RatePolicy{Limit: l, WindowMinutes: w}
	return f.policy, f.err
}
func (f *fakeAdmin) Ban(_ context.Context, id string) error {
	if f.bans[id] {
		return services.ErrAlreadyBanned
	}
	f.bans[id] = true
	return nil
}
func (f *fakeAdmin) Unban(_ context.Context, id string) error {
	if !f.bans[id] {
		return services.ErrNotBanned
	}
	delete(f.bans, id)
	return nil
}
func (f *fakeAdmin) ListBans(context.Context, int, int) ([]domain.BannedUser, int64, error) {
	var out []domain.BannedUser
	for id := range f.bans {
		out = append(out, domain.BannedUser{UserID: id})
	}
	return out, int64(len(out)), nil
}
func (f *fakeAdmin) MessageStats(context.Context) (services.MessageStats, error) { return f.stats, nil }
func (f *fakeAdmin) ResetMessageStats(context.Context) (services.MessageStats, error) {
	prev := f.stats
	f.stats = services.MessageStats{Counts: map[domain.MessageType]int64{}}
	return prev, nil
}
func (f *fakeAdmin) RateStats(context.Context) (services.RateStats, error) {
	return services.RateStats{Limit: 5, WindowMinutes: 1, TrackedUsers: 4, UsersAtLimit: 1}, nil
}

func newRouter() (*Router, *fakeEngine, *fakeAdmin) {
	eng, adm := &fakeEngine{}, newFakeAdmin()
	return &Router{Engine: eng, Admin: adm, Log: zerolog.Nop()}, eng, adm
}

var alice = workflow.Actor{Profile: domain.Profile{ID: "A", DisplayName: "alice"}}

func TestRoute_DispatchTable(t *testing.T) {
	cases := []struct {
		name string
		ev   Event
		ack  Ack
		want call
	}{
		{"compose button", Event{Kind: EventTrigger, CustomID: action.Compose().ID()}, AckSync,
			call{"OpenCompose", []string{"A"}}},
		{"compose form", Event{Kind: EventForm, CustomID: action.ComposeForm().ID(),
			Fields: map[string]string{workflow.FieldReceiver: "bob", workflow.FieldMessage: "Hi"}}, AckDeferred,
			call{"SubmitCompose", []string{"A", "bob", "Hi"}}},
		{"classify", Event{Kind: EventTrigger, CustomID: action.Classify(domain.TypeAdvice, "c1").ID()}, AckDeferred,
			call{"ChooseType", []string{"A", "advice", "c1"}}},
		{"reply", Event{Kind: EventTrigger, CustomID: action.Reply("m1").ID()}, AckSync,
			call{"RequestReply", []string{"A", "m1"}}},
		{"reply form", Event{Kind: EventForm, CustomID: action.ReplyForm("m1").ID(),
			Fields: map[string]string{workflow.FieldReply: "ok"}}, AckDeferred,
			call{"SubmitReply", []string{"A", "m1", "ok"}}},
		{"comment", Event{Kind: EventTrigger, CustomID: action.Comment("m1").ID()}, AckSync,
			call{"RequestComment", []string{"A", "m1"}}},
		{"comment mode", Event{Kind: EventSelect, CustomID: action.CommentMode("m1").ID(), Values: []string{"identified"}}, AckSync,
			call{"ChooseCommentMode", []string{"A", "m1", "identified"}}},
		{"comment form", Event{Kind: EventForm, CustomID: action.CommentForm("m1", domain.ModeAnonymous).ID(),
			Fields: map[string]string{workflow.FieldComment: "nice"}}, AckDeferred,
			call{"SubmitComment", []string{"A", "m1", "anonymous", "nice"}}},
		{"refresh", Event{Kind: EventTrigger, CustomID: action.Refresh("m1").ID()}, AckDeferred,
			call{"Refresh", []string{"A", "m1"}}},
		{"tellonym command", Event{Kind: EventCommand, Name: CmdTellonym}, AckSync,
			call{"OpenCompose", []string{"A"}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, eng, _ := newRouter()
			c.ev.Actor = alice

			rt, ok := r.Route(c.ev)
			require.True(t, ok)
			assert.Equal(t, c.ack, rt.Ack)

			resp := r.Run(context.Background(), rt)
			assert.False(t, resp.Silent)
			require.Len(t, eng.calls, 1)
			assert.Equal(t, c.want, eng.calls[0])
		})
	}
}

func TestRoute_IgnoresUnknown(t *testing.T) {
	r, eng, _ := newRouter()
	for _, ev := range []Event{
		{Kind: EventTrigger, CustomID: "nonsense"},
		{Kind: EventTrigger, CustomID: "reply_"},
		{Kind: EventForm, CustomID: action.Reply("m1").ID()},
		{Kind: EventSelect, CustomID: action.Refresh("m1").ID()},
		{Kind: EventCommand, Name: "unknown"},
		{Kind: EventUnknown, CustomID: action.Reply("m1").ID()},
	} {
		_, ok := r.Handle(context.Background(), ev)
		assert.False(t, ok, "%+v", ev)
	}
	assert.Empty(t, eng.calls)
}

func TestRun_ErrorTexts(t *testing.T) {
	cases := []struct {
		ev   Event
		err  error
		want string
	}{
		{Event{Kind: EventTrigger, CustomID: action.Reply("m").ID()},
			fmt.Errorf("%w: %w", workflow.ErrUnauthorizedReplier, workflow.ErrMappingMissing),
			"❌ Unable to reply to this message. It may be too old."},
		{Event{Kind: EventTrigger, CustomID: action.Reply("m").ID()}, workflow.ErrUnauthorizedReplier,
			"❌ Only the recipient of this message can reply to it."},
		{Event{Kind: EventTrigger, CustomID: action.Refresh("m").ID()}, workflow.ErrMappingMissing,
			"❌ Unable to refresh this message. It may be too old."},
		{Event{Kind: EventTrigger, CustomID: action.Compose().ID()}, &workflow.RateLimitedError{Seconds: 12},
			"⏳ You've reached the rate limit! Please wait 12 seconds before sending another message."},
		{Event{Kind: EventForm, CustomID: action.ComposeForm().ID()}, &workflow.ReceiverNotFoundError{Query: "zed"},
			"❌ Could not find user: `zed`. Please provide a valid User ID or Username."},
		{Event{Kind: EventForm, CustomID: action.ComposeForm().ID()}, workflow.ErrReceiverAutomated,
			"❌ You cannot send anonymous messages to bots."},
		{Event{Kind: EventTrigger, CustomID: action.Classify(domain.TypeQuestion, "c").ID()}, workflow.ErrPendingComposeMissing,
			"❌ Message data expired. Please try sending your message again."},
		{Event{Kind: EventForm, CustomID: action.ReplyForm("m").ID()}, errors.Join(workflow.ErrPrivateSendFailed, errors.New("x")),
			"❌ Failed to send your reply. The user might have DMs disabled."},
		{Event{Kind: EventTrigger, CustomID: action.Compose().ID()}, errors.New("db down"), TextGeneric},
	}
	for _, c := range cases {
		r, eng, _ := newRouter()
		eng.err = c.err
		resp, ok := r.Handle(context.Background(), c.ev)
		require.True(t, ok)
		assert.Equal(t, c.want, resp.Reply.Text, "%v", c.err)
	}
}

func TestRun_TransientIsSilent(t *testing.T) {
	r, eng, _ := newRouter()
	eng.err = fmt.Errorf("edit: %w", workflow.ErrTransient)
	resp, ok := r.Handle(context.Background(), Event{Kind: EventTrigger, CustomID: action.Refresh("m").ID()})
	require.True(t, ok)
	assert.True(t, resp.Silent)
}

func TestCommands_AdminGate(t *testing.T) {
	r, _, adm := newRouter()
	resp, ok := r.Handle(context.Background(), Event{Kind: EventCommand, Name: CmdToggle, Options: map[string]string{OptEnabled: "false"}})
	require.True(t, ok)
	assert.Equal(t, textNotAdmin, resp.Reply.Text)
	assert.True(t, adm.cfg.Enabled)

	resp, _ = r.Handle(context.Background(), Event{Kind: EventCommand, Name: CmdToggle, Admin: true, Options: map[string]string{OptEnabled: "false"}})
	assert.Equal(t, "✅ The Tellonym system has been disabled.", resp.Reply.Text)
	assert.False(t, adm.cfg.Enabled)
}

func adminCmd(r *Router, name, sub string, opts map[string]string) string {
	resp, _ := r.Handle(context.Background(), Event{Kind: EventCommand, Name: name, Subcommand: sub, Options: opts, Admin: true})
	return resp.Reply.Text
}

func TestCommands_Admin(t *testing.T) {
	r, _, adm := newRouter()

	assert.Equal(t, "✅ Tellonym logs channel has been set to <#42>", adminCmd(r, CmdShowLogs, "", map[string]string{OptChannel: "42"}))
	assert.Equal(t, "42", adm.cfg.LogChannelID)
	assert.Equal(t, "❌ That is not a valid channel.", adminCmd(r, CmdShowLogs, "", map[string]string{OptChannel: "bad"}))
	assert.Equal(t, "✅ Admin log channel (show tellonym) has been set to <#43>", adminCmd(r, CmdLogs, "", map[string]string{OptChannel: "43"}))

	assert.Equal(t, "✅ <@7> has been banned from using Tellonym.", adminCmd(r, CmdBan, "add", map[string]string{OptUser: "7"}))
	assert.Equal(t, "⚠️ <@7> is already banned.", adminCmd(r, CmdBan, "add", map[string]string{OptUser: "7"}))
	assert.Equal(t, "🚫 **Banned Users:**\n<@7>", adminCmd(r, CmdBan, "list", nil))
	assert.Equal(t, "✅ <@7> has been unbanned.", adminCmd(r, CmdBan, "remove", map[string]string{OptUser: "7"}))
	assert.Equal(t, "⚠️ <@7> is not banned.", adminCmd(r, CmdBan, "remove", map[string]string{OptUser: "7"}))
	assert.Equal(t, "No users are currently banned.", adminCmd(r, CmdBan, "list", nil))

	assert.Equal(t, "✅ Rate limiting configured: 3 messages per 1 minute(s).", adminCmd(r, CmdRateLimit, "", map[string]string{OptMessages: "3"}))
	assert.Equal(t, domain.RatePolicy{Limit: 3, WindowMinutes: 1}, adm.policy)
	assert.Equal(t, "✅ Rate limiting has been disabled.", adminCmd(r, CmdRateLimit, "", map[string]string{OptMessages: "0", OptWindow: "5"}))
	assert.Equal(t, "❌ Message limit must be 0 or greater.", adminCmd(r, CmdRateLimit, "", map[string]string{OptMessages: "-1"}))
	assert.Equal(t, "❌ Time window must be greater than 0.", adminCmd(r, CmdRateLimit, "", map[string]string{OptMessages: "2", OptWindow: "0"}))

	assert.Contains(t, adminCmd(r, CmdRateStats, "", nil), "- Tracked Users: 4\n- Users at Limit: 1")
	assert.Contains(t, adminCmd(r, CmdMsgStats, "", nil), "**Total Messages:** 3")
	reset := adminCmd(r, CmdResetStats, "", nil)
	assert.Contains(t, reset, "❓ Questions: 2")
	assert.Contains(t, adminCmd(r, CmdMsgStats, "", nil), "**Total Messages:** 0")

	cfgText := adminCmd(r, CmdShowConfig, "", nil)
	assert.Contains(t, cfgText, "- Logs Channel: <#42>")
	assert.Contains(t, cfgText, "- System Status: Enabled")
}

func TestCommands_PanelIsPublic(t *testing.T) {
	r, _, _ := newRouter()
	rt, ok := r.Route(Event{Kind: EventCommand, Name: CmdPanel, Admin: true})
	require.True(t, ok)
	assert.True(t, rt.Public)

	resp := r.Run(context.Background(), rt)
	require.Len(t, resp.Reply.Buttons, 1)
	assert.Equal(t, action.Compose(), resp.Reply.Buttons[0].Action)
	assert.True(t, resp.Public)
}

func TestCommands_Help(t *testing.T) {
	r, _, adm := newRouter()
	adm.cfg.LogChannelID = "99"
	resp, ok := r.Handle(context.Background(), Event{Kind: EventCommand, Name: CmdHelp})
	require.True(t, ok)
	assert.Contains(t, resp.Reply.Text, "/tellonym")
	assert.Contains(t, resp.Reply.Text, "<#99>")
}

func TestCommands_UnexpectedAdminError(t *testing.T) {
	r, _, adm := newRouter()
	adm.err = errors.New("db gone")
	assert.Equal(t, TextGeneric, adminCmd(r, CmdShowConfig, "", nil))
}
