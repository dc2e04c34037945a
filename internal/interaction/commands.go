package interaction

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tbourn/go-tellonym/internal/action"
	"github.com/tbourn/go-tellonym/internal/domain"
	"github.com/tbourn/go-tellonym/internal/services"
	"github.com/tbourn/go-tellonym/internal/workflow"
)

// Admin is the subset of *services.AdminService the commands use.
type Admin interface {
	Config(ctx context.Context) (domain.Config, error)
	SetLogChannel(ctx context.Context, channelID string) (domain.Config, error)
	SetAdminLogChannel(ctx context.Context, channelID string) (domain.Config, error)
	SetEnabled(ctx context.Context, enabled bool) (domain.Config, error)
	ConfigureRateLimit(ctx context.Context, limit, windowMinutes int) (domain.RatePolicy, error)
	Ban(ctx context.Context, userID string) error
	Unban(ctx context.Context, userID string) error
	ListBans(ctx context.Context, offset, limit int) ([]domain.BannedUser, int64, error)
	MessageStats(ctx context.Context) (services.MessageStats, error)
	ResetMessageStats(ctx context.Context) (services.MessageStats, error)
	RateStats(ctx context.Context) (services.RateStats, error)
}

// Command names.
const (
	CmdTellonym   = "tellonym"
	CmdPanel      = "tellonympanel"
	CmdLogs       = "logs"
	CmdShowLogs   = "setshowtellonym"
	CmdToggle     = "toggletellonym"
	CmdBan        = "tellonymban"
	CmdRateLimit  = "ratelimit"
	CmdRateStats  = "ratestats"
	CmdMsgStats   = "msgstats"
	CmdResetStats = "resetstats"
	CmdShowConfig = "showconfig"
	CmdHelp       = "help"
)

// Command option names.
const (
	OptChannel  = "channel"
	OptUser     = "user"
	OptMessages = "messages"
	OptWindow   = "window"
	OptEnabled  = "enabled"
)

const textNotAdmin = "❌ You need administrator permissions to use this command."

// maxListedBans caps the ban list shown in a single reply.
const maxListedBans = 50

type commandFunc func(r *Router, ctx context.Context, ev Event) (workflow.Reply, error)

type command struct {
	admin  bool
	public bool
	run    commandFunc
}

var commands = map[string]command{
	CmdTellonym: {run: func(r *Router, ctx context.Context, ev Event) (workflow.Reply, error) {
		return r.Engine.OpenCompose(ctx, ev.Actor)
	}},
	CmdHelp:       {run: helpCommand},
	CmdPanel:      {admin: true, public: true, run: panelCommand},
	CmdLogs:       {admin: true, run: logsCommand},
	CmdShowLogs:   {admin: true, run: showLogsCommand},
	CmdToggle:     {admin: true, run: toggleCommand},
	CmdBan:        {admin: true, run: banCommand},
	CmdRateLimit:  {admin: true, run: rateLimitCommand},
	CmdRateStats:  {admin: true, run: rateStatsCommand},
	CmdMsgStats:   {admin: true, run: msgStatsCommand},
	CmdResetStats: {admin: true, run: resetStatsCommand},
	CmdShowConfig: {admin: true, run: showConfigCommand},
}

func (r *Router) commandRoute(ev Event) (Route, bool) {
	cmd, ok := commands[ev.Name]
	if !ok {
		return Route{}, false
	}
	flow := flowAdmin
	if ev.Name == CmdTellonym {
		flow = flowCompose
	}
	return Route{
		Ack:    AckSync,
		Flow:   flow,
		Public: cmd.public,
		run: func(ctx context.Context) (workflow.Reply, error) {
			if cmd.admin && !ev.Admin {
				return workflow.Reply{Text: textNotAdmin}, nil
			}
			return cmd.run(r, ctx, ev)
		},
	}, true
}

func text(s string) (workflow.Reply, error) { return workflow.Reply{Text: s}, nil }

func channelRef(id string) string {
	if id == "" {
		return "Not Set"
	}
	return "<#" + id + ">"
}

func panelCommand(*Router, context.Context, Event) (workflow.Reply, error) {
	return workflow.Reply{
		Text: "## Tellonym Panel\n" +
			"- Click the button below to send an anonymous message!\n" +
			"- Messages will be sent to the configured log channel.",
		Buttons: []workflow.Button{{
			Label:  "💌 Send Anonymous Message",
			Style:  workflow.StyleSecondary,
			Action: action.Compose(),
		}},
	}, nil
}

// adminFailure turns validation errors into a user-facing reply and passes
// everything else through.
func adminFailure(err error) (workflow.Reply, error) {
	switch {
	case errors.Is(err, services.ErrInvalidChannelID):
		return text("❌ That is not a valid channel.")
	case errors.Is(err, services.ErrInvalidUserID):
		return text("❌ That is not a valid user.")
	}
	return workflow.Reply{}, err
}

func logsCommand(r *Router, ctx context.Context, ev Event) (workflow.Reply, error) {
	ch := ev.option(OptChannel)
	if _, err := r.Admin.SetAdminLogChannel(ctx, ch); err != nil {
		return adminFailure(err)
	}
	return text(fmt.Sprintf("✅ Admin log channel (show tellonym) has been set to %s", channelRef(ch)))
}

func showLogsCommand(r *Router, ctx context.Context, ev Event) (workflow.Reply, error) {
	ch := ev.option(OptChannel)
	if _, err := r.Admin.SetLogChannel(ctx, ch); err != nil {
		return adminFailure(err)
	}
	return text(fmt.Sprintf("✅ Tellonym logs channel has been set to %s", channelRef(ch)))
}

func toggleCommand(r *Router, ctx context.Context, ev Event) (workflow.Reply, error) {
	on, err := strconv.ParseBool(ev.option(OptEnabled))
	if err != nil {
		return text("❌ Please choose whether Tellonym is enabled.")
	}
	if _, err := r.Admin.SetEnabled(ctx, on); err != nil {
		return workflow.Reply{}, err
	}
	if on {
		return text("✅ The Tellonym system has been enabled.")
	}
	return text("✅ The Tellonym system has been disabled.")
}

func banCommand(r *Router, ctx context.Context, ev Event) (workflow.Reply, error) {
	user := ev.option(OptUser)
	switch ev.Subcommand {
	case "add":
		err := r.Admin.Ban(ctx, user)
		if errors.Is(err, services.ErrAlreadyBanned) {
			return text(fmt.Sprintf("⚠️ %s is already banned.", workflow.Mention(user)))
		}
		if err != nil {
			return adminFailure(err)
		}
		return text(fmt.Sprintf("✅ %s has been banned from using Tellonym.", workflow.Mention(user)))

	case "remove":
		err := r.Admin.Unban(ctx, user)
		if errors.Is(err, services.ErrNotBanned) {
			return text(fmt.Sprintf("⚠️ %s is not banned.", workflow.Mention(user)))
		}
		if err != nil {
			return adminFailure(err)
		}
		return text(fmt.Sprintf("✅ %s has been unbanned.", workflow.Mention(user)))

	case "list":
		rows, total, err := r.Admin.ListBans(ctx, 0, maxListedBans)
		if err != nil {
			return workflow.Reply{}, err
		}
		if total == 0 {
			return text("No users are currently banned.")
		}
		refs := make([]string, 0, len(rows))
		for _, b := range rows {
			refs = append(refs, workflow.Mention(b.UserID))
		}
		s := "🚫 **Banned Users:**\n" + strings.Join(refs, ", ")
		if total > int64(len(rows)) {
			s += fmt.Sprintf("\n…and %d more", total-int64(len(rows)))
		}
		return text(s)
	}
	return text(TextGeneric)
}

func rateLimitCommand(r *Router, ctx context.Context, ev Event) (workflow.Reply, error) {
	limit, err := strconv.Atoi(ev.option(OptMessages))
	if err != nil {
		return text("❌ Message limit must be 0 or greater.")
	}
	window := 1
	if w := ev.option(OptWindow); w != "" {
		if window, err = strconv.Atoi(w); err != nil {
			return text("❌ Time window must be greater than 0.")
		}
	}
	if limit < 0 {
		return text("❌ Message limit must be 0 or greater.")
	}
	if window <= 0 {
		return text("❌ Time window must be greater than 0.")
	}

	if _, err := r.Admin.ConfigureRateLimit(ctx, limit, window); err != nil {
		return workflow.Reply{}, err
	}
	if limit == 0 {
		return text("✅ Rate limiting has been disabled.")
	}
	return text(fmt.Sprintf("✅ Rate limiting configured: %d messages per %d minute(s).", limit, window))
}

func rateStatsCommand(r *Router, ctx context.Context, _ Event) (workflow.Reply, error) {
	st, err := r.Admin.RateStats(ctx)
	if err != nil {
		return workflow.Reply{}, err
	}
	return text(fmt.Sprintf("📊 **Rate Limit Statistics**\n\n"+
		"**Configuration:**\n- Limit: %d messages\n- Window: %d minute(s)\n\n"+
		"**Current Usage:**\n- Tracked Users: %d\n- Users at Limit: %d",
		st.Limit, st.WindowMinutes, st.TrackedUsers, st.UsersAtLimit))
}

func typeCounts(c map[domain.MessageType]int64) string {
	return fmt.Sprintf("❓ Questions: %d\n😊 Compliments: %d\n💡 Advice: %d\n🤫 Confessions: %d",
		c[domain.TypeQuestion], c[domain.TypeCompliment], c[domain.TypeAdvice], c[domain.TypeConfession])
}

func msgStatsCommand(r *Router, ctx context.Context, _ Event) (workflow.Reply, error) {
	st, err := r.Admin.MessageStats(ctx)
	if err != nil {
		return workflow.Reply{}, err
	}
	return text(fmt.Sprintf("📊 **Message Type Statistics**\n\n**Total Messages:** %d\n\n%s",
		st.Total, typeCounts(st.Counts)))
}

func resetStatsCommand(r *Router, ctx context.Context, _ Event) (workflow.Reply, error) {
	prev, err := r.Admin.ResetMessageStats(ctx)
	if err != nil {
		return workflow.Reply{}, err
	}
	return text(fmt.Sprintf("✅ **Statistics Reset**\n\nPrevious counts:\n%s\n\nAll statistics have been reset to zero.",
		typeCounts(prev.Counts)))
}

func showConfigCommand(r *Router, ctx context.Context, _ Event) (workflow.Reply, error) {
	cfg, err := r.Admin.Config(ctx)
	if err != nil {
		return workflow.Reply{}, err
	}
	status := "Disabled"
	if cfg.Enabled {
		status = "Enabled"
	}
	rate := "Disabled"
	if cfg.RatePolicy.Limit > 0 {
		rate = fmt.Sprintf("%d messages per %d minute(s)", cfg.RatePolicy.Limit, cfg.RatePolicy.WindowMinutes)
	}
	return text(fmt.Sprintf("## ⚙️ Tellonym Configuration\n"+
		"- Logs Channel: %s\n- Admin Logs Channel: %s\n- System Status: %s\n"+
		"- Rate Limit: %s\n- Banned Users: %d users",
		channelRef(cfg.LogChannelID), channelRef(cfg.AdminLogChannelID), status, rate, len(cfg.BannedUsers)))
}

func helpCommand(r *Router, ctx context.Context, _ Event) (workflow.Reply, error) {
	var b strings.Builder
	b.WriteString("## 📬 Tellonym Bot Help\nAnonymous messaging bot for Discord\n\n")
	b.WriteString("**📝 Sending Messages**\nUse `/tellonym` to send an anonymous message to another user.\n" +
		"You can choose from 4 message types: Question, Compliment, Advice, or Confession.\n\n")
	b.WriteString("**💬 Adding Comments**\nClick the \"Comment\" button on any Tellonym message to add your comment.\n" +
		"You can choose to comment anonymously or with your identity shown.\n\n")
	b.WriteString("**↩️ Replying**\nOnly the recipient of a message can reply to it using the \"Reply\" button.\n" +
		"Replies are sent anonymously to the original sender.\n\n")
	b.WriteString("**🎛️ Admin Commands**\n" +
		"`/logs` - Set the admin log channel\n" +
		"`/setshowtellonym` - Set the public log channel\n" +
		"`/toggletellonym` - Enable/disable Tellonym\n" +
		"`/tellonymban` - Ban/unban users\n" +
		"`/ratelimit` - Configure rate limits\n" +
		"`/msgstats` - View message statistics\n" +
		"`/ratestats` - View rate limit stats\n" +
		"`/resetstats` - Reset statistics\n" +
		"`/showconfig` - Show current configuration")

	if cfg, err := r.Admin.Config(ctx); err == nil && cfg.LogChannelID != "" {
		fmt.Fprintf(&b, "\n\n**📍 Current Log Channel:** %s", channelRef(cfg.LogChannelID))
	}
	return text(b.String())
}
