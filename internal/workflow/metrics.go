package workflow

import "github.com/prometheus/client_golang/prometheus"

// outcomes counts terminal results per flow and error kind.
var outcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tellonym_workflow_outcomes_total",
		Help: "Workflow step outcomes by flow and error kind.",
	},
	[]string{"flow", "outcome"},
)

// adminLogs counts admin log deliveries by path taken.
var adminLogs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tellonym_admin_logs_total",
		Help: "Admin log deliveries by outcome (card, text, failed).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(outcomes, adminLogs)
}

// Flow labels.
const (
	flowOpenCompose   = "open_compose"
	flowSubmitCompose = "submit_compose"
	flowClassify      = "classify"
	flowRequestReply  = "request_reply"
	flowSubmitReply   = "submit_reply"
	flowRequestComm   = "request_comment"
	flowChooseMode    = "choose_comment_mode"
	flowSubmitComment = "submit_comment"
	flowRefresh       = "refresh"
)
