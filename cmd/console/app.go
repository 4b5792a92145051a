package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"research-admin/internal/apiclient"
	"research-admin/internal/config"
	"research-admin/internal/metrics"
	"research-admin/internal/session"
	"research-admin/internal/shared/infra"
	"research-admin/internal/shared/model"
	"research-admin/pkg/logging"
)

type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	infra   *infra.Infrastructure
	api     *apiclient.Client
	session *session.Holder
	metrics *metrics.Metrics
	out     io.Writer
	page    int
	limit   int
	now     func() time.Time
}

// command 一个子命令
//
// needs 为空表示只要求登录；任一能力满足即可执行。
type command struct {
	name    string
	summary string
	anon    bool
	needs   []model.Capability
	run     func(ctx context.Context, a *app, args []string) error
}

type usageError struct {
	cmd string
	msg string
}

func (e *usageError) Error() string {
	return fmt.Sprintf("%s: %s", e.cmd, e.msg)
}

// errDenied 当前角色无权执行
type errDenied struct {
	cmd  string
	role model.Role
}

func (e *errDenied) Error() string {
	return fmt.Sprintf("%s: not available for role %s", e.cmd, e.role.Label())
}

var commands = []command{
	{name: "login", summary: "sign in and persist the session", anon: true, run: runLogin},
	{name: "logout", summary: "forget the persisted session", anon: true, run: runLogout},
	{name: "whoami", summary: "show the current user and capabilities", run: runWhoami},
	{name: "profile update", summary: "update own name, password or photo", needs: caps(model.CapEditOwnProfile), run: runProfileUpdate},

	{name: "research list", summary: "list research records", needs: caps(model.CapViewResearch, model.CapViewAssignments), run: runResearchList},
	{name: "research create", summary: "submit a research record", needs: caps(model.CapCreateResearch), run: runResearchCreate},
	{name: "research check-duplicate", summary: "check whether a link already exists", needs: caps(model.CapCreateResearch), run: runResearchCheckDuplicate},
	{name: "research resubmit", summary: "resubmit a disapproved record", needs: caps(model.CapCreateResearch), run: runResearchResubmit},
	{name: "research appeal", summary: "appeal a disapproved record", needs: caps(model.CapCreateResearch), run: runResearchAppeal},
	{name: "research edit", summary: "edit a record as admin", needs: caps(model.CapEditResearch), run: runResearchEdit},
	{name: "research appeals", summary: "list the appeals queue", needs: caps(model.CapReviewAppeals), run: runResearchAppeals},
	{name: "research appeal-decide", summary: "approve or reject an appeal", needs: caps(model.CapReviewAppeals), run: runResearchAppealDecide},
	{name: "research report", summary: "report a problematic record", needs: caps(model.CapReportResearch), run: runResearchReport},
	{name: "research report-review", summary: "blacklist or clarify a report", needs: caps(model.CapReviewReports), run: runResearchReportReview},
	{name: "research assign", summary: "assign approved records to an inquirer", needs: caps(model.CapAssignResearch), run: runResearchAssign},
	{name: "research deassign", summary: "remove assignments", needs: caps(model.CapAssignResearch), run: runResearchDeassign},
	{name: "research open", summary: "print links and screenshots of assigned records", needs: caps(model.CapOpenResearchLinks), run: runResearchOpen},

	{name: "inquiry list", summary: "list inquiries", needs: caps(model.CapViewInquiries), run: runInquiryList},
	{name: "inquiry create", summary: "submit an inquiry", needs: caps(model.CapCreateInquiry), run: runInquiryCreate},
	{name: "inquiry resubmit", summary: "resubmit a disapproved inquiry", needs: caps(model.CapCreateInquiry), run: runInquiryResubmit},
	{name: "inquiry appeal", summary: "appeal a disapproved inquiry", needs: caps(model.CapCreateInquiry), run: runInquiryAppeal},
	{name: "inquiry appeal-decide", summary: "approve or reject an inquiry appeal", needs: caps(model.CapReviewAppeals), run: runInquiryAppealDecide},

	{name: "audit research", summary: "approve or disapprove pending research", needs: caps(model.CapAuditResearch), run: runAuditResearch},
	{name: "audit inquiry", summary: "approve or disapprove pending inquiries", needs: caps(model.CapAuditInquiry), run: runAuditInquiry},

	{name: "categories list", summary: "list categories", needs: caps(model.CapViewCategories), run: runCategoriesList},
	{name: "categories create", summary: "create a category", needs: caps(model.CapCreateCategory), run: runCategoriesCreate},
	{name: "users list", summary: "list users", needs: caps(model.CapManageUsers), run: runUsersList},
	{name: "users create", summary: "create a user", needs: caps(model.CapManageUsers), run: runUsersCreate},
	{name: "users toggle", summary: "activate or deactivate a user", needs: caps(model.CapManageUsers), run: runUsersToggle},
	{name: "payments list", summary: "list payments", needs: caps(model.CapViewPayments), run: runPaymentsList},
	{name: "payments generate", summary: "generate missing payments", needs: caps(model.CapGeneratePayments), run: runPaymentsGenerate},
	{name: "payments pay", summary: "mark a payment as paid", needs: caps(model.CapMarkPaid), run: runPaymentsPay},
	{name: "dashboard", summary: "show role dashboard", needs: caps(model.CapViewDashboard), run: runDashboard},

	{name: "notices list", summary: "list notices", needs: caps(model.CapViewNotices), run: runNoticesList},
	{name: "notices create", summary: "publish a notice", needs: caps(model.CapPublishNotices), run: runNoticesCreate},
	{name: "notices messages", summary: "list direct messages", needs: caps(model.CapSendMessages), run: runNoticesMessages},
	{name: "notices send", summary: "send a direct message", needs: caps(model.CapSendMessages), run: runNoticesSend},
	{name: "notices read", summary: "mark a message as read", needs: caps(model.CapSendMessages), run: runNoticesRead},

	{name: "reasons list", summary: "list disapproval reasons", run: runReasonsList},
	{name: "reasons add", summary: "add a disapproval reason", needs: caps(model.CapManageReasons), run: runReasonsAdd},
	{name: "reasons update", summary: "rename a disapproval reason", needs: caps(model.CapManageReasons), run: runReasonsUpdate},
	{name: "reasons delete", summary: "delete a disapproval reason", needs: caps(model.CapManageReasons), run: runReasonsDelete},
}

func caps(list ...model.Capability) []model.Capability { return list }

// lookup 先匹配两段命令名，再匹配一段
func lookup(args []string) (*command, []string) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) >= 2 {
		name := args[0] + " " + args[1]
		for i := range commands {
			if commands[i].name == name {
				return &commands[i], args[2:]
			}
		}
	}
	for i := range commands {
		if commands[i].name == args[0] {
			return &commands[i], args[1:]
		}
	}
	return nil, nil
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	cmd, rest := lookup(args)
	if cmd == nil {
		return &usageError{cmd: strings.Join(args, " "), msg: "unknown command"}
	}
	if a.now == nil {
		a.now = time.Now
	}
	if cmd.anon {
		return cmd.run(ctx, a, rest)
	}

	if err := a.session.Init(ctx); err != nil {
		return err
	}
	user, err := a.session.RequireUser()
	if err != nil {
		return fmt.Errorf("%s: %w (run `console login`)", cmd.name, err)
	}
	if !a.allowed(cmd) {
		return &errDenied{cmd: cmd.name, role: user.Role}
	}
	a.logger.WithUserID(user.ID).Debug("running command", "command", cmd.name)
	return cmd.run(ctx, a, rest)
}

func (a *app) allowed(cmd *command) bool {
	if len(cmd.needs) == 0 {
		return true
	}
	for _, c := range cmd.needs {
		if a.session.Can(c) {
			return true
		}
	}
	return false
}

// flags 子命令参数集
func flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &usageError{cmd: fs.Name(), msg: err.Error()}
	}
	return nil
}

func need(fs *flag.FlagSet, n int, what string) error {
	if fs.NArg() < n {
		return &usageError{cmd: fs.Name(), msg: "missing " + what}
	}
	return nil
}

// multi 可重复的字符串参数（-screenshot a.png -screenshot b.png）
type multi []string

func (m *multi) String() string { return strings.Join(*m, ",") }

func (m *multi) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func (a *app) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func when(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
