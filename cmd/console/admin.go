package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"research-admin/internal/apiclient"
	"research-admin/internal/console"
	"research-admin/internal/shared/model"
)

// ============================================================================
// 分类
// ============================================================================

func runCategoriesList(ctx context.Context, a *app, _ []string) error {
	list, err := a.api.Categories.List(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}
	tw := a.table("ID", "NAME", "COOLDOWN", "CREATED")
	for i := range list {
		c := &list[i]
		row(tw, c.ID, c.Name, fmt.Sprintf("%dd", c.EffectiveCooldownDays()), when(c.CreatedAt))
	}
	return tw.Flush()
}

func runCategoriesCreate(ctx context.Context, a *app, args []string) error {
	fs := flags("categories create")
	cooldown := fs.String("cooldown", "", "cooldown days (default 30)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "name"); err != nil {
		return err
	}
	d := &console.CategoryDraft{Name: strings.Join(fs.Args(), " "), CooldownDays: *cooldown}
	if err := d.Validate(); err != nil {
		return err
	}
	c, err := a.api.Categories.Create(ctx, d.Input())
	if err != nil {
		return errors.New(apiclient.Message(err, "Create failed"))
	}
	fmt.Fprintf(a.out, "Created category %s (%s)\n", c.Name, c.ID)
	return nil
}

// ============================================================================
// 用户
// ============================================================================

func runUsersList(ctx context.Context, a *app, args []string) error {
	fs := flags("users list")
	role := fs.String("role", "", "role filter")
	if err := parse(fs, args); err != nil {
		return err
	}
	params := apiclient.NewParams().Set("role", strings.ToUpper(*role))
	list, err := a.api.Users.List(ctx, params.Values())
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load users"))
	}
	tw := a.table("ID", "NAME", "EMAIL", "ROLE", "CATEGORY", "COUNTRY", "ACTIVE")
	for i := range list {
		u := &list[i]
		row(tw, u.ID, u.Name, u.Email, u.Role.Label(), dash(model.RefName(u.Category)), dash(u.Country), yesNo(u.IsActive))
	}
	return tw.Flush()
}

func runUsersCreate(ctx context.Context, a *app, args []string) error {
	fs := flags("users create")
	d := console.NewUserDraft()
	fs.StringVar(&d.Name, "name", "", "full name")
	fs.StringVar(&d.Email, "email", "", "email")
	fs.StringVar(&d.Password, "password", "", "initial password")
	role := fs.String("role", string(d.Role), "role")
	fs.StringVar(&d.Category, "category", "", "category id")
	fs.StringVar(&d.Country, "country", "", "country")
	unit := fs.Float64("unit-payment", 0, "payment per approved record")
	trusted := fs.Bool("trusted", false, "trusted inquirer (screenshots optional)")
	if err := parse(fs, args); err != nil {
		return err
	}
	d.Role = model.Role(strings.ToUpper(*role))
	if err := d.Validate(); err != nil {
		return err
	}
	in := d.Input()
	in.UnitPayment = *unit
	in.TrustedInquirer = *trusted && d.Role.IsInquirer()
	u, err := a.api.Users.Create(ctx, in)
	if err != nil {
		return errors.New(apiclient.Message(err, "Create failed"))
	}
	fmt.Fprintf(a.out, "Created %s (%s)\n", u.Email, u.ID)
	return nil
}

func runUsersToggle(ctx context.Context, a *app, args []string) error {
	fs := flags("users toggle")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "user id"); err != nil {
		return err
	}
	u, err := a.api.Users.Toggle(ctx, fs.Arg(0))
	if err != nil {
		return errors.New(apiclient.Message(err, "Update failed"))
	}
	state := "deactivated"
	if u.IsActive {
		state = "activated"
	}
	fmt.Fprintf(a.out, "%s %s\n", u.Email, state)
	return nil
}

// ============================================================================
// 付款
// ============================================================================

func runPaymentsList(ctx context.Context, a *app, args []string) error {
	fs := flags("payments list")
	category := fs.String("category", "", "category id (super admin)")
	search := fs.String("search", "", "free-text search")
	if err := parse(fs, args); err != nil {
		return err
	}
	list, err := a.api.Payments.List(ctx, console.PaymentParams(a.session.CurrentUser(), *category, *search).Values())
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}
	tw := a.table("ID", "REF", "BENEFICIARY", "ROLE", "SOURCE", "QTY", "UNIT", "TOTAL", "PAID", "STATUS", "CHANNEL")
	var outstanding float64
	for i := range list {
		p := &list[i]
		outstanding += p.Outstanding()
		row(tw, p.ID, dash(p.ReferenceNo), dash(model.RefName(p.User)), p.Role.Label(), dash(p.SourceDetails.DisplayName()),
			strconv.Itoa(p.Quantity), money(p.UnitPrice), money(p.TotalAmount), money(p.PaidAmount), string(p.Status), dash(p.PaymentChannel))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d payment(s), %s outstanding\n", len(list), money(outstanding))
	return nil
}

func runPaymentsGenerate(ctx context.Context, a *app, _ []string) error {
	if err := a.api.Payments.Generate(ctx); err != nil {
		return errors.New(apiclient.Message(err, "Generate failed"))
	}
	fmt.Fprintln(a.out, "Payments generated")
	return nil
}

func runPaymentsPay(ctx context.Context, a *app, args []string) error {
	fs := flags("payments pay")
	channel := fs.String("channel", "", "payment channel (bank, upi, ...)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "payment id"); err != nil {
		return err
	}
	list, err := a.api.Payments.List(ctx, nil)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}
	d := &console.PaymentDraft{Channel: *channel}
	for i := range list {
		if list[i].ID == fs.Arg(0) {
			d.Payment = &list[i]
			break
		}
	}
	if err := d.Validate(); err != nil {
		return err
	}
	p, err := a.api.Payments.MarkPaid(ctx, d.Payment.ID, d.Request())
	if err != nil {
		return errors.New(apiclient.Message(err, "Update failed"))
	}
	fmt.Fprintf(a.out, "Payment %s marked %s (%s via %s)\n", p.ID, p.Status, money(d.Request().PaidAmount), d.Request().PaymentChannel)
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ============================================================================
// 仪表盘
// ============================================================================

func runDashboard(ctx context.Context, a *app, args []string) error {
	fs := flags("dashboard")
	category := fs.String("category", "", "category id (super admin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	var params url.Values
	if a.session.Can(model.CapFilterByCategory) && *category != "" {
		params = apiclient.NewParams().Set("category", *category).Values()
	}
	stats, err := a.api.Dashboard.Get(ctx, params)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}

	tw := a.table("SECTION", "KEY", "VALUE")
	for _, kv := range sortedCounts(stats.ResearchByStatus()) {
		row(tw, "research", kv.key, strconv.Itoa(kv.n))
	}
	for _, kv := range sortedCounts(stats.InquiryByStatus()) {
		row(tw, "inquiry", kv.key, strconv.Itoa(kv.n))
	}
	amounts := stats.PaymentByStatus()
	keys := make([]string, 0, len(amounts))
	for k := range amounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row(tw, "payments", k, money(amounts[k]))
	}
	if stats.CategoryCount > 0 {
		row(tw, "categories", "total", strconv.Itoa(stats.CategoryCount))
	}
	if stats.DistributedCount > 0 {
		row(tw, "research", "distributed", strconv.Itoa(stats.DistributedCount))
	}
	row(tw, "messages", "unread", strconv.Itoa(stats.UnreadMessages))

	if a.session.Can(model.CapViewResearch) {
		countries, err := a.api.Dashboard.CountryBreakdown(ctx, stats)
		if err != nil {
			a.logger.WithError(err).Warn("country breakdown unavailable")
		}
		for _, c := range countries {
			row(tw, "country", c.Country, strconv.Itoa(c.Count))
		}
	}
	return tw.Flush()
}

type count struct {
	key string
	n   int
}

func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{k, n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// ============================================================================
// 公告与站内信
// ============================================================================

func runNoticesList(ctx context.Context, a *app, _ []string) error {
	list, err := a.api.Notices.List(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}
	tw := a.table("ID", "TITLE", "CATEGORY", "ROLES", "CREATED")
	for i := range list {
		n := &list[i]
		roles := make([]string, len(n.Roles))
		for j, r := range n.Roles {
			roles[j] = r.Label()
		}
		row(tw, n.ID, n.Title, dash(model.RefName(n.Category)), dash(strings.Join(roles, ",")), when(n.CreatedAt))
	}
	return tw.Flush()
}

func runNoticesCreate(ctx context.Context, a *app, args []string) error {
	fs := flags("notices create")
	title := fs.String("title", "", "title")
	content := fs.String("content", "", "body")
	category := fs.String("category", "", "category id")
	var roles multi
	fs.Var(&roles, "role", "target role (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*title) == "" || strings.TrimSpace(*content) == "" {
		return &usageError{cmd: fs.Name(), msg: "-title and -content are required"}
	}
	in := apiclient.NoticeInput{Title: strings.TrimSpace(*title), Content: strings.TrimSpace(*content), Category: *category}
	for _, r := range roles {
		role := model.Role(strings.ToUpper(r))
		if !role.Valid() {
			return &usageError{cmd: fs.Name(), msg: "unknown role " + r}
		}
		in.Roles = append(in.Roles, role)
	}
	n, err := a.api.Notices.Create(ctx, in)
	if err != nil {
		return errors.New(apiclient.Message(err, "Create failed"))
	}
	fmt.Fprintf(a.out, "Published %s\n", n.ID)
	return nil
}

func runNoticesMessages(ctx context.Context, a *app, _ []string) error {
	list, err := a.api.Notices.Messages(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}
	tw := a.table("ID", "FROM", "TO", "SUBJECT", "READ", "SENT")
	for i := range list {
		m := &list[i]
		row(tw, m.ID, dash(model.RefName(m.From)), dash(model.RefName(m.To)), dash(m.Subject), yesNo(m.Read), when(m.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d unread\n", model.UnreadCount(list))
	return nil
}

func runNoticesSend(ctx context.Context, a *app, args []string) error {
	fs := flags("notices send")
	to := fs.String("to", "", "recipient user id")
	subject := fs.String("subject", "", "subject")
	content := fs.String("content", "", "message body")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *to == "" || strings.TrimSpace(*content) == "" {
		return &usageError{cmd: fs.Name(), msg: "-to and -content are required"}
	}
	recipients, err := a.api.Notices.Recipients(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load recipients"))
	}
	if !containsUser(recipients, *to) {
		return fmt.Errorf("%s is not an allowed recipient", *to)
	}
	m, err := a.api.Notices.Send(ctx, apiclient.MessageInput{To: *to, Subject: strings.TrimSpace(*subject), Content: strings.TrimSpace(*content)})
	if err != nil {
		return errors.New(apiclient.Message(err, "Send failed"))
	}
	fmt.Fprintf(a.out, "Sent %s\n", m.ID)
	return nil
}

func runNoticesRead(ctx context.Context, a *app, args []string) error {
	fs := flags("notices read")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "message id"); err != nil {
		return err
	}
	if err := a.api.Notices.MarkRead(ctx, fs.Arg(0)); err != nil {
		return errors.New(apiclient.Message(err, "Update failed"))
	}
	fmt.Fprintln(a.out, "Marked as read")
	return nil
}

// ============================================================================
// 驳回原因
// ============================================================================

func runReasonsList(ctx context.Context, a *app, _ []string) error {
	list, err := a.api.Settings.Reasons(ctx)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load"))
	}
	tw := a.table("ID", "LABEL")
	for _, r := range list {
		row(tw, r.ID, r.Label)
	}
	row(tw, console.ReasonOther, "Other (free text)")
	return tw.Flush()
}

func runReasonsAdd(ctx context.Context, a *app, args []string) error {
	fs := flags("reasons add")
	if err := parse(fs, args); err != nil {
		return err
	}
	label := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if label == "" {
		return &usageError{cmd: fs.Name(), msg: "missing label"}
	}
	r, err := a.api.Settings.AddReason(ctx, label)
	if err != nil {
		return errors.New(apiclient.Message(err, "Create failed"))
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", r.Label, r.ID)
	return nil
}

func runReasonsUpdate(ctx context.Context, a *app, args []string) error {
	fs := flags("reasons update")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 2, "reason id and label"); err != nil {
		return err
	}
	r, err := a.api.Settings.UpdateReason(ctx, fs.Arg(0), strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return errors.New(apiclient.Message(err, "Update failed"))
	}
	fmt.Fprintf(a.out, "Updated %s\n", r.Label)
	return nil
}

func runReasonsDelete(ctx context.Context, a *app, args []string) error {
	fs := flags("reasons delete")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "reason id"); err != nil {
		return err
	}
	if err := a.api.Settings.DeleteReason(ctx, fs.Arg(0)); err != nil {
		return errors.New(apiclient.Message(err, "Delete failed"))
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}
