package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"research-admin/internal/apiclient"
	"research-admin/internal/attachment"
	"research-admin/internal/console"
	"research-admin/internal/eligibility"
	"research-admin/internal/shared/model"
)

// researchList 按全局分页参数构造列表控制器
func (a *app) researchList(build console.ParamsBuilder, filters map[string]string) *console.ListController[model.Research] {
	c := console.NewListController(a.api.Research.List, build,
		console.WithPageSize(a.limit),
		console.WithFilters(filters),
		console.WithExclusiveFilters(console.FilterStatus, console.FilterList),
		console.WithFallbackMessage("Failed to load research"),
		console.WithListLogger(a.logger.WithView("research")),
	)
	c.SetPage(a.page)
	return c
}

func (a *app) loadResearch(ctx context.Context, c *console.ListController[model.Research]) ([]model.Research, error) {
	if err := c.Load(ctx); err != nil {
		if msg := c.Err(); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, err
	}
	return c.Rows(), nil
}

func (a *app) printResearch(c *console.ListController[model.Research]) error {
	user := a.session.CurrentUser()
	tw := a.table("ID", "REF", "TYPE", "NAME", "LINK", "COUNTRY", "STATUS", "FLAGS", "ACTIONS")
	for _, r := range c.Rows() {
		row(tw, r.ID, dash(r.ReferenceNo), r.Type().Label(), dash(r.DisplayName()), dash(r.Link()),
			dash(r.Country), string(r.Status), researchFlags(&r), dash(strings.Join(researchActions(user, &r), ",")))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, c.Pagination().Summary())
	return nil
}

func researchFlags(r *model.Research) string {
	var out []string
	if r.Resubmitted {
		out = append(out, "resubmitted")
	}
	if r.Appealed {
		out = append(out, "appealed")
	}
	if r.Reported {
		out = append(out, "reported")
	}
	if r.IsAssigned() {
		out = append(out, "assigned:"+model.RefName(r.AssignedTo))
	}
	return dash(strings.Join(out, ","))
}

func researchActions(u *model.User, r *model.Research) []string {
	var out []string
	if eligibility.CanResubmit(u, r) {
		out = append(out, "resubmit", "appeal")
	}
	if eligibility.CanDecideAppeal(u, r) {
		out = append(out, "appeal-decide")
	}
	if eligibility.CanReport(u, r) {
		out = append(out, "report")
	}
	if eligibility.CanReviewReport(u, r) {
		out = append(out, "report-review")
	}
	if eligibility.CanAuditResearch(u, r) {
		out = append(out, "audit")
	}
	return out
}

func runResearchList(ctx context.Context, a *app, args []string) error {
	fs := flags("research list")
	status := fs.String("status", "", "PENDING | APPROVED | DISAPPROVED")
	list := fs.String("list", "", "resubmitted | appealed | reported")
	country := fs.String("country", "", "country filter")
	category := fs.String("category", "", "category id (super admin)")
	search := fs.String("search", "", "free-text search")
	if err := parse(fs, args); err != nil {
		return err
	}

	c := a.researchList(console.ResearchListParams(a.session.CurrentUser()), nil)
	c.SetFilter(console.FilterStatus, *status)
	c.SetFilter(console.FilterList, *list)
	c.SetFilter(console.FilterCountry, *country)
	c.SetFilter(console.FilterCategory, *category)
	c.StageSearch(*search)
	c.SubmitSearch()
	c.SetPage(a.page)
	if _, err := a.loadResearch(ctx, c); err != nil {
		return err
	}
	return a.printResearch(c)
}

func runResearchAppeals(ctx context.Context, a *app, args []string) error {
	fs := flags("research appeals")
	search := fs.String("search", "", "free-text search")
	if err := parse(fs, args); err != nil {
		return err
	}
	c := a.researchList(console.AppealsParams, map[string]string{console.FilterSearch: *search})
	if _, err := a.loadResearch(ctx, c); err != nil {
		return err
	}
	return a.printResearch(c)
}

// targetFlags 调研目标字段
type targetFlags struct {
	typ          *string
	companyName  *string
	companyLink  *string
	personName   *string
	linkedinLink *string
	country      *string
	screenshots  multi
}

func addTargetFlags(fs *flag.FlagSet, withType bool) *targetFlags {
	t := &targetFlags{}
	if withType {
		t.typ = fs.String("type", "", "WEBSITE | LINKEDIN (fixed for researchers)")
	}
	t.companyName = fs.String("company-name", "", "company name")
	t.companyLink = fs.String("company-link", "", "company website")
	t.personName = fs.String("person-name", "", "person name")
	t.linkedinLink = fs.String("linkedin-link", "", "LinkedIn profile")
	t.country = fs.String("country", "", "country")
	fs.Var(&t.screenshots, "screenshot", "screenshot path or s3://bucket/key (repeatable)")
	return t
}

// screenshots 解析图片，超过单张上限的丢弃并在 stderr 提示
func (a *app) screenshots(ctx context.Context, refs []string) ([]attachment.Attachment, error) {
	list, err := a.infra.Attachments.ResolveAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	kept, msg := console.FilterScreenshots(list, a.cfg.Console.MaxImageBytes)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	return kept, nil
}

func (a *app) duplicateChecker() *console.DuplicateChecker {
	return console.NewDuplicateChecker(a.api.Research.CheckDuplicate,
		console.WithMinLength(a.cfg.Console.DuplicateMinLength),
		console.WithDebounce(a.cfg.Console.DuplicateDebounce),
		console.WithDuplicateMetrics(a.metrics),
		console.WithDuplicateLogger(a.logger.WithView("research-create")),
	)
}

func runResearchCreate(ctx context.Context, a *app, args []string) error {
	fs := flags("research create")
	tf := addTargetFlags(fs, true)
	if err := parse(fs, args); err != nil {
		return err
	}

	role := a.session.CurrentUser().Role
	d := console.NewResearchDraft(role)
	if *tf.typ != "" {
		d.SetType(role, model.ResearchType(strings.ToUpper(*tf.typ)))
	}
	d.CompanyName, d.CompanyLink = *tf.companyName, *tf.companyLink
	d.PersonName, d.LinkedinLink = *tf.personName, *tf.linkedinLink
	d.Country = *tf.country
	if err := d.Validate(); err != nil {
		return err
	}

	dup := a.duplicateChecker()
	defer dup.Stop()
	dup.Check(ctx, console.DuplicateField(d.Type), d.Link())
	if !d.CanSubmit(dup) {
		fmt.Fprintln(os.Stderr, dup.Message(d.Type))
		return errors.New("Submission blocked: duplicate record detected. Change the link before submitting.")
	}

	shots, err := a.screenshots(ctx, tf.screenshots)
	if err != nil {
		return err
	}
	d.Screenshots = shots
	created, err := a.api.Research.Create(ctx, d.Form(ctx))
	if err != nil {
		return errors.New(apiclient.Message(err, "Create failed"))
	}
	fmt.Fprintf(a.out, "Created %s (%s)\n", dash(created.ReferenceNo), created.ID)
	return nil
}

func runResearchCheckDuplicate(ctx context.Context, a *app, args []string) error {
	fs := flags("research check-duplicate")
	typ := fs.String("type", "", "WEBSITE | LINKEDIN (defaults to the role's type)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "link"); err != nil {
		return err
	}
	t := model.ResearchType(strings.ToUpper(*typ))
	if !t.Valid() {
		t = console.NewResearchDraft(a.session.CurrentUser().Role).Type
	}

	dup := a.duplicateChecker()
	defer dup.Stop()
	res := dup.Check(ctx, console.DuplicateField(t), fs.Arg(0))
	if res.Duplicate {
		fmt.Fprintln(a.out, console.DuplicateMessage(t, res))
		return nil
	}
	fmt.Fprintln(a.out, "No duplicate found")
	return nil
}

// errNotEligible 当前用户对该记录不可执行此操作
var errNotEligible = errors.New("action not available for this record")

func runResearchResubmit(ctx context.Context, a *app, args []string) error {
	fs := flags("research resubmit")
	tf := addTargetFlags(fs, false)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}

	r, err := a.api.Research.Get(ctx, fs.Arg(0))
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load record"))
	}
	if !eligibility.CanResubmit(a.session.CurrentUser(), r) {
		return fmt.Errorf("resubmit %s: %w", fs.Arg(0), errNotEligible)
	}

	// 未指定的字段沿用原记录
	d := console.NewResubmitDraft(r)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "company-name":
			d.CompanyName = *tf.companyName
		case "company-link":
			d.CompanyLink = *tf.companyLink
		case "person-name":
			d.PersonName = *tf.personName
		case "linkedin-link":
			d.LinkedinLink = *tf.linkedinLink
		case "country":
			d.Country = *tf.country
		}
	})
	if err := d.Validate(); err != nil {
		return err
	}
	shots, err := a.screenshots(ctx, tf.screenshots)
	if err != nil {
		return err
	}
	d.Screenshots = shots
	if _, err := a.api.Research.Resubmit(ctx, fs.Arg(0), d.Form(ctx)); err != nil {
		return errors.New(apiclient.Message(err, "Resubmit failed"))
	}
	fmt.Fprintln(a.out, "Resubmitted")
	return nil
}

func runResearchAppeal(ctx context.Context, a *app, args []string) error {
	fs := flags("research appeal")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}
	r, err := a.api.Research.Get(ctx, fs.Arg(0))
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load record"))
	}
	if !eligibility.CanAppeal(a.session.CurrentUser(), r) {
		return fmt.Errorf("appeal %s: %w", fs.Arg(0), errNotEligible)
	}
	if err := a.api.Research.Appeal(ctx, fs.Arg(0)); err != nil {
		return errors.New(apiclient.Message(err, "Appeal failed"))
	}
	fmt.Fprintln(a.out, "Appeal submitted")
	return nil
}

func runResearchEdit(ctx context.Context, a *app, args []string) error {
	fs := flags("research edit")
	tf := addTargetFlags(fs, false)
	status := fs.String("status", "", "PENDING | APPROVED | DISAPPROVED")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}
	e := &console.AdminEdit{
		CompanyName:  *tf.companyName,
		CompanyLink:  *tf.companyLink,
		PersonName:   *tf.personName,
		LinkedinLink: *tf.linkedinLink,
		Country:      *tf.country,
		Status:       model.Status(strings.ToUpper(*status)),
	}
	if e.Status != "" && !e.Status.Valid() {
		return &usageError{cmd: fs.Name(), msg: "unknown status " + *status}
	}
	if _, err := a.api.Research.Update(ctx, fs.Arg(0), e.Form()); err != nil {
		return errors.New(apiclient.Message(err, "Update failed"))
	}
	fmt.Fprintln(a.out, "Updated")
	return nil
}

func runResearchAppealDecide(ctx context.Context, a *app, args []string) error {
	fs := flags("research appeal-decide")
	approve := fs.Bool("approve", false, "approve the appeal")
	reject := fs.String("reject", "", "reject with this reason")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}
	d, err := appealDecision(fs, *approve, *reject)
	if err != nil {
		return err
	}
	if err := a.api.Research.DecideAppeal(ctx, fs.Arg(0), d); err != nil {
		return errors.New(apiclient.Message(err, "Decision failed"))
	}
	fmt.Fprintf(a.out, "Appeal %s\n", strings.ToLower(string(d.Decision)))
	return nil
}

func appealDecision(fs *flag.FlagSet, approve bool, reject string) (apiclient.AppealDecision, error) {
	if approve == (reject != "") {
		return apiclient.AppealDecision{}, &usageError{cmd: fs.Name(), msg: "use exactly one of -approve or -reject <reason>"}
	}
	if approve {
		return console.AppealApproval(), nil
	}
	return console.AppealRejection(reject)
}

func runResearchReport(ctx context.Context, a *app, args []string) error {
	fs := flags("research report")
	reason := fs.String("reason", "", "why the record is problematic")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}
	if err := a.api.Research.Report(ctx, fs.Arg(0), console.ReportReason(*reason)); err != nil {
		return errors.New(apiclient.Message(err, "Report failed"))
	}
	fmt.Fprintln(a.out, "Reported")
	return nil
}

func runResearchReportReview(ctx context.Context, a *app, args []string) error {
	fs := flags("research report-review")
	action := fs.String("action", "", "blacklist | valid")
	clarification := fs.String("clarification", "", "message to the inquirer (required for valid)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}
	req, err := console.ReportReviewRequest(*action, *clarification)
	if err != nil {
		return err
	}
	if err := a.api.Research.ReviewReport(ctx, fs.Arg(0), req); err != nil {
		return errors.New(apiclient.Message(err, "Review failed"))
	}
	fmt.Fprintln(a.out, "Report reviewed")
	return nil
}

// selectRows 把参数中的 id 勾选到当前页；all 为 true 时全选可选行
func selectRows[T console.Row](rows []T, ids []string, all bool, eligible func(T) bool) (*console.Selection, error) {
	sel := console.NewSelection()
	if all {
		console.ToggleAll(sel, rows, eligible)
		return sel, nil
	}
	byID := make(map[string]T, len(rows))
	for _, r := range rows {
		byID[r.RecordID()] = r
	}
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%s is not on the current page", id)
		}
		if eligible != nil && !eligible(r) {
			return nil, fmt.Errorf("%s cannot be selected", id)
		}
		if !sel.Has(id) {
			sel.Toggle(id)
		}
	}
	return sel, nil
}

func runResearchAssign(ctx context.Context, a *app, args []string) error {
	fs := flags("research assign")
	inquirer := fs.String("inquirer", "", "inquirer user id")
	typ := fs.String("type", "", "WEBSITE | LINKEDIN")
	all := fs.Bool("all", false, "select every unassigned record on the page")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *inquirer == "" {
		return &usageError{cmd: fs.Name(), msg: "-inquirer is required"}
	}

	t := model.ResearchType(strings.ToUpper(*typ))
	if t != "" && !t.Valid() {
		return &usageError{cmd: fs.Name(), msg: "unknown type " + *typ}
	}
	inquirers, err := a.api.Users.Inquirers(ctx, t)
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load inquirers"))
	}
	if !containsUser(inquirers, *inquirer) {
		return fmt.Errorf("%s is not an active inquirer", *inquirer)
	}

	c := a.researchList(console.AssignmentParams(a.session.CurrentUser()), map[string]string{
		console.FilterType:       string(t),
		console.FilterAssignment: console.AssignmentUnassigned,
	})
	rows, err := a.loadResearch(ctx, c)
	if err != nil {
		return err
	}
	sel, err := selectRows(rows, fs.Args(), *all, eligibility.Assignable)
	if err != nil {
		return err
	}
	n := sel.Len()
	bulk := console.NewBulkRunner(sel, c, c.SetErr, func(ctx context.Context, ids []string) error {
		return a.api.Research.Assign(ctx, ids, *inquirer)
	})
	if err := bulk.Run(ctx); err != nil {
		return a.bulkErr(err, c.Err())
	}
	fmt.Fprintf(a.out, "Assigned %d record(s)\n", n)
	return nil
}

func runResearchDeassign(ctx context.Context, a *app, args []string) error {
	fs := flags("research deassign")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}
	bulk := console.NewBulkRunner(console.NewSelection(), nil, nil, a.api.Research.Deassign)
	if err := bulk.RunOn(ctx, fs.Args()...); err != nil {
		return errors.New(apiclient.Message(err, "Deassign failed"))
	}
	fmt.Fprintf(a.out, "Deassigned %d record(s)\n", fs.NArg())
	return nil
}

func runResearchOpen(ctx context.Context, a *app, args []string) error {
	fs := flags("research open")
	all := fs.Bool("all", false, "every record on the page")
	if err := parse(fs, args); err != nil {
		return err
	}
	c := a.researchList(console.ResearchListParams(a.session.CurrentUser()), nil)
	rows, err := a.loadResearch(ctx, c)
	if err != nil {
		return err
	}
	sel, err := selectRows(rows, fs.Args(), *all, nil)
	if err != nil {
		return err
	}
	if sel.Len() == 0 {
		return console.ErrNothingSelected
	}
	for _, u := range console.OpenLinks(rows, sel) {
		fmt.Fprintln(a.out, u)
	}
	return nil
}

func (a *app) bulkErr(err error, msg string) error {
	if errors.Is(err, console.ErrNothingSelected) {
		return err
	}
	if msg != "" {
		return errors.New(msg)
	}
	return err
}

func containsUser(list []model.User, id string) bool {
	for _, u := range list {
		if u.ID == id {
			return true
		}
	}
	return false
}
