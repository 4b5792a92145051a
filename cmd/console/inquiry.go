package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"research-admin/internal/apiclient"
	"research-admin/internal/console"
	"research-admin/internal/eligibility"
	"research-admin/internal/shared/model"
)

func (a *app) inquiryList(filters map[string]string) *console.ListController[model.Inquiry] {
	c := console.NewListController(a.api.Inquiry.List, console.InquiryListParams,
		console.WithPageSize(a.limit),
		console.WithFilters(filters),
		console.WithFallbackMessage("Failed to load"),
		console.WithListLogger(a.logger.WithView("inquiry")),
	)
	c.SetPage(a.page)
	return c
}

func (a *app) loadInquiries(ctx context.Context, c *console.ListController[model.Inquiry]) ([]model.Inquiry, error) {
	if err := c.Load(ctx); err != nil {
		if msg := c.Err(); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, err
	}
	return c.Rows(), nil
}

func runInquiryList(ctx context.Context, a *app, args []string) error {
	fs := flags("inquiry list")
	status := fs.String("status", "", "PENDING | APPROVED | DISAPPROVED")
	search := fs.String("search", "", "free-text search")
	if err := parse(fs, args); err != nil {
		return err
	}
	c := a.inquiryList(map[string]string{
		console.FilterStatus: strings.ToUpper(*status),
		console.FilterSearch: *search,
	})
	rows, err := a.loadInquiries(ctx, c)
	if err != nil {
		return err
	}

	user := a.session.CurrentUser()
	calc := eligibility.NewCalculator(time.Local)
	now := a.now()
	tw := a.table("ID", "REF", "TYPE", "TARGET", "INQUIRER", "STATUS", "COOLDOWN", "ACTIONS")
	for i := range rows {
		q := &rows[i]
		var actions []string
		if eligibility.CanResubmit(user, q) {
			actions = append(actions, "resubmit", "appeal")
		}
		if eligibility.CanDecideAppeal(user, q) {
			actions = append(actions, "appeal-decide")
		}
		if eligibility.CanAuditInquiry(user, q) {
			actions = append(actions, "audit")
		}
		row(tw, q.ID, dash(q.ReferenceNo), q.Type.Label(), dash(q.Link()), dash(model.RefName(q.Inquirer)),
			string(q.Status), calc.Inquiry(q, now).String(), dash(strings.Join(actions, ",")))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, c.Pagination().Summary())
	return nil
}

func runInquiryCreate(ctx context.Context, a *app, args []string) error {
	fs := flags("inquiry create")
	var shots multi
	fs.Var(&shots, "screenshot", "screenshot path or s3://bucket/key (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "research id"); err != nil {
		return err
	}

	list, err := a.screenshots(ctx, shots)
	if err != nil {
		return err
	}
	d := &console.InquiryDraft{ResearchID: fs.Arg(0), Screenshots: list}
	if err := d.Validate(a.session.CurrentUser()); err != nil {
		return err
	}
	created, err := a.api.Inquiry.Create(ctx, d.Form(ctx))
	if err != nil {
		return errors.New(apiclient.Message(err, "Create failed"))
	}
	fmt.Fprintf(a.out, "Created %s (%s)\n", dash(created.ReferenceNo), created.ID)
	return nil
}

func runInquiryResubmit(ctx context.Context, a *app, args []string) error {
	fs := flags("inquiry resubmit")
	var shots multi
	fs.Var(&shots, "screenshot", "screenshot path or s3://bucket/key (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "inquiry id"); err != nil {
		return err
	}
	inq, err := a.api.Inquiry.Get(ctx, fs.Arg(0))
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load record"))
	}
	if !eligibility.CanResubmit(a.session.CurrentUser(), inq) {
		return fmt.Errorf("resubmit %s: %w", fs.Arg(0), errNotEligible)
	}
	list, err := a.screenshots(ctx, shots)
	if err != nil {
		return err
	}
	form := apiclient.NewForm().AddFiles(ctx, "screenshots", list)
	if _, err := a.api.Inquiry.Resubmit(ctx, fs.Arg(0), form); err != nil {
		return errors.New(apiclient.Message(err, "Resubmit failed"))
	}
	fmt.Fprintln(a.out, "Resubmitted")
	return nil
}

func runInquiryAppeal(ctx context.Context, a *app, args []string) error {
	fs := flags("inquiry appeal")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "inquiry id"); err != nil {
		return err
	}
	inq, err := a.api.Inquiry.Get(ctx, fs.Arg(0))
	if err != nil {
		return errors.New(apiclient.Message(err, "Failed to load record"))
	}
	if !eligibility.CanAppeal(a.session.CurrentUser(), inq) {
		return fmt.Errorf("appeal %s: %w", fs.Arg(0), errNotEligible)
	}
	if err := a.api.Inquiry.Appeal(ctx, fs.Arg(0)); err != nil {
		return errors.New(apiclient.Message(err, "Appeal failed"))
	}
	fmt.Fprintln(a.out, "Appeal submitted")
	return nil
}

func runInquiryAppealDecide(ctx context.Context, a *app, args []string) error {
	fs := flags("inquiry appeal-decide")
	approve := fs.Bool("approve", false, "approve the appeal")
	reject := fs.String("reject", "", "reject with this reason")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := need(fs, 1, "inquiry id"); err != nil {
		return err
	}
	d, err := appealDecision(fs, *approve, *reject)
	if err != nil {
		return err
	}
	if err := a.api.Inquiry.DecideAppeal(ctx, fs.Arg(0), d); err != nil {
		return errors.New(apiclient.Message(err, "Decision failed"))
	}
	fmt.Fprintf(a.out, "Appeal %s\n", strings.ToLower(string(d.Decision)))
	return nil
}
