package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"research-admin/internal/apiclient"
	"research-admin/internal/console"
	"research-admin/internal/eligibility"
	"research-admin/internal/shared/model"
)

type auditFlags struct {
	approve    *bool
	disapprove *bool
	reason     *string
	custom     *string
	all        *bool
}

func addAuditFlags(fs *flag.FlagSet) *auditFlags {
	return &auditFlags{
		approve:    fs.Bool("approve", false, "approve the selected records"),
		disapprove: fs.Bool("disapprove", false, "disapprove the selected records"),
		reason:     fs.String("reason", "", "disapproval reason id, or \"other\" with -custom"),
		custom:     fs.String("custom", "", "free-text reason"),
		all:        fs.Bool("all", false, "select every pending record on the page"),
	}
}

func (f *auditFlags) action(fs *flag.FlagSet) (model.Status, error) {
	switch {
	case *f.approve && !*f.disapprove:
		return model.StatusApproved, nil
	case *f.disapprove && !*f.approve:
		return model.StatusDisapproved, nil
	default:
		return "", &usageError{cmd: fs.Name(), msg: "use exactly one of -approve or -disapprove"}
	}
}

// picker 驳回时才加载原因列表
func (a *app) picker(ctx context.Context, action model.Status, f *auditFlags) (console.ReasonPicker, error) {
	p := console.ReasonPicker{Choice: *f.reason, Custom: *f.custom}
	if p.Choice == "" && p.Custom != "" {
		p.Choice = console.ReasonOther
	}
	if action != model.StatusDisapproved || p.Choice == console.ReasonOther {
		return p, nil
	}
	options, err := a.api.Settings.Reasons(ctx)
	if err != nil {
		return p, errors.New(apiclient.Message(err, "Failed to load reasons"))
	}
	p.Options = options
	return p, nil
}

func runAuditResearch(ctx context.Context, a *app, args []string) error {
	fs := flags("audit research")
	af := addAuditFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	action, err := af.action(fs)
	if err != nil {
		return err
	}
	user := a.session.CurrentUser()

	c := a.researchList(console.ResearchListParams(user), map[string]string{console.FilterStatus: string(model.StatusPending)})
	rows, err := a.loadResearch(ctx, c)
	if err != nil {
		return err
	}
	sel, err := selectRows(rows, fs.Args(), *af.all, func(r model.Research) bool {
		return eligibility.CanAuditResearch(user, &r)
	})
	if err != nil {
		return err
	}
	picker, err := a.picker(ctx, action, af)
	if err != nil {
		return err
	}
	req, err := console.AuditRequest(sel.IDs(), action, picker)
	if err != nil {
		return err
	}

	n := sel.Len()
	bulk := console.NewBulkRunner(sel, c, c.SetErr, func(ctx context.Context, ids []string) error {
		req.IDs = ids
		return a.api.Audit.Research(ctx, req)
	})
	if err := bulk.Run(ctx); err != nil {
		return a.bulkErr(err, c.Err())
	}
	fmt.Fprintf(a.out, "%s %d record(s)\n", action, n)
	return nil
}

func runAuditInquiry(ctx context.Context, a *app, args []string) error {
	fs := flags("audit inquiry")
	af := addAuditFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	action, err := af.action(fs)
	if err != nil {
		return err
	}
	user := a.session.CurrentUser()

	c := a.inquiryList(map[string]string{console.FilterStatus: string(model.StatusPending)})
	rows, err := a.loadInquiries(ctx, c)
	if err != nil {
		return err
	}
	sel, err := selectRows(rows, fs.Args(), *af.all, func(q model.Inquiry) bool {
		return eligibility.CanAuditInquiry(user, &q)
	})
	if err != nil {
		return err
	}
	picker, err := a.picker(ctx, action, af)
	if err != nil {
		return err
	}
	req, err := console.AuditRequest(sel.IDs(), action, picker)
	if err != nil {
		return err
	}

	n := sel.Len()
	bulk := console.NewBulkRunner(sel, c, c.SetErr, func(ctx context.Context, ids []string) error {
		req.IDs = ids
		return a.api.Audit.Inquiry(ctx, req)
	})
	if err := bulk.Run(ctx); err != nil {
		return a.bulkErr(err, c.Err())
	}
	fmt.Fprintf(a.out, "%s %d record(s)\n", action, n)
	return nil
}
