package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"research-admin/internal/apiclient"
	"research-admin/internal/shared/model"
)

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (or CONSOLE_PASSWORD, or read from stdin)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return &usageError{cmd: "login", msg: "-email is required"}
	}
	pw := *password
	if pw == "" {
		pw = os.Getenv("CONSOLE_PASSWORD")
	}
	if pw == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	user, err := a.session.Login(ctx, strings.TrimSpace(*email), pw)
	if err != nil {
		return errors.New(apiclient.Message(err, "Login failed"))
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", user.Name, user.Role.Label())
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func runWhoami(ctx context.Context, a *app, _ []string) error {
	u := a.session.CurrentUser()
	tw := a.table("FIELD", "VALUE")
	row(tw, "Name", u.Name)
	row(tw, "Email", u.Email)
	row(tw, "Role", u.Role.Label())
	row(tw, "Category", dash(model.RefName(u.Category)))
	row(tw, "Country", dash(u.Country))
	if u.Role.IsInquirer() {
		row(tw, "Trusted", yesNo(u.TrustedInquirer))
	}
	if info, err := a.session.Token(ctx); err == nil && !info.ExpiresAt.IsZero() {
		row(tw, "Token expires", fmt.Sprintf("%s (%s)", when(info.ExpiresAt), info.ExpiresIn(a.now()).Round(time.Minute)))
	}
	list := a.session.Capabilities().List()
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = string(c)
	}
	row(tw, "Capabilities", strings.Join(names, " "))
	return tw.Flush()
}

func runProfileUpdate(ctx context.Context, a *app, args []string) error {
	fs := flags("profile update")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "new password")
	photo := fs.String("photo", "", "profile image (path or s3://bucket/key)")
	if err := parse(fs, args); err != nil {
		return err
	}

	form := apiclient.NewForm().SetNonEmpty("name", *name).SetNonEmpty("password", *password)
	if *photo != "" {
		img, err := a.infra.Attachments.Resolve(ctx, *photo)
		if err != nil {
			return err
		}
		if img.Size > a.cfg.Console.MaxImageBytes {
			return fmt.Errorf("profile image must be ≤ %dKB", a.cfg.Console.MaxImageBytes/1024)
		}
		form.AddFile(ctx, "profileImage", img)
	}
	if _, err := a.api.Auth.UpdateProfile(ctx, form); err != nil {
		return errors.New(apiclient.Message(err, "Update failed"))
	}
	u, err := a.session.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Profile updated for %s\n", u.Email)
	return nil
}
