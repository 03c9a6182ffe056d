package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"calendasync/internal/domain"
	"calendasync/internal/signin"
	"calendasync/internal/store"
	"calendasync/internal/validation"
	"calendasync/internal/waitlist"
)

func (a *app) signUp(ctx context.Context, args []string) error {
	fs := a.newFlags("signup")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}
	_, err := a.flow.SignUp(ctx, *email, *password)
	return err
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}
	_, err := a.flow.SignIn(ctx, *email, *password)
	if errors.Is(err, signin.ErrDeviceVerificationRequired) {
		fmt.Fprintln(a.out, "new device: run `calendasync verify -email ... -password ... -code <code>` with the emailed code")
		return nil
	}
	return err
}

func (a *app) verify(ctx context.Context, args []string) error {
	fs := a.newFlags("verify")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	code := fs.String("code", "", "6-digit code from the verification email")
	if err := parse(fs, args); err != nil {
		return err
	}
	_, err := a.flow.VerifyDevice(ctx, *email, *password, *code)
	return err
}

// resetPassword requests a recovery code, or with -code and -password confirms it.
func (a *app) resetPassword(ctx context.Context, args []string) error {
	fs := a.newFlags("reset-password")
	email := fs.String("email", "", "account email")
	code := fs.String("code", "", "recovery code from the reset email")
	password := fs.String("password", "", "new password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *code == "" {
		return a.flow.RequestPasswordReset(ctx, *email)
	}
	return a.flow.ConfirmPasswordReset(ctx, *email, *code, *password)
}

func (a *app) account(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.notifier.err, "usage: calendasync account password|email [flags]")
		return errUsage
	}
	switch args[0] {
	case "password":
		fs := a.newFlags("account password")
		current := fs.String("current", "", "current password")
		next := fs.String("new", "", "new password")
		confirm := fs.String("confirm", "", "new password again")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		return a.flow.ChangePassword(ctx, *current, *next, *confirm)
	case "email":
		fs := a.newFlags("account email")
		to := fs.String("to", "", "new email address")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		u, err := a.flow.ChangeEmail(ctx, *to)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, u.Email)
		return nil
	default:
		fmt.Fprintf(a.notifier.err, "unknown account command %q\n", args[0])
		return errUsage
	}
}

func (a *app) events(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.notifier.err, "usage: calendasync events list|create|update|delete [flags]")
		return errUsage
	}
	switch args[0] {
	case "list":
		return a.listEvents(ctx)
	case "create":
		return a.createEvent(ctx, args[1:])
	case "update":
		return a.updateEvent(ctx, args[1:])
	case "delete":
		return a.deleteEvent(ctx, args[1:])
	default:
		fmt.Fprintf(a.notifier.err, "unknown events command %q\n", args[0])
		return errUsage
	}
}

// listEvents prints whatever the store holds after the retried fetch, cached rows included.
func (a *app) listEvents(ctx context.Context) error {
	err := a.store.FetchEventsWithRetry(ctx, store.DefaultRetryPolicy)
	if st := a.store.Snapshot(); err == nil || st.FromCache {
		a.printEvents(st.Events)
	}
	return err
}

func (a *app) printEvents(events []*domain.Event) {
	if len(events) == 0 {
		fmt.Fprintln(a.out, "no events")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tTITLE")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID,
			e.StartTime.Local().Format("2006-01-02 15:04"),
			e.EndTime.Local().Format("2006-01-02 15:04"),
			e.Title)
	}
	_ = tw.Flush()
}

type eventFlags struct {
	title       *string
	description *string
	start       *string
	end         *string
}

func bindEventFlags(fs *flag.FlagSet) eventFlags {
	return eventFlags{
		title:       fs.String("title", "", "event title"),
		description: fs.String("description", "", "event description"),
		start:       fs.String("start", "", "start time, e.g. 2025-06-02T09:00 (local) or RFC 3339"),
		end:         fs.String("end", "", "end time, same formats as -start"),
	}
}

func (f eventFlags) candidate() domain.EventCandidate {
	return domain.EventCandidate{
		Title:       *f.title,
		Description: *f.description,
		StartTime:   *f.start,
		EndTime:     *f.end,
	}
}

func (a *app) createEvent(ctx context.Context, args []string) error {
	fs := a.newFlags("events create")
	ef := bindEventFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	return a.store.Create(ctx, ef.candidate())
}

// updateEvent fills flags that were not given from the stored event.
func (a *app) updateEvent(ctx context.Context, args []string) error {
	fs := a.newFlags("events update")
	id := fs.String("id", "", "event id")
	ef := bindEventFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fmt.Fprintln(a.notifier.err, "-id is required")
		return errUsage
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["title"] || !set["description"] || !set["start"] || !set["end"] {
		if err := a.store.FetchEvents(ctx); err != nil {
			return err
		}
		current := findEvent(a.store.Snapshot().Events, *id)
		if current == nil {
			return a.store.Update(ctx, *id, ef.candidate())
		}
		base := validation.Candidate(domain.EventInput{
			Title:       current.Title,
			Description: current.Description,
			StartTime:   current.StartTime.Local(),
			EndTime:     current.EndTime.Local(),
		})
		fill(set["title"], ef.title, base.Title)
		fill(set["description"], ef.description, base.Description)
		fill(set["start"], ef.start, base.StartTime)
		fill(set["end"], ef.end, base.EndTime)
	}
	return a.store.Update(ctx, *id, ef.candidate())
}

func fill(given bool, dst *string, fallback string) {
	if !given {
		*dst = fallback
	}
}

func findEvent(events []*domain.Event, id string) *domain.Event {
	for _, e := range events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (a *app) deleteEvent(ctx context.Context, args []string) error {
	fs := a.newFlags("events delete")
	id := fs.String("id", "", "event id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fmt.Fprintln(a.notifier.err, "-id is required")
		return errUsage
	}
	return a.store.Delete(ctx, *id)
}

func (a *app) joinWaitlist(ctx context.Context, args []string) error {
	fs := a.newFlags("waitlist")
	var e waitlist.Entry
	fs.StringVar(&e.Name, "name", "", "your name")
	fs.StringVar(&e.Email, "email", "", "your email")
	fs.StringVar(&e.Industry, "industry", "", "your industry")
	fs.StringVar(&e.CurrentRole, "role", "", "your current role")
	if err := parse(fs, args); err != nil {
		return err
	}
	res, err := a.submitter.Submit(ctx, e)
	if !res.Success {
		a.notifier.Error(ctx, res.Error)
		return err
	}
	a.notifier.Success(ctx, "You're on the waitlist!")
	return nil
}

func (a *app) prefs(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "dark-mode" {
		fmt.Fprintln(a.notifier.err, "usage: calendasync prefs dark-mode [on|off]")
		return errUsage
	}
	switch rest := args[1:]; {
	case len(rest) == 0:
		on, err := a.preferences.DarkMode(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, onOff(on))
		return nil
	case rest[0] == "on" || rest[0] == "off":
		return a.preferences.SetDarkMode(ctx, rest[0] == "on")
	default:
		fmt.Fprintf(a.notifier.err, "dark-mode takes on or off, got %q\n", rest[0])
		return errUsage
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
