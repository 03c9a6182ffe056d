// Command calendasync is the command-line client for a calendasync server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"calendasync/config"
	"calendasync/internal/adapters/gateway"
	"calendasync/internal/localstate"
	"calendasync/internal/signin"
	"calendasync/internal/store"
	"calendasync/internal/waitlist"
)

const usage = `usage: calendasync [-config path] <command> [flags]

commands:
  signup          -email -password
  login           -email -password
  verify          -email -password -code
  logout
  reset-password  -email [-code -password]
  account         password -current -new -confirm | email -to
  events          list | create | update | delete
  waitlist        -name -email -industry [-role]
  prefs           dark-mode [on|off]
`

// errUsage is returned after usage text has been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	notifier := &consoleNotifier{out: os.Stdout, err: os.Stderr}
	err := run(ctx, os.Args[1:], os.Stdout, notifier)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		if !notifier.reported {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, notifier *consoleNotifier) error {
	fs := flag.NewFlagSet("calendasync", flag.ContinueOnError)
	fs.SetOutput(notifier.err)
	fs.Usage = func() { fmt.Fprint(notifier.err, usage) }
	configPath := fs.String("config", config.DefaultClientPath(), "client config file")
	verbose := fs.Bool("v", false, "log requests and retries")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, stdout, notifier, *verbose)
	if err != nil {
		return err
	}
	defer a.close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "signup":
		return a.signUp(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "verify":
		return a.verify(ctx, rest)
	case "logout":
		return a.flow.SignOut(ctx)
	case "reset-password":
		return a.resetPassword(ctx, rest)
	case "account":
		return a.account(ctx, rest)
	case "events":
		return a.events(ctx, rest)
	case "waitlist":
		return a.joinWaitlist(ctx, rest)
	case "prefs":
		return a.prefs(ctx, rest)
	default:
		fmt.Fprintf(notifier.err, "unknown command %q\n\n", cmd)
		fs.Usage()
		return errUsage
	}
}

type app struct {
	out         io.Writer
	notifier    *consoleNotifier
	kv          *localstate.Store
	flow        *signin.Flow
	store       *store.EventStore
	submitter   *waitlist.Submitter
	preferences *localstate.Preferences
}

func newApp(ctx context.Context, cfg *config.ClientConfig, stdout io.Writer, notifier *consoleNotifier, verbose bool) (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(notifier.err, &slog.HandlerOptions{Level: level}))

	if cfg.StatePath != localstate.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	kv, err := localstate.Open(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	client := gateway.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.RequestTimeout}, kv)
	if err := client.Restore(ctx); err != nil {
		_ = kv.Close()
		return nil, err
	}

	return &app{
		out:         stdout,
		notifier:    notifier,
		kv:          kv,
		flow:        signin.NewFlow(client, kv, notifier),
		store:       store.NewEventStore(client, kv, notifier, logger),
		submitter:   waitlist.NewSubmitter(cfg.WaitlistURL, nil, logger),
		preferences: localstate.NewPreferences(kv),
	}, nil
}

func (a *app) close() {
	_ = a.kv.Close()
}

// newFlags returns a subcommand flag set whose usage goes to stderr.
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.notifier.err)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}
