// Command availability views and edits trainer availability against a running server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"billionsgym/internal/adapters/api"
	"billionsgym/internal/application/editor"
	"billionsgym/internal/application/notifier"
	"billionsgym/internal/application/refresh"
	"billionsgym/internal/application/viewer"
	"billionsgym/internal/config"
)

const usage = `usage: availability [-config file] [-url base] [-token token] <command> [args]

commands:
  login -email E -password P        print a session token
  show [-status S] TRAINER          print a trainer's week and booked sessions
  edit [-lock] [-force] TRAINER OP... apply operations to the week and save
  notifications [-unread]           list notifications
  read ID                           mark a notification read
  watch [-interval D]               print the unread count on every poll
`

// errNotLoaded stops edit from writing the default template over a schedule
// it could not read.
var errNotLoaded = errors.New("could not load the saved schedule; not saving over it (use -force)")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	client *api.Client
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("availability", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configFile := fs.String("config", "", "config file")
	baseURL := fs.String("url", "", "server base URL (default from BILLIONS_API_BASE_URL)")
	token := fs.String("token", "", "session token (default from BILLIONS_API_TOKEN)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if *baseURL != "" {
		cfg.APIBaseURL = *baseURL
	}
	if *token != "" {
		cfg.APIToken = *token
	}

	a := &app{
		cfg:    cfg,
		client: api.NewClient(cfg.APIBaseURL, api.DefaultHTTPClient(), nil).WithToken(cfg.APIToken),
		out:    stdout,
		errOut: stderr,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		err = a.login(ctx, rest)
	case "show":
		err = a.show(ctx, rest)
	case "edit":
		err = a.edit(ctx, rest)
	case "notifications":
		err = a.notifications(ctx, rest)
	case "read":
		err = a.read(ctx, rest)
	case "watch":
		err = a.watch(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login needs -email and -password")
	}
	data, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "signed in as %s (%s)\n", data.AccountID, data.Role)
	fmt.Fprintln(a.out, data.Token)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	status := fs.String("status", "", "only sessions with this status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("show needs exactly one trainer ID")
	}
	v := viewer.New(a.client, viewer.ErrorNotifierFunc(func(msg string) {
		fmt.Fprintln(a.errOut, msg)
	}))
	view, err := v.Load(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printView(a.out, view, strings.ToUpper(*status))
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fs.Usage = func() {
		fmt.Fprintln(a.errOut, "usage: availability edit [-lock] [-force] TRAINER OP...")
		fmt.Fprintln(a.errOut, opUsage)
	}
	lock := fs.Bool("lock", false, "fail instead of overwriting a concurrent change")
	force := fs.Bool("force", false, "save over the default template when the stored schedule cannot be fetched")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("edit needs a trainer ID and at least one operation")
	}
	ops, err := parseOps(fs.Args()[1:])
	if err != nil {
		return err
	}

	hub := refresh.NewHub()
	defer hub.Close()
	saved, cancel := hub.Subscribe(refresh.ScheduleSaved)
	defer cancel()

	var opts []editor.Option
	if *lock {
		opts = append(opts, editor.WithOptimisticLock())
	}
	ed := editor.New(editor.Deps{
		Client: a.client,
		Notifier: editor.NotifierFunc(func(level editor.Level, msg string) {
			fmt.Fprintf(a.errOut, "[%s] %s\n", level, msg)
		}),
		Navigator:    editor.NavigatorFunc(func(string) {}),
		Hub:          hub,
		ConfirmDelay: a.cfg.ConfirmDelay,
	}, opts...)

	trainerID := fs.Arg(0)
	if err := ed.Load(ctx, trainerID); err != nil {
		return err
	}
	if !ed.LoadedFromServer() && !*force {
		return errNotLoaded
	}
	if err := applyOps(ed, ops); err != nil {
		return err
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}

	select {
	case e := <-saved:
		fmt.Fprintf(a.out, "%s saved at version %d\n", e.TrainerID, e.Version)
	default:
	}
	printDays(a.out, ed.Snapshot().Days)
	return nil
}

func (a *app) notifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	unread := fs.Bool("unread", false, "only unread notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}
	data, err := a.client.ListNotifications(ctx, *unread)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tCREATED\tREAD\tTITLE\n")
	for _, n := range data.Notifications {
		read := ""
		if n.IsRead() {
			read = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), read, n.Title)
	}
	tw.Flush()
	fmt.Fprintf(a.out, "%d unread\n", data.UnreadCount)
	return nil
}

func (a *app) read(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("read needs exactly one notification ID")
	}
	return a.client.MarkNotificationRead(ctx, args[0])
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	interval := fs.Duration("interval", a.cfg.PollInterval, "poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	hub := refresh.NewHub()
	defer hub.Close()
	events, cancel := hub.Subscribe(refresh.NotificationsChanged)
	defer cancel()

	stopPolling := notifier.New(a.client, hub, *interval).Start(ctx)
	defer stopPolling()

	last := -1
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if e.Unread != last {
				fmt.Fprintf(a.out, "%s  %d unread\n", time.Now().Format(time.TimeOnly), e.Unread)
				last = e.Unread
			}
		}
	}
}
