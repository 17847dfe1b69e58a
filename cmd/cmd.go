// Package cmd provides CLI command implementations for the LDN inbox client.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/phochste/AcmeInboxViewer/internal/activity"
	"github.com/phochste/AcmeInboxViewer/internal/config"
	"github.com/phochste/AcmeInboxViewer/internal/inbox"
	"github.com/phochste/AcmeInboxViewer/internal/logging"
	"github.com/phochste/AcmeInboxViewer/internal/resource"
	"github.com/phochste/AcmeInboxViewer/internal/search"
	"github.com/phochste/AcmeInboxViewer/internal/solid"
	"github.com/phochste/AcmeInboxViewer/internal/storage"
	"github.com/phochste/AcmeInboxViewer/internal/watch"
	"github.com/phochste/AcmeInboxViewer/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App carries the configuration and collaborators shared by all commands.
type App struct {
	ConfigPath string
	Logger     *zap.Logger
	Out        io.Writer
	In         io.Reader
	Client     *solid.Client
	Service    *inbox.Service

	config atomic.Pointer[config.Config]
}

// NewApp wires a client and service from cfg.
func NewApp(cfg *config.Config, configPath string, logger *zap.Logger, out io.Writer) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := solid.NewClient(solid.Options{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		AuthToken: cfg.HTTP.AuthToken,
		RateLimit: cfg.HTTP.RateLimit,
		Burst:     cfg.HTTP.Burst,
		Breaker: solid.BreakerConfig{
			MaxFailures: cfg.HTTP.Breaker.MaxFailures,
			Timeout:     cfg.HTTP.Breaker.Timeout,
		},
		Logger: logger,
	})
	loader := inbox.NewLoader(client,
		inbox.WithConcurrency(cfg.Loader.Concurrency),
		inbox.WithLogger(logger),
	)

	a := &App{
		ConfigPath: configPath,
		Logger:     logger,
		Out:        out,
		In:         os.Stdin,
		Client:     client,
		Service:    inbox.NewService(client, loader, nil, logger),
	}
	a.config.Store(cfg)
	return a
}

// Config returns the current configuration.
func (a *App) Config() *config.Config {
	return a.config.Load()
}

// watchConfig reloads the configuration file until ctx is cancelled.
func (a *App) watchConfig(ctx context.Context) {
	if a.ConfigPath == "" {
		return
	}
	go func() {
		err := config.Watch(ctx, a.ConfigPath, a.Logger, func(cfg *config.Config) {
			a.config.Store(cfg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Warn("config watch stopped", zap.Error(err))
		}
	}()
}

// openState opens the persisted UI state.
func (a *App) openState() (*storage.State, func(), error) {
	dir := a.Config().StateDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating state directory: %w", err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(dir, false); err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	return storage.NewState(store), func() { _ = store.Close() }, nil
}

// resolveInbox picks explicit, the configured inbox, the last selected
// inbox or the profile's inbox, in that order.
func (a *App) resolveInbox(ctx context.Context, explicit string) (string, error) {
	cfg := a.Config()
	fallback := cfg.Inbox
	if explicit == "" && fallback == "" {
		if state, closeState, err := a.openState(); err == nil {
			if selected, err := state.SelectedInbox(ctx); err == nil && selected != nil {
				fallback = selected.URL
			}
			closeState()
		}
	}
	return a.Service.ResolveInbox(ctx, explicit, fallback, cfg.WebID)
}

func (a *App) success(format string, args ...any) {
	_, _ = color.New(color.FgGreen).Fprintf(a.Out, format+"\n", args...)
}

func (a *App) warn(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(a.Out, format+"\n", args...)
}

func (a *App) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(a.Out, string(data))
	return err
}

// ProfileCmd shows a WebID profile.
type ProfileCmd struct {
	WebID string `arg:"" optional:"" help:"WebID (default: configured webid)"`
}

// Run executes the profile command.
func (c *ProfileCmd) Run(ctx context.Context, app *App) error {
	webID := c.WebID
	if webID == "" {
		webID = app.Config().WebID
	}

	p, err := app.Service.Profile(ctx, webID)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Name:    %s\n", p.DisplayName())
	fmt.Fprintf(app.Out, "WebID:   %s\n", p.WebID)
	if p.Image != nil {
		fmt.Fprintf(app.Out, "Image:   %s\n", *p.Image)
	}
	if inboxURL, err := p.InboxURL(); err == nil {
		fmt.Fprintf(app.Out, "Inbox:   %s\n", inboxURL)
	} else {
		app.warn("No inbox advertised")
	}
	for _, st := range p.Storage {
		fmt.Fprintf(app.Out, "Storage: %s\n", st)
	}
	return nil
}

// LsCmd lists a container.
type LsCmd struct {
	URL string `arg:"" help:"Container URL"`
}

// Run executes the ls command.
func (c *LsCmd) Run(ctx context.Context, app *App) error {
	items, err := app.Client.ListItems(ctx, c.URL)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(app.Out, "Container is empty")
		return nil
	}

	for _, item := range items {
		kind := "-"
		if item.IsDir {
			kind = "d"
		}
		fmt.Fprintf(app.Out, "%s %s\n", kind, item.Name)
	}
	return nil
}

// InboxCmd lists the notifications of an inbox.
type InboxCmd struct {
	URL    string `arg:"" optional:"" help:"Inbox URL (default: configured, last used or advertised inbox)"`
	Limit  int    `short:"n" default:"0" help:"Maximum notifications (0 for all)"`
	Search string `short:"s" help:"Only show notifications matching these words, best match first"`
	JSON   bool   `help:"Print notifications as JSON"`
}

type inboxEntry struct {
	URL      string         `json:"url"`
	Resource *resource.Info `json:"resource,omitempty"`
	Summary  string         `json:"summary,omitempty"`
	Activity map[string]any `json:"activity,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Run executes the inbox command.
func (c *InboxCmd) Run(ctx context.Context, app *App) error {
	inboxURL, err := app.resolveInbox(ctx, c.URL)
	if err != nil {
		return err
	}

	messages, err := app.Service.Loader().Load(ctx, inboxURL)
	if err != nil {
		return err
	}
	if err := rememberInbox(ctx, app, inboxURL); err != nil {
		app.Logger.Warn("saving state", zap.Error(err))
	}

	if c.Search != "" {
		messages = search.Rank(messages, c.Search)
	}

	if c.Limit > 0 && c.Limit < len(messages) {
		messages = messages[:c.Limit]
	}

	if c.JSON {
		entries := make([]inboxEntry, 0, len(messages))
		for _, m := range messages {
			entry := inboxEntry{URL: m.URL, Resource: m.Resource}
			if m.Err != nil {
				entry.Error = m.Err.Error()
			} else {
				entry.Summary = inbox.Summary(m.Activity)
				entry.Activity = fieldMap(m.Activity)
			}
			entries = append(entries, entry)
		}
		return app.printJSON(entries)
	}

	if len(messages) == 0 {
		fmt.Fprintf(app.Out, "Inbox %s is empty\n", inboxURL)
		return nil
	}

	fmt.Fprintf(app.Out, "Inbox %s\n\n", inboxURL)
	w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
	for i, m := range messages {
		modified := "-"
		if m.Resource != nil && m.Resource.Modified != nil {
			modified = m.Resource.Modified.UTC().Format("2006-01-02 15:04")
		}
		summary := inbox.Summary(m.Activity)
		if m.Err != nil {
			summary = "(unreadable: " + m.Err.Error() + ")"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, modified, summary, m.URL)
	}
	return w.Flush()
}

func fieldMap(a *activity.Activity) map[string]any {
	out := make(map[string]any)
	for _, f := range inbox.Fields(a) {
		out[f.Label] = f.Value
	}
	return out
}

func rememberInbox(ctx context.Context, app *App, inboxURL string) error {
	state, closeState, err := app.openState()
	if err != nil {
		return err
	}
	defer closeState()

	listing := storage.InboxListing{URL: inboxURL, Name: solid.ContainerItem(inboxURL).Name}
	if err := state.RememberInbox(ctx, listing); err != nil {
		return err
	}
	return state.SetSelectedInbox(ctx, &listing)
}

// ShowCmd shows one notification.
type ShowCmd struct {
	URL  string `arg:"" help:"Notification URL"`
	JSON bool   `help:"Print the activity as JSON-LD"`
}

// Run executes the show command.
func (c *ShowCmd) Run(ctx context.Context, app *App) error {
	detail, err := app.Service.Loader().Show(ctx, c.URL)
	if err != nil {
		return err
	}

	if c.JSON {
		if detail.Activity != nil {
			return app.printJSON(app.Service.Encode(detail.Activity))
		}
		return app.printJSON(detail.Properties)
	}

	if detail.Activity == nil {
		app.warn("%s is not an activity", c.URL)
	} else {
		fmt.Fprintln(app.Out, inbox.Summary(detail.Activity))
		fmt.Fprintln(app.Out)
		w := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
		for _, f := range inbox.Fields(detail.Activity) {
			fmt.Fprintf(w, "%s:\t%s\n", f.Label, f.Value)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(app.Out)
	}
	return app.printJSON(detail.Properties)
}

// ReplyCmd replies to a notification.
type ReplyCmd struct {
	URL    string   `arg:"" help:"Notification replied to"`
	Object string   `required:"" help:"IRI the reply is about"`
	Type   []string `short:"t" help:"Activity type (default: Announce)"`
	To     string   `help:"Inbox to deliver to (default: the original actor's inbox)"`
}

// Run executes the reply command.
func (c *ReplyCmd) Run(ctx context.Context, app *App) error {
	sent, err := app.Service.Reply(ctx, inbox.ReplyRequest{
		URL:    c.URL,
		WebID:  app.Config().WebID,
		Object: c.Object,
		Types:  c.Type,
		Inbox:  c.To,
	})
	if err != nil {
		return err
	}
	return reportSent(app, sent)
}

// SendCmd sends a new notification.
type SendCmd struct {
	Inbox   string   `arg:"" help:"Inbox to deliver to"`
	Object  string   `required:"" help:"IRI the notification is about"`
	Type    []string `short:"t" help:"Activity type (default: Announce)"`
	Target  string   `help:"Target agent IRI"`
	Context string   `help:"Context IRI"`
	DryRun  bool     `help:"Print the notification instead of sending it"`
}

// Run executes the send command.
func (c *SendCmd) Run(ctx context.Context, app *App) error {
	actor, err := app.Service.Actor(ctx, app.Config().WebID)
	if err != nil {
		return err
	}

	n := inbox.Notification{
		Types:  c.Type,
		Actor:  actor,
		Object: c.Object,
	}
	if c.Target != "" {
		n.Target = &activity.Agent{ID: c.Target}
	}
	if c.Context != "" {
		n.Context = &activity.ObjectRef{ID: c.Context}
	}
	act := n.Activity()

	if c.DryRun {
		return app.printJSON(app.Service.Encode(act))
	}

	sent, err := app.Service.Send(ctx, c.Inbox, act)
	if err != nil {
		return err
	}
	return reportSent(app, sent)
}

func reportSent(app *App, sent *inbox.Sent) error {
	if !sent.Result.Delivered {
		return fmt.Errorf("inbox %s refused %s (HTTP %d)", sent.Inbox, sent.Activity.ID, sent.Result.StatusCode)
	}
	app.success("✓ Delivered %s to %s", sent.Activity.ID, sent.Inbox)
	if sent.Result.Location != "" {
		fmt.Fprintf(app.Out, "  Location: %s\n", sent.Result.Location)
	}
	return nil
}

// RmCmd deletes notifications.
type RmCmd struct {
	URLs     []string `arg:"" optional:"" help:"Resources to delete"`
	Selected bool     `help:"Also delete the notifications chosen with 'ldn select'"`
}

// Run executes the rm command.
func (c *RmCmd) Run(ctx context.Context, app *App) error {
	if !c.Selected {
		if len(c.URLs) == 0 {
			return errors.New("nothing to delete: name resources or pass --selected")
		}
		_, err := deleteAll(ctx, app, c.URLs)
		return err
	}

	state, closeState, err := app.openState()
	if err != nil {
		return err
	}
	defer closeState()

	selected, err := state.SelectedNotifications(ctx)
	if err != nil {
		return err
	}
	urls := mergeURLs(c.URLs, selected)
	if len(urls) == 0 {
		fmt.Fprintln(app.Out, "No notifications selected")
		return nil
	}

	failed, err := deleteAll(ctx, app, urls)

	// Whatever could not be deleted stays selected.
	remaining := make([]string, 0, len(selected))
	for _, url := range selected {
		if failed[url] {
			remaining = append(remaining, url)
		}
	}
	if serr := state.SetSelectedNotifications(ctx, remaining); serr != nil {
		return errors.Join(err, serr)
	}
	return err
}

// deleteAll deletes every url and reports the ones that failed.
func deleteAll(ctx context.Context, app *App, urls []string) (map[string]bool, error) {
	failed := make(map[string]bool)
	var errs []error
	for _, url := range urls {
		if err := app.Client.Delete(ctx, url); err != nil {
			failed[url] = true
			errs = append(errs, err)
			continue
		}
		app.success("Deleted %s", url)
	}
	return failed, errors.Join(errs...)
}

// mergeURLs appends the urls of more missing from urls, keeping order.
func mergeURLs(urls, more []string) []string {
	seen := make(map[string]bool, len(urls)+len(more))
	out := make([]string, 0, len(urls)+len(more))
	for _, list := range [][]string{urls, more} {
		for _, url := range list {
			if !seen[url] {
				seen[url] = true
				out = append(out, url)
			}
		}
	}
	return out
}

// SelectCmd marks notifications for a later 'ldn rm --selected'.
type SelectCmd struct {
	URLs  []string `arg:"" optional:"" help:"Notifications to add to the selection"`
	Clear bool     `help:"Empty the selection first"`
}

// Run executes the select command.
func (c *SelectCmd) Run(ctx context.Context, app *App) error {
	state, closeState, err := app.openState()
	if err != nil {
		return err
	}
	defer closeState()

	var selected []string
	if !c.Clear {
		if selected, err = state.SelectedNotifications(ctx); err != nil {
			return err
		}
	}
	selected = mergeURLs(selected, c.URLs)
	if err := state.SetSelectedNotifications(ctx, selected); err != nil {
		return err
	}

	app.success("%d notification(s) selected", len(selected))
	for _, url := range selected {
		fmt.Fprintf(app.Out, "  %s\n", url)
	}
	return nil
}

// WatchCmd prints inbox changes as they happen.
type WatchCmd struct {
	URL string `arg:"" optional:"" help:"Container URL (default: the resolved inbox)"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(ctx context.Context, app *App) error {
	containerURL, err := app.resolveInbox(ctx, c.URL)
	if err != nil {
		return err
	}

	cfg := app.Config()
	sub := watch.NewSubscriber(watch.Options{
		Endpoint:  cfg.Watch.URL,
		KeepAlive: cfg.Watch.KeepAlive,
		AuthToken: cfg.HTTP.AuthToken,
		Logger:    app.Logger,
	})

	fmt.Fprintf(app.Out, "Watching %s for changes (Ctrl+C to stop)\n", containerURL)
	err = sub.Subscribe(ctx, containerURL, func(ev watch.Event) {
		fmt.Fprintf(app.Out, "changed: %s\n", ev.URL)
		if ev.URL == containerURL {
			return
		}
		detail, err := app.Service.Loader().Show(ctx, ev.URL)
		if err != nil {
			return
		}
		if detail.Activity != nil {
			fmt.Fprintf(app.Out, "  %s\n", inbox.Summary(detail.Activity))
		}
	})
	if err != nil {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Fprintln(app.Out, "Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.watchConfig(ctx)

	server := mcp.NewServer(app.Service, app.Config, app.Logger)

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	return server.Run(ctx)
}

// StateCmd shows the persisted UI state.
type StateCmd struct{}

// Run executes the state command.
func (c *StateCmd) Run(ctx context.Context, app *App) error {
	state, closeState, err := app.openState()
	if err != nil {
		return err
	}
	defer closeState()

	selected, err := state.SelectedInbox(ctx)
	if err != nil {
		return err
	}
	list, err := state.InboxList(ctx)
	if err != nil {
		return err
	}
	notifications, err := state.SelectedNotifications(ctx)
	if err != nil {
		return err
	}

	if selected != nil {
		fmt.Fprintf(app.Out, "Selected inbox: %s\n", selected.URL)
	} else {
		fmt.Fprintln(app.Out, "Selected inbox: none")
	}
	fmt.Fprintf(app.Out, "Known inboxes:  %d\n", len(list))
	for _, l := range list {
		fmt.Fprintf(app.Out, "  %s (%s)\n", l.URL, l.Name)
	}
	fmt.Fprintf(app.Out, "Selected:       %d\n", len(notifications))
	return nil
}

// CleanCmd deletes the persisted UI state.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(ctx context.Context, app *App) error {
	if !c.Force {
		fmt.Fprintf(app.Out, "Delete saved state at %s? [y/N] ", app.Config().StateDir)
		var response string
		_, _ = fmt.Fscanln(app.In, &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(app.Out, "Aborted")
			return nil
		}
	}

	state, closeState, err := app.openState()
	if err != nil {
		return err
	}
	defer closeState()

	if err := state.Clear(ctx); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	app.success("Cleared saved state")
	return nil
}

// CLI defines the command-line interface.
type CLI struct {
	Version  kong.VersionFlag `help:"Show version information"`
	Config   string           `short:"c" type:"path" help:"Configuration file" default:"${config}"`
	LogLevel string           `help:"Override the configured log level" placeholder:"LEVEL"`

	// Commands
	Profile ProfileCmd `cmd:"" help:"Show a WebID profile"`
	Ls      LsCmd      `cmd:"" help:"List a container"`
	Inbox   InboxCmd   `cmd:"" help:"List the notifications of an inbox"`
	Show    ShowCmd    `cmd:"" help:"Show one notification"`
	Reply   ReplyCmd   `cmd:"" help:"Reply to a notification"`
	Send    SendCmd    `cmd:"" help:"Send a notification to an inbox"`
	Select  SelectCmd  `cmd:"" help:"Select notifications for deletion"`
	Rm      RmCmd      `cmd:"" help:"Delete notifications"`
	Watch   WatchCmd   `cmd:"" help:"Watch an inbox for changes"`
	MCP     MCPCmd     `cmd:"" help:"Start MCP server (stdio transport)"`
	State   StateCmd   `cmd:"" help:"Show saved state"`
	Clean   CleanCmd   `cmd:"" help:"Delete saved state"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("ldn"),
		kong.Description("Linked Data Notifications inbox client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
			"config":  config.DefaultPath(),
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}

	logger, err := newLogger(kongCtx.Command(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app := NewApp(cfg, c.Config, logger, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kongCtx.BindTo(ctx, (*context.Context)(nil))
	return kongCtx.Run(app)
}

// newLogger builds the logger for command. The MCP server owns stdout, so
// its logs always go to stderr as JSON lines.
func newLogger(command string, cfg *config.Config) (*zap.Logger, error) {
	if command == "mcp" {
		return logging.NewWriter(os.Stderr, cfg.Log.Level)
	}
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}
