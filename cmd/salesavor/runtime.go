package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"salesavor/internal/config"
	"salesavor/internal/gateway"
	"salesavor/internal/geo"
	"salesavor/internal/journey"
	"salesavor/internal/logging"
	"salesavor/internal/notifications"
	"salesavor/internal/present"
	"salesavor/internal/salesapi"
	"salesavor/internal/session"
)

// runtime bundles everything one command invocation needs.
type runtime struct {
	cfg        *config.Config
	name       string
	out        io.Writer
	color      bool
	logger     *slog.Logger
	formatter  *present.Formatter
	notices    *notifications.Dispatcher
	gateway    *gateway.Gateway
	client     *salesapi.Client
	profiles   *journey.ProfileStore
	controller *journey.Controller
	sessions   *session.Store
	lock       *session.Lock
}

type runtimeOptions struct {
	// exclusive takes the session lock for the lifetime of the runtime.
	exclusive bool
}

func (c *commandContext) openRuntime(cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	console := io.Discard
	if c.isVerbose() {
		console = cmd.ErrOrStderr()
	}
	logger, err := logging.NewFromConfig(cfg, console)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	formatter, err := present.FormatterFromConfig(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("display settings: %w", err)
	}

	out := cmd.OutOrStdout()
	color := shouldColorize(out)
	name := c.sessionName()
	logger = logger.With(logging.String("session", name))

	rt := &runtime{
		cfg:       cfg,
		name:      name,
		out:       out,
		color:     color,
		logger:    logger,
		formatter: formatter,
	}

	if opts.exclusive {
		lock, err := session.Acquire(cfg.Session.Dir, name)
		if err != nil {
			return nil, err
		}
		rt.lock = lock
	}
	sessions, err := session.Open(cfg)
	if err != nil {
		_ = rt.lock.Release()
		return nil, fmt.Errorf("open sessions: %w", err)
	}
	rt.sessions = sessions

	rt.notices = notifications.NewDispatcher(logger,
		notifications.NewWriter(out, color),
		notifications.NewLog(logger),
		notifications.NewNtfy(cfg.Notifications),
	)
	rt.gateway = gateway.New(gateway.WithNotifier(rt.notices), gateway.WithLogger(logger))
	rt.client = salesapi.NewClient(salesapi.Config{
		BaseURL:        cfg.API.BaseURL,
		TimeoutSeconds: cfg.API.TimeoutSeconds,
		SearchRadiusKm: cfg.API.SearchRadiusKm,
		UserAgent:      cfg.API.UserAgent,
	})
	rt.profiles = journey.NewProfileStore(rt.client, rt.gateway, logger)

	locator, fallback := geo.FromConfig(cfg.Location)
	rt.controller = journey.NewController(
		rt.client,
		locator,
		rt.gateway,
		rt.profiles,
		journey.SettingsFromConfig(cfg, fallback),
		journey.WithNotifier(rt.notices),
		journey.WithLogger(logger),
	)
	return rt, nil
}

// resume loads the saved session: the profile by id, the preferred store,
// and the last grocery list.
func (rt *runtime) resume(ctx context.Context) (session.Record, bool, error) {
	record, ok, err := rt.sessions.Get(ctx, rt.name)
	if err != nil || !ok {
		return record, ok, err
	}
	if record.ProfileID != "" {
		if _, loaded := rt.profiles.Load(ctx, record.ProfileID); !loaded {
			fmt.Fprintf(rt.out, "Could not load profile %s; continuing without it.\n", record.ProfileID)
		}
	}
	rt.controller.Restore(record.SelectedStoreID, record.GroceryList)
	rt.logger.Debug("session resumed",
		logging.String("profile_id", record.ProfileID),
		logging.String(logging.FieldStoreID, record.SelectedStoreID),
		logging.Bool("grocery_list", record.GroceryList != nil),
	)
	return record, true, nil
}

// saveJourney writes the profile id, selected store, and grocery list back
// to the session. An empty profile id or store keeps the saved value. The
// grocery list is written as it stands, so a reset clears the saved one.
func (rt *runtime) saveJourney(ctx context.Context) error {
	state := rt.controller.State()
	return rt.update(ctx, func(record *session.Record) {
		if id := rt.profiles.ID(); id != "" {
			record.ProfileID = id
		}
		if state.SelectedStoreID != "" {
			record.SelectedStoreID = state.SelectedStoreID
		}
		record.GroceryList = state.GroceryList
	})
}

func (rt *runtime) update(ctx context.Context, mutate func(*session.Record)) error {
	record, _, err := rt.sessions.Get(ctx, rt.name)
	if err != nil {
		return err
	}
	record.Name = rt.name
	mutate(&record)
	return rt.sessions.Save(ctx, record)
}

func (rt *runtime) close() {
	if rt == nil {
		return
	}
	if rt.controller != nil {
		rt.controller.Wait()
	}
	if rt.sessions != nil {
		if err := rt.sessions.Close(); err != nil {
			rt.logger.Debug("close sessions", logging.Error(err))
		}
	}
	if err := rt.lock.Release(); err != nil {
		rt.logger.Debug("release session lock", logging.Error(err))
	}
}

// withRuntime opens a runtime, runs fn, and always cleans up.
func (c *commandContext) withRuntime(cmd *cobra.Command, opts runtimeOptions, fn func(context.Context, *runtime) error) error {
	rt, err := c.openRuntime(cmd, opts)
	if err != nil {
		return err
	}
	defer rt.close()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, rt)
}
