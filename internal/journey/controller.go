package journey

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"salesavor/internal/config"
	"salesavor/internal/gateway"
	"salesavor/internal/geo"
	"salesavor/internal/logging"
	"salesavor/internal/notifications"
	"salesavor/internal/salesapi"
	"salesavor/internal/services"
)

var (
	ErrStageUnavailable = fmt.Errorf("%w: stage not available yet", services.ErrInput)
	ErrUnknownStage     = fmt.Errorf("%w: unknown stage", services.ErrInput)
	ErrUnknownStore     = fmt.Errorf("%w: store is not in the nearby list", services.ErrInput)
	ErrUnknownRecipe    = fmt.Errorf("%w: recipe is not in the generated list", services.ErrInput)
	ErrNoSales          = fmt.Errorf("%w: load sale items before generating recipes", services.ErrInput)
	ErrEmptySelection   = fmt.Errorf("%w: select at least one recipe", services.ErrInput)
	ErrNoLocation       = fmt.Errorf("%w: location not acquired", services.ErrInput)
	ErrMissingRecipient = fmt.Errorf("%w: email address required", services.ErrInput)
	ErrNoList           = fmt.Errorf("%w: generate a grocery list first", services.ErrInput)
)

// API is the subset of the SaleSavor API the journey drives.
type API interface {
	FindStores(ctx context.Context, position salesapi.GeoPosition) ([]salesapi.Store, error)
	GetSales(ctx context.Context, storeID string) ([]salesapi.SaleItem, error)
	GenerateRecipes(ctx context.Context, req salesapi.RecipeRequest) ([]salesapi.Recipe, error)
	GenerateGroceryList(ctx context.Context, req salesapi.GroceryListRequest) (salesapi.GroceryList, error)
	EmailGroceryList(ctx context.Context, req salesapi.EmailRequest) (salesapi.EmailResult, error)
}

// Settings tunes navigation and request shaping.
type Settings struct {
	// SalesOnSelect loads sales and advances to the Sales stage as soon as a
	// store is selected. When false, sales load on navigation to Sales.
	SalesOnSelect      bool
	ServingsMultiplier float64
	DefaultServings    int
	Fallback           salesapi.GeoPosition
	// FetchTimeout bounds fetches started in the background by navigation.
	FetchTimeout time.Duration
}

// SettingsFromConfig maps configuration onto controller settings.
func SettingsFromConfig(cfg *config.Config, fallback salesapi.GeoPosition) Settings {
	return Settings{
		SalesOnSelect:      cfg.Journey.SalesOnSelect,
		ServingsMultiplier: cfg.Journey.ServingsMultiplier,
		DefaultServings:    cfg.Journey.DefaultServings,
		Fallback:           fallback,
		FetchTimeout:       time.Duration(cfg.Journey.FetchTimeoutSeconds) * time.Second,
	}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithNotifier routes success and info notices to n.
func WithNotifier(n notifications.Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller is the journey state machine. It owns the State, decides which
// stages are reachable, and ties navigation to gateway calls.
//
// All state mutation happens under mu; network calls run outside it. Each
// async completion compares the epoch it captured with the current one and
// drops its result when the journey moved on:
//   - storeEpoch changes whenever the selected store changes
//   - salesEpoch changes whenever sale items are replaced or cleared
//   - journeyEpoch changes on Reset
type Controller struct {
	mu    sync.Mutex
	state State

	storeEpoch   uint64
	salesEpoch   uint64
	journeyEpoch uint64

	// preferredStoreID is selected after discovery when present in the list.
	preferredStoreID string

	api      API
	locator  geo.Locator
	gateway  *gateway.Gateway
	profiles *ProfileStore
	notifier notifications.Notifier
	logger   *slog.Logger
	settings Settings

	background sync.WaitGroup
}

// NewController constructs a controller positioned at the Location stage.
func NewController(api API, locator geo.Locator, gw *gateway.Gateway, profiles *ProfileStore, settings Settings, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		locator:  locator,
		gateway:  gw,
		profiles: profiles,
		notifier: notifications.Noop{},
		logger:   logging.NewNop(),
		settings: settings,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "journey")
	if c.gateway == nil {
		c.gateway = gateway.New(gateway.WithLogger(c.logger))
	}
	if c.locator == nil {
		c.locator = geo.Unavailable{}
	}
	if c.settings.Fallback == (salesapi.GeoPosition{}) {
		c.settings.Fallback = geo.Fallback
	}
	if c.settings.ServingsMultiplier <= 0 {
		c.settings.ServingsMultiplier = 1.0
	}
	if c.settings.DefaultServings <= 0 {
		c.settings.DefaultServings = 4
	}
	if c.settings.FetchTimeout <= 0 {
		c.settings.FetchTimeout = time.Minute
	}
	return c
}

// Settings returns the effective settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Profiles exposes the profile store the controller reads preferences from.
func (c *Controller) Profiles() *ProfileStore {
	return c.profiles
}

// State returns a snapshot of the journey.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Completed reports whether stage has its data.
func (c *Controller) Completed(stage Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Completed(stage)
}

// Accessible reports whether navigation to stage is allowed.
func (c *Controller) Accessible(stage Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Accessible(stage)
}

// Wait blocks until fetches started by AdvanceTo have finished.
func (c *Controller) Wait() {
	c.background.Wait()
}

// Restore seeds a journey from a saved session: the previous grocery list
// snapshot and the store to prefer once discovery returns.
func (c *Controller) Restore(preferredStoreID string, list *salesapi.GroceryList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preferredStoreID = preferredStoreID
	if list != nil {
		restored := *list
		c.state.GroceryList = &restored
	}
}

// AdvanceTo navigates to stage. Navigation to a stage that is not accessible
// fails with ErrStageUnavailable and changes nothing. When the stage's data is
// missing, exactly one fetch starts in the background and the stage changes
// immediately; the snapshot shows the stage without data until it resolves.
func (c *Controller) AdvanceTo(ctx context.Context, stage Stage) (State, error) {
	c.mu.Lock()
	if !stage.Valid() {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("%w: %d", ErrUnknownStage, int(stage))
	}
	if !c.state.Accessible(stage) {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("%w: %s", ErrStageUnavailable, stage)
	}
	c.state.Stage = stage

	var fetch func(context.Context)
	switch stage {
	case StageStores:
		if len(c.state.Stores) == 0 {
			position := *c.state.Location
			fetch = func(ctx context.Context) { _ = c.discoverStores(ctx, position) }
		}
	case StageSales:
		if len(c.state.SaleItems) == 0 {
			storeID, epoch := c.state.SelectedStoreID, c.storeEpoch
			fetch = func(ctx context.Context) { _, _ = c.fetchSales(ctx, storeID, epoch) }
		}
	case StageRecipes:
		if len(c.state.Recipes) == 0 {
			req, salesEpoch, journeyEpoch := c.recipeRequestLocked()
			fetch = func(ctx context.Context) { _ = c.generateRecipes(ctx, req, salesEpoch, journeyEpoch, false) }
		}
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("stage changed",
		logging.String(logging.FieldStage, stage.String()),
		logging.Bool("fetching", fetch != nil),
	)
	if fetch != nil {
		c.startBackground(ctx, stage, fetch)
	}
	return snapshot, nil
}

// Reset returns the journey to the Location stage and discards the recipes,
// the selection, and the grocery list. Location, stores, the selected store,
// sale items, and the profile are kept.
func (c *Controller) Reset() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Stage = StageLocation
	c.state.Recipes = nil
	c.state.Selection.Clear()
	c.state.GroceryList = nil
	c.state.EmailAddress = ""
	c.state.Errors = nil
	c.journeyEpoch++
	c.logger.Info("journey reset", logging.String(logging.FieldEventType, "journey_reset"))
	return c.snapshotLocked()
}

// SelectStore marks id as the selected store. Changing the selection clears
// sale items, recipes, and the recipe selection but keeps any grocery list.
// With SalesOnSelect the store's sales load and the journey advances to Sales.
func (c *Controller) SelectStore(ctx context.Context, id string) (State, error) {
	if c.settings.SalesOnSelect {
		return c.LoadSales(ctx, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := findStore(c.state.Stores, id); !ok {
		return c.snapshotLocked(), fmt.Errorf("%w: %q", ErrUnknownStore, id)
	}
	c.selectStoreLocked(id)
	return c.snapshotLocked(), nil
}

// LoadSales selects store id, fetches its sale items, and advances to Sales
// once they arrive. Sales already loaded for the selected store are reused.
func (c *Controller) LoadSales(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	if _, ok := findStore(c.state.Stores, id); !ok {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, fmt.Errorf("%w: %q", ErrUnknownStore, id)
	}
	c.selectStoreLocked(id)
	if len(c.state.SaleItems) > 0 {
		c.state.Stage = StageSales
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, nil
	}
	epoch := c.storeEpoch
	c.mu.Unlock()

	applied, err := c.fetchSales(ctx, id, epoch)
	if err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if applied && c.state.SelectedStoreID == id && c.storeEpoch == epoch {
		c.state.Stage = StageSales
	}
	return c.snapshotLocked(), nil
}

// ToggleRecipe adds or removes a generated recipe from the selection.
func (c *Controller) ToggleRecipe(id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.Recipe(id); !ok {
		return c.snapshotLocked(), fmt.Errorf("%w: %q", ErrUnknownRecipe, id)
	}
	c.state.Selection.Toggle(id)
	return c.snapshotLocked(), nil
}

// SetEmailAddress stores the recipient for EmailGroceryList.
func (c *Controller) SetEmailAddress(address string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EmailAddress = address
	return c.snapshotLocked()
}

// selectStoreLocked switches the selected store and reports whether it
// changed. The grocery list is a snapshot and survives store changes.
func (c *Controller) selectStoreLocked(id string) bool {
	if c.state.SelectedStoreID == id {
		return false
	}
	c.state.SelectedStoreID = id
	c.state.SaleItems = nil
	c.state.Recipes = nil
	c.state.Selection.Clear()
	c.storeEpoch++
	c.salesEpoch++
	c.logger.Debug("store selected", logging.String(logging.FieldStoreID, id))
	return true
}

func (c *Controller) snapshotLocked() State {
	out := c.state.clone()
	if profile, ok := c.profiles.current(); ok {
		out.Profile = &profile
	}
	out.Loading = c.gateway.LoadingActions()
	return out
}

// startBackground runs fetch detached from the caller's cancellation; a
// started request always runs to completion.
func (c *Controller) startBackground(ctx context.Context, stage Stage, fetch func(context.Context)) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(services.WithStage(ctx, stage.String())), c.settings.FetchTimeout)
		defer cancel()
		fetch(bg)
	}()
}

func (c *Controller) recordFailure(action string, err error) {
	if !services.Classify(err).Surfaced() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Errors == nil {
		c.state.Errors = make(map[string]string)
	}
	c.state.Errors[action] = err.Error()
}

func (c *Controller) clearFailureLocked(action string) {
	delete(c.state.Errors, action)
}

func (c *Controller) notify(ctx context.Context, notice notifications.Notice) {
	if err := c.notifier.Notify(ctx, notice); err != nil {
		c.logger.Debug("notice delivery incomplete", logging.Error(err))
	}
}
