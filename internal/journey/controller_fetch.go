package journey

import (
	"context"
	"fmt"
	"slices"

	"salesavor/internal/gateway"
	"salesavor/internal/logging"
	"salesavor/internal/notifications"
	"salesavor/internal/salesapi"
	"salesavor/internal/services"
)

type locateOutcome struct {
	position salesapi.GeoPosition
	fallback bool
}

// AcquireLocation locates the shopper and discovers nearby stores. A failed
// locate (denied, unsupported, timed out) substitutes the fallback position
// so the journey never blocks. A location already acquired this session is
// reused. The journey advances to Stores only if it is still at Location when
// discovery resolves.
func (c *Controller) AcquireLocation(ctx context.Context) (State, error) {
	ctx = services.WithStage(ctx, StageLocation.String())

	c.mu.Lock()
	var position salesapi.GeoPosition
	known := c.state.Location != nil
	if known {
		position = *c.state.Location
	}
	c.mu.Unlock()

	if !known {
		op := gateway.Op{Key: gateway.KeyLocation, Action: gateway.ActionLocation, Label: "Finding your location"}
		res := gateway.Execute(ctx, c.gateway, op, c.locate)
		if !res.OK() {
			return c.State(), res.Err
		}
		c.mu.Lock()
		if c.state.Location == nil {
			pos := res.Value.position
			c.state.Location = &pos
			c.state.FallbackLocation = res.Value.fallback
		}
		position = *c.state.Location
		c.mu.Unlock()

		if res.Value.fallback {
			c.notify(ctx, notifications.Info(fmt.Sprintf("Using default location (%.4f, %.4f)", position.Latitude, position.Longitude)))
		} else {
			c.notify(ctx, notifications.Success("Location found"))
		}
	}

	err := c.discoverStores(ctx, position)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Stage == StageLocation {
		c.state.Stage = StageStores
	}
	return c.snapshotLocked(), err
}

func (c *Controller) locate(ctx context.Context) (locateOutcome, error) {
	position, err := c.locator.Locate(ctx)
	if err != nil {
		logging.WithContext(ctx, c.logger).Info("location unavailable, using fallback",
			logging.String(logging.FieldEventType, "location_fallback"),
			logging.String("reason", string(services.Classify(err))),
			logging.Error(err),
			logging.Float64("latitude", c.settings.Fallback.Latitude),
			logging.Float64("longitude", c.settings.Fallback.Longitude),
		)
		return locateOutcome{position: c.settings.Fallback, fallback: true}, nil
	}
	return locateOutcome{position: position}, nil
}

// discoverStores replaces the nearby stores and auto-selects the first one
// (or the store preferred by a restored session). A result that arrives after
// the shopper picked a store by hand is discarded.
func (c *Controller) discoverStores(ctx context.Context, position salesapi.GeoPosition) error {
	c.mu.Lock()
	epoch := c.storeEpoch
	c.mu.Unlock()

	op := gateway.Op{Key: gateway.StoresKey(position.Key()), Action: gateway.ActionStores, Label: "Finding nearby stores"}
	res := gateway.Execute(ctx, c.gateway, op, func(ctx context.Context) ([]salesapi.Store, error) {
		return c.api.FindStores(ctx, position)
	})
	if !res.OK() {
		c.recordFailure(gateway.ActionStores, res.Err)
		return res.Err
	}

	c.mu.Lock()
	if c.storeEpoch != epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding stale store discovery",
			logging.String(logging.FieldEventType, "stale_response"),
			logging.String(logging.FieldRequestKey, op.Key),
		)
		return nil
	}
	stores := res.Value
	c.state.Stores = stores
	c.clearFailureLocked(gateway.ActionStores)
	target := ""
	if len(stores) > 0 {
		target = stores[0].ID
		if _, ok := findStore(stores, c.preferredStoreID); ok {
			target = c.preferredStoreID
		}
	}
	c.preferredStoreID = ""
	if target == "" {
		c.clearStoreLocked()
	} else {
		c.selectStoreLocked(target)
	}
	c.mu.Unlock()

	if len(stores) == 0 {
		c.notify(ctx, notifications.Info("No stores found nearby"))
	} else {
		c.notify(ctx, notifications.Success(fmt.Sprintf("Found %d nearby stores", len(stores))))
	}
	return nil
}

func (c *Controller) clearStoreLocked() {
	if c.state.SelectedStoreID == "" {
		return
	}
	c.state.SelectedStoreID = ""
	c.state.SaleItems = nil
	c.state.Recipes = nil
	c.state.Selection.Clear()
	c.storeEpoch++
	c.salesEpoch++
}

// fetchSales loads the sale items of storeID and reports whether they were
// applied. Results for a store that is no longer selected are discarded. A
// store selected away and back again still takes the result while it has no
// sale items, since the call it would have made was rejected as in flight.
func (c *Controller) fetchSales(ctx context.Context, storeID string, epoch uint64) (bool, error) {
	ctx = services.WithStage(ctx, StageSales.String())
	op := gateway.Op{Key: gateway.SalesKey(storeID), Action: gateway.ActionSales, Label: "Loading sales"}
	res := gateway.Execute(ctx, c.gateway, op, func(ctx context.Context) ([]salesapi.SaleItem, error) {
		return c.api.GetSales(ctx, storeID)
	})
	if !res.OK() {
		c.recordFailure(gateway.ActionSales, res.Err)
		return false, res.Err
	}

	c.mu.Lock()
	if c.state.SelectedStoreID != storeID || (c.storeEpoch != epoch && len(c.state.SaleItems) > 0) {
		c.mu.Unlock()
		c.logger.Debug("discarding stale sales",
			logging.String(logging.FieldEventType, "stale_response"),
			logging.String(logging.FieldStoreID, storeID),
		)
		return false, nil
	}
	c.state.SaleItems = res.Value
	c.state.Recipes = nil
	c.state.Selection.Clear()
	c.salesEpoch++
	c.clearFailureLocked(gateway.ActionSales)
	store, _ := findStore(c.state.Stores, storeID)
	c.mu.Unlock()

	if len(res.Value) == 0 {
		c.notify(ctx, notifications.Info(fmt.Sprintf("No sales at %s right now", store.Name)))
	} else {
		c.notify(ctx, notifications.Success(fmt.Sprintf("Loaded %d sale items from %s", len(res.Value), store.Name)))
	}
	return true, nil
}

// GenerateRecipes asks for recipes built from the current sale items and the
// profile's dietary preferences, replaces the recipes, clears the selection,
// and moves to the Recipes stage.
func (c *Controller) GenerateRecipes(ctx context.Context) (State, error) {
	c.mu.Lock()
	if len(c.state.SaleItems) == 0 {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, ErrNoSales
	}
	req, salesEpoch, journeyEpoch := c.recipeRequestLocked()
	c.mu.Unlock()

	err := c.generateRecipes(services.WithStage(ctx, StageRecipes.String()), req, salesEpoch, journeyEpoch, true)
	return c.State(), err
}

func (c *Controller) recipeRequestLocked() (salesapi.RecipeRequest, uint64, uint64) {
	req := salesapi.RecipeRequest{
		SaleItems:          slices.Clone(c.state.SaleItems),
		DietaryPreferences: []string{},
		Servings:           c.settings.DefaultServings,
	}
	if profile, ok := c.profiles.current(); ok {
		if len(profile.DietaryPreferences) > 0 {
			req.DietaryPreferences = slices.Clone(profile.DietaryPreferences)
		}
		if profile.HouseholdSize > 0 {
			req.Servings = profile.HouseholdSize
		}
		req.ProfileID = profile.ID
	}
	return req, c.salesEpoch, c.journeyEpoch
}

func (c *Controller) generateRecipes(ctx context.Context, req salesapi.RecipeRequest, salesEpoch, journeyEpoch uint64, advance bool) error {
	op := gateway.Op{Key: gateway.KeyRecipes, Action: gateway.ActionRecipes, Label: "Generating recipes"}
	res := gateway.Execute(ctx, c.gateway, op, func(ctx context.Context) ([]salesapi.Recipe, error) {
		return c.api.GenerateRecipes(ctx, req)
	})
	if !res.OK() {
		c.recordFailure(gateway.ActionRecipes, res.Err)
		return res.Err
	}

	c.mu.Lock()
	if c.salesEpoch != salesEpoch || c.journeyEpoch != journeyEpoch {
		c.mu.Unlock()
		c.logger.Debug("discarding stale recipes", logging.String(logging.FieldEventType, "stale_response"))
		return nil
	}
	c.state.Recipes = res.Value
	c.state.Selection.Clear()
	if advance {
		c.state.Stage = StageRecipes
	}
	c.clearFailureLocked(gateway.ActionRecipes)
	c.mu.Unlock()

	c.notify(ctx, notifications.Success(fmt.Sprintf("Generated %d recipes", len(res.Value))))
	return nil
}

// GenerateGroceryList builds an optimized list from the selected recipes and
// moves to the GroceryList stage. An empty selection fails with
// ErrEmptySelection before any network call.
func (c *Controller) GenerateGroceryList(ctx context.Context) (State, error) {
	ctx = services.WithStage(ctx, StageGroceryList.String())

	c.mu.Lock()
	if c.state.Selection.Len() == 0 {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, ErrEmptySelection
	}
	if c.state.Location == nil {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, ErrNoLocation
	}
	req := salesapi.GroceryListRequest{
		UserLocation:       *c.state.Location,
		SelectedRecipes:    c.state.Selection.IDs(),
		ServingsMultiplier: c.settings.ServingsMultiplier,
	}
	journeyEpoch := c.journeyEpoch
	c.mu.Unlock()

	op := gateway.Op{Key: gateway.KeyGroceryList, Action: gateway.ActionGroceryList, Label: "Generating grocery list"}
	res := gateway.Execute(ctx, c.gateway, op, func(ctx context.Context) (salesapi.GroceryList, error) {
		return c.api.GenerateGroceryList(ctx, req)
	})
	if !res.OK() {
		c.recordFailure(gateway.ActionGroceryList, res.Err)
		return c.State(), res.Err
	}

	c.mu.Lock()
	if c.journeyEpoch != journeyEpoch {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Debug("discarding grocery list generated before reset", logging.String(logging.FieldEventType, "stale_response"))
		return snapshot, nil
	}
	list := res.Value
	if len(list.SelectedRecipes) == 0 {
		list.SelectedRecipes = req.SelectedRecipes
	}
	c.state.GroceryList = &list
	c.state.Stage = StageGroceryList
	c.clearFailureLocked(gateway.ActionGroceryList)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(ctx, notifications.Success(fmt.Sprintf("Grocery list ready: %d items, total %s, savings %s",
		len(list.Items), list.TotalCost.StringFixed(2), list.TotalSavings.StringFixed(2))))
	return snapshot, nil
}
