package journey

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"salesavor/internal/gateway"
	"salesavor/internal/logging"
	"salesavor/internal/salesapi"
)

// ProfileAPI is the subset of the API used for profile records.
type ProfileAPI interface {
	CreateProfile(ctx context.Context, data salesapi.ProfileData) (salesapi.Profile, error)
	UpdateProfile(ctx context.Context, id string, data salesapi.ProfileData) (salesapi.Profile, error)
	GetProfile(ctx context.Context, id string) (salesapi.Profile, error)
}

// ProfileStore holds at most one user profile. A profile without an id has
// never been created; once an id is held, saves become updates.
type ProfileStore struct {
	api     ProfileAPI
	gateway *gateway.Gateway
	logger  *slog.Logger

	saveMu sync.Mutex

	mu      sync.RWMutex
	profile *salesapi.Profile
}

// NewProfileStore constructs an empty store.
func NewProfileStore(api ProfileAPI, gw *gateway.Gateway, logger *slog.Logger) *ProfileStore {
	if gw == nil {
		gw = gateway.New(gateway.WithLogger(logger))
	}
	return &ProfileStore{
		api:     api,
		gateway: gw,
		logger:  logging.NewComponentLogger(logger, "profile"),
	}
}

// Current returns a copy of the held profile.
func (p *ProfileStore) Current() (salesapi.Profile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return salesapi.Profile{}, false
	}
	return *p.profile, true
}

// ID returns the held profile id, or "" when none was created yet.
func (p *ProfileStore) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.profile == nil {
		return ""
	}
	return p.profile.ID
}

// Save creates the profile when no id is held and updates it otherwise. The
// server response replaces the held profile. A save waits for any save
// already in flight to resolve first.
func (p *ProfileStore) Save(ctx context.Context, data salesapi.ProfileData) (salesapi.Profile, error) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	id := p.ID()
	label := "Creating profile"
	if id != "" {
		label = "Updating profile"
	}
	op := gateway.Op{Key: gateway.KeyProfileSave, Action: gateway.ActionProfileSave, Label: label}
	res := gateway.Execute(ctx, p.gateway, op, func(ctx context.Context) (salesapi.Profile, error) {
		if id == "" {
			return p.api.CreateProfile(ctx, data)
		}
		return p.api.UpdateProfile(ctx, id, data)
	})
	if !res.OK() {
		return salesapi.Profile{}, res.Err
	}

	saved := res.Value
	if saved.ID == "" {
		saved.ID = id
	}
	p.mu.Lock()
	p.profile = &saved
	p.mu.Unlock()
	p.logger.Info("profile saved",
		logging.String("profile_id", saved.ID),
		logging.Bool("created", id == ""),
	)
	return saved, nil
}

// Load fetches a profile by id and replaces the held one. A failed load
// leaves the held profile untouched; the failure is logged and reported
// through the boolean only.
func (p *ProfileStore) Load(ctx context.Context, id string) (salesapi.Profile, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return salesapi.Profile{}, false
	}
	op := gateway.Op{Key: gateway.ProfileLoadKey(id), Action: gateway.ActionProfileLoad, Label: "Loading profile", Silent: true}
	res := gateway.Execute(ctx, p.gateway, op, p.loadCall(id))
	if !res.OK() {
		logging.WarnWithContext(p.logger, "profile load failed", "profile_load_failed",
			logging.String("profile_id", id),
			logging.Error(res.Err),
			logging.String(logging.FieldImpact, "continuing with the profile already held"),
			logging.String(logging.FieldErrorHint, "run `salesavor profile save` to create a new profile"),
		)
		return salesapi.Profile{}, false
	}

	loaded := res.Value
	if loaded.ID == "" {
		loaded.ID = id
	}
	p.mu.Lock()
	p.profile = &loaded
	p.mu.Unlock()
	return loaded, true
}

func (p *ProfileStore) loadCall(id string) func(context.Context) (salesapi.Profile, error) {
	return func(ctx context.Context) (salesapi.Profile, error) {
		return p.api.GetProfile(ctx, id)
	}
}

func (p *ProfileStore) current() (salesapi.Profile, bool) {
	if p == nil {
		return salesapi.Profile{}, false
	}
	return p.Current()
}
