package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"salesavor/internal/logging"
	"salesavor/internal/services"
)

// Logical actions with a loading flag.
const (
	ActionLocation    = "location"
	ActionStores      = "stores"
	ActionSales       = "sales"
	ActionRecipes     = "recipes"
	ActionGroceryList = "grocery-list"
	ActionEmail       = "email"
	ActionProfileSave = "profile-save"
	ActionProfileLoad = "profile-load"
)

// Keys for operations that are not parameterized.
const (
	KeyLocation    = "location"
	KeyRecipes     = "recipes"
	KeyGroceryList = "grocery-list"
	KeyProfileSave = "profile-save"
	KeyEmailSend   = "email-send"
)

// StoresKey identifies store discovery for a position.
func StoresKey(position string) string { return "stores-for-" + position }

// SalesKey identifies the sale listing of one store.
func SalesKey(storeID string) string { return "sales-for-" + storeID }

// ProfileLoadKey identifies a profile fetch.
func ProfileLoadKey(id string) string { return "profile-load-" + id }

// Op describes one logical call.
type Op struct {
	// Key is the single-flight resource key.
	Key string
	// Action selects the loading flag raised while the call runs.
	Action string
	// Label is the human description used in failure notices.
	Label string
	// Silent failures are logged but never handed to the Notifier.
	Silent bool
}

// Notifier receives failures that should reach the user.
type Notifier interface {
	Failure(ctx context.Context, label string, err error)
}

// Result is the discriminated outcome of a gateway call.
type Result[T any] struct {
	Value T
	Err   error
	Kind  services.FailureKind
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Gateway enforces at-most-one in-flight call per key and tracks loading
// flags per logical action.
type Gateway struct {
	mu       sync.Mutex
	inflight map[string]*semaphore.Weighted
	loading  map[string]int
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithNotifier routes surfaced failures to n.
func WithNotifier(n Notifier) Option {
	return func(g *Gateway) {
		g.notifier = n
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New constructs a Gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		inflight: make(map[string]*semaphore.Weighted),
		loading:  make(map[string]int),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "gateway")
	return g
}

// Execute runs call under op's single-flight key. A second Execute with the
// same key while the first is outstanding fails immediately with
// services.ErrAlreadyInFlight and never invokes call. There are no retries.
func Execute[T any](ctx context.Context, g *Gateway, op Op, call func(context.Context) (T, error)) Result[T] {
	var zero T
	if op.Key == "" {
		err := services.Wrap(services.ErrInput, "gateway", "execute", "operation key required", nil)
		return Result[T]{Value: zero, Err: err, Kind: services.Classify(err)}
	}

	release, ok := g.acquire(op)
	ctx = services.WithRequestKey(ctx, op.Key)
	ctx = services.WithAction(ctx, op.Action)
	if !ok {
		err := services.Wrap(services.ErrAlreadyInFlight, "gateway", op.Key, "request already in flight", nil)
		logging.WithContext(ctx, g.logger).Debug("request rejected",
			logging.String(logging.FieldEventType, "request_in_flight"),
		)
		return Result[T]{Value: zero, Err: err, Kind: services.FailureAlreadyInFlight}
	}
	defer release()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, g.logger)
	started := g.now()
	logger.Debug("request started", logging.String("label", op.Label))

	value, err := call(ctx)
	elapsed := g.now().Sub(started)
	if err != nil {
		kind := services.Classify(err)
		if kind.Surfaced() {
			logging.WarnWithContext(logger, "request failed", "request_failed",
				logging.Error(err),
				logging.String("label", op.Label),
				logging.Duration("elapsed", elapsed),
				logging.String(logging.FieldErrorHint, "retry the action; check the API URL if it keeps failing"),
			)
			if g.notifier != nil && !op.Silent {
				g.notifier.Failure(ctx, op.Label, err)
			}
		} else {
			logger.Debug("request ended without result", logging.Error(err), logging.String("kind", string(kind)))
		}
		return Result[T]{Value: zero, Err: err, Kind: kind}
	}
	logger.Debug("request completed", logging.Duration("elapsed", elapsed))
	return Result[T]{Value: value}
}

// Loading reports whether any call for action is outstanding.
func (g *Gateway) Loading(action string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loading[action] > 0
}

// LoadingActions returns the actions with outstanding calls.
func (g *Gateway) LoadingActions() map[string]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]bool, len(g.loading))
	for action, count := range g.loading {
		if count > 0 {
			out[action] = true
		}
	}
	return out
}

// InFlight reports whether key has an outstanding call.
func (g *Gateway) InFlight(key string) bool {
	g.mu.Lock()
	slot, ok := g.inflight[key]
	g.mu.Unlock()
	if !ok {
		return false
	}
	if slot.TryAcquire(1) {
		slot.Release(1)
		return false
	}
	return true
}

// slot returns the single-flight semaphore for key. Slots live as long as
// the gateway; the set of keys is bounded by the stores, sales, and profiles
// a journey touches.
func (g *Gateway) slot(key string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.inflight[key]
	if !ok {
		slot = semaphore.NewWeighted(1)
		g.inflight[key] = slot
	}
	return slot
}

func (g *Gateway) acquire(op Op) (func(), bool) {
	slot := g.slot(op.Key)
	if !slot.TryAcquire(1) {
		return nil, false
	}
	if op.Action != "" {
		g.mu.Lock()
		g.loading[op.Action]++
		g.mu.Unlock()
	}
	return func() {
		if op.Action != "" {
			g.mu.Lock()
			if g.loading[op.Action] <= 1 {
				delete(g.loading, op.Action)
			} else {
				g.loading[op.Action]--
			}
			g.mu.Unlock()
		}
		slot.Release(1)
	}, true
}

// IsAlreadyInFlight reports whether err is a single-flight rejection.
func IsAlreadyInFlight(err error) bool {
	return errors.Is(err, services.ErrAlreadyInFlight)
}
