// Package center is the notification center. It owns the list cursor, the
// read-status cache, the preference matrix, the alert tray and the audio
// lease, and exposes every user operation as a method. The TUI and the CLI
// commands are thin projections over it.
package center

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/api"
	"github.com/colonyops/beacon/internal/core/alert"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/cursor"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/kv"
	"github.com/colonyops/beacon/internal/core/lease"
	"github.com/colonyops/beacon/internal/core/live"
	"github.com/colonyops/beacon/internal/core/mutation"
	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/prefs"
	"github.com/colonyops/beacon/pkg/clock"
	"github.com/colonyops/beacon/pkg/executil"
)

// API is the subset of the REST client the center calls.
type API interface {
	cursor.Fetcher
	NotificationsURL(unreadOnly bool) string
	MarkRead(ctx context.Context, id notification.ID) error
	MarkAllRead(ctx context.Context) error
	ListSettings(ctx context.Context) ([]prefs.Setting, error)
	UpdateSetting(ctx context.Context, settingID string, p prefs.Pair) error
	UpdateOrganizationSetting(ctx context.Context, orgID string, web bool, email *bool) error
	GetObjectMute(ctx context.Context, app, model, id string) (api.ObjectMute, bool, error)
	MuteObject(ctx context.Context, app, model, id string, validTill *time.Time) error
	UnmuteObject(ctx context.Context, app, model, id string) error
}

var _ API = (*api.Client)(nil)

// Deps are the collaborators of a Center. API, Bus and Notices are
// required.
type Deps struct {
	API     API
	Bus     *eventbus.EventBus
	Notices *notice.Bus
	// State persists widget state between runs. Optional.
	State kv.KV
	// Lease gates audio. Without a lease every alert may play.
	Lease   *lease.Lease
	Runner  executil.Runner
	BellOut io.Writer
	Clock   clock.Clocker
}

// Center coordinates the notification widget state.
type Center struct {
	api     API
	bus     *eventbus.EventBus
	notices *notice.Bus
	clock   clock.Clocker
	lease   *lease.Lease

	exec   *mutation.Executor
	cache  *notification.ReadStatusCache
	cursor *cursor.Cursor
	badge  *live.Badge
	tray   *alert.Tray
	player *alert.Player
	nav    *alert.Navigator
	dwell  *alert.Dwell
	live   *live.Dispatcher

	widget *kv.TypedKV[bool]
	mutes  *kv.TypedKV[MuteState]

	matrix     atomic.Pointer[prefs.Matrix]
	generation atomic.Uint64
	unreadOnly atomic.Bool

	mu  sync.RWMutex
	cfg *config.Config
}

// New builds a Center from cfg. Call Load before reading the list.
func New(cfg *config.Config, deps Deps) *Center {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Runner == nil {
		deps.Runner = executil.ShellRunner{}
	}
	if deps.BellOut == nil {
		deps.BellOut = io.Discard
	}

	c := &Center{
		api:     deps.API,
		bus:     deps.Bus,
		notices: deps.Notices,
		clock:   deps.Clock,
		lease:   deps.Lease,
		exec:    mutation.NewExecutor(deps.Notices),
		cache:   notification.NewReadStatusCache(),
		badge:   &live.Badge{},
		tray:    alert.NewTray(cfg.Widget.ToastTimeout, deps.Clock),
		nav:     alert.NewNavigator(cfg.Widget.OpenCommand, deps.Runner),
		dwell:   alert.NewDwell(cfg.Widget.ReadDwell, deps.Clock),
		cfg:     cfg,
	}
	c.player = alert.NewPlayer(cfg.Audio, deps.Runner, deps.BellOut, c.holdsLease)
	c.unreadOnly.Store(cfg.Widget.UnreadOnly)
	c.cursor = cursor.New(deps.API, deps.API.NotificationsURL(cfg.Widget.UnreadOnly),
		cursor.WithRenderedPages(cfg.Widget.RenderedPages))

	if deps.State != nil {
		c.widget = kv.Scoped[bool](deps.State, "widget")
		c.mutes = kv.Scoped[MuteState](deps.State, "mute")
	}

	c.live = live.NewDispatcher(live.DefaultRoutes()...)
	c.registerLiveHandlers()

	if c.lease != nil {
		c.lease.Subscribe(func(held bool) {
			c.bus.PublishLeaseChanged(eventbus.LeaseChangedPayload{Held: held})
		})
	}

	return c
}

// Config returns the active configuration.
func (c *Center) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Reconfigure applies a reloaded configuration. Only widget and audio
// settings take effect without a restart.
func (c *Center) Reconfigure(cfg *config.Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	c.tray.SetTimeout(cfg.Widget.ToastTimeout)
	c.nav.SetCommand(cfg.Widget.OpenCommand)
	c.player.Configure(cfg.Audio)
	c.bus.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Config: cfg})
}

// Focus claims the audio lease for this process.
func (c *Center) Focus(ctx context.Context) error {
	if c.lease == nil {
		return nil
	}
	if err := c.lease.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire audio lease: %w", err)
	}
	return nil
}

// HoldsLease reports whether this process may play audio.
func (c *Center) HoldsLease(ctx context.Context) bool {
	held, err := c.holdsLease(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("check audio lease")
		return false
	}
	return held
}

func (c *Center) holdsLease(ctx context.Context) (bool, error) {
	if c.lease == nil {
		return true, nil
	}
	return c.lease.IsHeld(ctx)
}

// RunLease renews and reclaims the audio lease until ctx is done.
func (c *Center) RunLease(ctx context.Context) error {
	if c.lease == nil {
		<-ctx.Done()
		return nil
	}
	return c.lease.Run(ctx)
}

// Close releases the audio lease if this process holds it.
func (c *Center) Close(ctx context.Context) error {
	if c.lease == nil {
		return nil
	}
	if err := c.lease.Release(ctx); err != nil {
		return fmt.Errorf("release audio lease: %w", err)
	}
	return nil
}

// Executor exposes the mutation executor, mainly for in-flight checks.
func (c *Center) Executor() *mutation.Executor { return c.exec }

// Notices returns the notice bus.
func (c *Center) Notices() *notice.Bus { return c.notices }
