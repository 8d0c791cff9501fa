package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/beacon/internal/api"
	"github.com/colonyops/beacon/internal/center"
	"github.com/colonyops/beacon/internal/core/config"
	"github.com/colonyops/beacon/internal/core/eventbus"
	"github.com/colonyops/beacon/internal/core/lease"
	"github.com/colonyops/beacon/internal/core/logging"
	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/credential"
	"github.com/colonyops/beacon/internal/data/db"
	"github.com/colonyops/beacon/internal/data/redisstore"
	"github.com/colonyops/beacon/internal/data/stores"
	"github.com/colonyops/beacon/pkg/clock"
	"github.com/colonyops/beacon/pkg/randid"
)

// ErrNoServer is returned by commands that need api.base_url.
var ErrNoServer = errors.New("api.base_url is not configured")

// App is the central entry point for every command. Collaborators are
// built on first use so commands that never talk to the server work
// without one configured.
type App struct {
	Config *config.Config
	// TabID names this process as a lease holder and in logs.
	TabID string

	// Credentials may be preset; otherwise the OS keyring is opened on
	// first use.
	Credentials *credential.Store
	// BellOut receives the terminal bell. Defaults to stderr.
	BellOut io.Writer

	db      *db.DB
	bus     *eventbus.EventBus
	notices *notice.Bus
	client  *api.Client
	center  *center.Center
	closers []func() error
}

// NewApp creates an App for cfg.
func NewApp(cfg *config.Config) *App {
	return &App{
		Config:  cfg,
		TabID:   randid.Generate(8),
		BellOut: os.Stderr,
	}
}

// Context stamps the tab and user ids onto ctx for log events.
func (a *App) Context(ctx context.Context) context.Context {
	ctx = logging.WithTabID(ctx, a.TabID)
	if a.Config.API.UserID != "" {
		ctx = logging.WithUserID(ctx, a.Config.API.UserID)
	}
	return ctx
}

// DB opens the state database.
func (a *App) DB() (*db.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	database, err := stores.OpenDB(a.Config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = database
	a.closers = append(a.closers, database.Close)
	return database, nil
}

// Bus returns the event bus. It is not started; the caller owns Start.
func (a *App) Bus() *eventbus.EventBus {
	if a.bus == nil {
		a.bus = eventbus.New(256)
	}
	return a.bus
}

// Notices returns the notice bus, persisted when notices.persist is set.
func (a *App) Notices() (*notice.Bus, error) {
	if a.notices != nil {
		return a.notices, nil
	}
	var store notice.Store
	if a.Config.Notices.Persist {
		database, err := a.DB()
		if err != nil {
			return nil, err
		}
		store = stores.NewNoticeStore(database)
	}
	a.notices = notice.NewBus(store, clock.Real{})
	return a.notices, nil
}

func (a *App) credentials() (*credential.Store, error) {
	if a.Credentials != nil {
		return a.Credentials, nil
	}
	s, err := credential.Open(a.Config.DataDir)
	if err != nil {
		return nil, err
	}
	a.Credentials = s
	return s, nil
}

// API returns the REST client. A token in the config wins over the one in
// the keyring.
func (a *App) API() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg := a.Config.API
	if cfg.BaseURL == "" {
		return nil, ErrNoServer
	}

	token := cfg.Token
	if token == "" && cfg.SessionCookie == "" {
		creds, err := a.credentials()
		if err != nil {
			log.Warn().Err(err).Msg("keyring unavailable, continuing without a stored token")
		} else if token, err = creds.Resolve(cfg.BaseURL, ""); err != nil {
			return nil, fmt.Errorf("read stored token: %w", err)
		}
	}

	client, err := api.New(api.Options{
		BaseURL:       cfg.BaseURL,
		Prefix:        cfg.Prefix,
		Token:         token,
		CSRFToken:     cfg.CSRFToken,
		SessionCookie: cfg.SessionCookie,
		UserID:        cfg.UserID,
		PageSize:      cfg.PageSize,
		Timeout:       cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.client = client
	return client, nil
}

func (a *App) leaseStorage(ctx context.Context) (lease.Storage, error) {
	switch a.Config.Lease.Backend {
	case config.LeaseMemory:
		return lease.NewMemoryStorage(clock.Real{}), nil
	case config.LeaseRedis:
		r := a.Config.Lease.Redis
		client, err := redisstore.NewClient(ctx, redisstore.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
		if err != nil {
			return nil, fmt.Errorf("connect lease redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return redisstore.NewLeaseStore(client, 0), nil
	default:
		database, err := a.DB()
		if err != nil {
			return nil, err
		}
		return stores.NewLeaseStore(database, clock.Real{}), nil
	}
}

// Center builds the notification center with every collaborator wired.
func (a *App) Center(ctx context.Context) (*center.Center, error) {
	if a.center != nil {
		return a.center, nil
	}

	client, err := a.API()
	if err != nil {
		return nil, err
	}
	notices, err := a.Notices()
	if err != nil {
		return nil, err
	}
	database, err := a.DB()
	if err != nil {
		return nil, err
	}
	storage, err := a.leaseStorage(ctx)
	if err != nil {
		return nil, err
	}

	l := lease.New(storage, a.TabID,
		lease.WithKey(a.Config.Lease.Key),
		lease.WithTTL(a.Config.Lease.TTL),
	)

	a.center = center.New(a.Config, center.Deps{
		API:     client,
		Bus:     a.Bus(),
		Notices: notices,
		State:   stores.NewKVStore(database, clock.Real{}),
		Lease:   l,
		BellOut: a.BellOut,
	})
	return a.center, nil
}

// Close releases everything the App opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
