package launcher

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Smithed-MC/UX/pkg/appdir"
	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/gameengine"
	"github.com/Smithed-MC/UX/pkg/identity"
	"github.com/Smithed-MC/UX/pkg/install"
	"github.com/Smithed-MC/UX/pkg/registry"
)

// App assembles every component from configuration.
type App struct {
	Config   Config
	Dir      appdir.Dir
	Events   *EventBus
	Bundles  *bundles.Store
	Registry *registry.Client
	Accounts *identity.Accounts
	Identity *identity.Manager
	Engine   *gameengine.Local
	Launcher *Launcher
	Log      *slog.Logger
}

// NewApp validates cfg, creates the launcher directory layout and wires the
// components together.
func NewApp(cfg Config, dir appdir.Dir, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	if err := appdir.EnsureStructure(dir); err != nil {
		return nil, fmt.Errorf("launcher: %w", err)
	}

	store, err := bundles.NewStore(dir.BundlesPath())
	if err != nil {
		return nil, fmt.Errorf("launcher: %w: %w", ErrConfig, err)
	}

	// No client timeout: a stalled download blocks until Stop.
	httpClient := &http.Client{}

	reg := registry.New(cfg.APIURL, httpClient)
	reg.UserAgent = cfg.UserAgent

	accounts := identity.NewAccounts(dir.AccountsPath())
	provider := identity.NewProvider(cfg.ClientID, identity.DefaultEndpoints, httpClient, log.With("component", "identity"))
	manager := identity.NewManager(provider, accounts)

	engine := gameengine.NewLocal(gameengine.LocalOptions{
		ProfilePath:  dir.EnginePath(),
		InstancesDir: dir.InstancesDir(),
		Command:      cfg.LaunchCommand,
		Auth:         manager,
		Logger:       log.With("component", "engine"),
	})

	events := NewEventBus()

	l := New(Options{
		Bundles:     store,
		Engine:      engine,
		Installer:   install.New(reg, log.With("component", "install")),
		Events:      events,
		OutputLevel: cfg.RelayLevel(),
		Logger:      log.With("component", "launcher"),
	})

	return &App{
		Config:   cfg,
		Dir:      dir,
		Events:   events,
		Bundles:  store,
		Registry: reg,
		Accounts: accounts,
		Identity: manager,
		Engine:   engine,
		Launcher: l,
		Log:      log,
	}, nil
}

// Close stops any running launch.
func (a *App) Close() error {
	return a.Launcher.Close()
}
