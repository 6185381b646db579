package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/gameengine"
	"github.com/Smithed-MC/UX/pkg/install"
	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/Smithed-MC/UX/pkg/relay"
	"github.com/Smithed-MC/UX/pkg/resolver"
)

// BundleSource reads stored bundle definitions.
type BundleSource interface {
	Get(id string) (bundles.Definition, error)
}

// Installer puts a bundle's packs and companion mods in place.
type Installer interface {
	WeldPacks(ctx context.Context, packs []registry.PackReference, datapacksDir, resourcePacksDir string, out relay.Output) error
	InstallMods(ctx context.Context, modsDir, minecraftVersion string, out relay.Output) error
}

// Options configures a Launcher.
type Options struct {
	Bundles     BundleSource
	Engine      gameengine.Engine
	Installer   Installer
	Events      *EventBus    // A new bus is created when nil.
	OutputLevel relay.Level  // Minimum level forwarded to frontends.
	Logger      *slog.Logger // Falls back to slog.Default().
}

// Status is a snapshot of the launch slot.
type Status struct {
	State     State  `json:"state"`
	BundleID  string `json:"bundle_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Launcher runs at most one bundle launch at a time.
type Launcher struct {
	bundles   BundleSource
	engine    gameengine.Engine
	resolver  *resolver.Resolver
	installer Installer
	events    *EventBus
	level     relay.Level
	log       *slog.Logger

	mu     sync.Mutex
	active *Session
}

// New creates a Launcher.
func New(opts Options) *Launcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	events := opts.Events
	if events == nil {
		events = NewEventBus()
	}

	return &Launcher{
		bundles:   opts.Bundles,
		engine:    opts.Engine,
		resolver:  resolver.New(opts.Engine, log),
		installer: opts.Installer,
		events:    events,
		level:     opts.OutputLevel,
		log:       log,
	}
}

// Events returns the launcher's event bus.
func (l *Launcher) Events() *EventBus { return l.events }

// Start launches bundleID in the background and returns its session without
// waiting for the launch. It fails with ErrAlreadyRunning if a session
// occupies the slot and with ErrConfig if the bundle cannot be read.
func (l *Launcher) Start(bundleID string, offline bool) (*Session, error) {
	def, err := l.bundles.Get(bundleID)
	if err != nil {
		return nil, fmt.Errorf("launcher: %w: load bundle %q: %w", ErrConfig, bundleID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active != nil {
		return nil, fmt.Errorf("launcher: %w: %q (session %s)", ErrAlreadyRunning, l.active.bundleID, l.active.id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(uuid.NewString(), bundleID, offline, cancel)
	l.active = s

	l.log.Info("launch started", "bundle", bundleID, "session", s.id, "offline", offline)
	l.publishState(s, StateLaunching, nil)

	go l.run(ctx, s, def)

	return s, nil
}

// Stop cancels the active session, if any, and frees the slot. Stopping an
// empty slot is a no-op.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.active
	if s == nil {
		return nil
	}

	s.stop()
	l.active = nil
	l.log.Info("launch stopped", "bundle", s.bundleID, "session", s.id)

	return nil
}

// Status reports the state of the slot.
func (l *Launcher) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == nil {
		return Status{State: StateIdle}
	}
	return Status{
		State:     l.active.State(),
		BundleID:  l.active.bundleID,
		SessionID: l.active.id,
	}
}

// Close stops the active session and waits for its task to return.
func (l *Launcher) Close() error {
	l.mu.Lock()
	s := l.active
	l.mu.Unlock()

	if err := l.Stop(); err != nil {
		return err
	}
	if s != nil {
		<-s.Done()
	}
	return nil
}

// settle records the outcome of s and clears the slot if s still owns it.
// Both happen under l.mu so Status and Start never see a finished session
// holding the slot.
func (l *Launcher) settle(s *Session, state State, err error) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	final := s.finish(state, err)
	if l.active == s {
		l.active = nil
	}
	return final
}

func (l *Launcher) output(s *Session) relay.Output {
	return relay.New(busSink{events: l.events, sessionID: s.id}, l.level).WithLogger(l.log.With("session", s.id))
}

func (l *Launcher) run(ctx context.Context, s *Session, def bundles.Definition) {
	out := l.output(s)

	err := l.launch(ctx, s, def, out)

	var final State
	switch {
	case ctx.Err() != nil:
		final = l.settle(s, StateStopped, ctx.Err())
	case err != nil:
		final = l.settle(s, StateFailed, err)
	default:
		final = l.settle(s, StateCompleted, nil)
	}

	if final == StateFailed {
		l.log.Error("launch failed", "bundle", s.bundleID, "session", s.id, "error", err)
		out.Text(relay.LevelError, err.Error())
		l.events.Publish(Event{Kind: EventLaunchError, SessionID: s.id, Data: TextData{Text: err.Error()}})
	} else {
		l.log.Info("launch finished", "bundle", s.bundleID, "session", s.id, "state", final)
	}

	s.cancel()
	l.events.Publish(Event{Kind: EventGameFinished, SessionID: s.id, Data: stateData(s.bundleID, final, s.Err())})
	close(s.done)
}

// launch runs the pipeline up to the game exiting.
func (l *Launcher) launch(ctx context.Context, s *Session, def bundles.Definition, out relay.Output) error {
	res, err := l.resolver.Resolve(ctx, s.bundleID, def, s.offline, out)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	layout, err := install.PrepareInstance(res.GameDir)
	if err != nil {
		return fmt.Errorf("launcher: %w: %w", ErrConfig, err)
	}

	if err := l.installer.WeldPacks(ctx, res.Packs, layout.Datapacks, layout.ResourcePacks, out); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := l.installer.InstallMods(ctx, layout.Mods, res.Version, out); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	proc, err := startGame(ctx, l.engine, res, out)
	if err != nil {
		return err
	}

	if s.advance(StateRunning) {
		l.publishState(s, StateRunning, nil)
	}

	return proc.Wait()
}

func (l *Launcher) publishState(s *Session, state State, err error) {
	l.events.Publish(Event{Kind: EventStateChanged, SessionID: s.id, Data: stateData(s.bundleID, state, err)})
}

func stateData(bundleID string, state State, err error) StateData {
	d := StateData{BundleID: bundleID, State: state}
	if err != nil && state == StateFailed {
		d.Error = err.Error()
	}
	return d
}
