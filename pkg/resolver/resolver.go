// Package resolver turns a stored bundle into engine-side configuration: a
// profile and instance whose ids are derived from the bundle id, created once
// and reused on every later launch.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/gameengine"
	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/Smithed-MC/UX/pkg/relay"
)

// IDPrefix is prepended to a bundle id to form its profile and instance ids.
const IDPrefix = "smithed-bundle-"

// Offline pseudo-user.
const (
	OfflineUserID   = "smithed-user"
	OfflineUserName = "SmithedUser"
)

// ErrConfig is returned when the engine configuration cannot be read, created
// or synced.
var ErrConfig = errors.New("engine configuration failed")

// ProfileID returns the engine profile id for a bundle.
func ProfileID(bundleID string) string { return IDPrefix + bundleID }

// InstanceID returns the engine instance id for a bundle.
func InstanceID(bundleID string) string { return IDPrefix + bundleID }

// Ref returns the instance reference for a bundle.
func Ref(bundleID string) gameengine.InstanceRef {
	return gameengine.InstanceRef{Profile: ProfileID(bundleID), Instance: InstanceID(bundleID)}
}

// Identity returns the user a launch runs as. Microsoft users carry no name
// here; the engine signs them in at launch.
func Identity(offline bool) gameengine.User {
	if offline {
		return gameengine.User{ID: OfflineUserID, Name: OfflineUserName, Kind: gameengine.UserOffline}
	}
	return gameengine.User{Kind: gameengine.UserMicrosoft}
}

// Resolved is a bundle ready to be installed and launched.
type Resolved struct {
	BundleID string
	Ref      gameengine.InstanceRef
	User     gameengine.User
	Version  string
	GameDir  string
	Packs    []registry.PackReference
}

// Resolver creates engine config for bundles.
type Resolver struct {
	engine gameengine.Engine
	log    *slog.Logger
}

// New creates a Resolver. A nil logger falls back to slog.Default().
func New(engine gameengine.Engine, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{engine: engine, log: log}
}

// EnsureConfig creates the profile and instance for a bundle if they are
// missing. Existing ones are reused untouched, whatever their settings; the
// user may have edited them through the engine. created reports whether
// anything was written.
func (r *Resolver) EnsureConfig(bundleID, version string) (created bool, err error) {
	_, created, err = r.ensure(bundleID, version)
	return created, err
}

// ensure is EnsureConfig returning the profile the launch will use.
func (r *Resolver) ensure(bundleID, version string) (gameengine.Profile, bool, error) {
	ref := Ref(bundleID)

	p, err := r.engine.Profile(ref.Profile)
	switch {
	case errors.Is(err, gameengine.ErrProfileNotFound):
		p = gameengine.Profile{
			ID:         ref.Profile,
			Version:    version,
			ClientType: gameengine.ClientFabric,
			Packages:   []string{},
			Instances: map[string]gameengine.Instance{
				ref.Instance: {Side: gameengine.SideClient, Packages: []string{}},
			},
		}
		if err := r.engine.CreateProfile(p); err != nil {
			return gameengine.Profile{}, false, fmt.Errorf("resolver: %w: create profile: %w", ErrConfig, err)
		}
		r.log.Info("created profile", "profile", ref.Profile, "version", version)
		return p, true, nil
	case err != nil:
		return gameengine.Profile{}, false, fmt.Errorf("resolver: %w: read profile: %w", ErrConfig, err)
	}

	if _, ok := p.Instances[ref.Instance]; ok {
		return p, false, nil
	}

	if err := r.engine.AddInstance(ref, gameengine.Instance{Side: gameengine.SideClient, Packages: []string{}}); err != nil {
		return gameengine.Profile{}, false, fmt.Errorf("resolver: %w: add instance: %w", ErrConfig, err)
	}
	r.log.Info("added instance", "instance", ref.String())

	return p, true, nil
}

// Resolve picks the identity, ensures the engine config and syncs the
// profile. The game version comes from the profile, so a version the user
// changed through the engine wins over the bundle's.
func (r *Resolver) Resolve(ctx context.Context, bundleID string, def bundles.Definition, offline bool, out relay.Output) (Resolved, error) {
	out = relay.OrDiscard(out)

	profile, _, err := r.ensure(bundleID, def.Version)
	if err != nil {
		return Resolved{}, err
	}
	version := profile.Version
	if version == "" {
		version = def.Version
	}

	ref := Ref(bundleID)
	if err := r.engine.Sync(ctx, ref.Profile, out); err != nil {
		if ctx.Err() != nil {
			return Resolved{}, err
		}
		return Resolved{}, fmt.Errorf("resolver: %w: sync profile: %w", ErrConfig, err)
	}

	return Resolved{
		BundleID: bundleID,
		Ref:      ref,
		User:     Identity(offline),
		Version:  version,
		GameDir:  r.engine.InstanceDir(ref),
		Packs:    def.Packs,
	}, nil
}
