package gameengine

import (
	"context"

	"github.com/Smithed-MC/UX/pkg/relay"
)

// Engine is the game engine collaborator.
type Engine interface {
	// Profile returns the named profile or ErrProfileNotFound.
	Profile(id string) (Profile, error)
	// CreateProfile registers a new profile. It fails with ErrProfileExists
	// rather than overwriting.
	CreateProfile(p Profile) error
	// AddInstance adds an instance to an existing profile. An instance that
	// already exists is left untouched.
	AddInstance(ref InstanceRef, inst Instance) error
	// Sync brings the on-disk state of a profile up to date.
	Sync(ctx context.Context, profileID string, out relay.Output) error
	// InstanceDir returns the game directory of an instance.
	InstanceDir(ref InstanceRef) string
	// Launch starts the game. The process lives no longer than ctx.
	Launch(ctx context.Context, req LaunchRequest, out relay.Output) (Process, error)
}

// LaunchRequest is everything needed to start one instance.
type LaunchRequest struct {
	Ref     InstanceRef
	User    User
	Version string
	GameDir string
}

// Process is a running game.
type Process interface {
	// Wait blocks until the process exits.
	Wait() error
}
