package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/launcher"
	"github.com/Smithed-MC/UX/pkg/registry"
)

// Launcher is the launch control the commands need.
type Launcher interface {
	Start(bundleID string, offline bool) (*launcher.Session, error)
	Stop() error
	Status() launcher.Status
}

// Commands implements the command surface.
type Commands struct {
	launcher Launcher
	bundles  *bundles.Store
	registry *registry.Client
	log      *slog.Logger
}

// New creates Commands. A nil logger falls back to slog.Default().
func New(l Launcher, store *bundles.Store, reg *registry.Client, log *slog.Logger) *Commands {
	if log == nil {
		log = slog.Default()
	}
	return &Commands{launcher: l, bundles: store, registry: reg, log: log}
}

// Launch starts a bundle and returns once the launch is under way.
func (c *Commands) Launch(bundleID string, offline bool) error {
	s, err := c.launcher.Start(bundleID, offline)
	if err != nil {
		return err
	}
	c.log.Debug("launch requested", "bundle", bundleID, "session", s.ID())
	return nil
}

// Stop stops the running bundle, if any.
func (c *Commands) Stop() error { return c.launcher.Stop() }

// Status reports the launch slot.
func (c *Commands) Status() launcher.Status { return c.launcher.Status() }

// AddBundle stores a bundle, replacing one with the same id.
func (c *Commands) AddBundle(id string, def bundles.Definition) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("commands: %w: bundle id is empty", ErrInvalidParams)
	}
	return c.bundles.Add(id, def)
}

// GetBundle returns a stored bundle.
func (c *Commands) GetBundle(id string) (bundles.Definition, error) { return c.bundles.Get(id) }

// ListBundles returns every stored bundle by id.
func (c *Commands) ListBundles() (map[string]bundles.Definition, error) { return c.bundles.List() }

// BundleExists reports whether a bundle is stored.
func (c *Commands) BundleExists(id string) (bool, error) { return c.bundles.Exists(id) }

// RemoveBundle deletes a stored bundle.
func (c *Commands) RemoveBundle(id string) error { return c.bundles.Remove(id) }

// AddPackToBundle appends a pack reference to a bundle.
func (c *Commands) AddPackToBundle(bundleID string, pack registry.PackReference) error {
	if pack.ID == "" || pack.Version == "" {
		return fmt.Errorf("commands: %w: pack id and version are required", ErrInvalidParams)
	}
	return c.bundles.AddPack(bundleID, pack)
}

// RemovePackFromBundle removes the first reference to packID from a bundle.
func (c *Commands) RemovePackFromBundle(bundleID, packID string) error {
	return c.bundles.RemovePack(bundleID, packID)
}

// GetPackVersionForBundle returns the newest version of a pack that supports
// the bundle's Minecraft version, or nil when none does.
func (c *Commands) GetPackVersionForBundle(ctx context.Context, bundleID, packID string) (*string, error) {
	def, err := c.bundles.Get(bundleID)
	if err != nil {
		return nil, err
	}

	pack, err := c.registry.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}

	v, ok := pack.NewestVersion(def.Version)
	if !ok {
		return nil, nil
	}
	return &v.Name, nil
}

// BundlePack pairs a bundle's pack reference with the pack's registry data.
type BundlePack struct {
	Reference registry.PackReference `json:"reference"`
	Data      registry.PackData      `json:"data"`
}

// GetBundlePacks fetches registry data for every pack of a bundle, in
// bundle order.
func (c *Commands) GetBundlePacks(ctx context.Context, bundleID string) ([]BundlePack, error) {
	refs, err := c.bundles.Packs(bundleID)
	if err != nil {
		return nil, err
	}

	out := make([]BundlePack, 0, len(refs))
	for _, ref := range refs {
		data, err := c.registry.GetPack(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("commands: pack %q: %w", ref.ID, err)
		}
		out = append(out, BundlePack{Reference: ref, Data: data})
	}
	return out, nil
}

// GetRemoteBundle fetches a bundle published on the registry.
func (c *Commands) GetRemoteBundle(ctx context.Context, id string) (registry.PackBundle, error) {
	return c.registry.GetBundle(ctx, id)
}

// ImportBundle copies a published bundle into the local store under name,
// or under the published name when name is empty. It returns the local id.
func (c *Commands) ImportBundle(ctx context.Context, remoteID, name string) (string, error) {
	remote, err := c.registry.GetBundle(ctx, remoteID)
	if err != nil {
		return "", err
	}

	id := strings.TrimSpace(name)
	if id == "" {
		id = remote.Name
	}
	if id == "" {
		id = remoteID
	}

	packs := make([]registry.PackReference, len(remote.Packs))
	copy(packs, remote.Packs)

	if err := c.bundles.Add(id, bundles.Definition{Version: remote.Version, Packs: packs}); err != nil {
		return "", err
	}

	c.log.Info("imported bundle", "remote", remoteID, "id", id, "packs", len(packs))
	return id, nil
}
