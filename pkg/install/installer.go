package install

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Smithed-MC/UX/pkg/registry"
)

// Installer downloads bundle content through a registry client.
type Installer struct {
	client *registry.Client
	log    *slog.Logger
}

// New creates an Installer. A nil logger falls back to slog.Default().
func New(client *registry.Client, log *slog.Logger) *Installer {
	if log == nil {
		log = slog.Default()
	}
	return &Installer{client: client, log: log}
}

// Layout holds the content directories of one game instance.
type Layout struct {
	Datapacks     string
	ResourcePacks string
	Mods          string
}

// LayoutFor returns the content directories under an instance game dir. Paxi
// loads global packs from config/paxi.
func LayoutFor(gameDir string) Layout {
	paxi := filepath.Join(gameDir, "config", "paxi")
	return Layout{
		Datapacks:     filepath.Join(paxi, "datapacks"),
		ResourcePacks: filepath.Join(paxi, "resourcepacks"),
		Mods:          filepath.Join(gameDir, "mods"),
	}
}

// PrepareInstance creates the content directories of an instance.
func PrepareInstance(gameDir string) (Layout, error) {
	l := LayoutFor(gameDir)
	for _, dir := range []string{l.Datapacks, l.ResourcePacks, l.Mods} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return Layout{}, fmt.Errorf("install: create %s: %w", dir, err)
		}
	}
	return l, nil
}
