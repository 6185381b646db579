// Package appdir encapsulates all path knowledge for the launcher's data
// directory. It provides a Dir value object with accessors for the launcher
// config, the bundle store, the engine profile file, stored accounts and game
// instance directories.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the launcher directory inside the user config dir.
const DirName = "smithed_launcher"

// Dir is a value object that resolves paths within the launcher directory.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. The path is converted to an
// absolute path. No I/O is performed; use EnsureStructure to create the
// directory layout.
func New(root string) Dir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Default returns the Dir under the platform's user config directory.
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("appdir: user config dir: %w", err)
	}

	return New(filepath.Join(base, DirName)), nil
}

// Root returns the absolute path to the launcher directory.
func (d Dir) Root() string { return d.root }

// ConfigPath returns the path to the launcher config file.
func (d Dir) ConfigPath() string { return filepath.Join(d.root, "launcher.yaml") }

// BundlesPath returns the path to the local bundle store.
func (d Dir) BundlesPath() string { return filepath.Join(d.root, "smithed.json") }

// EnginePath returns the path to the engine profile file.
func (d Dir) EnginePath() string { return filepath.Join(d.root, "engine.toml") }

// AccountsPath returns the path to the stored account file.
func (d Dir) AccountsPath() string { return filepath.Join(d.root, "users.json") }

// DataDir returns the path to the game data directory.
func (d Dir) DataDir() string { return filepath.Join(d.root, "data") }

// InstancesDir returns the directory holding one directory per game instance.
func (d Dir) InstancesDir() string { return filepath.Join(d.root, "data", "instances") }

// InstanceDir returns the directory of the named instance.
func (d Dir) InstanceDir(id string) string { return filepath.Join(d.InstancesDir(), id) }

// Exists reports whether the launcher root directory exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}

// EnsureStructure creates the root and data directories if they are missing.
// It is safe to call multiple times.
func EnsureStructure(d Dir) error {
	if err := os.MkdirAll(d.InstancesDir(), 0o750); err != nil {
		return fmt.Errorf("appdir: create instances dir: %w", err)
	}

	return nil
}
