package install

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Smithed-MC/UX/pkg/relay"
)

// Fixed file names of the companion mods inside the instance mods directory.
const (
	PrimaryModFilename   = "Smithed_mod_Paxi.jar"
	OptionalModFilename  = "Smithed_mod_YUNGS_API.jar"
	FabricAPIModFilename = "Smithed_mod_Fabric_API.jar"
)

// InstallMods downloads the companion mods for minecraftVersion into modsDir.
// An unknown version fails before anything is downloaded.
func (in *Installer) InstallMods(ctx context.Context, modsDir, minecraftVersion string, out relay.Output) error {
	entry, err := Lookup(minecraftVersion)
	if err != nil {
		return err
	}
	out = relay.OrDiscard(out)

	out.Message(relay.Header(relay.LevelInfo, "Installing companion mods"))

	steps := []struct {
		name, url, file string
	}{
		{"Paxi", entry.Primary, PrimaryModFilename},
		{"YUNG's API", entry.Optional, OptionalModFilename},
		{"Fabric API", entry.FabricAPI, FabricAPIModFilename},
	}

	for _, s := range steps {
		if s.url == "" {
			continue
		}

		in.log.Debug("downloading mod", "mod", s.name, "url", s.url)
		if err := downloadFile(ctx, in.client, s.url, filepath.Join(modsDir, s.file), "Downloading "+s.name, out); err != nil {
			return fmt.Errorf("install: failed to download %s: %w", s.name, err)
		}
	}

	return nil
}
