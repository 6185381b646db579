package install

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/Smithed-MC/UX/pkg/relay"
)

// ErrArchive is returned when the welded archive cannot be read.
var ErrArchive = errors.New("unreadable pack archive")

// WeldedPackFilename is the fixed name every unpacked welded pack is written to.
const WeldedPackFilename = "SmithedWeldedPack.zip"

// Category is the destination class of a welded archive entry.
type Category int

const (
	CategoryIgnored Category = iota
	CategoryResource
	CategoryDatapack
)

func (c Category) String() string {
	switch c {
	case CategoryResource:
		return "resource"
	case CategoryDatapack:
		return "datapack"
	default:
		return "ignored"
	}
}

// Classify decides where an archive entry goes by a substring test on its
// name. "resource" is checked before "datapack".
func Classify(name string) Category {
	switch {
	case strings.Contains(name, "resource"):
		return CategoryResource
	case strings.Contains(name, "datapack"):
		return CategoryDatapack
	default:
		return CategoryIgnored
	}
}

// Unpack writes the resource and datapack entries of a welded archive into
// their destination directories under WeldedPackFilename. Entries are handled
// in archive order, so when several entries share a category the last one
// wins. Other entries are skipped.
func Unpack(data []byte, datapacksDir, resourcePacksDir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("install: %w: %w", ErrArchive, err)
	}

	for _, f := range zr.File {
		var dir string
		switch Classify(f.Name) {
		case CategoryResource:
			dir = resourcePacksDir
		case CategoryDatapack:
			dir = datapacksDir
		default:
			continue
		}

		if err := extractEntry(f, filepath.Join(dir, WeldedPackFilename)); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("install: %w: open %s: %w", ErrArchive, f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(dest) //nolint:gosec // dest is a fixed file name inside an instance directory
	if err != nil {
		return fmt.Errorf("install: create %s: %w", dest, err)
	}

	//nolint:gosec // entries come from the registry's weld endpoint
	_, copyErr := io.Copy(out, rc)
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("install: %w: extract %s: %w", ErrArchive, f.Name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("install: close %s: %w", dest, closeErr)
	}

	return nil
}

// WeldPacks downloads the welded archive for packs and unpacks it. An empty
// pack list does nothing at all.
func (in *Installer) WeldPacks(ctx context.Context, packs []registry.PackReference, datapacksDir, resourcePacksDir string, out relay.Output) error {
	if len(packs) == 0 {
		return nil
	}
	out = relay.OrDiscard(out)

	url := in.client.DownloadURL(packs)
	in.log.Debug("welding packs", "url", url, "packs", len(packs))
	out.Message(relay.Header(relay.LevelInfo, "Downloading bundle packs"))

	data, err := fetch(ctx, in.client, url, "Welding packs", out)
	if err != nil {
		return fmt.Errorf("install: weld packs: %w", err)
	}

	if err := Unpack(data, datapacksDir, resourcePacksDir); err != nil {
		return err
	}

	out.Text(relay.LevelInfo, fmt.Sprintf("Installed %d pack(s)", len(packs)))

	return nil
}
