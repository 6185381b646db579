package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"

	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/commands"
	"github.com/Smithed-MC/UX/pkg/install"
	"github.com/Smithed-MC/UX/pkg/registry"
)

const bundleUsage = `usage: smithed bundle <subcommand>

  list                               List local bundles
  show <bundle>                      Show a bundle's version and packs
  create [<bundle> <version>]        Create a bundle (interactive without arguments)
  remove <bundle>                    Delete a bundle
  add-pack <bundle> <pack> [version] Add a pack; without a version the newest compatible one is used
  remove-pack <bundle> <pack>        Remove a pack
  packs <bundle>                     Show registry details of a bundle's packs
  import <remote-id> [name]          Copy a published bundle (asks for a name when omitted)`

func runBundle(opts globalOptions, args []string) error {
	if len(args) == 0 {
		return errors.New(bundleUsage)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := loadApp(opts, nil)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	cmds := commands.New(app.Launcher, app.Bundles, app.Registry, app.Log)
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		return bundleList(cmds)
	case "show":
		if len(rest) != 1 {
			return errors.New(bundleUsage)
		}
		return bundleShow(cmds, rest[0])
	case "create":
		return bundleCreate(cmds, rest)
	case "remove":
		if len(rest) != 1 {
			return errors.New(bundleUsage)
		}
		if err := cmds.RemoveBundle(rest[0]); err != nil {
			return err
		}
		fmt.Println("Removed " + rest[0])
		return nil
	case "add-pack":
		return bundleAddPack(ctx, cmds, rest)
	case "remove-pack":
		if len(rest) != 2 {
			return errors.New(bundleUsage)
		}
		return cmds.RemovePackFromBundle(rest[0], rest[1])
	case "packs":
		if len(rest) != 1 {
			return errors.New(bundleUsage)
		}
		return bundlePacks(ctx, cmds, rest[0])
	case "import":
		return bundleImport(ctx, cmds, rest)
	default:
		return fmt.Errorf("unknown bundle subcommand %q\n%s", sub, bundleUsage)
	}
}

func bundleList(cmds *commands.Commands) error {
	all, err := cmds.ListBundles()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println(dimStyle.Render("No bundles yet. Create one with: smithed bundle create"))
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		def := all[id]
		fmt.Printf("%s  %s  %s\n", headerStyle.Render(id), def.Version, dimStyle.Render(fmt.Sprintf("%d pack(s)", len(def.Packs))))
	}
	return nil
}

func bundleShow(cmds *commands.Commands, id string) error {
	def, err := cmds.GetBundle(id)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(id) + " " + dimStyle.Render("Minecraft "+def.Version))
	for _, p := range def.Packs {
		fmt.Printf("  %s@%s\n", p.ID, p.Version)
	}
	return nil
}

// supportedVersions returns the versions companion mods exist for, newest
// first.
func supportedVersions() []string {
	versions := make([]string, 0, len(install.CompatTable))
	for v := range install.CompatTable {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return compareVersions(versions[i], versions[j]) > 0 })
	return versions
}

// compareVersions orders dotted versions part by part. A part compares by
// its leading number; a suffix such as "-pre1" sorts before the plain
// release and suffixes compare as strings.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if c := comparePart(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func comparePart(x, y string) int {
	if x == "" || y == "" {
		return len(x) - len(y)
	}

	xn, xs := splitNumber(x)
	yn, ys := splitNumber(y)
	switch {
	case xn != yn:
		return xn - yn
	case xs == ys:
		return 0
	case xs == "":
		return 1
	case ys == "":
		return -1
	default:
		return strings.Compare(xs, ys)
	}
}

// splitNumber splits a version part into its leading number and the rest.
// A part without a leading number counts as -1.
func splitNumber(part string) (int, string) {
	i := strings.IndexFunc(part, func(r rune) bool { return r < '0' || r > '9' })
	if i < 0 {
		i = len(part)
	}
	n, err := strconv.Atoi(part[:i])
	if err != nil {
		return -1, part
	}
	return n, part[i:]
}

func bundleCreate(cmds *commands.Commands, args []string) error {
	var id, version string

	switch len(args) {
	case 2:
		id, version = args[0], args[1]
	case 0:
		options := make([]huh.Option[string], 0, len(install.CompatTable))
		for _, v := range supportedVersions() {
			options = append(options, huh.NewOption(v, v))
		}

		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Bundle name").Value(&id).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name is required")
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Minecraft version").Options(options...).Value(&version),
		)).Run(); err != nil {
			return err
		}
	default:
		return errors.New(bundleUsage)
	}

	if exists, err := cmds.BundleExists(id); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("bundle %q already exists", id)
	}

	if err := cmds.AddBundle(id, bundles.Definition{Version: version}); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("Created " + id))
	return nil
}

func bundleAddPack(ctx context.Context, cmds *commands.Commands, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New(bundleUsage)
	}
	bundleID, packID := args[0], args[1]

	var version string
	if len(args) == 3 {
		version = args[2]
	} else {
		v, err := cmds.GetPackVersionForBundle(ctx, bundleID, packID)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("pack %q has no version for this bundle's Minecraft version", packID)
		}
		version = *v
	}

	if err := cmds.AddPackToBundle(bundleID, registry.PackReference{ID: packID, Version: version}); err != nil {
		return err
	}
	fmt.Printf("Added %s@%s to %s\n", packID, version, bundleID)
	return nil
}

func bundlePacks(ctx context.Context, cmds *commands.Commands, bundleID string) error {
	packs, err := cmds.GetBundlePacks(ctx, bundleID)
	if err != nil {
		return err
	}

	for _, p := range packs {
		name := p.Data.Display.Name
		if name == "" {
			name = p.Reference.ID
		}
		fmt.Printf("%s %s\n", headerStyle.Render(name), dimStyle.Render(p.Reference.ID+"@"+p.Reference.Version))
	}
	return nil
}

func bundleImport(ctx context.Context, cmds *commands.Commands, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New(bundleUsage)
	}
	remoteID := args[0]

	var name string
	if len(args) == 2 {
		name = args[1]
	} else {
		remote, err := cmds.GetRemoteBundle(ctx, remoteID)
		if err != nil {
			return err
		}
		name = remote.Name

		if err := huh.NewForm(huh.NewGroup(
			huh.NewNote().Title(remote.Name).Description(fmt.Sprintf("by %s, Minecraft %s, %d pack(s)", remote.Owner, remote.Version, len(remote.Packs))),
			huh.NewInput().Title("Save as").Value(&name),
		)).Run(); err != nil {
			return err
		}
	}

	id, err := cmds.ImportBundle(ctx, remoteID, name)
	if err != nil {
		return err
	}
	fmt.Println(okStyle.Render("Imported as " + id))
	return nil
}
