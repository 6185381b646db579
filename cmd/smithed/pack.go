package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Smithed-MC/UX/pkg/registry"
)

func runPack(opts globalOptions, args []string) error {
	fs := flag.NewFlagSet("pack", flag.ExitOnError)
	width := fs.Int("width", 100, "wrap the description at this width")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: smithed pack <id>")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := loadApp(opts, nil)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	pack, err := app.Registry.GetPack(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Println(renderPack(pack, *width))
	return nil
}

func renderPack(pack registry.PackData, width int) string {
	var sb strings.Builder

	name := pack.Display.Name
	if name == "" {
		name = pack.ID
	}
	sb.WriteString(titleStyle.Render(name) + " " + dimStyle.Render(pack.ID) + "\n")

	if pack.Display.Description != "" {
		sb.WriteString(renderMarkdown(pack.Display.Description, width) + "\n")
	}

	if len(pack.Versions) > 0 {
		sb.WriteString("\n" + headerStyle.Render("Versions") + "\n")
		for i := len(pack.Versions) - 1; i >= 0; i-- {
			v := pack.Versions[i]
			sb.WriteString(fmt.Sprintf("  %s  %s\n", v.Name, dimStyle.Render(strings.Join(v.Supports, ", "))))
		}
	}

	if u := pack.Display.URLs; u != nil && u.Homepage != nil {
		sb.WriteString("\n" + dimStyle.Render(*u.Homepage) + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
