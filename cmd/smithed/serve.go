package main

import (
	"context"
	"flag"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Smithed-MC/UX/pkg/commands"
)

func runServe(opts globalOptions, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default: server.addr from config)")
	origins := fs.String("origins", "", "comma-separated extra websocket origins to accept")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := loadApp(opts, nil)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	cmds := commands.New(app.Launcher, app.Bundles, app.Registry, app.Log.With("component", "commands"))
	srv := commands.NewServer(cmds, app.Events, app.Log.With("component", "server"))
	if *origins != "" {
		srv.OriginPatterns = strings.Split(*origins, ",")
	}

	go func() {
		if err := srv.WatchBundles(ctx, app.Bundles); err != nil {
			app.Log.Warn("bundle watcher stopped", "error", err)
		}
	}()

	listen := *addr
	if listen == "" {
		listen = app.Config.Server.Addr
	}

	return srv.ListenAndServe(ctx, listen)
}
