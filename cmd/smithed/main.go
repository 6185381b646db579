package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Smithed-MC/UX/pkg/appdir"
	"github.com/Smithed-MC/UX/pkg/launcher"
)

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	dir     string
	config  string
	envFile string
	verbose bool
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: smithed [flags] <command> [args]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Commands:
  launch <bundle> [-offline]   Install and launch a bundle
  serve [-addr host:port]      Serve the command API for the desktop app
  bundle <subcommand>          Manage local bundles (list, show, create, remove,
                               add-pack, remove-pack, packs, import)
  pack <id>                    Show a pack from the registry
  login                        Sign in with a Microsoft account
`)
	}

	var opts globalOptions
	flag.StringVar(&opts.dir, "dir", "", "launcher directory (default: user config dir/smithed_launcher)")
	flag.StringVar(&opts.config, "config", "", "path to configuration file (default: <dir>/launcher.yaml)")
	flag.StringVar(&opts.envFile, "env", ".env", "path to .env file (ignored if missing)")
	flag.BoolVar(&opts.verbose, "verbose", false, "log at debug level")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := loadDotEnv(opts.envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := dispatch(opts, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		os.Exit(1)
	}
}

func dispatch(opts globalOptions, command string, args []string) error {
	switch command {
	case "launch":
		return runLaunch(opts, args)
	case "serve":
		return runServe(opts, args)
	case "bundle":
		return runBundle(opts, args)
	case "pack":
		return runPack(opts, args)
	case "login":
		return runLogin(opts, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// loadApp resolves the launcher directory and configuration and assembles
// the application. Logs go to stderr, or to a file when the terminal is
// owned by the console UI.
func loadApp(opts globalOptions, logFile *os.File) (*launcher.App, error) {
	dir, err := resolveDir(opts.dir)
	if err != nil {
		return nil, err
	}

	cfgPath := opts.config
	if cfgPath == "" {
		cfgPath = dir.ConfigPath()
	}

	cfg, err := launcher.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir.Root()

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if logFile != nil {
		out = logFile
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	return launcher.NewApp(cfg, dir, log)
}

func resolveDir(path string) (appdir.Dir, error) {
	if path != "" {
		return appdir.New(path), nil
	}
	return appdir.Default()
}
