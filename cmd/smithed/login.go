package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
)

// terminalPrompter prints device-code prompts to stdout.
type terminalPrompter struct{}

func (terminalPrompter) AuthPrompt(url, code string) {
	box := lipgloss.JoinVertical(lipgloss.Left,
		"Open "+url,
		"and enter the code "+codeStyle.Render(code),
	)
	fmt.Println(authBoxStyle.Render(box))
}

func runLogin(opts globalOptions, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
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

	acc, err := app.Identity.Provider.Authenticate(ctx, terminalPrompter{})
	if err != nil {
		return err
	}
	if err := app.Accounts.Put(acc, true); err != nil {
		return err
	}

	fmt.Println(okStyle.Render("Signed in as " + acc.Name))
	return nil
}
