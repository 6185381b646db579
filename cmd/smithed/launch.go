package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Smithed-MC/UX/pkg/launcher"
)

func runLaunch(opts globalOptions, args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	offline := fs.Bool("offline", false, "launch as the offline user instead of a Microsoft account")
	logPath := fs.String("log", "", "write logs to this file while the console is open")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: smithed launch <bundle> [-offline]")
	}
	bundleID := fs.Arg(0)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	logFile, err := openLogFile(*logPath)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	app, err := loadApp(opts, logFile)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	// Subscribe before starting so no early event is missed.
	sub := app.Events.Subscribe(256)

	sess, err := app.Launcher.Start(bundleID, *offline)
	if err != nil {
		app.Events.Unsubscribe(sub)
		return err
	}

	model := newConsoleModel(bundleID, sess.ID(), app.Launcher.Stop)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	stopBridge := startBridge(ctx, p, sub, app.Events, sess)
	defer stopBridge()

	_, runErr := p.Run()
	signalled := ctx.Err() != nil
	// Restore default SIGTERM handling while the game winds down.
	cancel()

	err = awaitSession(sess, app.Launcher.Stop)
	if runErr != nil && !signalled {
		return runErr
	}
	return err
}

// launchSession is the part of a launcher session the CLI waits on.
type launchSession interface {
	Done() <-chan struct{}
	State() launcher.State
	Err() error
}

// awaitSession stops sess if the console left before the task finished,
// then waits for it. A stopped session is not an error.
func awaitSession(sess launchSession, stop func() error) error {
	select {
	case <-sess.Done():
	default:
		if err := stop(); err != nil {
			return err
		}
		<-sess.Done()
	}

	if sess.State() == launcher.StateStopped {
		return nil
	}
	return sess.Err()
}

// msgSender is satisfied by *tea.Program.
type msgSender interface {
	Send(msg tea.Msg)
}

// startBridge forwards launcher events to the program. It only calls
// p.Send and never touches model state. When the session ends it forwards
// what is still buffered and then a sessionDoneMsg, so the console quits even
// if game_finished was lost. The returned function stops the bridge and
// waits for it.
func startBridge(ctx context.Context, p msgSender, sub *launcher.Subscription, events *launcher.EventBus, sess launchSession) func() {
	bridgeCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Go(func() {
		defer events.Unsubscribe(sub)
		for {
			select {
			case <-bridgeCtx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				p.Send(eventMsg{event: ev})
			case <-sess.Done():
				forwardBuffered(p, sub)
				p.Send(sessionDoneMsg{state: sess.State(), err: sess.Err()})
				return
			}
		}
	})

	return func() {
		cancel()
		wg.Wait()
	}
}

func forwardBuffered(p msgSender, sub *launcher.Subscription) {
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			p.Send(eventMsg{event: ev})
		default:
			return
		}
	}
}

// openLogFile opens path for appending. With no path, logs are discarded
// while the console owns the terminal.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // user-chosen log path
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
