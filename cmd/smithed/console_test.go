package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smithed-MC/UX/pkg/launcher"
	"github.com/Smithed-MC/UX/pkg/registry"
)

func newTestConsole() consoleModel {
	return newConsoleModel("my-bundle", "s1", func() error { return nil })
}

func send(t *testing.T, m consoleModel, e launcher.Event) (consoleModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(eventMsg{event: e})
	cm, ok := next.(consoleModel)
	require.True(t, ok)
	return cm, cmd
}

func TestConsoleInitialView(t *testing.T) {
	m := newTestConsole()
	view := m.View()
	assert.Contains(t, view, "my-bundle")
	assert.Contains(t, view, "Preparing")
	assert.Contains(t, view, "ctrl+c to stop")
}

func TestConsoleHeaderResetsProgress(t *testing.T) {
	m := newTestConsole()
	m, _ = send(t, m, launcher.Event{Kind: launcher.EventOutputProgress, SessionID: "s1", Data: launcher.ProgressData{Label: "pack.zip", Current: 5, Total: 10}})
	assert.InDelta(t, 0.5, m.percent, 0.001)
	assert.Equal(t, "pack.zip", m.label)

	m, _ = send(t, m, launcher.Event{Kind: launcher.EventOutputHeader, SessionID: "s1", Data: launcher.TextData{Text: "Installing mods"}})
	assert.Equal(t, "Installing mods", m.header)
	assert.Empty(t, m.label)
	assert.Zero(t, m.percent)
	assert.Contains(t, m.View(), "Installing mods")
}

func TestConsoleIgnoresOtherSessions(t *testing.T) {
	m := newTestConsole()
	m, _ = send(t, m, launcher.Event{Kind: launcher.EventOutputMessage, SessionID: "other", Data: launcher.TextData{Text: "noise"}})
	assert.Empty(t, m.lines)
}

func TestConsoleKeepsRecentLines(t *testing.T) {
	m := newTestConsole()
	for i := range maxLines + 5 {
		m, _ = send(t, m, launcher.Event{Kind: launcher.EventOutputMessage, SessionID: "s1", Data: launcher.TextData{Text: strings.Repeat("x", i+1)}})
	}
	require.Len(t, m.lines, maxLines)
	assert.Equal(t, strings.Repeat("x", maxLines+5), m.lines[maxLines-1])
}

func TestConsoleAuthPromptClearsWhenRunning(t *testing.T) {
	m := newTestConsole()
	m, _ = send(t, m, launcher.Event{Kind: launcher.EventAuthPrompt, SessionID: "s1", Data: launcher.AuthPromptData{URL: "https://microsoft.com/link", Code: "ABCD-1234"}})
	view := m.View()
	assert.Contains(t, view, "https://microsoft.com/link")
	assert.Contains(t, view, "ABCD-1234")

	m, _ = send(t, m, launcher.Event{Kind: launcher.EventStateChanged, SessionID: "s1", Data: launcher.StateData{BundleID: "my-bundle", State: launcher.StateRunning}})
	assert.Nil(t, m.auth)
	assert.Equal(t, launcher.StateRunning, m.state)
}

func TestConsoleLaunchErrorShown(t *testing.T) {
	m := newTestConsole()
	m, _ = send(t, m, launcher.Event{Kind: launcher.EventLaunchError, SessionID: "s1", Data: launcher.TextData{Text: "unsupported Minecraft version"}})
	assert.Contains(t, m.View(), "unsupported Minecraft version")
	assert.Empty(t, m.lines)
}

func TestConsoleGameFinishedQuits(t *testing.T) {
	m := newTestConsole()
	m, cmd := send(t, m, launcher.Event{Kind: launcher.EventGameFinished, SessionID: "s1", Data: launcher.StateData{BundleID: "my-bundle", State: launcher.StateCompleted}})
	assert.True(t, m.done)
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)

	view := m.View()
	assert.Contains(t, view, "Game exited")
	assert.NotContains(t, view, "ctrl+c to stop")
}

func TestConsoleFinishedLine(t *testing.T) {
	m := newTestConsole()
	m.state = launcher.StateStopped
	assert.Contains(t, m.finishedLine(), "Stopped")
	m.state = launcher.StateFailed
	assert.Contains(t, m.finishedLine(), "Launch failed")
}

func TestConsoleCtrlCStopsOnceThenQuits(t *testing.T) {
	calls := 0
	m := newConsoleModel("b", "s1", func() error {
		calls++
		return errors.New("boom")
	})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(consoleModel)
	require.NotNil(t, cmd)
	assert.True(t, m.stopping)
	assert.Contains(t, m.View(), "Stopping")

	msg := cmd()
	assert.Equal(t, 1, calls)

	next, _ = m.Update(msg)
	m = next.(consoleModel)
	assert.Equal(t, "boom", m.errText)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(consoleModel)
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestConsoleSessionDoneQuitsWithoutFinishedEvent(t *testing.T) {
	m := newTestConsole()

	next, cmd := m.Update(sessionDoneMsg{state: launcher.StateFailed, err: errors.New("download failed")})
	m = next.(consoleModel)
	assert.True(t, m.done)
	assert.Equal(t, launcher.StateFailed, m.state)
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)

	view := m.View()
	assert.Contains(t, view, "Launch failed")
	assert.Contains(t, view, "download failed")
}

// fakeSession is a launch session finished by closing done.
type fakeSession struct {
	done  chan struct{}
	state launcher.State
	err   error
}

func (s *fakeSession) Done() <-chan struct{} { return s.done }
func (s *fakeSession) State() launcher.State { return s.state }
func (s *fakeSession) Err() error            { return s.err }

// recordingSender collects everything the bridge sends.
type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) sent() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}

func TestBridgeSendsSessionDoneWhenFinishedEventIsLost(t *testing.T) {
	bus := launcher.NewEventBus()
	sub := bus.Subscribe(2)
	sess := &fakeSession{done: make(chan struct{})}

	// Fill the buffer before the bridge starts reading.
	bus.Publish(launcher.Event{Kind: launcher.EventOutputMessage, SessionID: "s1", Data: launcher.TextData{Text: "a"}})
	bus.Publish(launcher.Event{Kind: launcher.EventOutputMessage, SessionID: "s1", Data: launcher.TextData{Text: "b"}})

	sender := &recordingSender{}
	stop := startBridge(context.Background(), sender, sub, bus, sess)
	defer stop()

	sess.state = launcher.StateCompleted
	close(sess.done)

	require.Eventually(t, func() bool {
		msgs := sender.sent()
		if len(msgs) == 0 {
			return false
		}
		_, ok := msgs[len(msgs)-1].(sessionDoneMsg)
		return ok
	}, 5*time.Second, 5*time.Millisecond)

	msgs := sender.sent()
	last := msgs[len(msgs)-1].(sessionDoneMsg)
	assert.Equal(t, launcher.StateCompleted, last.state)
	assert.Len(t, msgs, 3)
}

func TestAwaitSessionStopsUnfinishedSession(t *testing.T) {
	sess := &fakeSession{done: make(chan struct{})}
	calls := 0
	stop := func() error {
		calls++
		sess.state = launcher.StateStopped
		sess.err = context.Canceled
		close(sess.done)
		return nil
	}

	assert.NoError(t, awaitSession(sess, stop))
	assert.Equal(t, 1, calls)
}

func TestAwaitSessionFinishedSessionIsNotStopped(t *testing.T) {
	sess := &fakeSession{done: make(chan struct{}), state: launcher.StateFailed, err: errors.New("boom")}
	close(sess.done)

	err := awaitSession(sess, func() error {
		t.Fatal("stop called on a finished session")
		return nil
	})
	assert.EqualError(t, err, "boom")
}

func TestTruncateWideRunes(t *testing.T) {
	m := newTestConsole()
	out := m.truncate(strings.Repeat("界", 20), 10)
	assert.LessOrEqual(t, len([]rune(out)), 10)
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.Equal(t, "short", m.truncate("short", 40))
}

func TestCompareVersions(t *testing.T) {
	assert.Positive(t, compareVersions("1.17.1", "1.17"))
	assert.Negative(t, compareVersions("1.9", "1.17"))
	assert.Zero(t, compareVersions("1.18.2", "1.18.2"))
	assert.Negative(t, compareVersions("1.20-pre1", "1.20"))
	assert.Negative(t, compareVersions("1.20-pre1", "1.20-pre2"))
	assert.Positive(t, compareVersions("1.20-pre1", "1.19.4"))
	assert.Negative(t, compareVersions("snapshot", "1.0"))

	versions := supportedVersions()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Positive(t, compareVersions(versions[i-1], versions[i]))
	}
}

func TestRenderPack(t *testing.T) {
	home := "https://smithed.dev"
	out := renderPack(registry.PackData{
		ID:      "tcc",
		Display: registry.PackDisplay{Name: "The Creepers Code", URLs: &registry.PackDisplayURLs{Homepage: &home}},
		Versions: []registry.PackVersion{
			{Name: "0.1.0", Supports: []string{"1.17"}},
			{Name: "0.2.0", Supports: []string{"1.18", "1.18.1"}},
		},
	}, 80)

	assert.Contains(t, out, "The Creepers Code")
	assert.Contains(t, out, "1.18, 1.18.1")
	assert.Less(t, strings.Index(out, "0.2.0"), strings.Index(out, "0.1.0"))
	assert.Contains(t, out, home)
}
