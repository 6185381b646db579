package relay

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_ForwardsByKind(t *testing.T) {
	rec := &Recorder{}
	r := New(rec, LevelDebug)

	r.Text(LevelInfo, "hello")
	r.Message(Header(LevelImportant, "Installing packs"))
	r.Message(Progress(LevelExtra, "Downloading Paxi", 3, 10))
	r.AuthPrompt("https://microsoft.com/link", "ABCD-1234")

	assert.Equal(t, []Entry{
		{Kind: "text", Text: "hello"},
		{Kind: "header", Text: "Installing packs"},
		{Kind: "progress", Text: "Downloading Paxi", Current: 3, Total: 10},
		{Kind: "auth", URL: "https://microsoft.com/link", Code: "ABCD-1234"},
	}, rec.Entries())
}

func TestRelay_DropsBelowMinimum(t *testing.T) {
	rec := &Recorder{}
	r := New(rec, LevelExtra)

	r.Text(LevelDebug, "noise")
	r.Message(Progress(LevelDebug, "tiny", 1, 2))
	r.Text(LevelExtra, "kept")

	assert.Equal(t, []string{"kept"}, rec.Texts())
	assert.Len(t, rec.Entries(), 1)
}

func TestRelay_AuthPromptIgnoresLevel(t *testing.T) {
	rec := &Recorder{}
	r := New(rec, LevelError)

	r.AuthPrompt("https://example.com", "CODE")

	require.Len(t, rec.Entries(), 1)
	assert.Equal(t, "auth", rec.Entries()[0].Kind)
}

func TestRelay_WithLoggerMirrorsText(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := New(&Recorder{}, LevelDebug).WithLogger(log)
	r.Text(LevelInfo, "mirrored line")

	assert.Contains(t, buf.String(), "mirrored line")
	assert.Contains(t, buf.String(), "severity=info")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("important")
	require.NoError(t, err)
	assert.Equal(t, LevelImportant, l)
	assert.True(t, l.AtLeast(LevelInfo))
	assert.False(t, LevelExtra.AtLeast(LevelInfo))

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOrDiscard(t *testing.T) {
	assert.Equal(t, Discard, OrDiscard(nil))

	r := New(&Recorder{}, LevelDebug)
	assert.Equal(t, Output(r), OrDiscard(r))
}
