package install

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/Smithed-MC/UX/pkg/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers every request from memory and records the URLs.
type fakeTransport struct {
	mu     sync.Mutex
	urls   []string
	bodies map[string][]byte
	status int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.urls = append(f.urls, req.URL.String())
	body, ok := f.bodies[req.URL.String()]
	status := f.status
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if !ok && body == nil {
		body = []byte("jar bytes for " + req.URL.String())
	}

	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        http.Header{},
		Request:       req,
	}, nil
}

func (f *fakeTransport) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func newTestInstaller(ft *fakeTransport) *Installer {
	client := registry.New(registry.DefaultBaseURL, &http.Client{Transport: ft})
	return New(client, nil)
}

func buildZip(t *testing.T, entries ...[2]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestClassify(t *testing.T) {
	assert.Equal(t, CategoryResource, Classify("welded-resourcepack.zip"))
	assert.Equal(t, CategoryDatapack, Classify("welded-datapack.zip"))
	assert.Equal(t, CategoryResource, Classify("datapack-and-resource.zip"))
	assert.Equal(t, CategoryIgnored, Classify("README.md"))
}

func TestWeldPacks_EmptyListMakesNoRequest(t *testing.T) {
	ft := &fakeTransport{}
	in := newTestInstaller(ft)

	err := in.WeldPacks(context.Background(), nil, t.TempDir(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, ft.calls())
}

func TestWeldPacks_RequestsOrderedURLAndUnpacks(t *testing.T) {
	url := registry.DefaultBaseURL + "/download?pack=foo@1&pack=bar@1.2.5"
	ft := &fakeTransport{bodies: map[string][]byte{
		url: buildZip(t,
			[2]string{"welded-datapack.zip", "DP"},
			[2]string{"welded-resourcepack.zip", "RP"},
			[2]string{"notes.txt", "ignored"},
		),
	}}
	in := newTestInstaller(ft)
	layout, err := PrepareInstance(t.TempDir())
	require.NoError(t, err)

	rec := &relay.Recorder{}
	err = in.WeldPacks(context.Background(), []registry.PackReference{
		{ID: "foo", Version: "1"},
		{ID: "bar", Version: "1.2.5"},
	}, layout.Datapacks, layout.ResourcePacks, relay.New(rec, relay.LevelDebug))
	require.NoError(t, err)

	assert.Equal(t, []string{url}, ft.calls())

	dp, err := os.ReadFile(filepath.Join(layout.Datapacks, WeldedPackFilename))
	require.NoError(t, err)
	assert.Equal(t, "DP", string(dp))

	rp, err := os.ReadFile(filepath.Join(layout.ResourcePacks, WeldedPackFilename))
	require.NoError(t, err)
	assert.Equal(t, "RP", string(rp))

	entries, err := os.ReadDir(layout.Datapacks)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUnpack_LastEntryWins(t *testing.T) {
	dp, rp := t.TempDir(), t.TempDir()
	data := buildZip(t,
		[2]string{"first-datapack.zip", "one"},
		[2]string{"second-datapack.zip", "two"},
	)

	require.NoError(t, Unpack(data, dp, rp))

	got, err := os.ReadFile(filepath.Join(dp, WeldedPackFilename))
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(rp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnpack_RejectsGarbage(t *testing.T) {
	err := Unpack([]byte("not a zip"), t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArchive))
}

func TestWeldPacks_StatusErrorIsNetwork(t *testing.T) {
	ft := &fakeTransport{status: http.StatusBadGateway}
	in := newTestInstaller(ft)

	err := in.WeldPacks(context.Background(), []registry.PackReference{{ID: "a", Version: "1"}}, t.TempDir(), t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrNetwork))
}

func TestLookup(t *testing.T) {
	e, err := Lookup("1.17.1")
	require.NoError(t, err)
	assert.True(t, e.HasOptional())

	e, err = Lookup("1.17")
	require.NoError(t, err)
	assert.False(t, e.HasOptional())

	_, err = Lookup("1.16")
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestInstallMods_DownloadsAllCompanions(t *testing.T) {
	ft := &fakeTransport{}
	in := newTestInstaller(ft)
	modsDir := filepath.Join(t.TempDir(), "mods")

	rec := &relay.Recorder{}
	err := in.InstallMods(context.Background(), modsDir, "1.17.1", relay.New(rec, relay.LevelDebug))
	require.NoError(t, err)

	entry := CompatTable["1.17.1"]
	assert.Equal(t, []string{entry.Primary, entry.Optional, entry.FabricAPI}, ft.calls())

	for _, name := range []string{PrimaryModFilename, OptionalModFilename, FabricAPIModFilename} {
		_, err := os.Stat(filepath.Join(modsDir, name))
		assert.NoError(t, err, name)
	}

	var sawProgress bool
	for _, e := range rec.Entries() {
		if e.Kind == "progress" && strings.HasPrefix(e.Text, "Downloading Paxi") {
			sawProgress = true
		}
	}
	assert.True(t, sawProgress)
}

func TestInstallMods_SkipsMissingOptional(t *testing.T) {
	ft := &fakeTransport{}
	in := newTestInstaller(ft)

	require.NoError(t, in.InstallMods(context.Background(), t.TempDir(), "1.17", nil))
	assert.Len(t, ft.calls(), 2)
}

func TestInstallMods_UnsupportedVersionDownloadsNothing(t *testing.T) {
	ft := &fakeTransport{}
	in := newTestInstaller(ft)

	err := in.InstallMods(context.Background(), t.TempDir(), "1.16", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	assert.Empty(t, ft.calls())
}

func TestInstallMods_OverwritesExisting(t *testing.T) {
	ft := &fakeTransport{}
	in := newTestInstaller(ft)
	modsDir := t.TempDir()

	path := filepath.Join(modsDir, PrimaryModFilename)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, in.InstallMods(context.Background(), modsDir, "1.20.1", nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jar bytes for "+CompatTable["1.20.1"].Primary, string(got))
}

func TestLayoutFor(t *testing.T) {
	l := LayoutFor("/games/x")
	assert.Equal(t, filepath.Join("/games/x", "config", "paxi", "datapacks"), l.Datapacks)
	assert.Equal(t, filepath.Join("/games/x", "config", "paxi", "resourcepacks"), l.ResourcePacks)
	assert.Equal(t, filepath.Join("/games/x", "mods"), l.Mods)
}

// stallingTransport sends one chunk of every body, then blocks until the
// request context ends.
type stallingTransport struct {
	started chan struct{}
	once    sync.Once
}

func (s *stallingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode:    http.StatusOK,
		Body:          &stallingBody{ctx: req.Context(), signal: func() { s.once.Do(func() { close(s.started) }) }},
		ContentLength: -1,
		Header:        http.Header{},
		Request:       req,
	}, nil
}

type stallingBody struct {
	ctx    context.Context
	signal func()
	sent   bool
}

func (b *stallingBody) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		b.signal()
		return copy(p, "partial jar"), nil
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *stallingBody) Close() error { return nil }

func TestInstallMods_CancelInterruptsDownload(t *testing.T) {
	st := &stallingTransport{started: make(chan struct{})}
	in := New(registry.New(registry.DefaultBaseURL, &http.Client{Transport: st}), nil)
	modsDir := t.TempDir()

	stale := filepath.Join(modsDir, PrimaryModFilename)
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- in.InstallMods(ctx, modsDir, "1.20.1", nil) }()

	<-st.started
	cancel()

	var err error
	select {
	case err = <-errc:
	case <-time.After(5 * time.Second):
		t.Fatal("download was not interrupted")
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, registry.ErrNetwork))

	got, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(got))

	entries, err := os.ReadDir(modsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PrimaryModFilename, entries[0].Name())
}

func TestWeldPacks_CancelInterruptsDownload(t *testing.T) {
	st := &stallingTransport{started: make(chan struct{})}
	in := New(registry.New(registry.DefaultBaseURL, &http.Client{Transport: st}), nil)
	dp, rp := filepath.Join(t.TempDir(), "dp"), filepath.Join(t.TempDir(), "rp")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- in.WeldPacks(ctx, []registry.PackReference{{ID: "tcc", Version: "1.0.0"}}, dp, rp, nil)
	}()

	<-st.started
	cancel()

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("weld download was not interrupted")
	}
	assert.NoFileExists(t, filepath.Join(dp, WeldedPackFilename))
}
