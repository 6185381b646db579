package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Smithed-MC/UX/pkg/registry"
	"github.com/Smithed-MC/UX/pkg/relay"
	"github.com/dustin/go-humanize"
)

// progressStep is how many bytes are read between progress messages.
const progressStep = 256 << 10

// progressReader reports labeled progress while the wrapped body is read.
type progressReader struct {
	r     io.Reader
	out   relay.Output
	label string
	total int64
	read  int64
	last  int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.read-p.last >= progressStep || (err == io.EOF && p.read != p.last) {
		p.last = p.read
		p.report()
	}

	return n, err
}

func (p *progressReader) report() {
	label := p.label + " (" + humanize.Bytes(uint64(p.read)) + ")"
	total := p.total
	if total <= 0 {
		total = p.read
	} else {
		label = p.label + " (" + humanize.Bytes(uint64(p.read)) + " / " + humanize.Bytes(uint64(total)) + ")"
	}

	p.out.Message(relay.Progress(relay.LevelExtra, label, kib(p.read), kib(total)))
}

func kib(n int64) int { return int((n + 1023) / 1024) }

// fetch reads a whole remote body into memory while reporting progress.
func fetch(ctx context.Context, client *registry.Client, url, label string, out relay.Output) ([]byte, error) {
	body, size, err := client.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(&progressReader{r: body, out: out, label: label, total: size})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("install: read %s: %w", url, ctxErr)
		}
		return nil, fmt.Errorf("install: read %s: %w: %w", url, registry.ErrNetwork, err)
	}

	return data, nil
}

// downloadFile streams url into path, replacing any existing file. The body
// goes to a temporary file first; path only changes once the download is
// complete.
func downloadFile(ctx context.Context, client *registry.Client, url, path, label string, out relay.Output) error {
	body, size, err := client.Open(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("install: create dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("install: create %s: %w", path, err)
	}
	tmp := f.Name()

	_, copyErr := io.Copy(f, &progressReader{r: body, out: out, label: label, total: size})
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(tmp)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("install: download %s: %w", url, ctxErr)
		}
		return fmt.Errorf("install: download %s: %w: %w", url, registry.ErrNetwork, copyErr)
	case closeErr != nil:
		_ = os.Remove(tmp)
		return fmt.Errorf("install: close %s: %w", path, closeErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install: replace %s: %w", path, err)
	}

	return nil
}
