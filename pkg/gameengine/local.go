package gameengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Smithed-MC/UX/pkg/identity"
	"github.com/Smithed-MC/UX/pkg/relay"
)

// DefaultLaunchCommand starts the game through portablemc.
var DefaultLaunchCommand = []string{
	"portablemc", "--main-dir", "{game_dir}", "--work-dir", "{game_dir}",
	"start", "{client_type}:{version}", "-u", "{username}", "-i", "{uuid}",
}

// stopGrace is how long a cancelled game gets to exit after the interrupt
// before it is killed.
const stopGrace = 10 * time.Second

// Authenticator signs in a Microsoft user.
type Authenticator interface {
	Login(ctx context.Context, prompter identity.Prompter) (identity.Account, error)
}

type profileFile struct {
	Profiles map[string]Profile `toml:"profiles"`
}

// Local is an Engine whose profiles live in a TOML file and which launches
// the game by running an external command.
type Local struct {
	mu           sync.Mutex
	path         string
	instancesDir string
	command      []string
	auth         Authenticator
	log          *slog.Logger
}

// LocalOptions configures a Local engine.
type LocalOptions struct {
	ProfilePath  string   // TOML profile file.
	InstancesDir string   // One game directory per instance is created here.
	Command      []string // Launch command template; DefaultLaunchCommand if empty.
	Auth         Authenticator
	Logger       *slog.Logger
}

// NewLocal creates a Local engine.
func NewLocal(opts LocalOptions) *Local {
	cmd := opts.Command
	if len(cmd) == 0 {
		cmd = DefaultLaunchCommand
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Local{
		path:         opts.ProfilePath,
		instancesDir: opts.InstancesDir,
		command:      cmd,
		auth:         opts.Auth,
		log:          log,
	}
}

// Profile implements Engine.
func (l *Local) Profile(id string) (Profile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return Profile{}, err
	}

	p, ok := f.Profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("gameengine: %w: %s", ErrProfileNotFound, id)
	}
	p.ID = id
	return p, nil
}

// CreateProfile implements Engine.
func (l *Local) CreateProfile(p Profile) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return err
	}

	if _, ok := f.Profiles[p.ID]; ok {
		return fmt.Errorf("gameengine: %w: %s", ErrProfileExists, p.ID)
	}
	if p.Instances == nil {
		p.Instances = make(map[string]Instance)
	}
	f.Profiles[p.ID] = p

	return l.persist(f)
}

// AddInstance implements Engine.
func (l *Local) AddInstance(ref InstanceRef, inst Instance) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.load()
	if err != nil {
		return err
	}

	p, ok := f.Profiles[ref.Profile]
	if !ok {
		return fmt.Errorf("gameengine: %w: %s", ErrProfileNotFound, ref.Profile)
	}
	if _, exists := p.Instances[ref.Instance]; exists {
		return nil
	}
	if p.Instances == nil {
		p.Instances = make(map[string]Instance)
	}
	p.Instances[ref.Instance] = inst
	f.Profiles[ref.Profile] = p

	return l.persist(f)
}

// InstanceDir implements Engine.
func (l *Local) InstanceDir(ref InstanceRef) string {
	return filepath.Join(l.instancesDir, ref.Instance)
}

// Sync creates the game directory of every instance in the profile.
func (l *Local) Sync(ctx context.Context, profileID string, out relay.Output) error {
	out = relay.OrDiscard(out)

	p, err := l.Profile(profileID)
	if err != nil {
		return err
	}

	out.Message(relay.Header(relay.LevelInfo, "Updating profile "+profileID))

	for id := range p.Instances {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := l.InstanceDir(InstanceRef{Profile: profileID, Instance: id})
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("gameengine: create instance dir: %w", err)
		}
		out.Text(relay.LevelDebug, "Instance "+id+" at "+dir)
	}

	return nil
}

// Launch implements Engine. Microsoft users are signed in first, which may
// prompt through out.
func (l *Local) Launch(ctx context.Context, req LaunchRequest, out relay.Output) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out = relay.OrDiscard(out)

	p, err := l.Profile(req.Ref.Profile)
	if err != nil {
		return nil, err
	}
	if _, ok := p.Instances[req.Ref.Instance]; !ok {
		return nil, fmt.Errorf("gameengine: %w: %s", ErrInstanceNotFound, req.Ref)
	}

	vars := map[string]string{
		"version":      req.Version,
		"client_type":  string(p.ClientType),
		"game_dir":     req.GameDir,
		"username":     req.User.Name,
		"uuid":         req.User.ID,
		"access_token": "0",
	}

	if req.User.Kind == UserMicrosoft {
		if l.auth == nil {
			return nil, errors.New("gameengine: microsoft sign-in is not configured")
		}
		acc, err := l.auth.Login(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("gameengine: sign in: %w", err)
		}
		vars["username"] = acc.Name
		vars["uuid"] = acc.ID
		vars["access_token"] = acc.AccessToken
	} else if vars["uuid"] == "" {
		vars["uuid"] = OfflineUUID(req.User.Name)
	}

	args := ExpandCommand(l.command, vars)

	out.Message(relay.Header(relay.LevelImportant, "Launching "+req.Version))
	l.log.Info("launching game", "instance", req.Ref.String(), "command", args[0])

	return startProcess(ctx, args, req.GameDir, out)
}

// ExpandCommand replaces {name} placeholders in every argument. Unknown
// placeholders are left as they are.
func ExpandCommand(template []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	args := make([]string, len(template))
	for i, a := range template {
		args[i] = r.Replace(a)
	}
	return args
}

// process is a running game command.
type process struct {
	cmd    *exec.Cmd
	stdout *lineWriter
	stderr *lineWriter
}

func startProcess(ctx context.Context, args []string, dir string, out relay.Output) (*process, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // command comes from launcher config
	cmd.Dir = dir
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = stopGrace

	p := &process{
		cmd:    cmd,
		stdout: &lineWriter{level: relay.LevelInfo, out: out},
		stderr: &lineWriter{level: relay.LevelError, out: out},
	}
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("gameengine: start %s: %w", args[0], err)
	}

	return p, nil
}

// Wait waits for the command to exit and flushes any unterminated output.
func (p *process) Wait() error {
	err := p.cmd.Wait()
	p.stdout.flush()
	p.stderr.flush()

	if err != nil {
		return fmt.Errorf("gameengine: game exited: %w", err)
	}
	return nil
}

// lineWriter forwards every complete line written to it as a text message.
type lineWriter struct {
	level relay.Level
	out   relay.Output
	buf   []byte
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.out.Text(w.level, strings.TrimRight(string(w.buf[:i]), "\r"))
		w.buf = w.buf[i+1:]
	}
	return len(b), nil
}

func (w *lineWriter) flush() {
	if len(w.buf) > 0 {
		w.out.Text(w.level, string(w.buf))
		w.buf = nil
	}
}

func (l *Local) load() (profileFile, error) {
	f := profileFile{Profiles: make(map[string]Profile)}

	if _, err := toml.DecodeFile(l.path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return f, fmt.Errorf("gameengine: read profiles: %w", err)
	}
	if f.Profiles == nil {
		f.Profiles = make(map[string]Profile)
	}

	return f, nil
}

func (l *Local) persist(f profileFile) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("gameengine: create profile dir: %w", err)
	}

	tmp := l.path + ".tmp"
	file, err := os.Create(tmp) //nolint:gosec // path is inside the launcher directory
	if err != nil {
		return fmt.Errorf("gameengine: write profiles: %w", err)
	}

	encErr := toml.NewEncoder(file).Encode(f)
	closeErr := file.Close()
	if encErr != nil {
		return fmt.Errorf("gameengine: encode profiles: %w", encErr)
	}
	if closeErr != nil {
		return fmt.Errorf("gameengine: write profiles: %w", closeErr)
	}

	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("gameengine: rename profiles: %w", err)
	}

	return nil
}
