package gameengine

import (
	"crypto/md5" //nolint:gosec // offline player ids are defined as a name-based MD5 uuid
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInstanceNotFound = errors.New("instance not found")
	ErrProfileExists    = errors.New("profile already exists")
)

// UserKind says how a user authenticates.
type UserKind string

const (
	UserOffline   UserKind = "offline"
	UserMicrosoft UserKind = "microsoft"
)

// User is the identity a game is launched with. Microsoft users are signed
// in by the engine at launch time; only offline users carry a fixed name.
type User struct {
	ID   string   `toml:"id"`
	Name string   `toml:"name"`
	Kind UserKind `toml:"kind"`
}

// OfflineUUID returns the id the game itself derives for an offline player
// name.
func OfflineUUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name)) //nolint:gosec // not used for security
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.UUID(sum).String()
}

// ClientType is the mod loader a profile runs.
type ClientType string

const (
	ClientVanilla ClientType = "vanilla"
	ClientFabric  ClientType = "fabric"
)

// Side is the side an instance runs on.
type Side string

const (
	SideClient Side = "client"
	SideServer Side = "server"
)

// Instance is one concrete game installation within a profile.
type Instance struct {
	Side     Side     `toml:"side"`
	Packages []string `toml:"packages"`
}

// Profile groups instances that share a game version and loader.
type Profile struct {
	ID         string              `toml:"-"`
	Version    string              `toml:"version"`
	ClientType ClientType          `toml:"client_type"`
	Modloader  string              `toml:"modloader,omitempty"`
	Packages   []string            `toml:"packages"`
	Instances  map[string]Instance `toml:"instances"`
}

// InstanceRef addresses an instance inside a profile.
type InstanceRef struct {
	Profile  string
	Instance string
}

func (r InstanceRef) String() string { return r.Profile + ":" + r.Instance }
