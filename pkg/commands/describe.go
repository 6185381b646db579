package commands

import (
	"errors"

	"github.com/Smithed-MC/UX/pkg/bundles"
	"github.com/Smithed-MC/UX/pkg/identity"
	"github.com/Smithed-MC/UX/pkg/install"
	"github.com/Smithed-MC/UX/pkg/launcher"
	"github.com/Smithed-MC/UX/pkg/registry"
)

// ErrInvalidParams is returned for malformed command parameters.
var ErrInvalidParams = errors.New("invalid parameters")

// ErrUnknownCommand is returned by the server for an unregistered name.
var ErrUnknownCommand = errors.New("unknown command")

var descriptions = []struct {
	target error
	text   string
}{
	{launcher.ErrAlreadyRunning, "A bundle is already running. Stop it before launching another."},
	{install.ErrUnsupportedVersion, "This Minecraft version is not supported: no companion mods are published for it."},
	{install.ErrArchive, "The downloaded pack archive could not be read."},
	{identity.ErrDeclined, "Sign-in was declined."},
	{identity.ErrBadVerificationCode, "The sign-in code was not accepted. Try signing in again."},
	{identity.ErrExpiredToken, "The sign-in code expired. Try signing in again."},
	{bundles.ErrNotFound, "That bundle does not exist."},
	{registry.ErrNetwork, "Could not reach the Smithed servers."},
	{identity.ErrNetwork, "Could not reach the Microsoft sign-in servers."},
	{launcher.ErrConfig, "The launcher configuration could not be read or written."},
	{ErrInvalidParams, "The request was malformed."},
	{ErrUnknownCommand, "Unknown command."},
}

// Describe returns the user-facing text for err, followed by the underlying
// error. It returns "" for nil.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, d := range descriptions {
		if errors.Is(err, d.target) {
			return d.text + " (" + err.Error() + ")"
		}
	}
	return err.Error()
}
