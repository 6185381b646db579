// Package commands is the surface the GUI host drives: bundle management,
// registry lookups and launch control. Every command returns a value or an
// error; Describe turns an error into the text shown to the user.
//
// Server exposes the commands over local HTTP and streams launcher events to
// the host over a websocket.
package commands
