// Package gameengine defines the contract the launcher expects from the game
// engine, the component that owns profiles and instances and spawns the game
// process, and provides Local, an engine backed by a TOML profile file and an
// external launch command.
//
// Engines must tie a launched process to the context passed to Launch:
// cancelling it has to terminate the game.
package gameengine
