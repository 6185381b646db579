// Package launcher is the composition root of the bundle launcher. It owns
// the single launch slot, runs each launch as a background task and
// publishes progress to frontends through an EventBus.
//
// A launch moves through Launching and Running and ends Completed, Failed or
// Stopped. At most one session occupies the slot at a time: Start rejects a
// second launch with ErrAlreadyRunning and leaves the running one alone. The
// task clears its own slot when it ends, so a finished game frees the
// launcher without an explicit Stop.
package launcher
