// Package relay adapts progress and log output produced while a bundle is
// being prepared and launched into a small event taxonomy for a caller
// supplied Sink. Producers (installer, engine, identity provider) write to an
// Output; a Relay filters by severity and forwards to the Sink without
// buffering, so it never blocks the producer beyond the Sink's own cost.
package relay
