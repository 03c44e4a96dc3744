// Package daemon wires the deep worker into a single-instance background
// process. A lock file guards against a second sweeper racing the
// check-then-act sequence on the same database.
package daemon
