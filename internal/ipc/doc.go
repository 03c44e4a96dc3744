// Package ipc implements daemon control over JSON-RPC on a Unix domain
// socket. The CLI uses it for status, shutdown, and queue administration;
// everything data-plane flows through the shared database instead.
package ipc
