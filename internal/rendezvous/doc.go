// Package rendezvous lets the front worker meet the deep worker's result in
// the shared store. A Waiter polls for the newest deep result with an
// adaptive interval and supports a single optional callback per subject.
package rendezvous
