// Command vetter is the front worker and operator CLI. It enqueues subjects
// into the shared database, waits for the deep worker's results, and
// administers the queue and the daemon.
package main
