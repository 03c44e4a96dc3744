// Package store persists the shared coordination state for the two vetter
// worker processes in SQLite: the check queue, the append-only result log,
// and the side leave queue.
//
// The Store is the only component either process uses to touch those tables.
// Every method commits independently; no call spans a multi-statement
// transaction, so readers must tolerate racing a concurrent writer between
// calls. WAL mode plus a busy-retry loop keeps cross-process access safe.
//
// group_checks is an append-only log, never a key-value upsert: re-checks of
// a subject accumulate rows, and reads resolve "the" result as newest by
// creation time. Schema changes bump schemaVersion in schema.go.
package store
