// Package worker hosts the deep worker's sweep loop. Each sweep claims
// pending check-queue entries, drives the inspector through join, analyze,
// and leave, and appends result rows to the shared store.
package worker
