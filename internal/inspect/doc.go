// Package inspect wraps the external platform client that performs the
// actual join, deep analysis, and leave actions against a subject. The
// daemon talks to it through the Inspector interface; the Bridge
// implementation shells out to a configured command so credentials and
// platform details stay outside this process.
package inspect
