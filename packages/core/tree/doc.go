// Package tree builds the in-memory result tree of a test run from lifecycle
// events and keeps suite counters aggregated while it grows.
//
// The Builder is a small state machine (NotStarted, Running, Finished). Each
// completed spec pushes its outcome up the parent chain, so a suite's nested
// counters are always the sum of its children's direct and nested counters
// without ever re-walking the tree. RunFinished hands back a Run, the explicit
// context every serializer reads from.
package tree
