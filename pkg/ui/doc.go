// Package ui holds the plain console front end: colored output helpers,
// the progress display and desktop notifications. Both ProgressDisplay and
// RunNotifier are fetcher.Reporter implementations.
package ui
