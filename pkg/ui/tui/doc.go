// Package tui is the full-screen terminal interface for a fetch run.
//
// A TUI is both a fetcher.Reporter, turning engine events into bubbletea
// messages, and a control.Listener: "s" skips the video being downloaded,
// "q" or ctrl+c stops the run after the current checkpoint is written.
package tui
