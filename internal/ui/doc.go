// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI drives a single capsule run end to end:
//  1. [RunView] : Watch chart loading and track resolution with live progress
//  2. [ResultView] : Display the created playlist and any unmatched entries
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the CapsuleEngine, providing
// non-blocking status reporting while the resolver works.
package ui
