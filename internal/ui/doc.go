// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing SoundCloud:
//  1. [ResultsView] : Browse search results (tracks or sets)
//  2. [DetailView] : Inspect a track's resolved metadata and selected stream
//  3. [ExportView] : Monitor real-time progress while a set exports
//  4. [DoneView] : Display export summary and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Progress updates flow through a channel from the ExportEngine,
// providing non-blocking status reporting during exports.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
