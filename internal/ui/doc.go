// Package ui implements an interactive movie browser using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [LoadingView] : The catalog is being fetched
//  2. [MovieListView] : Browse the catalog, favorites are marked with ★
//  3. [DetailView] : Genre, director and description of the selected movie
//
// Favorites are toggled with f through [tasks.Synchronizer], so the TUI and the CLI share one session.
// The list can be narrowed to favorites with v and filtered by title with /.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
