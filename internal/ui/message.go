package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flix/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogLoaded MsgKind = iota
	MsgFavoriteToggled
)

type catalogLoaded struct {
	catalog *tasks.Catalog
	err     error
}

type favoriteToggled struct {
	movieID string
	result  *tasks.ToggleResult
	err     error
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(c *tasks.Catalog, err error) Msg {
	return Msg{kind: MsgCatalogLoaded, data: catalogLoaded{catalog: c, err: err}}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]
func favoriteToggledMsg(movieID string, res *tasks.ToggleResult, err error) Msg {
	return Msg{kind: MsgFavoriteToggled, data: favoriteToggled{movieID: movieID, result: res, err: err}}
}
