package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/flix/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.MovieView] to implement [list.Item].
type movieItem struct {
	movie models.MovieView
}

func (i movieItem) FilterValue() string { return i.movie.Title }

func (i movieItem) Title() string {
	if i.movie.IsFavorite {
		return "★ " + i.movie.Title
	}
	return i.movie.Title
}

func (i movieItem) Description() string {
	parts := make([]string, 0, 2)
	if i.movie.Genre.Name != "" {
		parts = append(parts, i.movie.Genre.Name)
	}
	if i.movie.Director.Name != "" {
		parts = append(parts, i.movie.Director.Name)
	}
	return strings.Join(parts, " • ")
}

func movieItems(views []models.MovieView) []list.Item {
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = movieItem{movie: v}
	}
	return items
}
