package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	MovieListView
	DetailView
)

// CatalogLoader loads the movie catalog for the session user. Implemented by [tasks.Library].
type CatalogLoader interface {
	Catalog(ctx context.Context, opts tasks.LoadOpts) (*tasks.Catalog, error)
}

// FavoriteToggler flips the favorite flag of a movie. Implemented by [tasks.Synchronizer].
type FavoriteToggler interface {
	Toggle(ctx context.Context, catalog *tasks.Catalog, movieID string) (*tasks.ToggleResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	loader  CatalogLoader
	toggler FavoriteToggler
	opts    tasks.LoadOpts

	width  int
	height int

	catalog       *tasks.Catalog
	movieList     list.Model
	selected      models.MovieView
	favoritesOnly bool
	pending       map[string]bool

	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, loader CatalogLoader, toggler FavoriteToggler, opts tasks.LoadOpts) *Model {
	movieList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	movieList.Title = "Movies"
	movieList.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      LoadingView,
		loader:    loader,
		toggler:   toggler,
		opts:      opts,
		movieList: movieList,
		pending:   make(map[string]bool),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by loading the catalog.
func (m *Model) Init() tea.Cmd {
	return m.loadCatalog()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movieList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			switch {
			case key.Matches(msg, m.keys.quit):
				return m, tea.Quit
			case m.err != nil && key.Matches(msg, m.keys.reload):
				m.err = nil
				return m, m.loadCatalog()
			}
			return m, nil
		case MovieListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgCatalogLoaded:
			return m.onCatalogLoaded(msg.data.(catalogLoaded))
		case MsgFavoriteToggled:
			return m.onFavoriteToggled(msg.data.(favoriteToggled))
		}
	}

	var cmd tea.Cmd
	if m.view == MovieListView {
		m.movieList, cmd = m.movieList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
		}
		return styles.title.Render("Loading movies...")
	case MovieListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

// Err returns the last error seen by the model, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.movieList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.movieList, cmd = m.movieList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.movieList.SelectedItem().(movieItem); ok {
			m.selected = item.movie
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if item, ok := m.movieList.SelectedItem().(movieItem); ok {
			return m, m.toggle(item.movie)
		}
		return m, nil
	case key.Matches(msg, m.keys.favorites):
		m.favoritesOnly = !m.favoritesOnly
		return m, m.refreshItems()
	case key.Matches(msg, m.keys.reload):
		m.view = LoadingView
		m.status = ""
		return m, m.loadCatalog()
	}

	var cmd tea.Cmd
	m.movieList, cmd = m.movieList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MovieListView
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggle(m.selected)
	}
	return m, nil
}

func (m *Model) onCatalogLoaded(msg catalogLoaded) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		if errors.Is(msg.err, shared.ErrNoSession) {
			return m, tea.Quit
		}
		m.view = LoadingView
		return m, nil
	}

	m.err = nil
	m.catalog = msg.catalog
	m.view = MovieListView
	if at := msg.catalog.CachedAt(); !at.IsZero() {
		m.status = styles.warn.Render(fmt.Sprintf("Showing catalog cached %s", at.Local().Format(time.DateTime)))
	}
	return m, m.refreshItems()
}

func (m *Model) onFavoriteToggled(msg favoriteToggled) (tea.Model, tea.Cmd) {
	delete(m.pending, msg.movieID)

	switch {
	case msg.result == nil && msg.err != nil:
		m.status = styles.err.Render(fmt.Sprintf("Could not update favorites: %v", msg.err))
	case msg.result != nil && msg.result.Outcome == tasks.NoSession:
		m.status = styles.warn.Render("No session. Log in with `flix auth login` first.")
	case msg.err != nil:
		m.status = styles.warn.Render(fmt.Sprintf("Favorite saved but the session could not be updated: %v", msg.err))
	default:
		title := msg.movieID
		if mv, ok := m.catalog.Movie(msg.movieID); ok {
			title = mv.Title
		}
		verb := "Added"
		if msg.result.Outcome == tasks.Removed {
			verb = "Removed"
		}
		m.status = styles.ok.Render(fmt.Sprintf("%s %s", verb, title))
	}

	if mv, ok := m.catalog.Movie(m.selected.ID); ok {
		m.selected = mv
	}
	return m, m.refreshItems()
}

func (m *Model) refreshItems() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	views := m.catalog.Views()
	title := "Movies"
	if m.favoritesOnly {
		views = m.catalog.Favorites()
		title = "Favorite movies"
	}
	m.movieList.Title = fmt.Sprintf("%s (%d)", title, len(views))
	return m.movieList.SetItems(movieItems(views))
}

func (m *Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		c, err := m.loader.Catalog(m.ctx, m.opts)
		return catalogLoadedMsg(c, err)
	}
}

func (m *Model) toggle(movie models.MovieView) tea.Cmd {
	if m.catalog == nil || m.pending[movie.ID] {
		return nil
	}
	m.pending[movie.ID] = true
	m.status = styles.help.Render(fmt.Sprintf("Saving %s...", movie.Title))

	catalog := m.catalog
	return func() tea.Msg {
		res, err := m.toggler.Toggle(m.ctx, catalog, movie.ID)
		return favoriteToggledMsg(movie.ID, res, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.favorite, m.keys.favorites, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n%s", m.movieList.View(), m.status, helpView)
}

func (m *Model) renderDetail() string {
	mv := m.selected
	var b strings.Builder

	title := mv.Title
	if mv.IsFavorite {
		title = "★ " + title
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if mv.Genre.Name != "" {
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render("Genre:"), mv.Genre.Name)
		if mv.Genre.Description != "" {
			fmt.Fprintf(&b, "  %s\n", mv.Genre.Description)
		}
	}
	if mv.Director.Name != "" {
		fmt.Fprintf(&b, "%s %s%s\n", styles.label.Render("Director:"), mv.Director.Name, lifespan(mv.Director))
		if mv.Director.Bio != "" {
			fmt.Fprintf(&b, "  %s\n", mv.Director.Bio)
		}
	}
	if mv.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", mv.Description)
	}
	if mv.ImagePath != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.help.Render(mv.ImagePath))
	}

	helpKeys := []key.Binding{m.keys.favorite, m.keys.back, m.keys.quit}
	fmt.Fprintf(&b, "\n%s\n%s", m.status, m.help.ShortHelpView(helpKeys))
	return b.String()
}

func lifespan(d models.Director) string {
	switch {
	case d.Birthdate == nil:
		return ""
	case d.Deathdate == nil:
		return fmt.Sprintf(" (b. %s)", d.Birthdate)
	default:
		return fmt.Sprintf(" (%s – %s)", d.Birthdate, d.Deathdate)
	}
}
