// package formatter provides functions to export movie lists to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat maps a user-supplied name to a [Format]. "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// Export is a movie list ready to be written out.
type Export struct {
	Kind       string             `json:"kind"`
	Username   string             `json:"username"`
	ExportedAt time.Time          `json:"exportedAt"`
	Movies     []models.MovieView `json:"movies"`
}

// Title is the heading used by the Markdown and text formats.
func (e *Export) Title() string {
	if e.Username == "" {
		return "Movie " + e.Kind
	}
	return fmt.Sprintf("%s's %s", e.Username, e.Kind)
}

// Filename returns the default file name for e in format f: {username}_{kind}{ext}.
func (e *Export) Filename(f Format) string {
	base := e.Kind
	if e.Username != "" {
		base = e.Username + "_" + e.Kind
	}
	return sanitize(base) + f.Extension()
}

// ExportToCSV converts an Export to CSV format with columns: ID, Title, Genre, Director, Featured, Favorite, ImagePath
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Genre", "Director", "Featured", "Favorite", "ImagePath"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range export.Movies {
		record := []string{
			m.ID,
			m.Title,
			m.Genre.Name,
			m.Director.Name,
			strconv.FormatBool(m.Featured),
			strconv.FormatBool(m.IsFavorite),
			m.ImagePath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to Markdown.
//
// posters maps movie IDs to local image paths; movies without an entry are listed without an image.
func ExportToMarkdown(export *Export, posters map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title())
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(export.Movies))

	for i, m := range export.Movies {
		marker := ""
		if m.IsFavorite {
			marker = " ★"
		}
		fmt.Fprintf(&buf, "## %d. %s%s\n\n", i+1, m.Title, marker)

		if p, ok := posters[m.ID]; ok && p != "" {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", m.Title, p)
		}
		if m.Genre.Name != "" {
			fmt.Fprintf(&buf, "**Genre**: %s\n", m.Genre.Name)
		}
		if m.Director.Name != "" {
			fmt.Fprintf(&buf, "**Director**: %s\n", m.Director.Name)
		}
		if m.Description != "" {
			fmt.Fprintf(&buf, "\n%s\n", m.Description)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.Title())
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(export.Movies))

	for i, m := range export.Movies {
		fmt.Fprintf(&buf, "%d. %s", i+1, m.Title)
		if m.Director.Name != "" {
			fmt.Fprintf(&buf, " - %s", m.Director.Name)
		}
		if m.Genre.Name != "" {
			fmt.Fprintf(&buf, " [%s]", m.Genre.Name)
		}
		if m.IsFavorite {
			buf.WriteString(" *")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts an Export to indented JSON
func ExportToJSON(export *Export) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render converts export to the given format.
func Render(export *Export, f Format, posters map[string]string) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, posters)
	case FormatText:
		return ExportToText(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteExport renders export and writes it to filePath, creating parent directories.
//
// filePath is treated as a directory when it exists as one or has no extension; the file is then
// written as {filePath}/{Filename}. An empty filePath writes {Filename} to the working directory.
func WriteExport(export *Export, f Format, filePath string, posters map[string]string) (string, error) {
	filePath = ResolveExportPath(export, f, filePath)

	data, err := Render(export, f, posters)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return filePath, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
//
// A nil client uses a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// PosterFilename returns {movieID}{ext}, taking the extension from the image URL and defaulting to .jpg.
func PosterFilename(m models.Movie) string {
	raw := m.ImagePath
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	ext := path.Ext(raw)
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return sanitize(m.ID) + strings.ToLower(ext)
}

// WritePoster downloads the poster of m into dir and returns the written path.
func WritePoster(ctx context.Context, client *http.Client, m models.Movie, dir string) (string, error) {
	if strings.TrimSpace(m.ID) == "" {
		return "", fmt.Errorf("%w: %q has no movie ID", shared.ErrInvalidArgument, m.Title)
	}
	if m.ImagePath == "" {
		return "", fmt.Errorf("%w: %s has no image", shared.ErrInvalidArgument, m.Title)
	}

	data, err := DownloadImage(ctx, client, m.ImagePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	p := filepath.Join(dir, PosterFilename(m))
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save poster: %w", err)
	}
	return p, nil
}

// PosterManifest summarizes a poster download run.
type PosterManifest struct {
	Directory  string            `json:"directory"`
	Downloaded map[string]string `json:"downloaded"`
	Failed     map[string]string `json:"failed,omitempty"`
}

// WritePosterManifest writes m as JSON to {m.Directory}/posters.json and returns the path.
func WritePosterManifest(m *PosterManifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	p := filepath.Join(m.Directory, "posters.json")
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return p, nil
}

// ResolveExportPath returns the file [WriteExport] writes for p.
//
// An empty p is the default filename in the working directory. An existing directory, or a path
// without an extension, receives the default filename inside it.
func ResolveExportPath(export *Export, f Format, p string) string {
	if p == "" {
		return export.Filename(f)
	}
	if isDir(p) {
		return filepath.Join(p, export.Filename(f))
	}
	return p
}

func isDir(p string) bool {
	if info, err := os.Stat(p); err == nil {
		return info.IsDir()
	}
	return filepath.Ext(p) == ""
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
