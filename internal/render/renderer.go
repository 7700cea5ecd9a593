// Package render writes the static map page.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wildflower-map/internal/domain"
)

//go:embed templates/map.html
var defaultTemplates embed.FS

// pageData is the template context. Each field is a JSON array literal.
type pageData struct {
	CoordsList   template.JS
	FlowerIDs    template.JS
	Descriptions template.JS
}

// Renderer executes the map template and replaces the output file.
type Renderer struct {
	tmpl       *template.Template
	outputPath string
	logger     *slog.Logger
}

// New loads the template from templatePath, falling back to the embedded
// page when that file does not exist.
func New(templatePath, outputPath string, logger *slog.Logger) (*Renderer, error) {
	tmpl, err := loadTemplate(templatePath, logger)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, outputPath: outputPath, logger: logger}, nil
}

func loadTemplate(path string, logger *slog.Logger) (*template.Template, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			tmpl, err := template.New(filepath.Base(path)).Parse(string(data))
			if err != nil {
				return nil, fmt.Errorf("parse template %s: %w", path, err)
			}
			return tmpl, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
		logger.Info("template not found, using embedded default", "path", path)
	}
	return template.ParseFS(defaultTemplates, "templates/map.html")
}

// Render writes the page for artifact to the output path, overwriting any
// previous output.
func (r *Renderer) Render(artifact domain.MapArtifact) error {
	data, err := newPageData(artifact)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := r.outputPath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp, r.outputPath); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}

	r.logger.Info("rendered map", "path", r.outputPath, "markers", artifact.Len())
	return nil
}

func newPageData(a domain.MapArtifact) (pageData, error) {
	coords, err := toJS(a.Coords)
	if err != nil {
		return pageData{}, err
	}
	labels, err := toJS(a.Labels)
	if err != nil {
		return pageData{}, err
	}
	descriptions, err := toJS(a.Descriptions)
	if err != nil {
		return pageData{}, err
	}
	return pageData{CoordsList: coords, FlowerIDs: labels, Descriptions: descriptions}, nil
}

// toJS encodes v as a JSON array, never null.
func toJS[T any](v []T) (template.JS, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode template data: %w", err)
	}
	return template.JS(b), nil
}
