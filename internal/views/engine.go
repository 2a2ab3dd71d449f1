// Package views renders the HTML pages. Templates are embedded and parsed once into one
// template set per page, each sharing the layout and partials.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

//go:embed templates
var templateFS embed.FS

// Engine implements fiber.Views over the embedded templates.
type Engine struct {
	mu     sync.RWMutex
	fsys   fs.FS
	funcs  template.FuncMap
	pages  map[string]*template.Template
	loaded bool
}

// New returns an engine over the embedded templates.
func New() *Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return NewWithFS(sub)
}

// NewWithFS returns an engine over fsys, laid out as layouts/, partials/ and page directories.
func NewWithFS(fsys fs.FS) *Engine {
	return &Engine{
		fsys:  fsys,
		funcs: DefaultFuncs(),
		pages: map[string]*template.Template{},
	}
}

// DefaultFuncs are the helpers available to every template.
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"excerpt":  Excerpt,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Mon Jan 2 2006, 3:04 PM")
		},
		"isoDate": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"checked": func(selected map[uint]bool, id uint) bool { return selected[id] },
	}
}

// Load parses every page together with the shared layouts and partials.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	shared, err := e.sharedFiles()
	if err != nil {
		return err
	}

	pages := map[string]*template.Template{}
	err = fs.WalkDir(e.fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		if strings.HasPrefix(p, "layouts/") || strings.HasPrefix(p, "partials/") {
			return nil
		}
		name := strings.TrimSuffix(p, ".html")
		files := append(append([]string{}, shared...), p)
		t, err := template.New(path.Base(p)).Funcs(e.funcs).ParseFS(e.fsys, files...)
		if err != nil {
			return fmt.Errorf("parse view %s: %w", name, err)
		}
		pages[name] = t
		return nil
	})
	if err != nil {
		return err
	}

	e.pages = pages
	e.loaded = true
	return nil
}

func (e *Engine) sharedFiles() ([]string, error) {
	var files []string
	for _, dir := range []string{"layouts", "partials"} {
		matches, err := fs.Glob(e.fsys, dir+"/*.html")
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// Render executes page name into w. With a layout, the layout template is executed and pulls
// the page in through its "content" block; without one only "content" is rendered.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	e.mu.RLock()
	loaded := e.loaded
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.pages[strings.TrimSuffix(name, ".html")]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("view %q not found", name)
	}

	if len(layout) > 0 && layout[0] != "" {
		return t.ExecuteTemplate(w, layout[0], binding)
	}
	return t.ExecuteTemplate(w, "content", binding)
}

// Has reports whether a page named name was loaded.
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.pages[name]
	return ok
}
