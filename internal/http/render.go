package http

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"blogverse/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"landing.html", "login.html", "register.html", "home.html", "create.html", "edit.html",
	"single.html", "my_blogs.html", "delete.html", "profile.html", "loading.html",
}

// Page es lo que recibe base.html: el estado del Shell mas los datos de la vista.
type Page struct {
	Title         string
	Authenticated bool
	User          domain.User
	CSRF          string
	Path          string
	View          any
}

// Renderer implementa render.HTMLRender de gin con un template por pagina sobre base.html.
type Renderer struct {
	templates map[string]*template.Template
}

func linebreaks(s string) template.HTML {
	s = template.HTMLEscapeString(s)

	paragraphs := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
	var result []string
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			p = strings.ReplaceAll(p, "\n", "<br>")
			result = append(result, "<p>"+p+"</p>")
		}
	}
	return template.HTML(strings.Join(result, "\n"))
}

func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func initial(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// NewRenderer parsea los templates embebidos.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"linebreaks": linebreaks,
		"excerpt":    excerpt,
		"formatDate": formatDate,
		"initial":    initial,
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = t
	}
	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	return render.HTML{Template: r.templates[name], Name: "base", Data: data}
}

func (r *Renderer) page(c *gin.Context, status int, name, title string, view any) {
	p := Page{Title: title, CSRF: csrfToken(c), Path: c.Request.URL.Path, View: view}
	if s, ok := GetSession(c); ok {
		st := s.State()
		if st.Authenticated() {
			p.Authenticated = true
			if st.User != nil {
				p.User = *st.User
			}
		}
	}
	c.HTML(status, name, p)
}
