package launcher

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/activities"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

type roleGroup struct {
	Role    activities.Role
	Label   string
	Scripts []activities.Script
}

type indexData struct {
	Title  string
	Groups []roleGroup
}

func (s *Server) indexData() indexData {
	groups := []roleGroup{
		{Role: activities.RoleStudent, Label: "Student"},
		{Role: activities.RoleTeacher, Label: "Teacher"},
	}
	for _, sc := range s.scripts() {
		for i := range groups {
			if groups[i].Role == sc.Role {
				groups[i].Scripts = append(groups[i].Scripts, sc)
			}
		}
	}
	return indexData{Title: "Seeqlo Automation Launcher", Groups: groups}
}

// handleIndex handles GET /. An index.html in the static directory wins
// over the built-in dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StaticDir != "" {
		custom := filepath.Join(s.cfg.StaticDir, "index.html")
		if info, err := os.Stat(custom); err == nil && !info.IsDir() {
			http.ServeFile(w, r, custom)
			return
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, s.indexData()); err != nil {
		s.logger.Error("Failed to render index", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
