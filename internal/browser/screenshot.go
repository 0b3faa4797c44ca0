package browser

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// Screenshots names and stores failure screenshots under one directory.
type Screenshots struct {
	dir string
	now func() time.Time
}

func NewScreenshots(dir string) *Screenshots {
	if expanded, err := homedir.Expand(dir); err == nil {
		dir = expanded
	}
	return &Screenshots{dir: dir, now: time.Now}
}

// Path returns where a screenshot called name taken now would be written.
func (s *Screenshots) Path(name string) string {
	return filepath.Join(s.dir, SanitizeName(name)+"_"+s.now().Format("20060102-150405")+".png")
}

// Capture saves a screenshot of page. It runs on a detached context so a
// cancelled run can still record its final state.
func (s *Screenshots) Capture(ctx context.Context, page Page, name string) (string, error) {
	path := s.Path(name)
	capCtx, cancel := context.WithTimeout(Detach(ctx), 15*time.Second)
	defer cancel()
	if err := page.Screenshot(capCtx, path); err != nil {
		return "", err
	}
	return path, nil
}

// SanitizeName lowercases name and replaces anything outside [a-z0-9_-]
// with an underscore, e.g. "Student Feedback" becomes "student_feedback".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "screenshot"
	}
	return b.String()
}
