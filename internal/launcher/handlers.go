package launcher

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/xkilldash9x/seeqlo-runner/internal/logtail"
	"github.com/xkilldash9x/seeqlo-runner/internal/store"
)

const maxRunsLimit = 500

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type scriptInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("Failed to write response", zap.Error(err))
	}
}

// handleRunScript handles GET /run-script?type=<key>.
func (s *Server) handleRunScript(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("type")
	if _, ok := s.lookup(key); !ok {
		s.logger.Warn("Rejected run request", zap.String("type", key), zap.Error(ErrInvalidScript))
		s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid script type"})
		return
	}

	if !s.limiter(key).Allow() {
		s.writeJSON(w, http.StatusTooManyRequests,
			messageResponse{Message: fmt.Sprintf("Too many runs of %s, retry later", key)})
		return
	}

	pid, err := s.spawner.Spawn(r.Context(), key)
	if err != nil {
		s.logger.Error("Failed to spawn script", zap.String("script", key), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: err.Error()})
		return
	}

	s.logger.Info("Spawned script", zap.String("script", key), zap.Int("pid", pid))
	s.writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Running %s...", key)})
}

// handleClearLogs handles POST /clear-logs.
func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := logtail.Truncate(s.logFile); err != nil {
		s.logger.Error("Failed to clear log file", zap.String("path", s.logFile), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Logs cleared successfully."})
}

// handleLogFile handles GET /automation_logs.json. A log file that does not
// exist yet is served as an empty body.
func (s *Server) handleLogFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	f, err := os.Open(s.logFile)
	if errors.Is(err, os.ErrNotExist) {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// handleScripts handles GET /scripts.
func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	all := s.scripts()
	out := make([]scriptInfo, 0, len(all))
	for _, sc := range all {
		out = append(out, scriptInfo{Key: sc.Key, Name: sc.Name, Role: string(sc.Role), Description: sc.Description})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleRuns handles GET /runs?limit=n.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "run history is not configured"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list runs", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}
