package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// Spawner starts a script in its own process and returns the process ID
// without waiting for it.
type Spawner interface {
	Spawn(ctx context.Context, key string) (int, error)
}

// ProcessSpawner runs `<Executable> <Args...> run <key>` detached from the
// launcher. The child is reaped in the background; the launcher never
// waits for it or cancels it.
type ProcessSpawner struct {
	// Executable defaults to the running binary.
	Executable string
	// Args are placed before the run subcommand, e.g. --config.
	Args   []string
	Dir    string
	Logger *zap.Logger
	// OnExit, when set, is called once the child has exited.
	OnExit func(key string, pid int, err error)
}

func (p *ProcessSpawner) Spawn(_ context.Context, key string) (int, error) {
	exe := p.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("could not resolve executable: %w", err)
		}
		exe = self
	}

	args := append(append([]string{}, p.Args...), "run", key)
	// Not bound to the request context: the child outlives the request.
	cmd := exec.Command(exe, args...)
	cmd.Dir = p.Dir
	cmd.Env = os.Environ()
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", key, err)
	}
	pid := cmd.Process.Pid

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		err := cmd.Wait()
		if err != nil {
			logger.Warn("Script process exited with error", zap.String("script", key), zap.Int("pid", pid), zap.Error(err))
		} else {
			logger.Info("Script process exited", zap.String("script", key), zap.Int("pid", pid))
		}
		if p.OnExit != nil {
			p.OnExit(key, pid, err)
		}
	}()
	return pid, nil
}
