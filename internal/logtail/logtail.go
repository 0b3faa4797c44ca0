// Package logtail follows the shared log file as it grows.
package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"
)

// Follow streams lines appended to path until ctx is done, then closes the
// returned channel. With fromStart the existing content is sent first.
// Truncation and rotation reopen the file, and a file that does not exist
// yet is waited for.
func Follow(ctx context.Context, path string, fromStart bool, logger *zap.Logger) (<-chan string, error) {
	whence := io.SeekEnd
	if fromStart {
		whence = io.SeekStart
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to tail log file: %w", err)
	}

	log := logger.Named("logtail")
	out := make(chan string)
	go func() {
		defer close(out)
		defer func() {
			// The tailer blocks on unread lines, so drain while it stops.
			go func() {
				for range t.Lines {
				}
			}()
			_ = t.Stop()
			t.Cleanup()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-t.Lines:
				if !ok {
					log.Debug("Log file tailer channel closed.", zap.Error(t.Err()))
					return
				}
				if line.Err != nil {
					log.Warn("Error reading from log file", zap.Error(line.Err))
					continue
				}
				select {
				case out <- line.Text:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// ReadAll returns every line currently in path. A missing file has no lines.
func ReadAll(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// Truncate empties path, creating it when missing.
func Truncate(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
