package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/rapat/domain/repositories"
)

const listTimeout = 3 * time.Second

// CommandWindows enumerates windows by running an external listing command
// such as `wmctrl -l` and treating each output line as one window title.
// Window enumeration is the only platform-specific piece of the detection
// path, so it hides behind a configured command.
type CommandWindows struct {
	command []string
	logger  *zap.Logger
}

var _ repositories.WindowLister = (*CommandWindows)(nil)

func NewCommandWindows(command []string, logger *zap.Logger) *CommandWindows {
	return &CommandWindows{command: command, logger: logger}
}

// ListWindows runs the listing command and returns one window per
// non-empty output line.
func (w *CommandWindows) ListWindows() ([]repositories.Window, error) {
	if len(w.command) == 0 {
		return nil, fmt.Errorf("no window listing command configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, w.command[0], w.command[1:]...).Output()
	if err != nil {
		return nil, fmt.Errorf("window listing command failed: %w", err)
	}

	var windows []repositories.Window
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		windows = append(windows, repositories.Window{Title: line})
	}
	return windows, nil
}
