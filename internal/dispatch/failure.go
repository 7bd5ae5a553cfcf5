package dispatch

import (
	"fmt"
	"strings"

	"github.com/dazzle-tools/sesslog/internal/hostevent"
)

// errorPatterns are matched case-insensitively against a command's output
// when the exit code alone does not flag a failure.
var errorPatterns = []string{
	"command not found",
	"no such file or directory",
	"permission denied",
	"segmentation fault",
	"fatal:",
	"panic:",
	"traceback (most recent call last)",
}

// detectFailure decides whether a completed shell command failed and, if so,
// why. Detection is disabled entirely unless failure capture is configured.
func (d *Dispatcher) detectFailure(ev *hostevent.Event) (reason string, failed bool) {
	if !d.cfg.FailureCapture.Enabled {
		return "", false
	}

	if code := shellExitCode(ev); code != 0 {
		return fmt.Sprintf("exit %d", code), true
	}

	haystack := strings.ToLower(ev.ResponseString("stdout") + "\n" + ev.ResponseString("stderr"))
	for _, pat := range errorPatterns {
		if strings.Contains(haystack, pat) {
			return fmt.Sprintf("output matched %q", pat), true
		}
	}
	return "", false
}

func shellExitCode(ev *hostevent.Event) int {
	if ev.ToolResponse == nil {
		return 0
	}
	switch v := ev.ToolResponse["exit_code"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
