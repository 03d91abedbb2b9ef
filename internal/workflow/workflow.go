// Package workflow persists model-generated scripts and runs them in a
// separate process group with a hard timeout.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ksfoundation/oneshot/internal/config"
	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

// Status classifies how a run ended.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusRuntimeError Status = "runtime_error"
	StatusSystemError  Status = "system_error"
)

// Result is the outcome of one run.
type Result struct {
	RunID    string        `json:"run_id"`
	Filename string        `json:"filename"`
	Status   Status        `json:"status"`
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// denyPatterns reject payloads that try to damage the host.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\s+/`),          // rm -rf /
	regexp.MustCompile(`(?i)\b(mkfs|diskpart)\b`),            // disk ops
	regexp.MustCompile(`(?i)\bdd\s+if=`),                     // dd
	regexp.MustCompile(`(?i)>\s*/dev/sd`),                    // write to disk
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`), // power control
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`),                // fork bomb
	regexp.MustCompile(`(?i)os\.fork\(\)\s*$`),               // bare fork loops
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_.-]`)

// Executor writes and runs scripts.
type Executor struct {
	dir         string
	interpreter string
	timeout     time.Duration
	maxOutput   int
}

// NewExecutor returns an Executor for cfg.
func NewExecutor(cfg toolcfg.WorkflowConfig) *Executor {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	interp := cfg.Interpreter
	if interp == "" {
		interp = "python3"
	}
	maxOut := cfg.MaxOutput
	if maxOut <= 0 {
		maxOut = 10000
	}
	return &Executor{
		dir:         config.ExpandHome(cfg.Dir),
		interpreter: interp,
		timeout:     timeout,
		maxOutput:   maxOut,
	}
}

// Filename derives the script name from a task name: spaces become
// underscores, the name is lowercased and ".py" appended. Path separators
// and other unsafe characters are replaced.
func Filename(task string) (string, error) {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(task), " ", "_"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return "", errors.New("task name is empty")
	}
	return name + ".py", nil
}

// Run writes code under the workflow directory and executes it. Failures to
// write or start the script and timeouts are reported as StatusSystemError in
// the result; the returned error is non-nil only for invalid input.
func (e *Executor) Run(ctx context.Context, task, code string) (Result, error) {
	filename, err := Filename(task)
	if err != nil {
		return Result{}, err
	}
	res := Result{RunID: uuid.NewString(), Filename: filename, ExitCode: -1}

	if guard := guardCode(code); guard != "" {
		res.Status = StatusSystemError
		res.Output = guard
		return res, nil
	}

	dir, err := filepath.Abs(e.dir)
	if err != nil {
		res.Status = StatusSystemError
		res.Output = fmt.Sprintf("resolve workflow dir: %v", err)
		return res, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Status = StatusSystemError
		res.Output = fmt.Sprintf("create workflow dir: %v", err)
		return res, nil
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		res.Status = StatusSystemError
		res.Output = fmt.Sprintf("write script: %v", err)
		return res, nil
	}

	slog.Info("workflow: running", "file", filename, "run", res.RunID)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.interpreter, path)
	cmd.Dir = dir
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	res.Duration = time.Since(start)

	switch {
	case runCtx.Err() != nil:
		res.Status = StatusSystemError
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			res.Output = fmt.Sprintf("timed out after %v", e.timeout)
		} else {
			res.Output = fmt.Sprintf("cancelled: %v", ctx.Err())
		}
	case runErr == nil:
		res.Status = StatusSuccess
		res.ExitCode = 0
		res.Output = e.truncate(stdout.String())
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.Status = StatusRuntimeError
			res.ExitCode = exitErr.ExitCode()
			res.Output = e.truncate(stderr.String())
		} else {
			res.Status = StatusSystemError
			res.Output = runErr.Error()
		}
	}

	slog.Debug("workflow: finished", "file", filename, "status", res.Status, "duration", res.Duration)
	return res, nil
}

func (e *Executor) truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= e.maxOutput {
		return s
	}
	cut := e.maxOutput
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("\n... (truncated, %d more bytes)", len(s)-cut)
}

func guardCode(code string) string {
	for _, p := range denyPatterns {
		if p.MatchString(code) {
			return "blocked by safety guard (dangerous pattern detected)"
		}
	}
	return ""
}
