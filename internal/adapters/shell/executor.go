// Package shell runs external processes for the resolver.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CommandRunner = (*Runner)(nil)

// Runner implements ports.CommandRunner using os/exec.
type Runner struct {
	logger ports.Logger
	env    func() []string
}

// NewRunner creates a new Runner inheriting an allow-listed subset of the process environment.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger: logger,
		env:    os.Environ,
	}
}

// Run executes the command in dir and captures its output.
// Output lines are streamed to the vertex carried by ctx, or to the logger when there is none.
func (r *Runner) Run(ctx context.Context, dir string, args []string) (*ports.CommandResult, error) {
	if len(args) == 0 {
		return nil, zerr.New("empty command")
	}

	name := args[0]
	cmdEnv := resolveEnvironment(r.env())

	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args[1:]...) //nolint:gosec // user provided command

	// exec.CommandContext sets Args[0] to the executable path. Keep the name as invoked.
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = cmdEnv

	var stdout, stderr bytes.Buffer
	var stdoutStream, stderrStream io.Writer
	if v, ok := ports.VertexFromContext(ctx); ok {
		stdoutStream, stderrStream = v.Stdout(), v.Stderr()
	} else {
		stdoutLog := &logWriter{logger: r.logger, level: "info"}
		stderrLog := &logWriter{logger: r.logger, level: "warn"}
		defer func() {
			_ = stdoutLog.Close()
			_ = stderrLog.Close()
		}()
		stdoutStream, stderrStream = stdoutLog, stderrLog
	}
	cmd.Stdout = io.MultiWriter(&stdout, stdoutStream)
	cmd.Stderr = io.MultiWriter(&stderr, stderrStream)

	err := cmd.Run()
	result := &ports.CommandResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return result, zerr.With(zerr.Wrap(err, "failed to run command"), "command", name)
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Warn(msg)
	}
}

// allowListedEnvVars are the system environment variables inherited by the resolver.
var allowListedEnvVars = map[string]struct{}{
	"HOME":        {},
	"TERM":        {},
	"USER":        {},
	"PATH":        {},
	"HTTP_PROXY":  {},
	"HTTPS_PROXY": {},
	"NO_PROXY":    {},
	"http_proxy":  {},
	"https_proxy": {},
	"no_proxy":    {},
}

// allowListedEnvPrefixes lets resolver and registry configuration through.
var allowListedEnvPrefixes = []string{
	"YARN_",
	"NPM_CONFIG_",
	"npm_config_",
	"NODE_",
}

func resolveEnvironment(sysEnv []string) []string {
	result := make([]string, 0, len(sysEnv))
	for _, entry := range sysEnv {
		k, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if allowed(k) {
			result = append(result, entry)
		}
	}
	return result
}

func allowed(key string) bool {
	if _, ok := allowListedEnvVars[key]; ok {
		return true
	}
	for _, prefix := range allowListedEnvPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
