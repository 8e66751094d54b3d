package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// InvocationError reports a scanner subprocess that exited non-zero.
// The message carries the captured stderr so callers can surface the
// tool's own diagnostics.
type InvocationError struct {
	Stderr string
}

func (e *InvocationError) Error() string {
	return e.Stderr
}

// ParseError reports scanner output that was not well-formed JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "failed to parse trivy JSON output: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Invoker runs a vulnerability scan against one image reference and
// returns the raw JSON report produced by the tool.
type Invoker interface {
	Scan(ctx context.Context, image string) (json.RawMessage, error)
}

// Trivy invokes the trivy binary as a blocking subprocess.
type Trivy struct {
	Path     string
	CacheDir string
	Timeout  time.Duration
	Log      *zap.SugaredLogger
}

func NewTrivy(path, cacheDir string, timeout time.Duration, log *zap.SugaredLogger) *Trivy {
	return &Trivy{Path: path, CacheDir: cacheDir, Timeout: timeout, Log: log}
}

// Scan runs `trivy image` for the given reference and returns stdout
// verbatim as a JSON document. The subprocess blocks the caller for its
// full duration; Timeout (when non-zero) bounds it through the context.
func (t *Trivy) Scan(ctx context.Context, image string) (json.RawMessage, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := t.args(image)
	t.Log.Debugw("invoking trivy", "path", t.Path, "args", args)

	cmd := exec.CommandContext(ctx, t.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "trivy returned non-zero exit code"
		}
		t.Log.Errorw("trivy failed", "image", image, "error", err, "stderr", stderr.String(), "stdout", stdout.String())
		return nil, &InvocationError{Stderr: msg}
	}

	var doc json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Log.Errorw("trivy produced malformed JSON", "image", image, "error", err)
		return nil, &ParseError{Err: err}
	}

	t.Log.Infow("scan completed", "image", image, "duration", time.Since(start))
	return doc, nil
}

// args builds the trivy command line. When the vulnerability database is
// already present under the cache dir the refresh is skipped, so repeated
// scans avoid redundant network fetches.
func (t *Trivy) args(image string) []string {
	args := []string{"image", "--quiet"}
	if t.dbReady() {
		args = append(args, "--skip-db-update")
	}
	return append(args, "--format", "json", image)
}

func (t *Trivy) dbReady() bool {
	if t.CacheDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(t.CacheDir, "db"))
	return err == nil
}
