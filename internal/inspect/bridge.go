package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Bridge drives the external platform client as a subprocess. The command is
// invoked with a subcommand per capability and must print a JSON Report on
// stdout for analyze. Stderr is passed through to the caller on failure.
type Bridge struct {
	command        string
	joinTimeout    time.Duration
	analyzeTimeout time.Duration
}

// Option configures the bridge.
type Option func(*Bridge)

// WithJoinTimeout bounds a single join invocation.
func WithJoinTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.joinTimeout = d
		}
	}
}

// WithAnalyzeTimeout bounds a single analyze invocation.
func WithAnalyzeTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.analyzeTimeout = d
		}
	}
}

// NewBridge constructs a subprocess-backed inspector.
func NewBridge(command string, opts ...Option) (*Bridge, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return nil, errors.New("inspector command is required")
	}
	bridge := &Bridge{
		command:        trimmed,
		joinTimeout:    time.Minute,
		analyzeTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(bridge)
	}
	return bridge, nil
}

// Join asks the external client to join the subject via its access token.
func (b *Bridge) Join(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return errors.New("access token is required")
	}
	runCtx, cancel := context.WithTimeout(ctx, b.joinTimeout)
	defer cancel()

	_, err := b.run(runCtx, "join", "--token", accessToken)
	if err != nil {
		return fmt.Errorf("join subject: %w", err)
	}
	return nil
}

// Analyze asks the external client for a full deep-analysis report.
func (b *Bridge) Analyze(ctx context.Context, subjectID int64) (*Report, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.analyzeTimeout)
	defer cancel()

	stdout, err := b.run(runCtx, "analyze", "--subject", strconv.FormatInt(subjectID, 10))
	if err != nil {
		return nil, fmt.Errorf("analyze subject: %w", err)
	}

	var report Report
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &report); err != nil {
		return nil, fmt.Errorf("parse analyze output: %w", err)
	}
	if report.SubjectID == 0 {
		report.SubjectID = subjectID
	}
	return &report, nil
}

// Leave asks the external client to detach from the subject. Best-effort;
// callers log failures and move on.
func (b *Bridge) Leave(ctx context.Context, subjectID int64) error {
	runCtx, cancel := context.WithTimeout(ctx, b.joinTimeout)
	defer cancel()

	_, err := b.run(runCtx, "leave", "--subject", strconv.FormatInt(subjectID, 10))
	if err != nil {
		return fmt.Errorf("leave subject: %w", err)
	}
	return nil
}

func (b *Bridge) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := commandContext(ctx, b.command, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%s: %w: %s", args[0], err, detail)
		}
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

var _ Inspector = (*Bridge)(nil)
