package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBinary is the claude CLI binary name resolved from PATH.
const DefaultBinary = "claude"

// ClaudeCLI implements Executor by shelling out to the Claude Code CLI in
// non-interactive mode. The prompt is delivered via stdin to avoid
// TTY-related issues that can cause the CLI to exit without processing it.
type ClaudeCLI struct {
	binary       string
	systemPrompt string
}

// ClaudeOption configures a ClaudeCLI.
type ClaudeOption func(*ClaudeCLI)

// WithBinary overrides the CLI binary path.
func WithBinary(path string) ClaudeOption {
	return func(c *ClaudeCLI) {
		c.binary = path
	}
}

// WithSystemPrompt sets a system prompt passed via --system-prompt.
func WithSystemPrompt(prompt string) ClaudeOption {
	return func(c *ClaudeCLI) {
		c.systemPrompt = prompt
	}
}

// NewClaudeCLI creates a ClaudeCLI executor.
func NewClaudeCLI(opts ...ClaudeOption) *ClaudeCLI {
	c := &ClaudeCLI{binary: DefaultBinary}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the claude CLI with --print and returns its stdout. The call
// is cancelled when ctx is done, so callers control the timeout.
func (c *ClaudeCLI) Execute(ctx context.Context, prompt, workDir string) (string, error) {
	args := []string{"--print", "--output-format", "text"}
	if c.systemPrompt != "" {
		args = append(args, "--system-prompt", c.systemPrompt)
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = workDir
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("claude execution cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("claude execution failed: %w (stderr: %s)", err, firstLine(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// firstLine truncates multi-line stderr output for error wrapping.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
